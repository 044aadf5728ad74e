// Package suite holds the sample URLs with known accents and runs them
// through an analyzer as a smoke test against live models.
package suite

import (
	"context"
	"fmt"
	"io"

	"accent-analyzer/internal/models"
	"accent-analyzer/internal/report"
	"accent-analyzer/internal/service/pipeline"
)

// Case is one sample with the accent it should produce.
type Case struct {
	Description string
	URL         string
	Expected    models.Accent
	// MinConfidence, when set, is the confidence the detection must exceed.
	MinConfidence float64
}

var cases = []Case{
	{"American accent (US)", "https://www.youtube.com/watch?v=3FtGOHUkEzI", models.AccentAmerican, 85},
	{"British accent (UK)", "https://www.youtube.com/watch?v=qYlmFISLO9M", models.AccentBritish, 0},
	{"Australian accent", "https://www.youtube.com/watch?v=4LvWYP7839Q", models.AccentAustralian, 0},
	{"Indian accent", "https://www.youtube.com/watch?v=QYlVJlmjLEc", models.AccentIndian, 0},
	{"TED Talk (direct MP4)", "https://download.ted.com/talks/KateDarling_2018S.mp4", models.AccentAmerican, 0},
}

// Expectation describes what the case requires.
func (c Case) Expectation() string {
	if c.MinConfidence > 0 {
		return fmt.Sprintf("%s above %.0f%%", c.Expected, c.MinConfidence)
	}
	return c.Expected.String()
}

// Cases returns a copy of the sample set.
func Cases() []Case {
	out := make([]Case, len(cases))
	copy(out, cases)
	return out
}

// Examples returns the samples as links for the web UI.
func Examples() []report.Example {
	out := make([]report.Example, len(cases))
	for i, c := range cases {
		out[i] = report.Example{Title: c.Description, URL: c.URL, Expected: c.Expected.String()}
	}
	return out
}

// Analyzer is the part of the pipeline the suite needs.
type Analyzer interface {
	Analyze(ctx context.Context, req *models.AnalysisRequest, progress pipeline.ProgressFunc) (*models.AnalysisReport, error)
}

// Result is the outcome of one case.
type Result struct {
	Case   Case
	Report *models.AnalysisReport
	Err    error
}

// Passed reports whether the detected accent matched with enough
// confidence.
func (r Result) Passed() bool {
	return r.Err == nil &&
		r.Report != nil &&
		r.Report.Verdict == models.VerdictAccent &&
		r.Report.Accent != nil &&
		r.Report.Accent.Accent == r.Case.Expected &&
		(r.Case.MinConfidence == 0 || r.Report.Accent.Confidence > r.Case.MinConfidence)
}

// Actual describes what was detected.
func (r Result) Actual() string {
	switch {
	case r.Err != nil:
		return "error: " + r.Err.Error()
	case r.Report == nil:
		return "no report"
	}
	switch r.Report.Verdict {
	case models.VerdictNotEnglish:
		return "not English (" + r.Report.DetectedLanguage + ")"
	case models.VerdictAccent:
		if r.Report.Accent == nil {
			return "no accent"
		}
		return fmt.Sprintf("%s (%.1f%%)", r.Report.Accent.Accent, r.Report.Accent.Confidence)
	default:
		return r.Report.Verdict.String()
	}
}

// Summary collects the results of a run.
type Summary struct {
	Results []Result
}

// Passed counts passing cases.
func (s Summary) Passed() int {
	n := 0
	for _, r := range s.Results {
		if r.Passed() {
			n++
		}
	}
	return n
}

// OK reports whether every case passed.
func (s Summary) OK() bool {
	return len(s.Results) > 0 && s.Passed() == len(s.Results)
}

// Run analyzes each case in order. onResult, if set, sees each result as
// it completes. Cases keep running after a failure; Run stops early only
// when ctx is done.
func Run(ctx context.Context, a Analyzer, cs []Case, onResult func(int, Result)) Summary {
	var s Summary
	for i, c := range cs {
		if ctx.Err() != nil {
			break
		}
		rep, err := a.Analyze(ctx, &models.AnalysisRequest{URL: c.URL}, nil)
		res := Result{Case: c, Report: rep, Err: err}
		s.Results = append(s.Results, res)
		if onResult != nil {
			onResult(i, res)
		}
	}
	return s
}

// Render writes the pass/fail summary.
func (s Summary) Render(w io.Writer) error {
	total := len(s.Results)
	pct := 0.0
	if total > 0 {
		pct = float64(s.Passed()) / float64(total) * 100
	}
	if _, err := fmt.Fprintf(w, "Tests passed: %d/%d (%.1f%%)\n", s.Passed(), total, pct); err != nil {
		return err
	}
	for i, r := range s.Results {
		mark := "FAIL"
		if r.Passed() {
			mark = "PASS"
		}
		if _, err := fmt.Fprintf(w, "%s Test %d: %s - expected %s, got %s\n",
			mark, i+1, r.Case.Description, r.Case.Expectation(), r.Actual()); err != nil {
			return err
		}
	}
	return nil
}
