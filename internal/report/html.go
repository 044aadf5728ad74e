package report

import (
	"embed"
	"encoding/base64"
	"fmt"
	"html/template"
	"io"

	"accent-analyzer/internal/apperr"
	"accent-analyzer/internal/models"
)

//go:embed templates/*.html.tmpl
var templateFS embed.FS

var pageTemplate = template.Must(template.New("page.html.tmpl").Funcs(template.FuncMap{
	"pct": func(v float64) string { return fmt.Sprintf("%.1f%%", v) },
	"ts":  Timestamp,
	"inc": func(i int) int { return i + 1 },
}).ParseFS(templateFS, "templates/page.html.tmpl"))

// Example is a sample URL offered on the form page.
type Example struct {
	Title string `json:"title"`
	URL   string `json:"url"`
	// Expected is the display name of the accent the sample should yield.
	Expected string `json:"expected"`
}

// Page is the data for the web UI. Report and Err are mutually exclusive;
// both nil renders the empty form.
type Page struct {
	Examples []Example
	// URL pre-fills the form.
	URL    string
	Report *models.AnalysisReport
	Err    error
}

type errorView struct {
	Kind    string
	Message string
}

type reportView struct {
	*models.AnalysisReport
	Headline    string
	NotEnglish  bool
	Accent      *models.AccentResult
	WaveformURI template.URL
}

type pageView struct {
	Examples []Example
	URL      string
	Report   *reportView
	Error    *errorView
}

// RenderHTML writes the web UI page.
func RenderHTML(w io.Writer, p Page) error {
	v := pageView{Examples: p.Examples, URL: p.URL}
	if p.Err != nil {
		e := apperr.As(p.Err)
		v.Error = &errorView{Kind: string(e.Kind), Message: e.Message}
	} else if p.Report != nil {
		rv, err := newReportView(p.Report)
		if err != nil {
			return err
		}
		v.Report = rv
	}
	return pageTemplate.Execute(w, v)
}

func newReportView(r *models.AnalysisReport) (*reportView, error) {
	rv := &reportView{AnalysisReport: r}
	switch r.Verdict {
	case models.VerdictNotEnglish:
		rv.NotEnglish = true
		rv.Headline = "Not English: the speech must be in English to classify an accent."
	case models.VerdictAccent:
		if r.Accent == nil {
			return nil, fmt.Errorf("report %s: accent verdict without accent result", r.RequestID)
		}
		rv.Accent = r.Accent
		rv.Headline = r.Accent.Accent.String()
	default:
		return nil, fmt.Errorf("report %s: unknown verdict %v", r.RequestID, r.Verdict)
	}
	if len(r.Waveform) > 0 {
		// PNG bytes are produced by Waveform, never user supplied.
		rv.WaveformURI = template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(r.Waveform))
	}
	return rv, nil
}
