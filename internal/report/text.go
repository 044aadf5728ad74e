package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"accent-analyzer/internal/models"
)

// RenderText writes a terminal report.
func RenderText(w io.Writer, r *models.AnalysisReport) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Source:\t%s\n", r.Source)
	fmt.Fprintf(tw, "Request:\t%s\n", r.RequestID)
	fmt.Fprintf(tw, "Audio:\t%s\n", r.AudioDuration.Round(time.Second))
	fmt.Fprintf(tw, "Language:\t%s\n", displayLanguage(r.DetectedLanguage))

	switch r.Verdict {
	case models.VerdictNotEnglish:
		fmt.Fprintf(tw, "Result:\tThe speech is not in English, so no accent was classified.\n")
	case models.VerdictAccent:
		a := r.Accent
		if a == nil {
			return fmt.Errorf("report %s: accent verdict without accent result", r.RequestID)
		}
		fmt.Fprintf(tw, "Accent:\t%s\n", a.Accent)
		conf := fmt.Sprintf("%.1f%%", a.Confidence)
		if a.LowConfidence {
			conf += " (low confidence)"
		}
		fmt.Fprintf(tw, "Confidence:\t%s\n", conf)
		fmt.Fprintf(tw, "Explanation:\t%s\n", a.Explanation)
		if len(a.Top) > 0 {
			fmt.Fprintf(tw, "Top predictions:\t\n")
			for i, p := range a.Top {
				fmt.Fprintf(tw, "  %d. %s\t%.1f%%\n", i+1, predictionName(p), p.Confidence)
			}
		}
	default:
		return fmt.Errorf("report %s: unknown verdict %v", r.RequestID, r.Verdict)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if r.Transcript != nil {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Transcript:")
		if len(r.Transcript.Segments) == 0 {
			fmt.Fprintf(w, "  %s\n", r.Transcript.Text)
		}
		for _, s := range r.Transcript.Segments {
			fmt.Fprintf(w, "  [%s-%s] %s\n", Timestamp(s.Start), Timestamp(s.End), strings.TrimSpace(s.Text))
		}
	}

	if len(r.Stages) > 0 {
		fmt.Fprintln(w)
		parts := make([]string, len(r.Stages))
		for i, s := range r.Stages {
			parts[i] = fmt.Sprintf("%s %s", s.Stage, s.Duration.Round(10*time.Millisecond))
		}
		_, err := fmt.Fprintf(w, "Timings: %s\n", strings.Join(parts, ", "))
		return err
	}
	return nil
}

// Timestamp formats seconds as mm:ss, or hh:mm:ss past the hour.
func Timestamp(sec float64) string {
	d := time.Duration(sec*1000) * time.Millisecond
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

func predictionName(p models.Prediction) string {
	if p.Accent == models.AccentUnknown && p.Label != "" {
		return fmt.Sprintf("Unknown (%s)", p.Label)
	}
	return p.Accent.String()
}

func displayLanguage(code string) string {
	if code == "" {
		return "unknown"
	}
	return code
}
