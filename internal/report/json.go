package report

import (
	"encoding/base64"
	"time"

	"accent-analyzer/internal/models"
)

// JSONReport is the API representation of a report. Durations are in
// seconds and the waveform PNG is base64 encoded.
type JSONReport struct {
	RequestID        string                   `json:"requestId"`
	Source           string                   `json:"source"`
	Verdict          models.Verdict           `json:"verdict"`
	DetectedLanguage string                   `json:"detectedLanguage"`
	Accent           *models.AccentResult     `json:"accent,omitempty"`
	AccentName       string                   `json:"accentName,omitempty"`
	Transcript       *models.TranscriptResult `json:"transcript,omitempty"`
	AudioSeconds     float64                  `json:"audioSeconds"`
	Waveform         string                   `json:"waveformPng,omitempty"`
	Stages           []JSONStage              `json:"stages,omitempty"`
	CompletedAt      time.Time                `json:"completedAt"`
}

// JSONStage is one stage timing in seconds.
type JSONStage struct {
	Stage   string  `json:"stage"`
	Seconds float64 `json:"seconds"`
}

// ToJSON converts a report to its API view.
func ToJSON(r *models.AnalysisReport) JSONReport {
	out := JSONReport{
		RequestID:        r.RequestID,
		Source:           r.Source,
		Verdict:          r.Verdict,
		DetectedLanguage: r.DetectedLanguage,
		Transcript:       r.Transcript,
		AudioSeconds:     r.AudioDuration.Seconds(),
		CompletedAt:      r.CompletedAt,
	}
	if r.Verdict == models.VerdictAccent {
		out.Accent = r.Accent
		if r.Accent != nil {
			out.AccentName = r.Accent.Accent.String()
		}
	}
	if len(r.Waveform) > 0 {
		out.Waveform = base64.StdEncoding.EncodeToString(r.Waveform)
	}
	for _, s := range r.Stages {
		out.Stages = append(out.Stages, JSONStage{Stage: s.Stage, Seconds: s.Duration.Seconds()})
	}
	return out
}
