// Package models defines the data structures passed between analysis stages
// and the events published about them.
package models

import (
	"fmt"
	"io"
	"time"
)

// Source kinds of an analysis request.
const (
	SourceURL    = "url"
	SourceUpload = "upload"
)

// AnalysisRequest is a single user submission. Either URL is set, or the
// media is supplied as an upload through UploadPath or Upload.
type AnalysisRequest struct {
	ID  string `json:"id" validate:"required,uuid"`
	URL string `json:"url,omitempty" validate:"omitempty,http_url,max=2048"`
	// UploadPath is a local media file, as passed to the CLI.
	UploadPath string `json:"-"`
	// Upload streams media from a form upload.
	Upload     io.Reader `json:"-"`
	UploadName string    `json:"uploadName,omitempty" validate:"omitempty,max=255"`
}

// HasUpload reports whether the media is supplied by the caller.
func (r *AnalysisRequest) HasUpload() bool {
	return r.UploadPath != "" || r.Upload != nil
}

// SourceKind returns SourceURL or SourceUpload.
func (r *AnalysisRequest) SourceKind() string {
	if r.HasUpload() {
		return SourceUpload
	}
	return SourceURL
}

// Source returns a printable description of the input.
func (r *AnalysisRequest) Source() string {
	if r.HasUpload() {
		if r.UploadName != "" {
			return r.UploadName
		}
		return r.UploadPath
	}
	return r.URL
}

// AudioBuffer is decoded mono PCM audio owned by one analysis.
type AudioBuffer struct {
	// Samples are normalised to [-1, 1].
	Samples    []float32
	SampleRate int
	Duration   time.Duration
	// Path is the WAV file the samples were decoded from. It is only valid
	// while the owning workspace is open.
	Path string
}

// Verdict is the closed set of analysis outcomes.
type Verdict int

const (
	VerdictAccent Verdict = iota
	VerdictNotEnglish
)

// String returns the verdict code.
func (v Verdict) String() string {
	switch v {
	case VerdictAccent:
		return "accent"
	case VerdictNotEnglish:
		return "not_english"
	default:
		return fmt.Sprintf("unknown(%d)", int(v))
	}
}

// MarshalText encodes the verdict as its code.
func (v Verdict) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// ParseVerdict returns the verdict for a code produced by String.
func ParseVerdict(code string) (Verdict, error) {
	switch code {
	case "accent":
		return VerdictAccent, nil
	case "not_english":
		return VerdictNotEnglish, nil
	default:
		return 0, fmt.Errorf("unknown verdict %q", code)
	}
}

// UnmarshalText decodes a verdict code.
func (v *Verdict) UnmarshalText(b []byte) error {
	parsed, err := ParseVerdict(string(b))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// StageTiming records how long a pipeline stage took.
type StageTiming struct {
	Stage    string        `json:"stage"`
	Duration time.Duration `json:"durationNs"`
}

// AnalysisReport aggregates the results of one analysis.
type AnalysisReport struct {
	RequestID        string            `json:"requestId"`
	Source           string            `json:"source"`
	Verdict          Verdict           `json:"verdict"`
	DetectedLanguage string            `json:"detectedLanguage"`
	Transcript       *TranscriptResult `json:"transcript"`
	// Accent is nil when the verdict is VerdictNotEnglish.
	Accent        *AccentResult `json:"accent,omitempty"`
	AudioDuration time.Duration `json:"audioDurationNs"`
	// Waveform is a PNG image of amplitude over time.
	Waveform    []byte        `json:"-"`
	Stages      []StageTiming `json:"stages,omitempty"`
	CompletedAt time.Time     `json:"completedAt"`
}
