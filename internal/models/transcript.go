package models

// Segment is a time-aligned portion of a transcript. Times are in seconds.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// TranscriptResult is the output of a speech-to-text model.
type TranscriptResult struct {
	Text string `json:"text"`
	// Language is the ISO 639-1 code of the spoken language, e.g. "en".
	Language string    `json:"language"`
	Segments []Segment `json:"segments,omitempty"`
	Provider string    `json:"provider"`
}

// IsEnglish reports whether the detected language is English.
func (t *TranscriptResult) IsEnglish() bool {
	return t != nil && t.Language == "en"
}
