package models

// Event types published for analyses.
const (
	EventAnalysisCompleted = "accent.analysis.completed"
	EventAnalysisFailed    = "accent.analysis.failed"
)

// AnalysisCompleted is published after a successful analysis.
type AnalysisCompleted struct {
	EventType  string  `json:"eventType" validate:"required,eq=accent.analysis.completed"`
	RequestID  string  `json:"requestId" validate:"required,uuid"`
	Timestamp  int64   `json:"timestamp" validate:"gt=0"`
	Source     string  `json:"source" validate:"required"`
	Verdict    string  `json:"verdict" validate:"oneof=accent not_english"`
	Language   string  `json:"language"`
	Accent     string  `json:"accent,omitempty"`
	Confidence float64 `json:"confidence,omitempty" validate:"gte=0,lte=100"`
	AudioMs    int64   `json:"audioMs"`
}

// AnalysisFailed is published when an analysis ends with an error.
type AnalysisFailed struct {
	EventType string `json:"eventType" validate:"required,eq=accent.analysis.failed"`
	RequestID string `json:"requestId" validate:"required,uuid"`
	Timestamp int64  `json:"timestamp" validate:"gt=0"`
	Source    string `json:"source"`
	Kind      string `json:"kind" validate:"required"`
	Reason    string `json:"reason,omitempty"`
	Message   string `json:"message"`
}
