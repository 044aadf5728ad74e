package pipeline

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"accent-analyzer/internal/models"
)

// Stage is the lifecycle state of one analysis.
type Stage int

const (
	StagePending Stage = iota
	StageAcquiring
	StageTranscribing
	StageClassifying
	StageRendering
	StageCompleted
	StageFailed
)

// String returns the stage name used in logs, metrics and progress
// messages.
func (s Stage) String() string {
	switch s {
	case StagePending:
		return "pending"
	case StageAcquiring:
		return "acquiring"
	case StageTranscribing:
		return "transcribing"
	case StageClassifying:
		return "classifying"
	case StageRendering:
		return "rendering"
	case StageCompleted:
		return "completed"
	case StageFailed:
		return "failed"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// Message is the user-facing description of the stage.
func (s Stage) Message() string {
	switch s {
	case StagePending:
		return "Queued"
	case StageAcquiring:
		return "Downloading video and extracting audio"
	case StageTranscribing:
		return "Transcribing speech and detecting language"
	case StageClassifying:
		return "Analyzing accent"
	case StageRendering:
		return "Preparing results"
	case StageCompleted:
		return "Analysis complete"
	case StageFailed:
		return "Analysis failed"
	default:
		return s.String()
	}
}

// IsTerminal reports whether no further transitions are allowed.
func (s Stage) IsTerminal() bool {
	return s == StageCompleted || s == StageFailed
}

// MarshalText encodes the stage by name.
func (s Stage) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Errors for invalid transitions.
var (
	ErrTerminal          = errors.New("analysis already finished")
	ErrInvalidTransition = errors.New("invalid stage transition")
)

// next lists the forward transitions. Classifying is skipped when the
// speech is not English. Failed is reachable from every non-terminal stage.
var next = map[Stage][]Stage{
	StagePending:      {StageAcquiring},
	StageAcquiring:    {StageTranscribing},
	StageTranscribing: {StageClassifying, StageRendering},
	StageClassifying:  {StageRendering},
	StageRendering:    {StageCompleted},
}

// Progress is delivered on every stage change.
type Progress struct {
	RequestID string    `json:"requestId"`
	Stage     Stage     `json:"stage"`
	Message   string    `json:"message"`
	At        time.Time `json:"at"`
	// Err is set when Stage is StageFailed.
	Err error `json:"-"`
}

// ProgressFunc receives progress updates. It is called synchronously and
// must not block for long.
type ProgressFunc func(Progress)

// Tracker enforces the stage order of one analysis and records how long
// each stage took. Safe for concurrent use.
//
//	Pending → Acquiring → Transcribing → Classifying → Rendering → Completed
//	                           └──────────────────────────┘
//	any non-terminal stage → Failed
type Tracker struct {
	mu        sync.Mutex
	requestID string
	stage     Stage
	entered   time.Time
	timings   []models.StageTiming
	progress  ProgressFunc
	now       func() time.Time
}

// NewTracker creates a tracker in StagePending.
func NewTracker(requestID string, progress ProgressFunc) *Tracker {
	t := &Tracker{
		requestID: requestID,
		stage:     StagePending,
		progress:  progress,
		now:       time.Now,
	}
	t.entered = t.now()
	return t
}

// Stage returns the current stage.
func (t *Tracker) Stage() Stage {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stage
}

// Advance moves to stage to. Moving to the current stage is a no-op.
func (t *Tracker) Advance(to Stage) error {
	t.mu.Lock()
	if t.stage == to && !to.IsTerminal() {
		t.mu.Unlock()
		return nil
	}
	if t.stage.IsTerminal() {
		t.mu.Unlock()
		return ErrTerminal
	}
	if !allowed(t.stage, to) {
		from := t.stage
		t.mu.Unlock()
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	p := t.enter(to, nil)
	t.mu.Unlock()

	t.emit(p)
	return nil
}

// Fail moves to StageFailed. It returns false if the analysis had already
// finished.
func (t *Tracker) Fail(err error) bool {
	t.mu.Lock()
	if t.stage.IsTerminal() {
		t.mu.Unlock()
		return false
	}
	p := t.enter(StageFailed, err)
	t.mu.Unlock()

	t.emit(p)
	return true
}

// Timings returns the durations of the stages left so far.
func (t *Tracker) Timings() []models.StageTiming {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]models.StageTiming, len(t.timings))
	copy(out, t.timings)
	return out
}

func allowed(from, to Stage) bool {
	if to == StageFailed {
		return true
	}
	for _, s := range next[from] {
		if s == to {
			return true
		}
	}
	return false
}

// enter must be called with mu held.
func (t *Tracker) enter(to Stage, err error) Progress {
	now := t.now()
	if t.stage != StagePending {
		t.timings = append(t.timings, models.StageTiming{Stage: t.stage.String(), Duration: now.Sub(t.entered)})
	}
	t.stage = to
	t.entered = now

	msg := to.Message()
	if err != nil {
		msg = fmt.Sprintf("%s: %v", msg, err)
	}
	return Progress{RequestID: t.requestID, Stage: to, Message: msg, At: now, Err: err}
}

func (t *Tracker) emit(p Progress) {
	if t.progress != nil {
		t.progress(p)
	}
}
