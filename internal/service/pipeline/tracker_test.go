package pipeline

import (
	"errors"
	"testing"
	"time"
)

func TestTracker_InitialState(t *testing.T) {
	tr := NewTracker("req-1", nil)

	if tr.Stage() != StagePending {
		t.Errorf("expected StagePending, got %v", tr.Stage())
	}
	if len(tr.Timings()) != 0 {
		t.Errorf("expected no timings, got %d", len(tr.Timings()))
	}
}

func TestTracker_HappyPath(t *testing.T) {
	var got []Stage
	tr := NewTracker("req-1", func(p Progress) {
		if p.RequestID != "req-1" {
			t.Errorf("expected request id on progress, got %s", p.RequestID)
		}
		got = append(got, p.Stage)
	})

	clock := time.Unix(0, 0)
	tr.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}

	for _, s := range []Stage{StageAcquiring, StageTranscribing, StageClassifying, StageRendering, StageCompleted} {
		if err := tr.Advance(s); err != nil {
			t.Fatalf("advance to %s: %v", s, err)
		}
	}

	if len(got) != 5 || got[4] != StageCompleted {
		t.Errorf("unexpected progress sequence %v", got)
	}
	timings := tr.Timings()
	if len(timings) != 4 {
		t.Fatalf("expected 4 timings, got %d", len(timings))
	}
	if timings[0].Stage != "acquiring" || timings[0].Duration != time.Second {
		t.Errorf("unexpected first timing %+v", timings[0])
	}
}

func TestTracker_SkipClassifying(t *testing.T) {
	tr := NewTracker("req-1", nil)

	for _, s := range []Stage{StageAcquiring, StageTranscribing, StageRendering, StageCompleted} {
		if err := tr.Advance(s); err != nil {
			t.Fatalf("advance to %s: %v", s, err)
		}
	}
}

func TestTracker_InvalidTransitions(t *testing.T) {
	tests := []struct {
		name string
		path []Stage
		to   Stage
	}{
		{"skip acquiring", nil, StageTranscribing},
		{"backwards", []Stage{StageAcquiring, StageTranscribing}, StageAcquiring},
		{"complete early", []Stage{StageAcquiring}, StageCompleted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := NewTracker("req-1", nil)
			for _, s := range tt.path {
				if err := tr.Advance(s); err != nil {
					t.Fatalf("advance to %s: %v", s, err)
				}
			}
			if err := tr.Advance(tt.to); !errors.Is(err, ErrInvalidTransition) {
				t.Errorf("expected ErrInvalidTransition, got %v", err)
			}
		})
	}
}

func TestTracker_SameStageIsNoop(t *testing.T) {
	calls := 0
	tr := NewTracker("req-1", func(Progress) { calls++ })

	_ = tr.Advance(StageAcquiring)
	if err := tr.Advance(StageAcquiring); err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected one progress call, got %d", calls)
	}
}

func TestTracker_FailIsSticky(t *testing.T) {
	var last Progress
	tr := NewTracker("req-1", func(p Progress) { last = p })
	_ = tr.Advance(StageAcquiring)

	cause := errors.New("download: private video")
	if !tr.Fail(cause) {
		t.Fatal("expected first Fail to succeed")
	}
	if last.Stage != StageFailed || !errors.Is(last.Err, cause) {
		t.Errorf("expected failed progress carrying the cause, got %+v", last)
	}

	if tr.Fail(errors.New("again")) {
		t.Error("expected second Fail to report already finished")
	}
	if err := tr.Advance(StageTranscribing); !errors.Is(err, ErrTerminal) {
		t.Errorf("expected ErrTerminal, got %v", err)
	}
	if tr.Stage() != StageFailed {
		t.Errorf("expected StageFailed, got %v", tr.Stage())
	}
}

func TestTracker_CompletedIsSticky(t *testing.T) {
	tr := NewTracker("req-1", nil)
	for _, s := range []Stage{StageAcquiring, StageTranscribing, StageRendering, StageCompleted} {
		_ = tr.Advance(s)
	}

	if tr.Fail(errors.New("late")) {
		t.Error("expected Fail after completion to be rejected")
	}
	if err := tr.Advance(StageCompleted); !errors.Is(err, ErrTerminal) {
		t.Errorf("expected ErrTerminal, got %v", err)
	}
}

func TestStage_String(t *testing.T) {
	tests := []struct {
		stage Stage
		want  string
	}{
		{StagePending, "pending"},
		{StageClassifying, "classifying"},
		{StageFailed, "failed"},
		{Stage(99), "unknown(99)"},
	}

	for _, tt := range tests {
		if got := tt.stage.String(); got != tt.want {
			t.Errorf("expected %s, got %s", tt.want, got)
		}
	}
}
