// Package mock provides a deterministic transcriber for offline runs and
// tests. The same audio always yields the same transcript.
package mock

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"accent-analyzer/internal/models"
	"accent-analyzer/internal/service/stt"
)

// Script is the canned transcription the mock returns.
type Script struct {
	Text     string
	Language string
}

// DefaultScript is an English passage used when no script is configured.
var DefaultScript = Script{
	Text:     "Thanks for joining us today. We are going to talk about how robots change the way people work. Let's get started.",
	Language: "english",
}

// Transcriber implements stt.Transcriber with canned responses.
type Transcriber struct {
	script Script
	// Err, when set, is returned by every call.
	Err error
	// Delay simulates backend latency and honours cancellation.
	Delay time.Duration
	calls atomic.Int32
}

// New creates a mock transcriber returning script.
func New(script Script) *Transcriber {
	if script.Text == "" && script.Language == "" {
		script = DefaultScript
	}
	return &Transcriber{script: script}
}

// Name returns the provider name.
func (t *Transcriber) Name() string { return stt.ProviderMock }

// Calls returns how many times Transcribe ran.
func (t *Transcriber) Calls() int { return int(t.calls.Load()) }

// Transcribe returns the script, split into sentence segments spread evenly
// over the audio duration.
func (t *Transcriber) Transcribe(ctx context.Context, buf *models.AudioBuffer) (*models.TranscriptResult, error) {
	t.calls.Add(1)

	if t.Delay > 0 {
		select {
		case <-time.After(t.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if t.Err != nil {
		return nil, t.Err
	}

	return stt.Finish(t.Name(), &models.TranscriptResult{
		Text:     t.script.Text,
		Language: t.script.Language,
		Segments: sentences(t.script.Text, buf.Duration.Seconds()),
	})
}

func sentences(text string, total float64) []models.Segment {
	var parts []string
	for _, p := range strings.SplitAfter(text, ". ") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return nil
	}
	step := total / float64(len(parts))
	segs := make([]models.Segment, len(parts))
	for i, p := range parts {
		segs[i] = models.Segment{Start: float64(i) * step, End: float64(i+1) * step, Text: p}
	}
	return segs
}
