// Package mock provides a deterministic accent classifier for offline runs
// and tests.
package mock

import (
	"context"
	"sync/atomic"
	"time"

	"accent-analyzer/internal/models"
	"accent-analyzer/internal/service/accent"
)

// DefaultScores is returned when no scores are configured.
var DefaultScores = []accent.Score{
	{Label: "us", Score: 0.87},
	{Label: "canada", Score: 0.06},
	{Label: "england", Score: 0.04},
	{Label: "australia", Score: 0.03},
}

// Classifier implements accent.Classifier with fixed scores.
type Classifier struct {
	scores        []accent.Score
	minConfidence float64
	// Err, when set, is returned by every call.
	Err error
	// Delay simulates model latency and honours cancellation.
	Delay time.Duration
	calls atomic.Int32
}

// New creates a mock classifier.
func New(scores []accent.Score, minConfidence float64) *Classifier {
	if len(scores) == 0 {
		scores = DefaultScores
	}
	return &Classifier{scores: scores, minConfidence: minConfidence}
}

// Single returns a mock that predicts label with the given probability.
func Single(label string, score float64) *Classifier {
	return New([]accent.Score{{Label: label, Score: score}}, accent.DefaultMinConfidence)
}

// Name returns the provider name.
func (c *Classifier) Name() string { return accent.ProviderMock }

// Calls returns how many times Classify ran.
func (c *Classifier) Calls() int { return int(c.calls.Load()) }

// Classify returns the configured scores ranked.
func (c *Classifier) Classify(ctx context.Context, _ *models.AudioBuffer) (*models.AccentResult, error) {
	c.calls.Add(1)

	if c.Delay > 0 {
		select {
		case <-time.After(c.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if c.Err != nil {
		return nil, c.Err
	}
	return accent.Rank(c.Name(), c.scores, c.minConfidence)
}
