// Package accent defines the accent classification contract and turns raw
// model scores into a result over the closed set of accents.
package accent

import (
	"context"
	"math"
	"sort"
	"strings"

	"accent-analyzer/internal/apperr"
	"accent-analyzer/internal/models"
)

// Classifier predicts the English accent of decoded audio.
type Classifier interface {
	Name() string
	Classify(ctx context.Context, buf *models.AudioBuffer) (*models.AccentResult, error)
}

// Providers accepted by configuration.
const (
	ProviderHuggingFace = "huggingface"
	ProviderMock        = "mock"
)

// DefaultModel is the CommonAccent XLSR classifier.
const DefaultModel = "Jzuluaga/accent-id-commonaccent_xlsr-en-english"

// DefaultMinConfidence is the percentage below which results are flagged.
const DefaultMinConfidence = 50.0

// TopN is how many ranked predictions a result keeps.
const TopN = 3

// Score is one raw label probability from a model, in [0, 1].
type Score struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Rank builds a result from raw scores: labels are mapped into the closed
// set, confidences become percentages clamped to [0, 100], the top TopN
// are kept and results under minConfidence are flagged.
func Rank(provider string, scores []Score, minConfidence float64) (*models.AccentResult, error) {
	if len(scores) == 0 {
		return nil, apperr.Classification(nil, "%s returned no predictions", provider)
	}

	sorted := make([]Score, len(scores))
	copy(sorted, scores)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Score > sorted[j].Score })

	n := min(TopN, len(sorted))
	top := make([]models.Prediction, 0, n)
	for _, s := range sorted[:n] {
		top = append(top, models.Prediction{
			Accent:     models.AccentFromLabel(s.Label),
			Label:      strings.TrimSpace(s.Label),
			Confidence: percent(s.Score),
		})
	}

	best := top[0]
	return &models.AccentResult{
		Accent:        best.Accent,
		Label:         best.Label,
		Confidence:    best.Confidence,
		LowConfidence: best.Confidence < minConfidence,
		Explanation:   best.Accent.Explanation(),
		Top:           top,
		Provider:      provider,
	}, nil
}

// percent converts a probability to a percentage rounded to 0.01.
func percent(p float64) float64 {
	if math.IsNaN(p) {
		return 0
	}
	v := math.Round(p*10000) / 100
	return math.Max(0, math.Min(100, v))
}
