// Package huggingface classifies accents through the Hugging Face Inference
// API, or any self-hosted endpoint that speaks the same audio
// classification protocol.
package huggingface

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"accent-analyzer/internal/apperr"
	"accent-analyzer/internal/models"
	"accent-analyzer/internal/service/accent"
)

const (
	defaultBaseURL = "https://api-inference.huggingface.co"
	defaultTimeout = 2 * time.Minute
)

// Config configures the inference client.
type Config struct {
	BaseURL       string
	Model         string
	Token         string
	MinConfidence float64
	Timeout       time.Duration
}

// Classifier implements accent.Classifier.
type Classifier struct {
	cfg    Config
	client *http.Client
}

// New creates an inference API classifier.
func New(cfg Config) *Classifier {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Model == "" {
		cfg.Model = accent.DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Classifier{cfg: cfg, client: &http.Client{Timeout: cfg.Timeout}}
}

// Name returns the provider name.
func (c *Classifier) Name() string { return accent.ProviderHuggingFace }

// Classify posts the WAV file and ranks the returned label scores.
func (c *Classifier) Classify(ctx context.Context, buf *models.AudioBuffer) (*models.AccentResult, error) {
	wav, err := os.ReadFile(buf.Path)
	if err != nil {
		return nil, apperr.Internal(err, "read audio file")
	}

	url := fmt.Sprintf("%s/models/%s", c.cfg.BaseURL, c.cfg.Model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(wav))
	if err != nil {
		return nil, apperr.Internal(err, "create request")
	}
	req.Header.Set("Content-Type", "audio/wav")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Wait-For-Model", "true")
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, apperr.Classification(err, "accent model request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, apperr.Classification(err, "read accent model response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp.StatusCode, body)
	}

	scores, err := decodeScores(body)
	if err != nil {
		return nil, apperr.Classification(err, "decode accent model response")
	}
	return accent.Rank(c.Name(), scores, c.cfg.MinConfidence)
}

type apiError struct {
	Error         string  `json:"error"`
	EstimatedTime float64 `json:"estimated_time"`
}

func statusError(status int, body []byte) error {
	var ae apiError
	msg := strings.TrimSpace(string(body))
	if json.Unmarshal(body, &ae) == nil && ae.Error != "" {
		msg = ae.Error
	}
	e := apperr.Classification(nil, "accent model error (status %d): %s", status, msg)
	switch {
	case status == http.StatusServiceUnavailable && ae.EstimatedTime > 0:
		e = e.WithReason("loading")
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		e = e.WithReason("unauthorized")
	case status == http.StatusTooManyRequests:
		e = e.WithReason("rate-limited")
	}
	return e
}

// decodeScores accepts both a flat list of scores and the batched form
// some endpoints return, a list holding one list of scores.
func decodeScores(body []byte) ([]accent.Score, error) {
	var flat []accent.Score
	if err := json.Unmarshal(body, &flat); err == nil {
		return flat, nil
	}
	var nested [][]accent.Score
	if err := json.Unmarshal(body, &nested); err != nil {
		return nil, err
	}
	if len(nested) == 0 {
		return nil, nil
	}
	return nested[0], nil
}
