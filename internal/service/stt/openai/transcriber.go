// Package openai transcribes audio with the OpenAI Whisper API.
package openai

import (
	"context"
	"errors"

	goopenai "github.com/sashabaranov/go-openai"

	"accent-analyzer/internal/apperr"
	"accent-analyzer/internal/models"
	"accent-analyzer/internal/service/stt"
)

// Config configures the OpenAI transcriber.
type Config struct {
	APIKey string
	Model  string
	// Language forces the spoken language. Empty lets the model detect it,
	// which is what the English check relies on.
	Language string
	// BaseURL overrides the API endpoint, e.g. for a compatible proxy.
	BaseURL string
}

// Transcriber implements stt.Transcriber.
type Transcriber struct {
	client *goopenai.Client
	cfg    Config
}

// New creates an OpenAI transcriber.
func New(cfg Config) (*Transcriber, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai: API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = goopenai.Whisper1
	}
	oc := goopenai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	return &Transcriber{client: goopenai.NewClientWithConfig(oc), cfg: cfg}, nil
}

// Name returns the provider name.
func (t *Transcriber) Name() string { return stt.ProviderOpenAI }

// Transcribe uploads the buffer's WAV file and requests verbose JSON so the
// response carries the detected language and segment timings.
func (t *Transcriber) Transcribe(ctx context.Context, buf *models.AudioBuffer) (*models.TranscriptResult, error) {
	resp, err := t.client.CreateTranscription(ctx, goopenai.AudioRequest{
		Model:    t.cfg.Model,
		FilePath: buf.Path,
		Format:   goopenai.AudioResponseFormatVerboseJSON,
		Language: t.cfg.Language,
	})
	if err != nil {
		return nil, apperr.Transcription(err, "openai transcription failed")
	}

	segs := make([]models.Segment, 0, len(resp.Segments))
	for _, s := range resp.Segments {
		segs = append(segs, models.Segment{Start: s.Start, End: s.End, Text: s.Text})
	}
	return stt.Finish(t.Name(), &models.TranscriptResult{
		Text:     resp.Text,
		Language: resp.Language,
		Segments: segs,
	})
}
