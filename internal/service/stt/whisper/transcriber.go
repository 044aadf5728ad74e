// Package whisper transcribes audio with a self-hosted faster-whisper HTTP
// sidecar exposing POST /transcribe and GET /health.
package whisper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strings"
	"time"

	"accent-analyzer/internal/apperr"
	"accent-analyzer/internal/models"
	"accent-analyzer/internal/service/stt"
)

const (
	defaultURL     = "http://localhost:9000"
	defaultModel   = "base"
	defaultTimeout = 3 * time.Minute
)

// Config configures the sidecar client.
type Config struct {
	URL      string
	Model    string
	Language string
	Timeout  time.Duration
}

// Transcriber implements stt.Transcriber against the sidecar.
type Transcriber struct {
	cfg    Config
	client *http.Client
}

// New creates a sidecar transcriber.
func New(cfg Config) *Transcriber {
	if cfg.URL == "" {
		cfg.URL = defaultURL
	}
	cfg.URL = strings.TrimRight(cfg.URL, "/")
	if cfg.Model == "" || strings.HasPrefix(cfg.Model, "whisper-") {
		cfg.Model = defaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Transcriber{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// Name returns the provider name.
func (t *Transcriber) Name() string { return stt.ProviderWhisper }

// Ping checks that the sidecar is reachable.
func (t *Transcriber) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.cfg.URL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("whisper health: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("whisper health: status %d", resp.StatusCode)
	}
	return nil
}

// Transcribe posts the WAV file as multipart form data.
func (t *Transcriber) Transcribe(ctx context.Context, buf *models.AudioBuffer) (*models.TranscriptResult, error) {
	audio, err := os.ReadFile(buf.Path)
	if err != nil {
		return nil, apperr.Internal(err, "read audio file")
	}

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("audio", "audio.wav")
	if err != nil {
		return nil, apperr.Internal(err, "create form file")
	}
	if _, err := part.Write(audio); err != nil {
		return nil, apperr.Internal(err, "write audio data")
	}
	_ = w.WriteField("model", t.cfg.Model)
	if t.cfg.Language != "" {
		_ = w.WriteField("language", t.cfg.Language)
	}
	if err := w.Close(); err != nil {
		return nil, apperr.Internal(err, "close multipart body")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.cfg.URL+"/transcribe", &body)
	if err != nil {
		return nil, apperr.Internal(err, "create request")
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, apperr.Transcription(err, "whisper request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, apperr.Transcription(nil, "whisper error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var out response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, apperr.Transcription(err, "decode whisper response")
	}

	segs := make([]models.Segment, len(out.Segments))
	for i, s := range out.Segments {
		segs[i] = models.Segment{Start: s.Start, End: s.End, Text: strings.TrimSpace(s.Text)}
	}
	return stt.Finish(t.Name(), &models.TranscriptResult{
		Text:     out.Text,
		Language: out.Language,
		Segments: segs,
	})
}

type response struct {
	Text     string    `json:"text"`
	Language string    `json:"language"`
	Segments []segment `json:"segments"`
}

type segment struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}
