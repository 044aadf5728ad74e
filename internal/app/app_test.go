package app

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"accent-analyzer/internal/config"
	"accent-analyzer/internal/models"
)

func testConfig(t *testing.T) *config.Configuration {
	t.Helper()
	t.Setenv("STT_PROVIDER", "mock")
	t.Setenv("ACCENT_PROVIDER", "mock")
	t.Setenv("KAFKA_ENABLED", "false")
	t.Setenv("AUDIO_TEMP_DIR", t.TempDir())
	return config.Load()
}

// fakeTool writes an executable that exits with code.
func fakeTool(t *testing.T, name string, code int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	script := "#!/bin/sh\nexit " + strconv.Itoa(code) + "\n"
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write tool: %v", err)
	}
	return path
}

func TestNew_MockProviders(t *testing.T) {
	a, err := New(context.Background(), testConfig(t))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Shutdown()

	if a.Transcriber.Name() != "mock" {
		t.Errorf("expected mock transcriber, got %s", a.Transcriber.Name())
	}
	if a.Classifier.Name() != "mock" {
		t.Errorf("expected mock classifier, got %s", a.Classifier.Name())
	}
	if a.Analyzer == nil || a.Publisher == nil || a.Acquirer == nil {
		t.Error("expected analyzer, publisher and acquirer to be built")
	}
}

func TestNew_UnknownProviders(t *testing.T) {
	cfg := testConfig(t)
	cfg.STT.Provider = "carrier-pigeon"
	if _, err := New(context.Background(), cfg); err == nil {
		t.Error("expected error for unknown STT provider")
	}

	cfg = testConfig(t)
	cfg.Accent.Provider = "astrology"
	if _, err := New(context.Background(), cfg); err == nil {
		t.Error("expected error for unknown accent provider")
	}
}

func TestNewTranscriber(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.STTConfig
		want    string
		wantErr bool
	}{
		{"openai", config.STTConfig{Provider: "openai", OpenAIAPIKey: "sk-test"}, "openai", false},
		{"openai without key", config.STTConfig{Provider: "openai"}, "", true},
		{"whisper", config.STTConfig{Provider: "whisper", WhisperURL: "http://localhost:9000"}, "whisper", false},
		{"mock", config.STTConfig{Provider: "mock"}, "mock", false},
		{"unknown", config.STTConfig{Provider: "nope"}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewTranscriber(context.Background(), tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Name() != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got.Name())
			}
		})
	}
}

func TestNewClassifier(t *testing.T) {
	c, err := NewClassifier(config.AccentConfig{Provider: "huggingface", HFToken: "hf_x"})
	if err != nil {
		t.Fatalf("NewClassifier: %v", err)
	}
	if c.Name() != "huggingface" {
		t.Errorf("expected huggingface, got %s", c.Name())
	}
}

func TestReady_Lifecycle(t *testing.T) {
	cfg := testConfig(t)
	cfg.Audio.FFmpegPath = fakeTool(t, "ffmpeg", 0)
	cfg.Audio.YtDlpPath = fakeTool(t, "yt-dlp", 0)

	a, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Shutdown()

	if err := a.Ready(context.Background()); err == nil {
		t.Error("expected not ready before Start")
	}
	if err := a.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := a.Ready(context.Background()); err != nil {
		t.Errorf("expected ready after Start, got %v", err)
	}
}

func TestStart_MissingTools(t *testing.T) {
	cfg := testConfig(t)
	cfg.Audio.FFmpegPath = filepath.Join(t.TempDir(), "no-ffmpeg")
	cfg.Audio.YtDlpPath = fakeTool(t, "yt-dlp", 1)

	a, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Shutdown()

	if err := a.Start(context.Background()); err == nil {
		t.Fatal("expected error for missing tools")
	}
	if err := a.Ready(context.Background()); err == nil {
		t.Error("expected not ready when tools are missing")
	}
}

func TestAnalyzer_WiredEndToEndWithMocks(t *testing.T) {
	a, err := New(context.Background(), testConfig(t))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Shutdown()

	_, err = a.Analyzer.Analyze(context.Background(), &models.AnalysisRequest{URL: "not a url"}, nil)
	if err == nil {
		t.Error("expected invalid URL to be rejected")
	}
}
