package huggingface

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"accent-analyzer/internal/apperr"
	"accent-analyzer/internal/models"
)

func testBuffer(t *testing.T) *models.AudioBuffer {
	t.Helper()
	path := filepath.Join(t.TempDir(), "audio.wav")
	if err := os.WriteFile(path, []byte("RIFF wav bytes"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	return &models.AudioBuffer{Path: path, SampleRate: 16000}
}

func TestClassify(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models/Jzuluaga/accent-id-commonaccent_xlsr-en-english" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer hf_test" {
			t.Errorf("expected bearer token, got %q", got)
		}
		body, _ := io.ReadAll(r.Body)
		if string(body) != "RIFF wav bytes" {
			t.Errorf("expected raw wav body, got %q", body)
		}
		_, _ = w.Write([]byte(`[{"label":"england","score":0.91},{"label":"australia","score":0.04},{"label":"us","score":0.03},{"label":"indian","score":0.02}]`))
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, Token: "hf_test", MinConfidence: 50})
	res, err := c.Classify(context.Background(), testBuffer(t))
	if err != nil {
		t.Fatalf("classify: %v", err)
	}

	if res.Accent != models.AccentBritish {
		t.Errorf("expected British, got %v", res.Accent)
	}
	if res.Confidence != 91 {
		t.Errorf("expected 91, got %v", res.Confidence)
	}
	if len(res.Top) != 3 {
		t.Errorf("expected 3 predictions, got %d", len(res.Top))
	}
	if res.Provider != "huggingface" {
		t.Errorf("expected provider 'huggingface', got %s", res.Provider)
	}
}

func TestClassify_NestedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[[{"label":"indian","score":0.66}]]`))
	}))
	defer srv.Close()

	res, err := New(Config{BaseURL: srv.URL}).Classify(context.Background(), testBuffer(t))
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if res.Accent != models.AccentIndian {
		t.Errorf("expected Indian, got %v", res.Accent)
	}
}

func TestClassify_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		reason string
	}{
		{"loading", http.StatusServiceUnavailable, `{"error":"Model is currently loading","estimated_time":20.0}`, "loading"},
		{"unauthorized", http.StatusUnauthorized, `{"error":"Invalid token"}`, "unauthorized"},
		{"garbage", http.StatusOK, `<html>`, ""},
		{"empty", http.StatusOK, `[]`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := New(Config{BaseURL: srv.URL}).Classify(context.Background(), testBuffer(t))
			e := apperr.As(err)
			if e.Kind != apperr.KindClassification {
				t.Errorf("expected classification error, got %v", err)
			}
			if e.Reason != tt.reason {
				t.Errorf("expected reason %q, got %q", tt.reason, e.Reason)
			}
		})
	}
}
