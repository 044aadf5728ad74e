package observability

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"accent-analyzer/internal/observability/metrics"
)

func TestProbes(t *testing.T) {
	tests := []struct {
		name   string
		ready  ReadinessCheck
		path   string
		status int
	}{
		{"liveness", nil, "/v1/liveness", http.StatusOK},
		{"ready", func(context.Context) error { return nil }, "/v1/readiness", http.StatusOK},
		{"not ready", func(context.Context) error { return errors.New("yt-dlp missing") }, "/v1/readiness", http.StatusServiceUnavailable},
		{"metrics", nil, "/metrics", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := chi.NewRouter()
			NewProbes(tt.ready, true).Register(r)

			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			if rec.Code != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, rec.Code)
			}
		})
	}
}

func TestProbes_MetricsDisabled(t *testing.T) {
	r := chi.NewRouter()
	NewProbes(nil, false).Register(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 with metrics disabled, got %d", rec.Code)
	}
}

func TestRequestLogger_CountsByRoutePattern(t *testing.T) {
	m := metrics.NewMetrics(prometheus.NewRegistry())

	r := chi.NewRouter()
	r.Use(RequestLogger(m))
	r.Get("/items/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	for _, id := range []string{"a", "b"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/items/"+id, nil))
	}

	if got := testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "/items/{id}", "418")); got != 2 {
		t.Errorf("expected 2 requests on route pattern, got %v", got)
	}
}
