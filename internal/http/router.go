package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"accent-analyzer/internal/app"
	"accent-analyzer/internal/models"
	"accent-analyzer/internal/observability"
	"accent-analyzer/internal/observability/metrics"
	"accent-analyzer/internal/report"
	"accent-analyzer/internal/service/pipeline"
	"accent-analyzer/internal/suite"
)

// Analyzer runs one analysis.
type Analyzer interface {
	Analyze(ctx context.Context, req *models.AnalysisRequest, progress pipeline.ProgressFunc) (*models.AnalysisReport, error)
}

// Config holds what the handlers need.
type Config struct {
	Analyzer       Analyzer
	Ready          observability.ReadinessCheck
	Metrics        *metrics.Metrics
	MetricsEnabled bool
	Examples       []report.Example
	// MaxUploadBytes bounds form uploads.
	MaxUploadBytes int64
}

// NewRouter constructs the HTTP router for the service.
func NewRouter(application *app.Application) http.Handler {
	return New(Config{
		Analyzer:       application.Analyzer,
		Ready:          application.Ready,
		Metrics:        application.Metrics,
		MetricsEnabled: application.Cfg.Observability.MetricsEnabled,
		Examples:       suite.Examples(),
		MaxUploadBytes: application.Cfg.Audio.MaxUploadBytes,
	})
}

// New builds the router from cfg.
func New(cfg Config) http.Handler {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 100 * 1024 * 1024
	}
	h := &handlers{cfg: cfg}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.RequestLogger(cfg.Metrics))
	r.Use(middleware.Recoverer)

	observability.NewProbes(cfg.Ready, cfg.MetricsEnabled).Register(r)

	r.Get("/", h.index)
	r.Post("/analyze", h.analyzeForm)
	r.Get("/ws/analyze", h.analyzeStream)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/analyses", h.analyzeJSON)
		r.Get("/examples", h.examples)
	})

	return r
}
