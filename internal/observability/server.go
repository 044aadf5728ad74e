// Package observability provides health probes, metrics exposure and
// request logging for the HTTP and gRPC listeners.
package observability

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// ReadinessCheck reports whether the service can accept analyses.
type ReadinessCheck func(ctx context.Context) error

// Probes serves liveness, readiness and metrics endpoints.
type Probes struct {
	ready   ReadinessCheck
	metrics bool
	timeout time.Duration
}

// NewProbes creates probes. A nil check means always ready.
func NewProbes(ready ReadinessCheck, metricsEnabled bool) *Probes {
	return &Probes{
		ready:   ready,
		metrics: metricsEnabled,
		timeout: 2 * time.Second,
	}
}

// Register mounts the probe routes on r.
func (p *Probes) Register(r chi.Router) {
	r.Get("/v1/liveness", p.liveness)
	r.Get("/v1/readiness", p.readiness)
	if p.metrics {
		r.Handle("/metrics", promhttp.Handler())
	}
}

func (p *Probes) liveness(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (p *Probes) readiness(w http.ResponseWriter, r *http.Request) {
	if p.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), p.timeout)
		defer cancel()
		if err := p.ready(ctx); err != nil {
			log.Warn().Err(err).Msg("Readiness check failed")
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(err.Error()))
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
