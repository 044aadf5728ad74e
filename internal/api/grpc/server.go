// Package grpcapi exposes the gRPC surface of the service: the standard
// health service and reflection.
package grpcapi

import (
	"context"

	"github.com/rs/zerolog/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"accent-analyzer/internal/observability"
)

// ServiceName is the health service entry reported for the analyzer.
const ServiceName = "accent.analyzer.v1.Analyzer"

// Server wraps a grpc.Server with a health service driven by readiness.
type Server struct {
	grpc   *grpc.Server
	health *health.Server
	ready  observability.ReadinessCheck
}

// New creates the gRPC server and registers health and reflection.
func New(ready observability.ReadinessCheck) *Server {
	g := grpc.NewServer(grpc.UnaryInterceptor(observability.UnaryServerInterceptor()))

	hs := health.NewServer()
	grpc_health_v1.RegisterHealthServer(g, hs)
	reflection.Register(g)

	s := &Server{grpc: g, health: hs, ready: ready}
	s.SetServing(false)
	return s
}

// GRPC returns the underlying server.
func (s *Server) GRPC() *grpc.Server {
	return s.grpc
}

// SetServing flips the health status of the overall server and the
// analyzer service.
func (s *Server) SetServing(serving bool) {
	st := grpc_health_v1.HealthCheckResponse_NOT_SERVING
	if serving {
		st = grpc_health_v1.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(ServiceName, st)
}

// Refresh re-evaluates readiness and updates the health status.
func (s *Server) Refresh(ctx context.Context) {
	if s.ready == nil {
		s.SetServing(true)
		return
	}
	if err := s.ready(ctx); err != nil {
		log.Warn().Err(err).Msg("gRPC health set to NOT_SERVING")
		s.SetServing(false)
		return
	}
	s.SetServing(true)
}

// Shutdown marks the server as not serving and stops it gracefully.
func (s *Server) Shutdown() {
	s.health.Shutdown()
	s.grpc.GracefulStop()
}
