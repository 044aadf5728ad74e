package main

import (
	"context"
	"errors"
	"net"
	nethttp "net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	grpcapi "accent-analyzer/internal/api/grpc"
	"accent-analyzer/internal/app"
	"accent-analyzer/internal/config"
	"accent-analyzer/internal/http"
	"accent-analyzer/internal/observability/logging"
)

// healthInterval is how often gRPC health follows readiness.
const healthInterval = 15 * time.Second

func main() {
	if err := config.LoadEnvFile(); err != nil {
		log.Fatal().Err(err).Msg("Failed to load env file")
	}
	cfg := config.Load()
	logging.Init(logging.Config{
		Level:  cfg.Observability.LogLevel,
		Format: cfg.Observability.LogFormat,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create application")
	}
	defer application.Shutdown()

	if err := application.Start(ctx); err != nil {
		application.Shutdown()
		log.Fatal().Err(err).Msg("Failed to start application")
	}

	grpcServer := grpcapi.New(application.Ready)
	grpcServer.Refresh(ctx)

	lis, err := net.Listen("tcp", ":"+cfg.Service.GRPCPort)
	if err != nil {
		log.Fatal().Err(err).Str("port", cfg.Service.GRPCPort).Msg("Failed to listen")
	}
	go func() {
		log.Info().Str("port", cfg.Service.GRPCPort).Msg("gRPC health server started")
		if err := grpcServer.GRPC().Serve(lis); err != nil {
			log.Error().Err(err).Msg("gRPC serve failed")
			stop()
		}
	}()
	go func() {
		t := time.NewTicker(healthInterval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				grpcServer.Refresh(ctx)
			}
		}
	}()

	httpServer := &nethttp.Server{
		Addr:              ":" + cfg.Service.HTTPPort,
		Handler:           http.NewRouter(application),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       2 * time.Minute,
		// Analyses run inside the request.
		WriteTimeout: cfg.Pipeline.RequestTimeout + time.Minute,
		IdleTimeout:  2 * time.Minute,
	}
	go func() {
		log.Info().Str("port", cfg.Service.HTTPPort).Msg("Accent analyzer HTTP server started")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			log.Error().Err(err).Msg("HTTP serve failed")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")

	grpcServer.SetServing(false)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP shutdown failed")
	}
	grpcServer.Shutdown()
}
