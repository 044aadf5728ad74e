// Command eventviewer consumes analysis events from Kafka and shows them
// live in the browser over a websocket.
package main

import (
	"context"
	"embed"
	"flag"
	"io/fs"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"accent-analyzer/internal/events"
	"accent-analyzer/internal/observability/logging"
)

//go:embed static/*
var staticFiles embed.FS

func main() {
	port := flag.String("port", "8081", "HTTP server port")
	brokers := flag.String("brokers", "localhost:9092", "Kafka brokers (comma-separated)")
	topicCompleted := flag.String("topic-completed", "accent.analysis.completed", "completed analysis topic")
	topicFailed := flag.String("topic-failed", "accent.analysis.failed", "failed analysis topic")
	since := flag.Duration("since", time.Hour, "replay events newer than this")
	flag.Parse()

	logCfg := logging.DefaultConfig()
	logCfg.Format = "console"
	logging.Init(logCfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hub := events.NewHub()
	for _, topic := range []string{*topicCompleted, *topicFailed} {
		r := events.NewReader(ctx, strings.Split(*brokers, ","), topic, *since)
		defer r.Close()
		go events.Relay(ctx, r, hub)
	}

	staticFS, _ := fs.Sub(staticFiles, "static")
	mux := http.NewServeMux()
	mux.Handle("/", http.FileServer(http.FS(staticFS)))
	mux.Handle("/ws", hub)

	srv := &http.Server{Addr: ":" + *port, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info().
		Str("port", *port).
		Str("brokers", *brokers).
		Strs("topics", []string{*topicCompleted, *topicFailed}).
		Msg("Event viewer starting")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("Server error")
	}
}
