// Command analyze classifies the English accent of a video URL or local
// media file from the terminal, or runs the sample suite.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"accent-analyzer/internal/app"
	"accent-analyzer/internal/apperr"
	"accent-analyzer/internal/config"
	"accent-analyzer/internal/models"
	"accent-analyzer/internal/observability/logging"
	"accent-analyzer/internal/report"
	"accent-analyzer/internal/service/pipeline"
	"accent-analyzer/internal/suite"
)

func main() {
	os.Exit(run())
}

func run() int {
	videoURL := flag.String("url", "", "public video or audio URL to analyze")
	file := flag.String("file", "", "local media file to analyze")
	runSuite := flag.Bool("suite", false, "run the sample URLs with known accents and print a summary")
	asJSON := flag.Bool("json", false, "print the report as JSON")
	waveform := flag.String("waveform", "", "write the waveform PNG to this path")
	logFormat := flag.String("log-format", "console", "log format: console or json")
	flag.Parse()

	if err := config.LoadEnvFile(); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading env file: %v\n", err)
		return 2
	}
	cfg := config.Load()
	// One analysis at a time from the terminal.
	cfg.Pipeline.MaxConcurrent = 1
	logging.Init(logging.Config{
		Level:  cfg.Observability.LogLevel,
		Format: *logFormat,
		Output: os.Stderr,
	})

	if !*runSuite && (*videoURL == "") == (*file == "") {
		fmt.Fprintln(os.Stderr, "Provide exactly one of -url or -file, or use -suite.")
		flag.Usage()
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer application.Shutdown()

	if err := application.Start(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\nInstall ffmpeg and yt-dlp, or set FFMPEG_PATH and YTDLP_PATH.\n", err)
		return 1
	}

	if *runSuite {
		return runCases(ctx, application.Analyzer, os.Stdout)
	}

	req := &models.AnalysisRequest{URL: *videoURL}
	if *file != "" {
		req = &models.AnalysisRequest{UploadPath: *file, UploadName: filepath.Base(*file)}
	}

	rep, err := application.Analyzer.Analyze(ctx, req, printProgress)
	if err != nil {
		e := apperr.As(err)
		fmt.Fprintf(os.Stderr, "Error (%s): %s\n", e.Kind, e.Message)
		return 1
	}

	if *waveform != "" && len(rep.Waveform) > 0 {
		if err := os.WriteFile(*waveform, rep.Waveform, 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing waveform: %v\n", err)
			return 1
		}
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report.ToJSON(rep)); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	}
	if err := report.RenderText(os.Stdout, rep); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func printProgress(p pipeline.Progress) {
	fmt.Fprintf(os.Stderr, "[%s] %s\n", p.Stage, p.Message)
}

func runCases(ctx context.Context, a suite.Analyzer, w io.Writer) int {
	cases := suite.Cases()
	fmt.Fprintf(w, "=== Running %d samples ===\n", len(cases))
	s := suite.Run(ctx, a, cases, func(i int, r suite.Result) {
		mark := "FAIL"
		if r.Passed() {
			mark = "PASS"
		}
		fmt.Fprintf(w, "%d/%d %s: %s (expected %s, got %s)\n",
			i+1, len(cases), mark, r.Case.Description, r.Case.Expectation(), r.Actual())
	})
	fmt.Fprintln(w)
	if err := s.Render(w); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if !s.OK() {
		return 1
	}
	return 0
}
