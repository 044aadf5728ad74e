package app

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"accent-analyzer/internal/config"
	"accent-analyzer/internal/events"
	"accent-analyzer/internal/models"
	"accent-analyzer/internal/observability/logging"
	"accent-analyzer/internal/observability/metrics"
	"accent-analyzer/internal/report"
	"accent-analyzer/internal/schema"
	"accent-analyzer/internal/service/accent"
	"accent-analyzer/internal/service/accent/huggingface"
	accentmock "accent-analyzer/internal/service/accent/mock"
	"accent-analyzer/internal/service/audio"
	"accent-analyzer/internal/service/pipeline"
	"accent-analyzer/internal/service/stt"
	"accent-analyzer/internal/service/stt/google"
	sttmock "accent-analyzer/internal/service/stt/mock"
	"accent-analyzer/internal/service/stt/openai"
	"accent-analyzer/internal/service/stt/whisper"
)

// Application holds the process-wide model handles and the analyzer built
// from them. Handles are created in New, checked in Start and released in
// Shutdown.
type Application struct {
	StartupTime time.Time
	Logger      zerolog.Logger
	Cfg         *config.Configuration

	Acquirer    *audio.Acquirer
	Transcriber stt.Transcriber
	Classifier  accent.Classifier
	Publisher   *events.Publisher
	Metrics     *metrics.Metrics
	Validator   *schema.Validator
	Analyzer    *pipeline.Analyzer

	mu      sync.RWMutex
	started bool
	depsErr error
	closers []io.Closer
}

// New constructs the application and its backends from cfg.
func New(ctx context.Context, cfg *config.Configuration) (*Application, error) {
	a := &Application{
		Cfg:       cfg,
		Logger:    logging.WithComponent("application"),
		Metrics:   metrics.DefaultMetrics,
		Validator: schema.New(),
	}

	a.Acquirer = audio.NewAcquirer(audio.Config{
		TempDir:    cfg.Audio.TempDir,
		YtDlpPath:  cfg.Audio.YtDlpPath,
		FFmpegPath: cfg.Audio.FFmpegPath,
		Limits: audio.Limits{
			MaxDownloadBytes: cfg.Audio.MaxDownloadBytes,
			MaxUploadBytes:   cfg.Audio.MaxUploadBytes,
			MaxDuration:      cfg.Audio.MaxDuration,
			SampleRate:       cfg.Audio.SampleRate,
		},
	}, nil)

	t, err := NewTranscriber(ctx, cfg.STT)
	if err != nil {
		return nil, err
	}
	a.Transcriber = t
	if c, ok := t.(io.Closer); ok {
		a.closers = append(a.closers, c)
	}

	c, err := NewClassifier(cfg.Accent)
	if err != nil {
		a.closeAll()
		return nil, err
	}
	a.Classifier = c

	a.Publisher = events.New(&events.Config{
		Brokers:        cfg.Kafka.Brokers,
		TopicCompleted: cfg.Kafka.TopicCompleted,
		TopicFailed:    cfg.Kafka.TopicFailed,
		Principal:      cfg.Kafka.Principal,
		Enabled:        cfg.Kafka.Enabled,
		Metrics:        a.Metrics,
	})
	a.closers = append(a.closers, a.Publisher)

	opts := pipeline.DefaultOptions()
	opts.Concurrent = cfg.Pipeline.Concurrent
	opts.RequestTimeout = cfg.Pipeline.RequestTimeout
	opts.DownloadTimeout = cfg.Pipeline.DownloadTimeout
	opts.TranscribeTimeout = cfg.STT.Timeout
	opts.ClassifyTimeout = cfg.Accent.Timeout
	opts.MaxConcurrent = cfg.Pipeline.MaxConcurrent

	a.Analyzer = pipeline.New(pipeline.Deps{
		Acquirer:    a.Acquirer,
		Transcriber: a.Transcriber,
		Classifier:  a.Classifier,
		Publisher:   a.Publisher,
		Metrics:     a.Metrics,
		Validator:   a.Validator,
		Waveform: func(buf *models.AudioBuffer) ([]byte, error) {
			return report.Waveform(buf, report.DefaultWaveformOptions())
		},
	}, opts)

	a.Logger.Info().
		Str("stt", a.Transcriber.Name()).
		Str("classifier", a.Classifier.Name()).
		Bool("concurrent", opts.Concurrent).
		Int("maxConcurrent", opts.MaxConcurrent).
		Bool("kafka", cfg.Kafka.Enabled).
		Msg("Accent analyzer application created")
	return a, nil
}

// NewTranscriber builds the configured speech-to-text backend.
func NewTranscriber(ctx context.Context, cfg config.STTConfig) (stt.Transcriber, error) {
	switch cfg.Provider {
	case stt.ProviderOpenAI:
		return openai.New(openai.Config{APIKey: cfg.OpenAIAPIKey, Model: cfg.Model, Language: cfg.Language})
	case stt.ProviderWhisper:
		return whisper.New(whisper.Config{URL: cfg.WhisperURL, Model: cfg.Model, Language: cfg.Language, Timeout: cfg.Timeout}), nil
	case stt.ProviderGoogle:
		gc := google.DefaultConfig()
		gc.CredentialsFile = cfg.GoogleCredentialsFile
		gc.AlternativeLanguages = cfg.AlternativeLanguages
		if cfg.Language != "" {
			gc.LanguageCode = cfg.Language
		}
		return google.New(ctx, gc)
	case stt.ProviderMock:
		return sttmock.New(sttmock.DefaultScript), nil
	default:
		return nil, fmt.Errorf("unknown STT provider %q", cfg.Provider)
	}
}

// NewClassifier builds the configured accent classifier.
func NewClassifier(cfg config.AccentConfig) (accent.Classifier, error) {
	switch cfg.Provider {
	case accent.ProviderHuggingFace:
		return huggingface.New(huggingface.Config{
			BaseURL:       cfg.BaseURL,
			Model:         cfg.Model,
			Token:         cfg.HFToken,
			MinConfidence: cfg.MinConfidence,
			Timeout:       cfg.Timeout,
		}), nil
	case accent.ProviderMock:
		return accentmock.New(nil, cfg.MinConfidence), nil
	default:
		return nil, fmt.Errorf("unknown accent provider %q", cfg.Provider)
	}
}

// Start checks external tools before traffic is served. A missing yt-dlp
// or ffmpeg is fatal.
func (a *Application) Start(ctx context.Context) error {
	a.StartupTime = time.Now().UTC()

	err := a.Acquirer.CheckDependencies(ctx)
	a.mu.Lock()
	a.started = true
	a.depsErr = err
	a.mu.Unlock()
	if err != nil {
		a.Logger.Error().Err(err).Msg("Required tools are missing")
		return err
	}

	a.Logger.Info().
		Time("startupTime", a.StartupTime).
		Msg("Accent analyzer starting")
	return nil
}

// Ready reports whether analyses can be served. It is the readiness probe
// for both HTTP and gRPC.
func (a *Application) Ready(ctx context.Context) error {
	a.mu.RLock()
	started, depsErr := a.started, a.depsErr
	a.mu.RUnlock()
	if !started {
		return fmt.Errorf("application not started")
	}
	if depsErr != nil {
		return depsErr
	}
	if p, ok := a.Transcriber.(interface{ Ping(context.Context) error }); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Shutdown releases model clients and the event publisher.
func (a *Application) Shutdown() {
	a.Logger.Info().Msg("Accent analyzer shutting down")
	a.closeAll()
}

func (a *Application) closeAll() {
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Error releasing resource")
		}
	}
	a.closers = nil
}
