// Package config loads service configuration from the environment.
package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Configuration is the full service configuration.
type Configuration struct {
	Service       ServiceConfig
	Audio         AudioConfig
	STT           STTConfig
	Accent        AccentConfig
	Pipeline      PipelineConfig
	Kafka         KafkaConfig
	Observability ObservabilityConfig
}

// ServiceConfig holds listener and identity settings.
type ServiceConfig struct {
	Principal string
	HTTPPort  string
	GRPCPort  string
}

// AudioConfig bounds what acquisition is allowed to fetch and keep.
type AudioConfig struct {
	TempDir          string
	SampleRate       int
	MaxDownloadBytes int64
	MaxUploadBytes   int64
	MaxDuration      time.Duration
	YtDlpPath        string
	FFmpegPath       string
}

// STTConfig selects and configures the transcription backend.
type STTConfig struct {
	Provider              string // openai, whisper, google, mock
	Model                 string
	Language              string
	OpenAIAPIKey          string
	WhisperURL            string
	GoogleCredentialsFile string
	AlternativeLanguages  []string
	Timeout               time.Duration
}

// AccentConfig selects and configures the accent classifier.
type AccentConfig struct {
	Provider      string // huggingface, mock
	Model         string
	HFToken       string
	BaseURL       string
	MinConfidence float64
	Timeout       time.Duration
}

// PipelineConfig controls how analyses are scheduled.
type PipelineConfig struct {
	Concurrent      bool
	RequestTimeout  time.Duration
	DownloadTimeout time.Duration
	MaxConcurrent   int
}

// KafkaConfig configures the analysis event publisher.
type KafkaConfig struct {
	Enabled        bool
	Brokers        []string
	TopicCompleted string
	TopicFailed    string
	Principal      string
}

// ObservabilityConfig configures logging and metrics.
type ObservabilityConfig struct {
	LogLevel       string
	LogFormat      string
	MetricsEnabled bool
}

// DefaultEnvFile is read when ACCENT_ENV_FILE is unset.
const DefaultEnvFile = ".env"

// LoadEnvFile loads secrets from ACCENT_ENV_FILE (or .env) into the process
// environment. Variables that are already set win. A missing default file
// is not an error.
func LoadEnvFile() error {
	path := os.Getenv("ACCENT_ENV_FILE")
	explicit := path != ""
	if !explicit {
		path = DefaultEnvFile
	}
	if err := godotenv.Load(path); err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	return nil
}

// Load reads the configuration from environment variables.
func Load() *Configuration {
	principal := envOrDefault("SERVICE_PRINCIPAL", "svc-accent-analyzer")

	return &Configuration{
		Service: ServiceConfig{
			Principal: principal,
			HTTPPort:  envOrDefault("HTTP_PORT", "8080"),
			GRPCPort:  envOrDefault("GRPC_PORT", "50051"),
		},
		Audio: AudioConfig{
			TempDir:          envOrDefault("AUDIO_TEMP_DIR", os.TempDir()),
			SampleRate:       envOrDefaultInt("AUDIO_SAMPLE_RATE_HZ", 16000),
			MaxDownloadBytes: envOrDefaultInt64("AUDIO_MAX_DOWNLOAD_BYTES", 200*1024*1024),
			MaxUploadBytes:   envOrDefaultInt64("AUDIO_MAX_UPLOAD_BYTES", 100*1024*1024),
			MaxDuration:      envOrDefaultDuration("AUDIO_MAX_DURATION", 5*time.Minute),
			YtDlpPath:        envOrDefault("YTDLP_PATH", "yt-dlp"),
			FFmpegPath:       envOrDefault("FFMPEG_PATH", "ffmpeg"),
		},
		STT: STTConfig{
			Provider:              envOrDefault("STT_PROVIDER", "mock"),
			Model:                 envOrDefault("STT_MODEL", "whisper-1"),
			Language:              os.Getenv("STT_LANGUAGE"),
			OpenAIAPIKey:          os.Getenv("OPENAI_API_KEY"),
			WhisperURL:            envOrDefault("WHISPER_URL", "http://localhost:9000"),
			GoogleCredentialsFile: os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"),
			AlternativeLanguages:  envOrDefaultList("STT_ALTERNATIVE_LANGUAGES", []string{"es-ES", "fr-FR", "de-DE", "hi-IN"}),
			Timeout:               envOrDefaultDuration("STT_TIMEOUT", 3*time.Minute),
		},
		Accent: AccentConfig{
			Provider:      envOrDefault("ACCENT_PROVIDER", "mock"),
			Model:         envOrDefault("ACCENT_MODEL", "Jzuluaga/accent-id-commonaccent_xlsr-en-english"),
			HFToken:       os.Getenv("HF_TOKEN"),
			BaseURL:       envOrDefault("ACCENT_BASE_URL", "https://api-inference.huggingface.co"),
			MinConfidence: envOrDefaultFloat("ACCENT_MIN_CONFIDENCE", 50),
			Timeout:       envOrDefaultDuration("ACCENT_TIMEOUT", 2*time.Minute),
		},
		Pipeline: PipelineConfig{
			Concurrent:      envOrDefaultBool("PIPELINE_CONCURRENT", true),
			RequestTimeout:  envOrDefaultDuration("PIPELINE_REQUEST_TIMEOUT", 10*time.Minute),
			DownloadTimeout: envOrDefaultDuration("PIPELINE_DOWNLOAD_TIMEOUT", 5*time.Minute),
			MaxConcurrent:   envOrDefaultInt("MAX_CONCURRENT_ANALYSES", 2),
		},
		Kafka: KafkaConfig{
			Enabled:        envOrDefaultBool("KAFKA_ENABLED", false),
			Brokers:        envOrDefaultList("KAFKA_BROKERS", nil),
			TopicCompleted: envOrDefault("KAFKA_TOPIC_COMPLETED", "accent.analysis.completed"),
			TopicFailed:    envOrDefault("KAFKA_TOPIC_FAILED", "accent.analysis.failed"),
			Principal:      envOrDefault("KAFKA_PRINCIPAL", principal),
		},
		Observability: ObservabilityConfig{
			LogLevel:       envOrDefault("LOG_LEVEL", "info"),
			LogFormat:      envOrDefault("LOG_FORMAT", "json"),
			MetricsEnabled: envOrDefaultBool("METRICS_ENABLED", true),
		},
	}
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrDefaultInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func envOrDefaultInt64(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			return i
		}
	}
	return def
}

func envOrDefaultFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func envOrDefaultBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func envOrDefaultDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

// envOrDefaultList splits a comma separated value, dropping empty items.
func envOrDefaultList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
