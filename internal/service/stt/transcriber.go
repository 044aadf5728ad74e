// Package stt defines the speech-to-text contract used by analyses and the
// helpers shared by its backends.
package stt

import (
	"context"
	"strings"

	"accent-analyzer/internal/apperr"
	"accent-analyzer/internal/models"
)

// Transcriber converts decoded audio into text plus the detected language.
// Implementations make a single attempt; they do not retry.
type Transcriber interface {
	Name() string
	Transcribe(ctx context.Context, buf *models.AudioBuffer) (*models.TranscriptResult, error)
}

// Providers accepted by configuration.
const (
	ProviderOpenAI  = "openai"
	ProviderWhisper = "whisper"
	ProviderGoogle  = "google"
	ProviderMock    = "mock"
)

var languageNames = map[string]string{
	"english":    "en",
	"spanish":    "es",
	"french":     "fr",
	"german":     "de",
	"italian":    "it",
	"portuguese": "pt",
	"dutch":      "nl",
	"russian":    "ru",
	"chinese":    "zh",
	"japanese":   "ja",
	"korean":     "ko",
	"arabic":     "ar",
	"hindi":      "hi",
	"urdu":       "ur",
	"bengali":    "bn",
	"turkish":    "tr",
	"polish":     "pl",
	"swedish":    "sv",
	"indonesian": "id",
	"vietnamese": "vi",
	"tagalog":    "tl",
	"swahili":    "sw",
}

// NormalizeLanguage reduces a language name or BCP-47 tag to a lower-case
// ISO 639-1 code: "English" and "en-US" both become "en". Unknown names
// are returned lower-cased.
func NormalizeLanguage(lang string) string {
	l := strings.ToLower(strings.TrimSpace(lang))
	if l == "" {
		return ""
	}
	if code, ok := languageNames[l]; ok {
		return code
	}
	if i := strings.IndexAny(l, "-_"); i > 0 {
		l = l[:i]
	}
	return l
}

// DefaultLanguage is assumed when a backend does not report a language.
const DefaultLanguage = "en"

// Finish validates a backend result: the text must not be empty and the
// language is normalised, defaulting to DefaultLanguage. The provider name
// is recorded on the result.
func Finish(provider string, res *models.TranscriptResult) (*models.TranscriptResult, error) {
	if res == nil {
		return nil, apperr.Transcription(nil, "%s returned no result", provider)
	}
	res.Text = strings.TrimSpace(res.Text)
	if res.Text == "" {
		return nil, apperr.Transcription(nil, "empty transcript").WithReason("empty")
	}
	res.Language = NormalizeLanguage(res.Language)
	if res.Language == "" {
		res.Language = DefaultLanguage
	}
	res.Provider = provider
	return res, nil
}
