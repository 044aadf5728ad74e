// Package google transcribes audio with Google Cloud Speech-to-Text.
package google

import (
	"context"
	"fmt"
	"strings"
	"time"

	speech "cloud.google.com/go/speech/apiv1"
	speechpb "cloud.google.com/go/speech/apiv1/speechpb"
	"google.golang.org/api/option"

	"accent-analyzer/internal/apperr"
	"accent-analyzer/internal/models"
	"accent-analyzer/internal/service/audio"
	"accent-analyzer/internal/service/stt"
)

// syncLimit is the longest audio the synchronous Recognize call accepts.
const syncLimit = 55 * time.Second

// Config holds Google STT configuration.
type Config struct {
	// LanguageCode is the primary BCP-47 language hint.
	LanguageCode string
	// AlternativeLanguages let the recogniser report a non-English language
	// instead of forcing an English transcript.
	AlternativeLanguages []string
	Model                string
	CredentialsFile      string
}

// DefaultConfig returns the default Google STT configuration.
func DefaultConfig() Config {
	return Config{
		LanguageCode:         "en-US",
		AlternativeLanguages: []string{"es-ES", "fr-FR", "de-DE", "hi-IN"},
		Model:                "latest_long",
	}
}

type recognizeFunc func(ctx context.Context, rc *speechpb.RecognitionConfig, ra *speechpb.RecognitionAudio, long bool) ([]*speechpb.SpeechRecognitionResult, error)

// Transcriber implements stt.Transcriber.
type Transcriber struct {
	cfg       Config
	client    *speech.Client
	recognize recognizeFunc
}

// New creates a Google transcriber. Without a credentials file the client
// falls back to application default credentials.
func New(ctx context.Context, cfg Config) (*Transcriber, error) {
	def := DefaultConfig()
	if cfg.LanguageCode == "" {
		cfg.LanguageCode = def.LanguageCode
	}
	if cfg.Model == "" || strings.HasPrefix(cfg.Model, "whisper") {
		cfg.Model = def.Model
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	c, err := speech.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("google speech client: %w", err)
	}

	t := &Transcriber{cfg: cfg, client: c}
	t.recognize = t.callAPI
	return t, nil
}

// Name returns the provider name.
func (t *Transcriber) Name() string { return stt.ProviderGoogle }

// Close releases the client connection.
func (t *Transcriber) Close() error {
	if t.client != nil {
		return t.client.Close()
	}
	return nil
}

// Transcribe sends the buffer as LINEAR16 and joins the recognised results.
func (t *Transcriber) Transcribe(ctx context.Context, buf *models.AudioBuffer) (*models.TranscriptResult, error) {
	rc := &speechpb.RecognitionConfig{
		Encoding:                   speechpb.RecognitionConfig_LINEAR16,
		SampleRateHertz:            int32(buf.SampleRate),
		AudioChannelCount:          1,
		LanguageCode:               t.cfg.LanguageCode,
		AlternativeLanguageCodes:   t.cfg.AlternativeLanguages,
		EnableWordTimeOffsets:      true,
		EnableAutomaticPunctuation: true,
		Model:                      t.cfg.Model,
	}
	ra := &speechpb.RecognitionAudio{
		AudioSource: &speechpb.RecognitionAudio_Content{Content: audio.PCM16(buf)},
	}

	results, err := t.recognize(ctx, rc, ra, buf.Duration > syncLimit)
	if err != nil {
		return nil, apperr.Transcription(err, "google recognition failed")
	}
	return stt.Finish(t.Name(), toTranscript(results, t.cfg.LanguageCode))
}

func (t *Transcriber) callAPI(ctx context.Context, rc *speechpb.RecognitionConfig, ra *speechpb.RecognitionAudio, long bool) ([]*speechpb.SpeechRecognitionResult, error) {
	if !long {
		resp, err := t.client.Recognize(ctx, &speechpb.RecognizeRequest{Config: rc, Audio: ra})
		if err != nil {
			return nil, err
		}
		return resp.Results, nil
	}
	op, err := t.client.LongRunningRecognize(ctx, &speechpb.LongRunningRecognizeRequest{Config: rc, Audio: ra})
	if err != nil {
		return nil, err
	}
	resp, err := op.Wait(ctx)
	if err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// toTranscript joins the top alternatives. The language is taken from the
// first result that reports one; word offsets become segment bounds.
func toTranscript(results []*speechpb.SpeechRecognitionResult, fallbackLang string) *models.TranscriptResult {
	out := &models.TranscriptResult{}
	var texts []string
	var prevEnd float64
	for _, r := range results {
		if len(r.Alternatives) == 0 {
			continue
		}
		alt := r.Alternatives[0]
		text := strings.TrimSpace(alt.Transcript)
		if text == "" {
			continue
		}
		texts = append(texts, text)
		if out.Language == "" && r.LanguageCode != "" {
			out.Language = r.LanguageCode
		}

		seg := models.Segment{Start: prevEnd, Text: text}
		if n := len(alt.Words); n > 0 {
			seg.Start = alt.Words[0].GetStartTime().AsDuration().Seconds()
			seg.End = alt.Words[n-1].GetEndTime().AsDuration().Seconds()
		} else if r.ResultEndTime != nil {
			seg.End = r.ResultEndTime.AsDuration().Seconds()
		}
		if seg.End < seg.Start {
			seg.End = seg.Start
		}
		prevEnd = seg.End
		out.Segments = append(out.Segments, seg)
	}
	out.Text = strings.Join(texts, " ")
	if out.Language == "" {
		out.Language = fallbackLang
	}
	return out
}
