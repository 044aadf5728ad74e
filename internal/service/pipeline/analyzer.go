// Package pipeline runs one accent analysis end to end: acquire audio,
// transcribe and classify it, apply the English-only rule and assemble the
// report. It owns stage tracking, per-stage timeouts, metrics and events.
package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"accent-analyzer/internal/apperr"
	"accent-analyzer/internal/models"
	"accent-analyzer/internal/observability/logging"
	"accent-analyzer/internal/observability/metrics"
	"accent-analyzer/internal/schema"
	"accent-analyzer/internal/service/accent"
	"accent-analyzer/internal/service/audio"
	"accent-analyzer/internal/service/stt"
)

// Acquirer turns a request into decoded audio inside a workspace the
// caller must close.
type Acquirer interface {
	Acquire(ctx context.Context, req *models.AnalysisRequest) (*audio.Workspace, *models.AudioBuffer, error)
}

// Publisher emits analysis events.
type Publisher interface {
	PublishCompleted(ctx context.Context, ev models.AnalysisCompleted) error
	PublishFailed(ctx context.Context, ev models.AnalysisFailed) error
}

// WaveformFunc renders the waveform image of a buffer.
type WaveformFunc func(buf *models.AudioBuffer) ([]byte, error)

// Options control scheduling and timeouts. Zero timeouts disable the
// corresponding deadline.
type Options struct {
	// Concurrent runs transcription and classification in parallel.
	// Otherwise classification only runs for English speech.
	Concurrent        bool
	RequestTimeout    time.Duration
	DownloadTimeout   time.Duration
	TranscribeTimeout time.Duration
	ClassifyTimeout   time.Duration
	PublishTimeout    time.Duration
	// MaxConcurrent bounds analyses in flight; 0 means unbounded.
	MaxConcurrent int
}

// DefaultOptions returns the production defaults.
func DefaultOptions() Options {
	return Options{
		Concurrent:        true,
		RequestTimeout:    10 * time.Minute,
		DownloadTimeout:   5 * time.Minute,
		TranscribeTimeout: 3 * time.Minute,
		ClassifyTimeout:   2 * time.Minute,
		PublishTimeout:    10 * time.Second,
		MaxConcurrent:     2,
	}
}

// Deps are the handles an Analyzer is built from. All are required except
// Waveform, which disables the plot when nil.
type Deps struct {
	Acquirer    Acquirer
	Transcriber stt.Transcriber
	Classifier  accent.Classifier
	Publisher   Publisher
	Metrics     *metrics.Metrics
	Validator   *schema.Validator
	Waveform    WaveformFunc
}

// Analyzer runs analyses. It is safe for concurrent use.
type Analyzer struct {
	deps  Deps
	opts  Options
	slots *semaphore.Weighted
	now   func() time.Time
}

// New creates an Analyzer.
func New(deps Deps, opts Options) *Analyzer {
	a := &Analyzer{deps: deps, opts: opts, now: time.Now}
	if opts.MaxConcurrent > 0 {
		a.slots = semaphore.NewWeighted(int64(opts.MaxConcurrent))
	}
	return a
}

// recognition is the combined output of transcription and classification.
type recognition struct {
	transcript *models.TranscriptResult
	accent     *models.AccentResult
}

// Analyze runs one analysis. A request without an ID is assigned one.
// Every error returned is an *apperr.Error; the workspace is removed
// before Analyze returns.
func (a *Analyzer) Analyze(ctx context.Context, req *models.AnalysisRequest, progress ProgressFunc) (*models.AnalysisReport, error) {
	if req != nil && req.ID == "" {
		req.ID = uuid.NewString()
	}
	if err := a.deps.Validator.ValidateRequest(req); err != nil {
		return nil, err
	}

	if a.slots != nil {
		if !a.slots.TryAcquire(1) {
			a.deps.Metrics.RecordRejected()
			return nil, apperr.Busy()
		}
		defer a.slots.Release(1)
	}

	if a.opts.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.opts.RequestTimeout)
		defer cancel()
	}

	source := sourceOf(req)
	logger := logging.WithAnalysis(req.ID, source)
	tracker := NewTracker(req.ID, progress)
	start := a.now()

	a.deps.Metrics.RecordAnalysisStart(req.SourceKind())
	logger.Info().Str("kind", req.SourceKind()).Msg("Analysis started")

	report, err := a.run(ctx, req, tracker, logger)
	elapsed := a.now().Sub(start)

	var e *apperr.Error
	if err != nil {
		e = apperr.As(err)
		tracker.Fail(e)
	}
	for _, st := range tracker.Timings() {
		a.deps.Metrics.RecordStage(st.Stage, st.Duration.Seconds())
	}

	if e != nil {
		a.deps.Metrics.RecordAnalysisEnd(string(e.Kind), elapsed.Seconds())
		logger.Error().
			Err(e).
			Str("errorKind", string(e.Kind)).
			Str("reason", e.Reason).
			Dur("elapsed", elapsed).
			Msg("Analysis failed")
		a.publishFailed(ctx, logger, req, source, e)
		return nil, e
	}

	a.deps.Metrics.RecordAnalysisEnd("", elapsed.Seconds())
	switch report.Verdict {
	case models.VerdictAccent:
		a.deps.Metrics.RecordAccent(report.Accent.Accent.Code())
	case models.VerdictNotEnglish:
		a.deps.Metrics.RecordNotEnglish()
	}
	logger.Info().
		Str("verdict", report.Verdict.String()).
		Str("language", report.DetectedLanguage).
		Dur("elapsed", elapsed).
		Msg("Analysis completed")
	a.publishCompleted(ctx, logger, report)
	return report, nil
}

func (a *Analyzer) run(ctx context.Context, req *models.AnalysisRequest, tracker *Tracker, logger zerolog.Logger) (*models.AnalysisReport, error) {
	if err := tracker.Advance(StageAcquiring); err != nil {
		return nil, apperr.Internal(err, "analysis state")
	}
	actx, cancel := withTimeout(ctx, a.opts.DownloadTimeout)
	ws, buf, err := a.deps.Acquirer.Acquire(actx, req)
	cancel()
	if err != nil {
		return nil, wrapStage(err, apperr.Download, "audio acquisition")
	}
	defer func() {
		if err := ws.Close(); err != nil {
			logger.Warn().Err(err).Str("dir", ws.Dir()).Msg("Failed to remove workspace")
		}
	}()
	a.deps.Metrics.RecordAudio(buf.Duration.Seconds())
	stageLog := logging.WithStage(logger, StageAcquiring.String())
	stageLog.Debug().
		Dur("audio", buf.Duration).
		Int("sampleRate", buf.SampleRate).
		Msg("Audio ready")

	if err := tracker.Advance(StageTranscribing); err != nil {
		return nil, apperr.Internal(err, "analysis state")
	}
	var rec *recognition
	if a.opts.Concurrent {
		rec, err = a.recognizeConcurrently(ctx, buf, tracker)
	} else {
		rec, err = a.recognizeSequentially(ctx, buf, tracker)
	}
	if err != nil {
		return nil, err
	}

	if err := tracker.Advance(StageRendering); err != nil {
		return nil, apperr.Internal(err, "analysis state")
	}
	report := &models.AnalysisReport{
		RequestID:        req.ID,
		Source:           sourceOf(req),
		DetectedLanguage: rec.transcript.Language,
		Transcript:       rec.transcript,
		AudioDuration:    buf.Duration,
	}
	if rec.transcript.IsEnglish() {
		report.Verdict = models.VerdictAccent
		report.Accent = rec.accent
	} else {
		report.Verdict = models.VerdictNotEnglish
	}

	if a.deps.Waveform != nil {
		png, err := a.deps.Waveform(buf)
		if err != nil {
			return nil, apperr.Internal(err, "rendering waveform failed")
		}
		report.Waveform = png
	}

	if err := tracker.Advance(StageCompleted); err != nil {
		return nil, apperr.Internal(err, "analysis state")
	}
	report.Stages = tracker.Timings()
	report.CompletedAt = a.now().UTC()
	return report, nil
}

// recognizeConcurrently runs both models at once. A transcription failure
// cancels classification. A classification failure only matters for
// English speech, and classification is cancelled as soon as the speech
// is known not to be English.
func (a *Analyzer) recognizeConcurrently(ctx context.Context, buf *models.AudioBuffer, tracker *Tracker) (*recognition, error) {
	g, gctx := errgroup.WithContext(ctx)
	cctx, cancelClassify := context.WithCancel(gctx)
	defer cancelClassify()

	rec := &recognition{}
	var classifyErr error

	g.Go(func() error {
		res, err := a.transcribe(gctx, buf)
		if err != nil {
			return err
		}
		rec.transcript = res
		if res.IsEnglish() {
			if err := tracker.Advance(StageClassifying); err != nil {
				return apperr.Internal(err, "analysis state")
			}
			return nil
		}
		cancelClassify()
		return nil
	})
	g.Go(func() error {
		rec.accent, classifyErr = a.classify(cctx, buf)
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, wrapStage(err, apperr.Transcription, "transcription")
	}
	if rec.transcript.IsEnglish() && classifyErr != nil {
		return nil, classifyErr
	}
	return rec, nil
}

func (a *Analyzer) recognizeSequentially(ctx context.Context, buf *models.AudioBuffer, tracker *Tracker) (*recognition, error) {
	res, err := a.transcribe(ctx, buf)
	if err != nil {
		return nil, err
	}
	rec := &recognition{transcript: res}
	if !res.IsEnglish() {
		return rec, nil
	}
	if err := tracker.Advance(StageClassifying); err != nil {
		return nil, apperr.Internal(err, "analysis state")
	}
	if rec.accent, err = a.classify(ctx, buf); err != nil {
		return nil, err
	}
	return rec, nil
}

func (a *Analyzer) transcribe(ctx context.Context, buf *models.AudioBuffer) (*models.TranscriptResult, error) {
	ctx, cancel := withTimeout(ctx, a.opts.TranscribeTimeout)
	defer cancel()
	res, err := a.deps.Transcriber.Transcribe(ctx, buf)
	if err != nil {
		return nil, wrapStage(err, apperr.Transcription, "transcription")
	}
	return res, nil
}

func (a *Analyzer) classify(ctx context.Context, buf *models.AudioBuffer) (*models.AccentResult, error) {
	ctx, cancel := withTimeout(ctx, a.opts.ClassifyTimeout)
	defer cancel()
	res, err := a.deps.Classifier.Classify(ctx, buf)
	if err != nil {
		return nil, wrapStage(err, apperr.Classification, "accent classification")
	}
	return res, nil
}

func (a *Analyzer) publishCompleted(ctx context.Context, logger zerolog.Logger, r *models.AnalysisReport) {
	ev := models.AnalysisCompleted{
		EventType: models.EventAnalysisCompleted,
		RequestID: r.RequestID,
		Timestamp: a.now().UnixMilli(),
		Source:    r.Source,
		Verdict:   r.Verdict.String(),
		Language:  r.DetectedLanguage,
		AudioMs:   r.AudioDuration.Milliseconds(),
	}
	if r.Accent != nil {
		ev.Accent = r.Accent.Accent.Code()
		ev.Confidence = r.Accent.Confidence
	}
	if err := a.deps.Validator.Validate(ev); err != nil {
		logger.Error().Err(err).Msg("Completed event failed validation, not published")
		return
	}
	pctx, cancel := a.publishContext(ctx)
	defer cancel()
	if err := a.deps.Publisher.PublishCompleted(pctx, ev); err != nil {
		logger.Error().Err(err).Msg("Failed to publish completed event")
	}
}

func (a *Analyzer) publishFailed(ctx context.Context, logger zerolog.Logger, req *models.AnalysisRequest, source string, e *apperr.Error) {
	ev := models.AnalysisFailed{
		EventType: models.EventAnalysisFailed,
		RequestID: req.ID,
		Timestamp: a.now().UnixMilli(),
		Source:    source,
		Kind:      string(e.Kind),
		Reason:    e.Reason,
		Message:   e.Message,
	}
	if err := a.deps.Validator.Validate(ev); err != nil {
		logger.Error().Err(err).Msg("Failed event failed validation, not published")
		return
	}
	pctx, cancel := a.publishContext(ctx)
	defer cancel()
	if err := a.deps.Publisher.PublishFailed(pctx, ev); err != nil {
		logger.Error().Err(err).Msg("Failed to publish failed event")
	}
}

// publishContext detaches from the request so a cancelled or timed out
// analysis still reports its outcome.
func (a *Analyzer) publishContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return withTimeout(context.WithoutCancel(ctx), a.opts.PublishTimeout)
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

// wrapStage types foreign errors with the stage's kind. Errors that are
// already typed pass through unchanged.
func wrapStage(err error, kind func(error, string, ...any) *apperr.Error, stage string) error {
	var e *apperr.Error
	if errors.As(err, &e) {
		return e
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return kind(err, "%s timed out", stage).WithReason("timeout")
	case errors.Is(err, context.Canceled):
		return kind(err, "%s cancelled", stage).WithReason("cancelled")
	default:
		return kind(err, "%s failed", stage)
	}
}

func sourceOf(req *models.AnalysisRequest) string {
	if s := req.Source(); s != "" {
		return s
	}
	return req.SourceKind()
}
