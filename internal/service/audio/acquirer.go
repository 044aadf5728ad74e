// Package audio acquires speech audio for an analysis: it downloads or
// copies the media into a scoped workspace, extracts a mono 16 kHz WAV
// track with ffmpeg and decodes it into samples.
package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"accent-analyzer/internal/apperr"
	"accent-analyzer/internal/models"
	"accent-analyzer/internal/observability/logging"
)

// Config configures an Acquirer.
type Config struct {
	TempDir    string
	YtDlpPath  string
	FFmpegPath string
	Limits     Limits
}

// Acquirer turns an analysis request into decoded audio.
type Acquirer struct {
	cfg    Config
	runner Runner
	logger zerolog.Logger
}

// NewAcquirer creates an Acquirer. A nil runner executes real processes.
func NewAcquirer(cfg Config, runner Runner) *Acquirer {
	if cfg.YtDlpPath == "" {
		cfg.YtDlpPath = "yt-dlp"
	}
	if cfg.FFmpegPath == "" {
		cfg.FFmpegPath = "ffmpeg"
	}
	cfg.Limits = cfg.Limits.withDefaults()
	if runner == nil {
		runner = ExecRunner{}
	}
	return &Acquirer{
		cfg:    cfg,
		runner: runner,
		logger: logging.WithComponent("audio"),
	}
}

// Limits returns the effective limits.
func (a *Acquirer) Limits() Limits {
	return a.cfg.Limits
}

// Acquire fetches the request's media and decodes its audio track. On
// success the caller owns the workspace and must Close it; the buffer's
// Path lives inside it. On error nothing is left on disk.
func (a *Acquirer) Acquire(ctx context.Context, req *models.AnalysisRequest) (*Workspace, *models.AudioBuffer, error) {
	ws, err := NewWorkspace(a.cfg.TempDir)
	if err != nil {
		return nil, nil, apperr.Internal(err, "prepare workspace")
	}
	buf, err := a.acquireInto(ctx, ws, req)
	if err != nil {
		if cerr := ws.Close(); cerr != nil {
			a.logger.Warn().Err(cerr).Str("dir", ws.Dir()).Msg("Failed to remove workspace")
		}
		return nil, nil, err
	}
	return ws, buf, nil
}

func (a *Acquirer) acquireInto(ctx context.Context, ws *Workspace, req *models.AnalysisRequest) (*models.AudioBuffer, error) {
	var (
		media string
		err   error
	)
	if req.HasUpload() {
		media, err = a.copyUpload(ws, req)
	} else {
		media, err = a.download(ctx, ws, req.URL)
	}
	if err != nil {
		return nil, err
	}

	wavPath, err := a.extract(ctx, ws, media)
	if err != nil {
		return nil, err
	}

	buf, err := DecodeWAV(wavPath)
	if err != nil {
		return nil, err
	}

	a.logger.Debug().
		Str("requestId", req.ID).
		Str("audio", describeBuffer(buf)).
		Msg("Audio acquired")
	return buf, nil
}

func (a *Acquirer) download(ctx context.Context, ws *Workspace, rawURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", apperr.Download(err, "invalid media URL %q", rawURL).WithReason(ReasonUnreachable)
	}

	args := []string{
		"--no-playlist",
		"--quiet",
		"--no-warnings",
		"--no-progress",
		"-f", "bestaudio/best",
		"--max-filesize", strconv.FormatInt(a.cfg.Limits.MaxDownloadBytes, 10),
		"-o", ws.Path("media.%(ext)s"),
		u.String(),
	}
	res, runErr := a.runner.Run(ctx, Command{Binary: a.cfg.YtDlpPath, Args: args})
	if runErr != nil {
		if ctx.Err() != nil {
			return "", apperr.Download(ctx.Err(), "%s", reasonMessage(ReasonTimeout)).WithReason(ReasonTimeout)
		}
		var output string
		if res != nil {
			output = string(res.Stderr) + "\n" + string(res.Stdout)
		}
		if errors.Is(runErr, exec.ErrNotFound) {
			return "", apperr.Internal(runErr, "yt-dlp is not installed")
		}
		reason := downloadReason(output)
		a.logger.Info().Str("reason", reason).Str("detail", lastLine([]byte(output))).Msg("Download failed")
		return "", apperr.Download(runErr, "%s", reasonMessage(reason)).WithReason(reason)
	}

	media, err := findDownloaded(ws)
	if err != nil {
		output := ""
		if res != nil {
			output = string(res.Stderr) + "\n" + string(res.Stdout)
		}
		reason := ReasonUnavailable
		if strings.Contains(strings.ToLower(output), "max-filesize") {
			reason = ReasonTooLarge
		}
		return "", apperr.Download(err, "%s", reasonMessage(reason)).WithReason(reason)
	}

	info, err := os.Stat(media)
	if err != nil {
		return "", apperr.Internal(err, "stat downloaded media")
	}
	if info.Size() > a.cfg.Limits.MaxDownloadBytes {
		return "", apperr.Download(nil, "%s", reasonMessage(ReasonTooLarge)).WithReason(ReasonTooLarge)
	}
	return media, nil
}

// findDownloaded returns the single finished download in ws.
func findDownloaded(ws *Workspace) (string, error) {
	matches, err := filepath.Glob(ws.Path("media.*"))
	if err != nil {
		return "", err
	}
	for _, m := range matches {
		if strings.HasSuffix(m, ".part") || strings.HasSuffix(m, ".ytdl") {
			continue
		}
		return m, nil
	}
	return "", fmt.Errorf("no media file was downloaded")
}

func (a *Acquirer) copyUpload(ws *Workspace, req *models.AnalysisRequest) (string, error) {
	src := req.Upload
	if src == nil {
		f, err := os.Open(req.UploadPath)
		if err != nil {
			return "", apperr.InvalidRequest(err, "cannot open %s", req.UploadPath)
		}
		defer f.Close()
		src = f
	}

	ext := strings.ToLower(filepath.Ext(req.Source()))
	if len(ext) > 8 {
		ext = ""
	}
	dst := ws.Path("upload" + ext)
	out, err := os.Create(dst)
	if err != nil {
		return "", apperr.Internal(err, "create upload file")
	}
	defer out.Close()

	limit := a.cfg.Limits.MaxUploadBytes
	n, err := io.Copy(out, io.LimitReader(src, limit+1))
	if err != nil {
		return "", apperr.Internal(err, "store upload")
	}
	if n > limit {
		return "", apperr.InvalidRequest(nil, "file exceeds the %d MiB upload limit", limit/(1024*1024)).WithReason(ReasonTooLarge)
	}
	if n == 0 {
		return "", apperr.UnsupportedFormat(nil, "uploaded file is empty")
	}
	return dst, nil
}

func (a *Acquirer) extract(ctx context.Context, ws *Workspace, media string) (string, error) {
	out := ws.Path("audio.wav")
	args := []string{
		"-nostdin",
		"-hide_banner",
		"-loglevel", "error",
		"-y",
		"-i", media,
		"-vn",
		"-ac", "1",
		"-ar", strconv.Itoa(a.cfg.Limits.SampleRate),
		"-t", strconv.FormatFloat(a.cfg.Limits.MaxDuration.Seconds(), 'f', -1, 64),
		"-c:a", "pcm_s16le",
		"-f", "wav",
		out,
	}
	res, err := a.runner.Run(ctx, Command{Binary: a.cfg.FFmpegPath, Args: args})
	if err != nil {
		if ctx.Err() != nil {
			return "", apperr.UnsupportedFormat(ctx.Err(), "audio extraction timed out").WithReason(ReasonTimeout)
		}
		if errors.Is(err, exec.ErrNotFound) {
			return "", apperr.Internal(err, "ffmpeg is not installed")
		}
		detail := ""
		if res != nil {
			detail = lastLine(res.Stderr)
		}
		reason := ""
		if strings.Contains(strings.ToLower(detail), "does not contain any stream") ||
			strings.Contains(strings.ToLower(detail), "matches no streams") {
			reason = "no-audio"
		}
		e := apperr.UnsupportedFormat(err, "could not extract an audio track")
		if reason != "" {
			e = e.WithReason(reason)
		}
		return "", e
	}
	return out, nil
}

// CheckDependencies verifies that ffmpeg and yt-dlp can be executed.
func (a *Acquirer) CheckDependencies(ctx context.Context) error {
	var missing []string
	for _, c := range []Command{
		{Binary: a.cfg.FFmpegPath, Args: []string{"-version"}},
		{Binary: a.cfg.YtDlpPath, Args: []string{"--version"}},
	} {
		if _, err := a.runner.Run(ctx, c); err != nil {
			missing = append(missing, c.Binary)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("required tools unavailable: %s", strings.Join(missing, ", "))
	}
	return nil
}
