package audio

import "time"

// Limits bound the resources a single acquisition may use.
type Limits struct {
	MaxDownloadBytes int64         // largest media file yt-dlp may fetch
	MaxUploadBytes   int64         // largest caller-supplied media file
	MaxDuration      time.Duration // audio kept after extraction
	SampleRate       int           // Hz, mono
}

// DefaultLimits returns the default acquisition limits.
func DefaultLimits() Limits {
	return Limits{
		MaxDownloadBytes: 200 * 1024 * 1024,
		MaxUploadBytes:   100 * 1024 * 1024,
		MaxDuration:      5 * time.Minute,
		SampleRate:       16000,
	}
}

func (l Limits) withDefaults() Limits {
	d := DefaultLimits()
	if l.MaxDownloadBytes <= 0 {
		l.MaxDownloadBytes = d.MaxDownloadBytes
	}
	if l.MaxUploadBytes <= 0 {
		l.MaxUploadBytes = d.MaxUploadBytes
	}
	if l.MaxDuration <= 0 {
		l.MaxDuration = d.MaxDuration
	}
	if l.SampleRate <= 0 {
		l.SampleRate = d.SampleRate
	}
	return l
}
