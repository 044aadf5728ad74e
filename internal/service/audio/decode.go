package audio

import (
	"fmt"
	"os"
	"time"

	"github.com/go-audio/wav"

	"accent-analyzer/internal/apperr"
	"accent-analyzer/internal/models"
)

// DecodeWAV reads a PCM WAV file into a mono float buffer normalised to
// [-1, 1]. Multi-channel input is averaged down to one channel.
func DecodeWAV(path string) (*models.AudioBuffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperr.Internal(err, "open extracted audio")
	}
	defer f.Close()

	d := wav.NewDecoder(f)
	if !d.IsValidFile() {
		return nil, apperr.UnsupportedFormat(nil, "extracted audio is not a valid WAV file")
	}
	pcm, err := d.FullPCMBuffer()
	if err != nil {
		return nil, apperr.UnsupportedFormat(err, "decode WAV")
	}

	channels := int(d.NumChans)
	if channels < 1 || d.SampleRate == 0 || d.BitDepth == 0 {
		return nil, apperr.UnsupportedFormat(nil, "WAV header has no channels or sample rate")
	}
	frames := len(pcm.Data) / channels
	if frames == 0 {
		return nil, apperr.UnsupportedFormat(nil, "media contains no audio samples")
	}

	scale := float32(int64(1) << (d.BitDepth - 1))
	samples := make([]float32, frames)
	for i := 0; i < frames; i++ {
		var sum int
		for c := 0; c < channels; c++ {
			sum += pcm.Data[i*channels+c]
		}
		v := float32(sum) / float32(channels) / scale
		if v > 1 {
			v = 1
		} else if v < -1 {
			v = -1
		}
		samples[i] = v
	}

	rate := int(d.SampleRate)
	return &models.AudioBuffer{
		Samples:    samples,
		SampleRate: rate,
		Duration:   time.Duration(frames) * time.Second / time.Duration(rate),
		Path:       path,
	}, nil
}

// PCM16 returns the buffer as little-endian signed 16-bit samples, the
// LINEAR16 layout cloud recognisers accept.
func PCM16(buf *models.AudioBuffer) []byte {
	out := make([]byte, 2*len(buf.Samples))
	for i, s := range buf.Samples {
		v := int16(clamp(s) * 32767)
		out[2*i] = byte(v)
		out[2*i+1] = byte(v >> 8)
	}
	return out
}

func clamp(s float32) float32 {
	switch {
	case s > 1:
		return 1
	case s < -1:
		return -1
	default:
		return s
	}
}

// describeBuffer is used in log lines.
func describeBuffer(buf *models.AudioBuffer) string {
	return fmt.Sprintf("%d samples @ %dHz (%s)", len(buf.Samples), buf.SampleRate, buf.Duration.Round(time.Millisecond))
}
