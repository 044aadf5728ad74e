// Package report renders analysis reports: a waveform image, a plain text
// summary for the terminal, the HTML page and the JSON API view.
package report

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"accent-analyzer/internal/models"
)

// WaveformOptions controls the waveform image.
type WaveformOptions struct {
	// Buckets is the number of min/max envelope pairs drawn.
	Buckets int
	Width   vg.Length
	Height  vg.Length
	Title   string
}

// DefaultWaveformOptions returns the options used for reports.
func DefaultWaveformOptions() WaveformOptions {
	return WaveformOptions{
		Buckets: 2000,
		Width:   10 * vg.Inch,
		Height:  3 * vg.Inch,
		Title:   "Audio Waveform",
	}
}

var waveColor = color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff}

// Waveform plots amplitude over time as a PNG. Samples are reduced to a
// min/max envelope per bucket so long recordings stay cheap to draw.
func Waveform(buf *models.AudioBuffer, opts WaveformOptions) ([]byte, error) {
	if buf == nil || len(buf.Samples) == 0 || buf.SampleRate <= 0 {
		return nil, errors.New("waveform: no samples")
	}
	def := DefaultWaveformOptions()
	if opts.Buckets <= 0 {
		opts.Buckets = def.Buckets
	}
	if opts.Width <= 0 {
		opts.Width = def.Width
	}
	if opts.Height <= 0 {
		opts.Height = def.Height
	}

	p := plot.New()
	p.Title.Text = opts.Title
	p.X.Label.Text = "Time (s)"
	p.Y.Label.Text = "Amplitude"
	p.Y.Min, p.Y.Max = -1, 1
	p.Add(plotter.NewGrid())

	line, err := plotter.NewLine(Envelope(buf.Samples, buf.SampleRate, opts.Buckets))
	if err != nil {
		return nil, fmt.Errorf("waveform: %w", err)
	}
	line.LineStyle.Width = vg.Points(0.5)
	line.LineStyle.Color = waveColor
	p.Add(line)

	w, err := p.WriterTo(opts.Width, opts.Height, "png")
	if err != nil {
		return nil, fmt.Errorf("waveform: %w", err)
	}
	var out bytes.Buffer
	if _, err := w.WriteTo(&out); err != nil {
		return nil, fmt.Errorf("waveform: %w", err)
	}
	return out.Bytes(), nil
}

// Envelope reduces samples to at most buckets (max, min) point pairs
// placed at each bucket's start time in seconds.
func Envelope(samples []float32, sampleRate, buckets int) plotter.XYs {
	if len(samples) == 0 || buckets <= 0 {
		return nil
	}
	size := (len(samples) + buckets - 1) / buckets
	if size < 1 {
		size = 1
	}
	pts := make(plotter.XYs, 0, 2*((len(samples)+size-1)/size))
	for start := 0; start < len(samples); start += size {
		end := min(start+size, len(samples))
		lo, hi := samples[start], samples[start]
		for _, s := range samples[start+1 : end] {
			lo = min(lo, s)
			hi = max(hi, s)
		}
		x := float64(start) / float64(sampleRate)
		pts = append(pts, plotter.XY{X: x, Y: float64(hi)}, plotter.XY{X: x, Y: float64(lo)})
	}
	return pts
}
