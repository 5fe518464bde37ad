// Package visual draws a spectrogram of a recording with the aligned
// phoneme boundaries overlaid, for eyeballing alignment quality.
package visual

import (
	"errors"
	"image"
	"image/color"
	"image/draw"

	"github.com/eligwz/spectrogram"
	"github.com/himanishpuri/NoteAlign/pkg/notealign/align"
)

const (
	DefaultWidth  = 2048
	DefaultHeight = 512
)

// Options controls the rendered image.
type Options struct {
	Width          int
	Height         int
	Background     string // hex, e.g. "000000"
	VoicedColor    string // boundary of a phoneme carrying a note
	NonVoicedColor string // boundary of a phoneme with note 0
	NonVoiced      []string
}

func (o Options) withDefaults() Options {
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.Height <= 0 {
		o.Height = DefaultHeight
	}
	if o.Background == "" {
		o.Background = "000000"
	}
	if o.VoicedColor == "" {
		o.VoicedColor = "ff3030"
	}
	if o.NonVoicedColor == "" {
		o.NonVoicedColor = "3080ff"
	}
	if o.NonVoiced == nil {
		o.NonVoiced = align.DefaultNonVoiced
	}
	return o
}

// BoundaryX maps a time in seconds to an image column.
func BoundaryX(t, duration float64, width int) int {
	if duration <= 0 {
		return 0
	}
	x := int(t / duration * float64(width))
	if x < 0 {
		return 0
	}
	if x >= width {
		return width - 1
	}
	return x
}

// Draw renders the spectrogram and label boundaries into a new image.
func Draw(samples []float64, sampleRate int, labels []align.Labeled, opts Options) (*spectrogram.Image128, error) {
	if len(samples) == 0 {
		return nil, errors.New("no samples to render")
	}
	if sampleRate <= 0 {
		return nil, errors.New("sample rate must be positive")
	}
	opts = opts.withDefaults()

	img := spectrogram.NewImage128(image.Rect(0, 0, opts.Width, opts.Height))

	bg := spectrogram.ParseColor(opts.Background)
	draw.Draw(img, img.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)

	// Hamming window, FFT, magnitude, linear scale.
	spectrogram.Drawfft(
		img,
		samples,
		uint32(sampleRate),
		uint32(opts.Height),
		false,
		false,
		true,
		false,
	)

	voiced := spectrogram.ParseColor(opts.VoicedColor)
	nonVoiced := spectrogram.ParseColor(opts.NonVoicedColor)
	duration := float64(len(samples)) / float64(sampleRate)
	for _, l := range labels {
		c := voiced
		if l.NoteNumber == 0 || align.IsNonVoiced(l.Lyrics, opts.NonVoiced) {
			c = nonVoiced
		}
		vline(img, BoundaryX(l.Start, duration, opts.Width), opts.Height, c)
	}
	return img, nil
}

func vline(img draw.Image, x, height int, c color.Color) {
	for y := 0; y < height; y++ {
		img.Set(x, y, c)
	}
}

// Render draws the image and saves it as a PNG at path.
func Render(samples []float64, sampleRate int, labels []align.Labeled, path string, opts Options) error {
	img, err := Draw(samples, sampleRate, labels, opts)
	if err != nil {
		return err
	}
	return spectrogram.SavePng(img, path)
}
