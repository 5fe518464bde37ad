// Package pitch estimates the fundamental frequency of sung phonemes so
// aligned note numbers can be checked against the audio.
package pitch

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/himanishpuri/NoteAlign/pkg/notealign/align"
)

// Search range for the fundamental, in Hz.
const (
	MinHz = 60.0
	MaxHz = 1100.0
)

const (
	// silenceLevel is the mean frame energy below which a frame is unvoiced.
	silenceLevel = 1e-6
	// voicingThreshold is the normalized autocorrelation peak a frame needs
	// to count as periodic.
	voicingThreshold = 0.3
)

// NoteOffset is the distance between the corpus note numbers and MIDI. The
// full-context converter maps C4 to 72, MIDI puts it at 60.
const NoteOffset = 12

// ErrUnvoiced is returned when no frame in a segment is periodic.
var ErrUnvoiced = errors.New("segment is unvoiced")

// FrameF0 estimates the fundamental of one windowed frame.
func FrameF0(frame []float64, sampleRate int) (float64, bool) {
	ac := Autocorrelation(frame)
	if len(ac) == 0 || ac[0]/float64(len(frame)) < silenceLevel {
		return 0, false
	}

	minLag := int(float64(sampleRate) / MaxHz)
	maxLag := int(float64(sampleRate) / MinHz)
	if minLag < 1 {
		minLag = 1
	}
	if maxLag > len(ac)-2 {
		maxLag = len(ac) - 2
	}
	if minLag >= maxLag {
		return 0, false
	}

	// Skip the main lobe around lag 0.
	lag := 1
	for lag < maxLag && ac[lag] > 0 {
		lag++
	}
	if lag < minLag {
		lag = minLag
	}

	best := -1
	for ; lag <= maxLag; lag++ {
		if best < 0 || ac[lag] > ac[best] {
			best = lag
		}
	}
	if best <= 0 || ac[best]/ac[0] < voicingThreshold {
		return 0, false
	}

	period := float64(best)
	y0, y1, y2 := ac[best-1], ac[best], ac[best+1]
	if d := y0 - 2*y1 + y2; d != 0 {
		period += 0.5 * (y0 - y2) / d
	}
	return float64(sampleRate) / period, true
}

// Estimate returns the median frame f0 of samples between start and end
// seconds. Segments shorter than FrameSize are analysed as a single frame.
func Estimate(samples []float64, sampleRate int, start, end float64) (float64, error) {
	if sampleRate <= 0 {
		return 0, errors.New("sample rate must be positive")
	}
	lo := int(start * float64(sampleRate))
	hi := int(end * float64(sampleRate))
	if lo < 0 {
		lo = 0
	}
	if hi > len(samples) {
		hi = len(samples)
	}
	if hi-lo < int(2*float64(sampleRate)/MinHz) && hi-lo < FrameSize {
		return 0, fmt.Errorf("segment %.3f-%.3f too short: %w", start, end, ErrUnvoiced)
	}
	seg := samples[lo:hi]

	size := FrameSize
	if len(seg) < size {
		size = len(seg)
	}
	frames, err := Frames(seg, size, HopSize, Hamming(size))
	if err != nil {
		return 0, err
	}

	var f0s []float64
	for _, f := range frames {
		if hz, ok := FrameF0(f, sampleRate); ok {
			f0s = append(f0s, hz)
		}
	}
	if len(f0s) == 0 {
		return 0, ErrUnvoiced
	}
	return median(f0s), nil
}

func median(xs []float64) float64 {
	sort.Float64s(xs)
	mid := len(xs) / 2
	if len(xs)%2 == 1 {
		return xs[mid]
	}
	return (xs[mid-1] + xs[mid]) / 2
}

// HzToMIDI converts a frequency to a fractional MIDI note number.
func HzToMIDI(hz float64) float64 {
	return 69 + 12*math.Log2(hz/440)
}

// MIDIToHz is the inverse of HzToMIDI.
func MIDIToHz(m float64) float64 {
	return 440 * math.Pow(2, (m-69)/12)
}

// VerifyOptions controls Verify.
type VerifyOptions struct {
	ToleranceSemitones float64  // default 1
	NoteOffset         int      // default NoteOffset
	NonVoiced          []string // default align.DefaultNonVoiced
	MinDuration        float64  // seconds, default 0.03
}

func (o VerifyOptions) withDefaults() VerifyOptions {
	if o.ToleranceSemitones <= 0 {
		o.ToleranceSemitones = 1
	}
	if o.NoteOffset == 0 {
		o.NoteOffset = NoteOffset
	}
	if o.NonVoiced == nil {
		o.NonVoiced = align.DefaultNonVoiced
	}
	if o.MinDuration <= 0 {
		o.MinDuration = 0.03
	}
	return o
}

// Deviation is a labeled phoneme whose measured pitch disagrees with its note.
type Deviation struct {
	Index      int
	Label      align.Labeled
	MeasuredHz float64
	Semitones  float64 // measured minus expected
}

// Report summarises a verification pass.
type Report struct {
	Checked    int
	Skipped    int
	Deviations []Deviation
}

// Verify measures every voiced, timed, non-zero label and reports those
// whose pitch differs from the assigned note by more than the tolerance.
func Verify(labels []align.Labeled, samples []float64, sampleRate int, opts VerifyOptions) Report {
	opts = opts.withDefaults()

	var rep Report
	for i, l := range labels {
		if l.NoteNumber == 0 || !l.HasEnd || align.IsNonVoiced(l.Lyrics, opts.NonVoiced) ||
			l.End-l.Start < opts.MinDuration {
			rep.Skipped++
			continue
		}

		hz, err := Estimate(samples, sampleRate, l.Start, l.End)
		if err != nil {
			rep.Skipped++
			continue
		}
		rep.Checked++

		expected := float64(l.NoteNumber - opts.NoteOffset)
		diff := HzToMIDI(hz) - expected
		if math.Abs(diff) > opts.ToleranceSemitones {
			rep.Deviations = append(rep.Deviations, Deviation{
				Index:      i,
				Label:      l,
				MeasuredHz: hz,
				Semitones:  diff,
			})
		}
	}
	return rep
}
