package pitch

import (
	"errors"
	"math"

	"github.com/mjibson/go-dsp/fft"
)

const (
	FrameSize = 2048
	HopSize   = 512
)

func Hamming(n int) []float64 {
	w := make([]float64, n)
	if n == 1 {
		w[0] = 1
		return w
	}
	for i := 0; i < n; i++ {
		w[i] = 0.54 - 0.46*math.Cos(2*math.Pi*float64(i)/float64(n-1))
	}
	return w
}

// Frames cuts samples into windowed frames of frameSize every hopSize
// samples. A final partial frame is dropped.
func Frames(samples []float64, frameSize, hopSize int, window []float64) ([][]float64, error) {
	if len(window) != frameSize {
		return nil, errors.New("window length must equal frameSize")
	}
	if hopSize <= 0 {
		return nil, errors.New("hop size must be positive")
	}
	if len(samples) < frameSize {
		return nil, errors.New("input shorter than frame size")
	}

	frames := make([][]float64, 0, (len(samples)-frameSize)/hopSize+1)
	for start := 0; start+frameSize <= len(samples); start += hopSize {
		frame := make([]float64, frameSize)
		copy(frame, samples[start:start+frameSize])
		for i := range frame {
			frame[i] *= window[i]
		}
		frames = append(frames, frame)
	}
	return frames, nil
}

// Autocorrelation returns the linear (non-circular) autocorrelation of
// frame for lags 0..len(frame)-1, computed via the power spectrum.
func Autocorrelation(frame []float64) []float64 {
	n := len(frame)
	if n == 0 {
		return nil
	}

	size := 1
	for size < 2*n {
		size <<= 1
	}
	padded := make([]float64, size)
	copy(padded, frame)

	spectrum := fft.FFTReal(padded)
	for i, c := range spectrum {
		re, im := real(c), imag(c)
		spectrum[i] = complex(re*re+im*im, 0)
	}
	ac := fft.IFFT(spectrum)

	out := make([]float64, n)
	for i := range out {
		out[i] = real(ac[i])
	}
	return out
}
