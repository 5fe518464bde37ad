package audio

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// ErrInvalidWav is returned when a file is not a PCM WAV the decoder accepts.
var ErrInvalidWav = errors.New("invalid WAV file")

// ReadWav decodes a PCM WAV file and returns mono samples normalized to
// [-1, 1] along with the sample rate. Multi-channel audio is averaged.
func ReadWav(path string) ([]float64, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		return nil, 0, fmt.Errorf("%s: %w", path, ErrInvalidWav)
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("reading samples from %s: %w", path, err)
	}

	return toMono(buf), int(decoder.SampleRate), nil
}

// toMono averages interleaved channels and scales by the source bit depth.
func toMono(buf *audio.IntBuffer) []float64 {
	chans := 1
	if buf.Format != nil && buf.Format.NumChannels > 0 {
		chans = buf.Format.NumChannels
	}
	bitDepth := buf.SourceBitDepth
	if bitDepth <= 0 {
		bitDepth = 16
	}
	maxVal := float64(int(1) << (uint(bitDepth) - 1))

	frames := len(buf.Data) / chans
	out := make([]float64, frames)
	for i := 0; i < frames; i++ {
		sum := 0.0
		for c := 0; c < chans; c++ {
			sum += float64(buf.Data[i*chans+c])
		}
		out[i] = sum / float64(chans) / maxVal
	}
	return out
}

// Duration reports the playing time of a WAV file without decoding it.
func Duration(path string) (time.Duration, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		return 0, fmt.Errorf("%s: %w", path, ErrInvalidWav)
	}
	d, err := decoder.Duration()
	if err != nil {
		return 0, fmt.Errorf("getting duration from %s: %w", path, err)
	}
	return d, nil
}

// WriteWav encodes mono samples in [-1, 1] as 16-bit PCM.
func WriteWav(path string, samples []float64, sampleRate int) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}

	const bitDepth = 16
	const maxVal = 1<<(bitDepth-1) - 1

	data := make([]int, len(samples))
	for i, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		data[i] = int(s * maxVal)
	}
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: bitDepth,
	}

	e := wav.NewEncoder(out, sampleRate, bitDepth, 1, 1)
	if err := e.Write(buf); err != nil {
		out.Close()
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	if err := e.Close(); err != nil {
		out.Close()
		return fmt.Errorf("closing encoder for %s: %w", path, err)
	}
	return out.Close()
}
