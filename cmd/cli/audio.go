package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/himanishpuri/NoteAlign/pkg/notealign/align"
	"github.com/himanishpuri/NoteAlign/pkg/notealign/audio"
	"github.com/himanishpuri/NoteAlign/pkg/notealign/dataset"
	"github.com/himanishpuri/NoteAlign/pkg/notealign/label"
	"github.com/himanishpuri/NoteAlign/pkg/notealign/pitch"
	"github.com/himanishpuri/NoteAlign/pkg/notealign/visual"
)

func readAligned(layout dataset.Layout, id int) []align.Labeled {
	path := layout.Aligned(id)
	f, err := os.Open(path)
	if err != nil {
		fail("Failed to open %s (run align first): %v", path, err)
	}
	defer f.Close()

	labels, err := label.ReadAligned(f)
	if err != nil {
		fail("Failed to parse %s: %v", path, err)
	}
	return labels
}

// readRecordingAudio loads the recording, converting it with ffmpeg when the
// dataset holds another format under the same stem.
func readRecordingAudio(layout dataset.Layout, id int, tempDir string) ([]float64, int) {
	path := layout.Wav(id)
	if _, err := os.Stat(path); err != nil {
		matches, _ := filepath.Glob(filepath.Join(layout.Root, layout.WavDir, dataset.FormatID(id)+".*"))
		if len(matches) == 0 {
			fail("No audio found for recording %s", dataset.FormatID(id))
		}
		path, err = audio.EnsureWAV(context.Background(), matches[0], tempDir, audio.ConvertWAVConfig{})
		if err != nil {
			fail("Failed to convert %s: %v", matches[0], err)
		}
	}

	samples, sr, err := audio.ReadWav(path)
	if err != nil {
		fail("Failed to read %s: %v", path, err)
	}
	return samples, sr
}

// warnIfLabelsOverrun flags labels that end after the audio does, which
// usually means the label and the recording come from different takes.
func warnIfLabelsOverrun(labels []align.Labeled, samples []float64, sr int) {
	if len(labels) == 0 || sr <= 0 {
		return
	}
	last := labels[len(labels)-1]
	end := last.Start
	if last.HasEnd {
		end = last.End
	}
	length := time.Duration(float64(len(samples)) / float64(sr) * float64(time.Second))
	if time.Duration(end*float64(time.Second)) > length+100*time.Millisecond {
		fmt.Printf("⚠️  Labels end at %ss but the audio is only %s long\n", label.FormatTime(end), length.Round(time.Millisecond))
	}
}

func handleVerify(args []string) {
	c := newCommonFlags("verify")
	tolerance := c.fs.Float64("tolerance", 1, "Allowed deviation in semitones")
	offset := c.fs.Int("offset", pitch.NoteOffset, "Note number of MIDI 0")
	tempDir := c.fs.String("temp", getEnvOrDefault("NOTEALIGN_TEMP_DIR", os.TempDir()), "Directory for converted audio")
	c.parse(args)
	id := parseIDArg(c.fs, "notealign verify [options] [--tolerance 1] <id>")

	cfg := c.config()
	labels := readAligned(cfg.Layout, id)
	samples, sr := readRecordingAudio(cfg.Layout, id, *tempDir)

	fmt.Printf("🔍 Checking %d label(s) against %s...\n", len(labels), cfg.Layout.Wav(id))
	warnIfLabelsOverrun(labels, samples, sr)
	rep := pitch.Verify(labels, samples, sr, pitch.VerifyOptions{
		ToleranceSemitones: *tolerance,
		NoteOffset:         *offset,
		NonVoiced:          cfg.Params.NonVoiced,
	})

	fmt.Printf("   Checked: %d, skipped: %d\n", rep.Checked, rep.Skipped)
	if len(rep.Deviations) == 0 {
		fmt.Println("\n✅ All measured phonemes agree with their notes")
		return
	}

	rows := make([][]string, 0, len(rep.Deviations))
	for _, d := range rep.Deviations {
		rows = append(rows, []string{
			strconv.Itoa(d.Index + 1),
			label.FormatTime(d.Label.Start),
			d.Label.Lyrics,
			strconv.Itoa(d.Label.NoteNumber),
			fmt.Sprintf("%.1f", d.MeasuredHz),
			fmt.Sprintf("%+.2f", d.Semitones),
		})
	}
	fmt.Printf("\n⚠️  %d phoneme(s) deviate by more than %.2f semitones:\n", len(rep.Deviations), *tolerance)
	fmt.Println(renderTable(
		[]string{"#", "Start", "Lyrics", "Note", "Hz", "Semitones"},
		rows,
		[]columnAlignment{alignRight, alignRight, alignLeft, alignRight, alignRight, alignRight},
	))
}

func handleRender(args []string) {
	c := newCommonFlags("render")
	width := c.fs.Int("width", visual.DefaultWidth, "Image width in pixels")
	height := c.fs.Int("height", visual.DefaultHeight, "Image height in pixels")
	tempDir := c.fs.String("temp", getEnvOrDefault("NOTEALIGN_TEMP_DIR", os.TempDir()), "Directory for converted audio")
	c.parse(args)
	if c.fs.NArg() < 2 {
		fmt.Println("Usage: notealign render [options] <id> <out.png>")
		os.Exit(1)
	}
	id := parseIDArg(c.fs, "notealign render [options] <id> <out.png>")
	out := c.fs.Arg(1)

	cfg := c.config()
	labels := readAligned(cfg.Layout, id)
	samples, sr := readRecordingAudio(cfg.Layout, id, *tempDir)

	err := visual.Render(samples, sr, labels, out, visual.Options{
		Width:     *width,
		Height:    *height,
		NonVoiced: cfg.Params.NonVoiced,
	})
	if err != nil {
		fail("Failed to render: %v", err)
	}
	fmt.Printf("✅ Saved spectrogram to %s\n", out)
}
