// Package sinsy converts Sinsy full-context synthesis labels into the simple
// sequences used elsewhere: the note-tagged label fed to the aligner, and the
// Duration/Text/Note table read by HiFiSinger training.
package sinsy

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/himanishpuri/NoteAlign/pkg/notealign/align"
	"github.com/himanishpuri/NoteAlign/pkg/notealign/label"
)

// TicksPerSecond is the full-context time resolution (100ns ticks). Ticks
// are divided by it rather than multiplied by 1e-7 so that round tick counts
// give round seconds (3000000 -> 0.3, not 0.30000000000000004).
const TicksPerSecond = 1.0e7

// Pause is the silence token emitted for xx/sil phonemes in note labels.
const Pause = "pau"

// HiFiSingerPause is the silence token HiFiSinger expects.
const HiFiSingerPause = "<X>"

// fullContextPattern captures start, end, current phoneme and the note name
// of the E field.
var fullContextPattern = regexp.MustCompile(
	`^([0-9]+) ([0-9]+) [a-z]+@[a-zA-Z]+\^[a-zA-Z]+-([a-zA-Z]+)\+.+/E:(xx|[A-G]b?[0-9])`,
)

// Entry is one parsed full-context line.
type Entry struct {
	Start      int64 // 100ns ticks
	End        int64
	Phoneme    string
	NoteName   string // "xx" when the phoneme carries no note
	NoteNumber int
}

// ParseFullContext reads a full-context label. Any line the pattern does not
// match is reported as label.ErrMalformedInput.
func ParseFullContext(r io.Reader) ([]Entry, error) {
	var out []Entry

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	n := 0
	for sc.Scan() {
		n++
		line := strings.TrimRight(sc.Text(), "\r")
		if line == "" {
			continue
		}

		m := fullContextPattern.FindStringSubmatch(line)
		if m == nil {
			return nil, &label.ParseError{Line: n, Text: line, Reason: "not a full-context label"}
		}

		start, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			return nil, &label.ParseError{Line: n, Text: line, Reason: "invalid start time"}
		}
		end, err := strconv.ParseInt(m[2], 10, 64)
		if err != nil {
			return nil, &label.ParseError{Line: n, Text: line, Reason: "invalid end time"}
		}
		nn, err := ParseNoteName(m[4])
		if err != nil {
			return nil, &label.ParseError{Line: n, Text: line, Reason: err.Error()}
		}

		out = append(out, Entry{
			Start:      start,
			End:        end,
			Phoneme:    m[3],
			NoteName:   m[4],
			NoteNumber: nn,
		})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading full-context label: %w", err)
	}

	return out, nil
}

const noteSteps = "C_D_EF_G_A_B"

// ParseNoteName converts a Sinsy note name such as "C4", "Eb5" or "xx" into
// a note number. Numbering starts at 24 for octave 0 C, so C4 is 72.
func ParseNoteName(name string) (int, error) {
	if name == "xx" {
		return 0, nil
	}
	if name == "" {
		return 0, fmt.Errorf("empty note name")
	}

	acc := 24
	for _, r := range name {
		switch {
		case r == 'b':
			acc--
		case r >= '0' && r <= '9':
			acc += int(r-'0') * 12
		default:
			pos := strings.IndexRune(noteSteps, r)
			if pos < 0 || r == '_' {
				return 0, fmt.Errorf("invalid note name %q", name)
			}
			acc += pos
		}
	}
	return acc, nil
}

func isSilence(ph string) bool {
	return ph == "xx" || ph == "sil"
}

// ToNoteLabels turns full-context entries into the note-tagged sequence.
// Silences become "pau" and runs of consecutive pauses collapse to the first.
func ToNoteLabels(entries []Entry) []align.Note {
	out := make([]align.Note, 0, len(entries))
	lastPause := false
	for _, e := range entries {
		ly := e.Phoneme
		if isSilence(ly) {
			ly = Pause
		}
		pause := ly == Pause
		if pause && lastPause {
			continue
		}
		lastPause = pause

		out = append(out, align.Note{
			Start:      float64(e.Start) / TicksPerSecond,
			Lyrics:     ly,
			NoteNumber: e.NoteNumber,
		})
	}
	return out
}

// HiFiSingerRow is one line of the HiFiSinger music table.
type HiFiSingerRow struct {
	DurationMs int
	Text       string
	Note       int
}

// minDurationMs is the shortest duration HiFiSinger accepts. Shorter
// phonemes are padded up to it and the padding, in milliseconds, is taken
// back from the next phoneme only.
const minDurationMs = 2

// ToHiFiSinger converts entries to HiFiSinger rows.
func ToHiFiSinger(entries []Entry) []HiFiSingerRow {
	out := make([]HiFiSingerRow, 0, len(entries))
	compensation := 0.0
	for _, e := range entries {
		text := e.Phoneme
		if isSilence(text) || text == Pause {
			text = HiFiSingerPause
		}

		ms := float64(e.End-e.Start) / (TicksPerSecond / 1000)
		d := int(math.Floor(ms - compensation))
		if d <= minDurationMs {
			compensation = minDurationMs
			d = minDurationMs
		} else {
			compensation = 0
		}

		out = append(out, HiFiSingerRow{DurationMs: d, Text: text, Note: e.NoteNumber})
	}
	return out
}

// WriteHiFiSinger writes rows as a tab-separated table with a header line.
func WriteHiFiSinger(w io.Writer, rows []HiFiSingerRow) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString("Duration\tText\tNote\n"); err != nil {
		return err
	}
	for i, r := range rows {
		if i > 0 {
			if err := bw.WriteByte('\n'); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(bw, "%d\t%s\t%d", r.DurationMs, r.Text, r.Note); err != nil {
			return err
		}
	}
	return bw.Flush()
}
