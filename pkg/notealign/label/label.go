// Package label reads and writes the plain-text label sequences consumed and
// produced by the aligner.
//
//	mono label (precisely timed):  "<start> <end> <lyrics>"      one per line
//	note label (note tagged):      "<start>,<lyrics>,<note>"     one per line
//	aligned output:                "<start>,<end>,<lyrics>,<note>"
//
// Blank lines are ignored on input.
package label

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/himanishpuri/NoteAlign/pkg/notealign/align"
)

// ErrMalformedInput is returned, wrapped in a *ParseError, when a line does
// not have the expected field shape.
var ErrMalformedInput = errors.New("malformed label input")

// ParseError describes the offending line.
type ParseError struct {
	Line   int // 1-based
	Text   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %s: %q", e.Line, e.Reason, e.Text)
}

func (e *ParseError) Unwrap() error { return ErrMalformedInput }

// scanLines calls fn for every non-blank line, with its 1-based number.
func scanLines(r io.Reader, fn func(n int, line string) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	n := 0
	for sc.Scan() {
		n++
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		if err := fn(n, line); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("reading labels: %w", err)
	}
	return nil
}

// parseTime parses a time in seconds. NaN and infinities are rejected along
// with anything strconv refuses.
func parseTime(s string) (float64, string) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, "invalid"
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, "non-finite"
	}
	return v, ""
}

// ReadPhonemes parses a whitespace-separated mono label.
func ReadPhonemes(r io.Reader) ([]align.Phoneme, error) {
	var out []align.Phoneme
	err := scanLines(r, func(n int, line string) error {
		fields := strings.Fields(line)
		if len(fields) != 3 {
			return &ParseError{Line: n, Text: line, Reason: fmt.Sprintf("expected 3 fields, got %d", len(fields))}
		}
		start, bad := parseTime(fields[0])
		if bad != "" {
			return &ParseError{Line: n, Text: line, Reason: bad + " start time"}
		}
		end, bad := parseTime(fields[1])
		if bad != "" {
			return &ParseError{Line: n, Text: line, Reason: bad + " end time"}
		}
		out = append(out, align.Phoneme{Start: start, End: end, HasEnd: true, Lyrics: fields[2]})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ReadNotes parses a comma-separated note label.
func ReadNotes(r io.Reader) ([]align.Note, error) {
	var out []align.Note
	err := scanLines(r, func(n int, line string) error {
		fields := strings.Split(line, ",")
		if len(fields) != 3 {
			return &ParseError{Line: n, Text: line, Reason: fmt.Sprintf("expected 3 fields, got %d", len(fields))}
		}
		start, bad := parseTime(strings.TrimSpace(fields[0]))
		if bad != "" {
			return &ParseError{Line: n, Text: line, Reason: bad + " start time"}
		}
		nn, err := strconv.Atoi(strings.TrimSpace(fields[2]))
		if err != nil {
			return &ParseError{Line: n, Text: line, Reason: "invalid note number"}
		}
		out = append(out, align.Note{Start: start, Lyrics: strings.TrimSpace(fields[1]), NoteNumber: nn})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// FormatTime renders seconds in the shortest form that parses back to the
// same value, e.g. 0 -> "0", 0.1 -> "0.1".
func FormatTime(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// WriteAligned writes one line per label, joined by newlines with no
// trailing newline. A label without an end time leaves that field empty.
func WriteAligned(w io.Writer, labels []align.Labeled) error {
	bw := bufio.NewWriter(w)
	for i, l := range labels {
		if i > 0 {
			if err := bw.WriteByte('\n'); err != nil {
				return err
			}
		}
		end := ""
		if l.HasEnd {
			end = FormatTime(l.End)
		}
		if _, err := fmt.Fprintf(bw, "%s,%s,%s,%d", FormatTime(l.Start), end, l.Lyrics, l.NoteNumber); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteNotes writes a note label in the format ReadNotes accepts.
func WriteNotes(w io.Writer, notes []align.Note) error {
	bw := bufio.NewWriter(w)
	for i, n := range notes {
		if i > 0 {
			if err := bw.WriteByte('\n'); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(bw, "%s,%s,%d", FormatTime(n.Start), n.Lyrics, n.NoteNumber); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// ReadAligned parses the output of WriteAligned, used by the verification
// and rendering tools.
func ReadAligned(r io.Reader) ([]align.Labeled, error) {
	var out []align.Labeled
	err := scanLines(r, func(n int, line string) error {
		fields := strings.Split(line, ",")
		if len(fields) != 4 {
			return &ParseError{Line: n, Text: line, Reason: fmt.Sprintf("expected 4 fields, got %d", len(fields))}
		}
		var l align.Labeled
		var err error
		var bad string
		if l.Start, bad = parseTime(fields[0]); bad != "" {
			return &ParseError{Line: n, Text: line, Reason: bad + " start time"}
		}
		if fields[1] != "" {
			if l.End, bad = parseTime(fields[1]); bad != "" {
				return &ParseError{Line: n, Text: line, Reason: bad + " end time"}
			}
			l.HasEnd = true
		}
		l.Lyrics = fields[2]
		if l.NoteNumber, err = strconv.Atoi(fields[3]); err != nil {
			return &ParseError{Line: n, Text: line, Reason: "invalid note number"}
		}
		out = append(out, l)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
