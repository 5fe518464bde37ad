package align

import (
	"errors"
	"fmt"
)

// Default cost weights.
const (
	DefaultLyricMismatchWeight = 10.0
)

// MaxCells caps the cost matrix size accepted from untrusted callers. A
// recording holds a few hundred phonemes, so 4M cells (32 MiB) leaves a wide
// margin.
const MaxCells = 4_000_000

// ErrTooLarge is returned by CheckSize when the cost matrix would exceed
// MaxCells.
var ErrTooLarge = errors.New("alignment input too large")

// CheckSize reports whether aligning m phonemes against n notes fits in
// MaxCells.
func CheckSize(m, n int) error {
	if m < 0 || n < 0 {
		return fmt.Errorf("%w: negative length", ErrTooLarge)
	}
	if m+1 > MaxCells/(n+1) {
		return fmt.Errorf("%w: %d phonemes x %d notes exceeds %d cells", ErrTooLarge, m, n, MaxCells)
	}
	return nil
}

// DefaultNonVoiced lists the silence and breath markers that always carry note 0.
var DefaultNonVoiced = []string{"pau", "br"}

// Phoneme is one segment of the precisely-timed sequence.
type Phoneme struct {
	Start  float64 // seconds
	End    float64 // seconds, valid only when HasEnd is set
	HasEnd bool
	Lyrics string
}

// Note is one unit of the note-tagged sequence.
type Note struct {
	Start      float64 // seconds
	Lyrics     string
	NoteNumber int
}

// Assignment is the mutable alignment state of one phoneme, kept apart from
// the parsed Phoneme so the input stays read-only.
type Assignment struct {
	NoteNumber int
	Assigned   bool
	// ExactMatch is set once the phoneme was paired with a note carrying the
	// same lyrics. Later lower-confidence pairings must not overwrite it.
	ExactMatch bool
}

// Labeled is a phoneme with its final note number.
type Labeled struct {
	Phoneme
	NoteNumber int
}

// Params configures the pairwise cost and the fallback fill.
type Params struct {
	LyricMismatchWeight float64
	UseTimeDistance     bool
	NonVoiced           []string
}

// DefaultParams returns the weights used to build the original dataset.
func DefaultParams() Params {
	nv := make([]string, len(DefaultNonVoiced))
	copy(nv, DefaultNonVoiced)
	return Params{
		LyricMismatchWeight: DefaultLyricMismatchWeight,
		UseTimeDistance:     true,
		NonVoiced:           nv,
	}
}

// Result is the outcome of a full alignment run over one recording.
type Result struct {
	Labels      []Labeled
	Assignments []Assignment
	// Cost is C[m][n], the accumulated mismatch of the cheapest alignment.
	Cost float64
	// Unresolved holds indices of voiced phonemes that received no note
	// during the backtrace and were defaulted to 0.
	Unresolved   []int
	ExactMatches int
	NonVoiced    int
	// NearMisses counts pairings whose lyrics differ by a single edit,
	// typically spelling variants between the two label sources.
	NearMisses int
}
