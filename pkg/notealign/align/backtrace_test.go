package align_test

import (
	"testing"

	"github.com/himanishpuri/NoteAlign/pkg/notealign/align"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestBacktrace_NoteSkipReassignsTwice walks into the note-skip branch with a
// trailing extra note. The phoneme is first offered the extra note (lyrics
// differ) and then, after the cursor moves, the note that matches it.
func TestBacktrace_NoteSkipReassignsTwice(t *testing.T) {
	phonemes := []align.Phoneme{ph(0, 0.1, "k"), ph(0.1, 0.2, "a")}
	notes := []align.Note{nt(0, "k", 60), nt(0.1, "a", 62), nt(0.2, "x", 64)}

	cm := align.BuildCostMatrix(phonemes, notes, timeless())
	asg, steps := align.BacktraceTrace(cm, phonemes, notes)

	require.Len(t, steps, 3)
	assert.Equal(t, align.Step{X: 2, Y: 3, Branch: align.SkipNote}, steps[0])
	assert.Equal(t, align.Step{X: 2, Y: 2, Branch: align.Pair}, steps[1])
	assert.Equal(t, align.Step{X: 1, Y: 1, Branch: align.Pair}, steps[2])

	assert.Equal(t, align.Assignment{NoteNumber: 60, Assigned: true, ExactMatch: true}, asg[0])
	assert.Equal(t, align.Assignment{NoteNumber: 62, Assigned: true, ExactMatch: true}, asg[1])
}

// TestBacktrace_NoteSkipFirstExactWins sets up a note-skip where the first
// offered note already matches; the second offer must not replace it.
func TestBacktrace_NoteSkipFirstExactWins(t *testing.T) {
	phonemes := []align.Phoneme{ph(0, 0.1, "k"), ph(0.1, 0.2, "a")}
	notes := []align.Note{nt(0, "k", 60), nt(0.1, "a", 62), nt(0.2, "a", 64)}

	cm := align.BuildCostMatrix(phonemes, notes, timeless())
	asg, steps := align.BacktraceTrace(cm, phonemes, notes)

	require.NotEmpty(t, steps)
	assert.Equal(t, align.SkipNote, steps[0].Branch)
	assert.Equal(t, 64, asg[1].NoteNumber, "the exact match from the skipped note is kept")
	assert.True(t, asg[1].ExactMatch)
	assert.Equal(t, 60, asg[0].NoteNumber)
}

// TestBacktrace_PhonemeSkipKeepsFirstAssignment exercises the phoneme-skip
// branch, which never overwrites a phoneme that already has a note.
func TestBacktrace_PhonemeSkipKeepsFirstAssignment(t *testing.T) {
	phonemes := []align.Phoneme{ph(0, 0.1, "k"), ph(0.1, 0.2, "a"), ph(0.2, 0.3, "i")}
	notes := []align.Note{nt(0, "k", 60), nt(0.1, "a", 62)}

	cm := align.BuildCostMatrix(phonemes, notes, align.DefaultParams())
	asg, steps := align.BacktraceTrace(cm, phonemes, notes)

	require.Len(t, steps, 3)
	assert.Equal(t, align.Step{X: 3, Y: 2, Branch: align.SkipPhoneme}, steps[0])
	assert.Equal(t, align.Step{X: 2, Y: 2, Branch: align.Pair}, steps[1])
	assert.Equal(t, align.Step{X: 1, Y: 1, Branch: align.Pair}, steps[2])

	assert.Equal(t, 62, asg[2].NoteNumber)
	assert.False(t, asg[2].ExactMatch)
}

// TestBacktrace_CursorMonotonic checks that every step moves the cursor
// toward the origin and the walk never exceeds m+n steps.
func TestBacktrace_CursorMonotonic(t *testing.T) {
	phonemes := []align.Phoneme{
		ph(0, 0.2, "pau"), ph(0.2, 0.3, "k"), ph(0.3, 0.5, "o"), ph(0.5, 0.6, "N"),
		ph(0.6, 0.7, "n"), ph(0.7, 0.9, "i"), ph(0.9, 1.0, "br"), ph(1.0, 1.2, "ch"), ph(1.2, 1.4, "i"),
	}
	notes := []align.Note{
		nt(0.25, "k", 67), nt(0.3, "o", 67), nt(0.55, "N", 69), nt(0.62, "n", 71),
		nt(0.8, "i", 71), nt(1.05, "ch", 72), nt(1.3, "i", 72), nt(1.5, "pau", 0),
	}

	cm := align.BuildCostMatrix(phonemes, notes, align.DefaultParams())
	_, steps := align.BacktraceTrace(cm, phonemes, notes)

	require.LessOrEqual(t, len(steps), len(phonemes)+len(notes))
	for k := 1; k < len(steps); k++ {
		prev, cur := steps[k-1], steps[k]
		assert.LessOrEqual(t, cur.X, prev.X)
		assert.LessOrEqual(t, cur.Y, prev.Y)
		assert.Less(t, cur.X+cur.Y, prev.X+prev.Y)
	}
}

// TestBacktrace_DoesNotMutateInputs guards the read-only inputs.
func TestBacktrace_DoesNotMutateInputs(t *testing.T) {
	phonemes := []align.Phoneme{ph(0, 0.1, "k"), ph(0.1, 0.2, "a")}
	notes := []align.Note{nt(0, "k", 60), nt(0.1, "e", 62)}
	pCopy := append([]align.Phoneme(nil), phonemes...)
	nCopy := append([]align.Note(nil), notes...)

	align.Align(phonemes, notes, align.DefaultParams())

	assert.Equal(t, pCopy, phonemes)
	assert.Equal(t, nCopy, notes)
}

func TestBranchString(t *testing.T) {
	assert.Equal(t, "skip-phoneme", align.SkipPhoneme.String())
	assert.Equal(t, "skip-note", align.SkipNote.String())
	assert.Equal(t, "pair", align.Pair.String())
}
