package align_test

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/himanishpuri/NoteAlign/pkg/notealign/align"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomSequences(rng *rand.Rand, m, n int) ([]align.Phoneme, []align.Note) {
	alphabet := []string{"a", "i", "u", "k", "s", "pau", "br"}
	phonemes := make([]align.Phoneme, m)
	for i := range phonemes {
		s := float64(i) * 0.1
		phonemes[i] = ph(s, s+0.1, alphabet[rng.Intn(len(alphabet))])
	}
	notes := make([]align.Note, n)
	for j := range notes {
		notes[j] = nt(float64(j)*0.13+rng.Float64()*0.05, alphabet[rng.Intn(len(alphabet))], 50+rng.Intn(20))
	}
	return phonemes, notes
}

// TestBuildCostMatrix_Border verifies the free prefix skip invariant.
func TestBuildCostMatrix_Border(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for iter := 0; iter < 20; iter++ {
		phonemes, notes := randomSequences(rng, rng.Intn(12), rng.Intn(12))
		cm := align.BuildCostMatrix(phonemes, notes, align.DefaultParams())

		require.Equal(t, len(phonemes)+1, cm.Rows())
		require.Equal(t, len(notes)+1, cm.Cols())
		for i := 0; i < cm.Rows(); i++ {
			assert.Equal(t, 0.0, cm.At(i, 0), "C[%d][0]", i)
		}
		for j := 0; j < cm.Cols(); j++ {
			assert.Equal(t, 0.0, cm.At(0, j), "C[0][%d]", j)
		}
	}
}

// TestBuildCostMatrix_NonNegativeAndMonotone checks each interior cell is
// non-negative and no smaller than its cheapest predecessor.
func TestBuildCostMatrix_NonNegativeAndMonotone(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	for iter := 0; iter < 20; iter++ {
		phonemes, notes := randomSequences(rng, 1+rng.Intn(15), 1+rng.Intn(15))
		cm := align.BuildCostMatrix(phonemes, notes, align.DefaultParams())

		for i := 1; i < cm.Rows(); i++ {
			for j := 1; j < cm.Cols(); j++ {
				c := cm.At(i, j)
				require.GreaterOrEqual(t, c, 0.0)
				best := cm.At(i-1, j)
				if v := cm.At(i, j-1); v < best {
					best = v
				}
				if v := cm.At(i-1, j-1); v < best {
					best = v
				}
				require.GreaterOrEqual(t, c, best)
			}
		}
	}
}

// TestBuildCostMatrix_Recurrence checks a small table cell by cell.
func TestBuildCostMatrix_Recurrence(t *testing.T) {
	phonemes := []align.Phoneme{ph(0, 0.1, "k"), ph(0.1, 0.2, "a"), ph(0.2, 0.3, "i")}
	notes := []align.Note{nt(0, "k", 60), nt(0.1, "a", 62)}

	cm := align.BuildCostMatrix(phonemes, notes, align.DefaultParams())

	want := [][]float64{
		{0, 0, 0},
		{0, 0, 10.1},
		{0, 10.1, 0},
		{0, 10.2, 10.1},
	}
	for i := range want {
		for j := range want[i] {
			assert.InDelta(t, want[i][j], cm.At(i, j), 1e-9, "C[%d][%d]", i, j)
		}
	}
	assert.InDelta(t, 10.1, cm.Total(), 1e-9)
}

// TestBuildCostMatrix_CustomWeight scales the lyric term.
func TestBuildCostMatrix_CustomWeight(t *testing.T) {
	phonemes := []align.Phoneme{ph(0, 0.1, "k")}
	notes := []align.Note{nt(0, "s", 60)}

	p := timeless()
	p.LyricMismatchWeight = 3
	cm := align.BuildCostMatrix(phonemes, notes, p)

	assert.Equal(t, 3.0, cm.Total())
}

func TestCostMatrix_Format(t *testing.T) {
	phonemes := []align.Phoneme{ph(0, 0.1, "k"), ph(0.1, 0.2, "a")}
	notes := []align.Note{nt(0, "k", 60), nt(0.1, "a", 62)}

	cm := align.BuildCostMatrix(phonemes, notes, align.DefaultParams())
	out := cm.Format(phonemes, notes)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")

	require.Len(t, lines, cm.Rows()+2)
	assert.Contains(t, lines[0], "k")
	assert.Contains(t, lines[1], "a")
	assert.Contains(t, lines[len(lines)-1], "60")
	assert.Contains(t, lines[len(lines)-1], "62")
}
