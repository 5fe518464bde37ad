package align

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// CostMatrix is the (m+1)x(n+1) table of accumulated alignment costs, where m
// is the number of phonemes and n the number of notes. Row i and column j
// correspond to the prefixes P[:i] and N[:j].
type CostMatrix struct {
	dense *mat.Dense
	rows  int
	cols  int
}

// newCostMatrix allocates the table with its border already in place.
//
// Invariant: C[i][0] == 0 for every i and C[0][j] == 0 for every j. Either
// sequence may therefore start with any number of entries the other one
// lacks (leading silence, an offset first note) without penalty. The
// backtrace depends on this: it stops as soon as it reaches the border and
// leaves the remaining prefix unpaired.
func newCostMatrix(m, n int) *CostMatrix {
	rows, cols := m+1, n+1
	// mat.NewDense zero-fills, which is exactly the border invariant.
	return &CostMatrix{
		dense: mat.NewDense(rows, cols, nil),
		rows:  rows,
		cols:  cols,
	}
}

// BuildCostMatrix fills the cost table for phonemes against notes.
func BuildCostMatrix(phonemes []Phoneme, notes []Note, p Params) *CostMatrix {
	m, n := len(phonemes), len(notes)
	cm := newCostMatrix(m, n)

	for j := 0; j < n; j++ {
		for i := 0; i < m; i++ {
			best := min3(
				cm.dense.At(i, j+1),
				cm.dense.At(i+1, j),
				cm.dense.At(i, j),
			)
			cm.dense.Set(i+1, j+1, pairCost(phonemes[i], notes[j], p)+best)
		}
	}

	return cm
}

// pairCost is charged for pairing one phoneme with one note, whichever
// predecessor reached the cell.
func pairCost(ph Phoneme, nt Note, p Params) float64 {
	d := 0.0
	if ph.Lyrics != nt.Lyrics {
		d = p.LyricMismatchWeight
	}
	if p.UseTimeDistance {
		d += math.Abs(ph.Start - nt.Start)
	}
	return d
}

// At returns C[i][j].
func (c *CostMatrix) At(i, j int) float64 {
	return c.dense.At(i, j)
}

// Rows is len(phonemes)+1.
func (c *CostMatrix) Rows() int { return c.rows }

// Cols is len(notes)+1.
func (c *CostMatrix) Cols() int { return c.cols }

// Total returns C[m][n].
func (c *CostMatrix) Total() float64 {
	return c.dense.At(c.rows-1, c.cols-1)
}

// Dense exposes a read-only view of the underlying matrix.
func (c *CostMatrix) Dense() mat.Matrix {
	return c.dense
}

// Format renders the table with phoneme lyrics down the side and note lyrics
// across the top, last phoneme first, for debugging alignments by eye.
func (c *CostMatrix) Format(phonemes []Phoneme, notes []Note) string {
	var b strings.Builder

	b.WriteString(strings.Repeat(" ", 8))
	for _, nt := range notes {
		fmt.Fprintf(&b, " %7s", nt.Lyrics)
	}
	b.WriteByte('\n')

	for i := c.rows - 1; i >= 0; i-- {
		ly := ""
		if i > 0 {
			ly = phonemes[i-1].Lyrics
		}
		fmt.Fprintf(&b, "%8s", ly)
		for j := 1; j < c.cols; j++ {
			fmt.Fprintf(&b, " %7.2f", c.dense.At(i, j))
		}
		b.WriteByte('\n')
	}

	b.WriteString(strings.Repeat(" ", 8))
	for _, nt := range notes {
		fmt.Fprintf(&b, " %7d", nt.NoteNumber)
	}
	b.WriteByte('\n')

	return b.String()
}

func min3(a, b, c float64) float64 {
	if a < b {
		if a < c {
			return a
		}
		return c
	}
	if b < c {
		return b
	}
	return c
}
