// Package align transfers note numbers from a note-tagged phoneme sequence
// onto a precisely-timed phoneme sequence of the same recording.
//
// The two sequences describe the same utterance but share no indices, so the
// package runs a semi-global dynamic-programming alignment over them:
//
//  1. BuildCostMatrix fills an (m+1)x(n+1) table C. The first row and column
//     are zero so either sequence may skip any leading prefix for free.
//     Every interior cell is
//     C[i+1][j+1] = pairCost(i,j) + min(C[i][j+1], C[i+1][j], C[i][j])
//     where pairCost charges LyricMismatchWeight for differing lyrics plus the
//     absolute start-time difference when UseTimeDistance is set.
//  2. Backtrace walks from C[m][n] toward the border and decides, per step,
//     whether to skip a phoneme, skip a note, or pair both, assigning note
//     numbers into a separate []Assignment keyed by phoneme index.
//  3. Fill forces note 0 onto non-voiced phonemes and onto voiced phonemes
//     the walk never reached.
//
// Align chains the three stages. Inputs are never mutated.
//
// Complexity: O(m·n) time and memory.
package align
