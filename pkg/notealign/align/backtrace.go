package align

// Branch names the move the backtrace took at one cursor position.
type Branch int

const (
	// SkipPhoneme consumed a phoneme without consuming a note.
	SkipPhoneme Branch = iota
	// SkipNote consumed a note without consuming a phoneme.
	SkipNote
	// Pair consumed one phoneme and one note together.
	Pair
)

func (b Branch) String() string {
	switch b {
	case SkipPhoneme:
		return "skip-phoneme"
	case SkipNote:
		return "skip-note"
	case Pair:
		return "pair"
	default:
		return "unknown"
	}
}

// Step records one iteration of the backtrace: the cursor before the move and
// the branch taken.
type Step struct {
	X, Y   int
	Branch Branch
}

// Backtrace walks cm from (m, n) toward the border and returns one Assignment
// per phoneme. cm must have been built from the same phonemes and notes.
func Backtrace(cm *CostMatrix, phonemes []Phoneme, notes []Note) []Assignment {
	asg, _ := backtrace(cm, phonemes, notes, false)
	return asg
}

// BacktraceTrace is Backtrace that also returns every step taken.
func BacktraceTrace(cm *CostMatrix, phonemes []Phoneme, notes []Note) ([]Assignment, []Step) {
	return backtrace(cm, phonemes, notes, true)
}

func backtrace(cm *CostMatrix, phonemes []Phoneme, notes []Note, trace bool) ([]Assignment, []Step) {
	asg := make([]Assignment, len(phonemes))
	var steps []Step

	assign := func(x, y int) {
		ph, nt := phonemes[x-1], notes[y-1]
		asg[x-1] = Assignment{
			NoteNumber: nt.NoteNumber,
			Assigned:   true,
			ExactMatch: ph.Lyrics == nt.Lyrics,
		}
	}

	x, y := len(phonemes), len(notes)
	for x > 0 && y > 0 {
		left := cm.At(x-1, y)
		bottom := cm.At(x, y-1)
		diag := cm.At(x-1, y-1)

		switch {
		case left < bottom && left < diag:
			if trace {
				steps = append(steps, Step{X: x, Y: y, Branch: SkipPhoneme})
			}
			// First assignment wins on this branch, exact or not.
			if !asg[x-1].Assigned {
				assign(x, y)
			}
			x--

		case bottom < diag:
			if trace {
				steps = append(steps, Step{X: x, Y: y, Branch: SkipNote})
			}
			// The phoneme is offered both the skipped note and the note that
			// follows it. Whichever gives an exact match first is kept.
			if !asg[x-1].ExactMatch {
				assign(x, y)
			}
			y--
			if y == 0 {
				return asg, steps
			}
			if !asg[x-1].ExactMatch {
				assign(x, y)
			}

		default:
			if trace {
				steps = append(steps, Step{X: x, Y: y, Branch: Pair})
			}
			if !asg[x-1].ExactMatch {
				assign(x, y)
			}
			x--
			y--
		}
	}

	return asg, steps
}
