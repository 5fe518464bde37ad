package align

import "github.com/agnivade/levenshtein"

// Align runs the cost matrix builder, the backtrace and the fallback fill
// over one recording.
func Align(phonemes []Phoneme, notes []Note, p Params) Result {
	cm := BuildCostMatrix(phonemes, notes, p)
	return finish(cm, phonemes, notes, Backtrace(cm, phonemes, notes), p)
}

// AlignWithMatrix is Align that also hands back the filled cost matrix.
func AlignWithMatrix(phonemes []Phoneme, notes []Note, p Params) (Result, *CostMatrix) {
	cm := BuildCostMatrix(phonemes, notes, p)
	return finish(cm, phonemes, notes, Backtrace(cm, phonemes, notes), p), cm
}

func finish(cm *CostMatrix, phonemes []Phoneme, notes []Note, asg []Assignment, p Params) Result {
	labels, unresolved := Fill(phonemes, asg, p.NonVoiced)

	res := Result{
		Labels:      labels,
		Assignments: asg,
		Cost:        cm.Total(),
		Unresolved:  unresolved,
	}

	for i, ph := range phonemes {
		if IsNonVoiced(ph.Lyrics, p.NonVoiced) {
			res.NonVoiced++
			continue
		}
		if asg[i].ExactMatch {
			res.ExactMatches++
		}
	}
	res.NearMisses = countNearMisses(phonemes, notes, asg, p.NonVoiced)

	return res
}

// countNearMisses counts voiced, non-exact assignments where some note with
// the same note number is a single edit away from the phoneme lyrics.
func countNearMisses(phonemes []Phoneme, notes []Note, asg []Assignment, nonVoiced []string) int {
	byNote := make(map[int][]string)
	for _, nt := range notes {
		byNote[nt.NoteNumber] = append(byNote[nt.NoteNumber], nt.Lyrics)
	}

	count := 0
	for i, ph := range phonemes {
		a := asg[i]
		if !a.Assigned || a.ExactMatch || IsNonVoiced(ph.Lyrics, nonVoiced) {
			continue
		}
		for _, ly := range byNote[a.NoteNumber] {
			if levenshtein.ComputeDistance(ph.Lyrics, ly) == 1 {
				count++
				break
			}
		}
	}
	return count
}
