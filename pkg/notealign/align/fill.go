package align

// Fill produces the final labels from the backtrace assignments.
//
// Non-voiced phonemes get note 0 whatever the backtrace assigned. Voiced
// phonemes with no assignment also get note 0 and their indices are returned
// in unresolved so the caller can report them. Running Fill on its own
// output (via Reassign) changes nothing.
func Fill(phonemes []Phoneme, asg []Assignment, nonVoiced []string) (labels []Labeled, unresolved []int) {
	nv := make(map[string]struct{}, len(nonVoiced))
	for _, s := range nonVoiced {
		nv[s] = struct{}{}
	}

	labels = make([]Labeled, len(phonemes))
	for i, ph := range phonemes {
		labels[i].Phoneme = ph

		if _, ok := nv[ph.Lyrics]; ok {
			labels[i].NoteNumber = 0
			continue
		}
		if i >= len(asg) || !asg[i].Assigned {
			unresolved = append(unresolved, i)
			labels[i].NoteNumber = 0
			continue
		}
		labels[i].NoteNumber = asg[i].NoteNumber
	}

	return labels, unresolved
}

// Reassign turns filled labels back into phonemes plus assignments, every
// one of them marked as assigned. Feeding the result to Fill reproduces the
// labels unchanged.
func Reassign(labels []Labeled) ([]Phoneme, []Assignment) {
	phonemes := make([]Phoneme, len(labels))
	asg := make([]Assignment, len(labels))
	for i, l := range labels {
		phonemes[i] = l.Phoneme
		asg[i] = Assignment{NoteNumber: l.NoteNumber, Assigned: true}
	}
	return phonemes, asg
}

// IsNonVoiced reports whether lyrics is one of the non-voiced tokens.
func IsNonVoiced(lyrics string, nonVoiced []string) bool {
	for _, s := range nonVoiced {
		if s == lyrics {
			return true
		}
	}
	return false
}
