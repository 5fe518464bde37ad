package models

// Recording status values.
const (
	StatusAligned = "aligned" // every voiced phoneme received a note
	StatusPartial = "partial" // written, but some voiced phonemes fell back to 0
	StatusFailed  = "failed"  // nothing written
)

// RecordingOutcome summarises the alignment of a single recording.
type RecordingOutcome struct {
	RunID        string      `json:"run_id,omitempty"`
	RecordingID  int         `json:"recording_id"`
	Status       string      `json:"status"`
	OutputPath   string      `json:"output_path,omitempty"`
	Phonemes     int         `json:"phonemes"`
	Notes        int         `json:"notes"`
	ExactMatches int         `json:"exact_matches"`
	NonVoiced    int         `json:"non_voiced"`
	Unresolved   int         `json:"unresolved"`
	NearMisses   int         `json:"near_misses"`
	Cost         float64     `json:"cost"`
	DurationMs   int64       `json:"duration_ms"`
	Error        string      `json:"error,omitempty"`
	Diagnostic   *Diagnostic `json:"diagnostic,omitempty"`
}

// Diagnostic reports the first voiced phoneme of a recording that no note
// was assigned to, along with how many such phonemes there were.
type Diagnostic struct {
	RecordingID int     `json:"recording_id"`
	Start       float64 `json:"start"`
	Lyrics      string  `json:"lyrics"`
	Count       int     `json:"count"`
}
