package models

import "time"

// Run is one batch invocation over a range of recordings.
type Run struct {
	ID         string    `json:"id"` // UUID
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitempty"`
	Params     Params    `json:"params"`
	Total      int       `json:"total"`
	Succeeded  int       `json:"succeeded"`
	Failed     int       `json:"failed"`
	Unresolved int       `json:"unresolved"` // recordings that produced a diagnostic
}

// Params is the alignment configuration a run was made with.
type Params struct {
	LyricMismatchWeight float64  `json:"lyric_mismatch_weight"`
	UseTimeDistance     bool     `json:"use_time_distance"`
	NonVoiced           []string `json:"non_voiced"`
}
