package main

import (
	"fmt"
	"time"

	"github.com/himanishpuri/NoteAlign/pkg/models"
)

// MaxLabelBytes bounds each label text accepted by POST /api/align.
const MaxLabelBytes = 4 << 20

// AlignRequest is the request body for POST /api/align
type AlignRequest struct {
	// MonoLabel is the precisely timed label, "<start> <end> <lyrics>" per line
	MonoLabel string `json:"mono_label"`

	// NoteLabel is the note-tagged label, "<start>,<lyrics>,<note>" per line
	NoteLabel string `json:"note_label"`

	// Optional overrides of the server defaults
	LyricMismatchWeight *float64 `json:"lyric_mismatch_weight,omitempty"`
	UseTimeDistance     *bool    `json:"use_time_distance,omitempty"`
	NonVoiced           []string `json:"non_voiced,omitempty"`
}

// Validate checks if the request is valid
func (r *AlignRequest) Validate() error {
	if len(r.MonoLabel) > MaxLabelBytes {
		return fmt.Errorf("mono_label too large: %d bytes (maximum: %d)", len(r.MonoLabel), MaxLabelBytes)
	}
	if len(r.NoteLabel) > MaxLabelBytes {
		return fmt.Errorf("note_label too large: %d bytes (maximum: %d)", len(r.NoteLabel), MaxLabelBytes)
	}
	if r.LyricMismatchWeight != nil && *r.LyricMismatchWeight < 0 {
		return fmt.Errorf("lyric_mismatch_weight must not be negative")
	}
	return nil
}

// AlignResponse is the response for POST /api/align
type AlignResponse struct {
	Aligned      string         `json:"aligned"`
	Cost         float64        `json:"cost"`
	ExactMatches int            `json:"exact_matches"`
	NearMisses   int            `json:"near_misses"`
	Unresolved   []int          `json:"unresolved"`
	Diagnostic   *DiagnosticDTO `json:"diagnostic,omitempty"`
}

// DiagnosticDTO reports the first unresolved phoneme of a recording
type DiagnosticDTO struct {
	Message string  `json:"message"`
	Start   float64 `json:"start"`
	Lyrics  string  `json:"lyrics"`
	Count   int     `json:"count"`
}

// RunDTO represents a dataset run in API responses
type RunDTO struct {
	ID         string        `json:"id"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt *time.Time    `json:"finished_at,omitempty"`
	Params     models.Params `json:"params"`
	Total      int           `json:"total"`
	Succeeded  int           `json:"succeeded"`
	Failed     int           `json:"failed"`
	Unresolved int           `json:"unresolved"`
}

func toRunDTO(r models.Run) RunDTO {
	dto := RunDTO{
		ID:         r.ID,
		StartedAt:  r.StartedAt,
		Params:     r.Params,
		Total:      r.Total,
		Succeeded:  r.Succeeded,
		Failed:     r.Failed,
		Unresolved: r.Unresolved,
	}
	if !r.FinishedAt.IsZero() {
		f := r.FinishedAt
		dto.FinishedAt = &f
	}
	return dto
}

// ListRunsResponse is the response for GET /api/runs
type ListRunsResponse struct {
	Runs  []RunDTO `json:"runs"`
	Count int      `json:"count"`
}

// RunDetailResponse is the response for GET /api/runs/{id}
type RunDetailResponse struct {
	Run        RunDTO                    `json:"run"`
	Recordings []models.RecordingOutcome `json:"recordings"`
}

// MetricsResponse provides server health and database metrics
type MetricsResponse struct {
	Status       string `json:"status"`
	DatabasePath string `json:"database_path"`
	DatasetRoot  string `json:"dataset_root"`
	RunCount     int    `json:"run_count"`
	LastRun      string `json:"last_run,omitempty"`
}

// ErrorResponse is the standard error response format
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
}
