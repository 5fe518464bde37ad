package notealign

import (
	"errors"
	"fmt"

	"github.com/himanishpuri/NoteAlign/pkg/models"
	"github.com/himanishpuri/NoteAlign/pkg/notealign/dataset"
	"github.com/himanishpuri/NoteAlign/pkg/notealign/label"
)

// ErrMalformedInput is the label parser's sentinel, re-exported for callers
// that only import this package.
var ErrMalformedInput = label.ErrMalformedInput

// ErrRunNotFound is returned by GetRun for an unknown run id.
var ErrRunNotFound = errors.New("run not found")

// DiagnosticMessage renders the per-recording unresolved-note warning.
func DiagnosticMessage(d models.Diagnostic) string {
	return fmt.Sprintf("[%s] encountered unresolved note at %s -> %s (%d phonemes)",
		dataset.FormatID(d.RecordingID), label.FormatTime(d.Start), d.Lyrics, d.Count)
}

func paramsSnapshot(c *Config) models.Params {
	return models.Params{
		LyricMismatchWeight: c.Params.LyricMismatchWeight,
		UseTimeDistance:     c.Params.UseTimeDistance,
		NonVoiced:           append([]string(nil), c.Params.NonVoiced...),
	}
}
