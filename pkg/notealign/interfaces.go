package notealign

import (
	"context"
	"time"

	"github.com/himanishpuri/NoteAlign/pkg/models"
	"github.com/himanishpuri/NoteAlign/pkg/notealign/align"
)

type Service interface {
	AlignLabels(phonemes []align.Phoneme, notes []align.Note) align.Result
	AlignRecording(ctx context.Context, id int) (*models.RecordingOutcome, error)
	AlignDataset(ctx context.Context, ids []int, onDone func(models.RecordingOutcome)) (*models.Run, error)
	ListRuns() ([]models.Run, error)
	GetRun(runID string) (*models.Run, []models.RecordingOutcome, error)
	Close() error
}

type Storage interface {
	CreateRun(startedAt time.Time, params models.Params, total int) (string, error)
	SaveOutcome(outcome models.RecordingOutcome) error
	FinishRun(runID string, finishedAt time.Time, succeeded, failed, unresolved int) error
	GetRun(runID string) (*models.Run, error)
	GetOutcomes(runID string) ([]models.RecordingOutcome, error)
	ListRuns() ([]models.Run, error)
	Close() error
}

type Logger interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
	Debugf(format string, args ...any)
}
