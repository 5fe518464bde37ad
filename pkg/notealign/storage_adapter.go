package notealign

import (
	"errors"
	"time"

	"github.com/himanishpuri/NoteAlign/pkg/models"
	"github.com/himanishpuri/NoteAlign/pkg/notealign/storage"
)

// storageAdapter adapts the storage.DBClient to implement the Storage interface.
type storageAdapter struct {
	db *storage.DBClient
}

// NewSQLiteStorage creates a new SQLite storage backend.
func NewSQLiteStorage(dbPath string) (Storage, error) {
	db, err := storage.NewDBClientWithPath(dbPath)
	if err != nil {
		return nil, err
	}
	return &storageAdapter{db: db}, nil
}

func (s *storageAdapter) CreateRun(startedAt time.Time, params models.Params, total int) (string, error) {
	return s.db.CreateRun(startedAt, params, total)
}

func (s *storageAdapter) SaveOutcome(outcome models.RecordingOutcome) error {
	return s.db.SaveOutcome(outcome)
}

func (s *storageAdapter) FinishRun(runID string, finishedAt time.Time, succeeded, failed, unresolved int) error {
	return translate(s.db.FinishRun(runID, finishedAt, succeeded, failed, unresolved))
}

func (s *storageAdapter) GetRun(runID string) (*models.Run, error) {
	run, err := s.db.GetRun(runID)
	if err != nil {
		return nil, translate(err)
	}
	return run, nil
}

func (s *storageAdapter) GetOutcomes(runID string) ([]models.RecordingOutcome, error) {
	return s.db.GetOutcomes(runID)
}

func (s *storageAdapter) ListRuns() ([]models.Run, error) {
	return s.db.ListRuns()
}

func (s *storageAdapter) Close() error {
	return s.db.Close()
}

func translate(err error) error {
	if errors.Is(err, storage.ErrRunNotFound) {
		return ErrRunNotFound
	}
	return err
}
