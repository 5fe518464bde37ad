package notealign

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/himanishpuri/NoteAlign/pkg/logger"
	"github.com/himanishpuri/NoteAlign/pkg/models"
	"github.com/himanishpuri/NoteAlign/pkg/notealign/align"
	"github.com/himanishpuri/NoteAlign/pkg/notealign/dataset"
	"github.com/himanishpuri/NoteAlign/pkg/notealign/label"
	"github.com/himanishpuri/NoteAlign/pkg/utils"
)

// alignService is the default implementation of the Service interface.
type alignService struct {
	storage Storage
	log     Logger
	config  *Config
}

func NewService(opts ...Option) (Service, error) {
	cfg := NewConfig(opts...)
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if cfg.Logger == nil {
		cfg.Logger = logger.GetLogger()
	}

	var stor Storage
	var err error
	if cfg.Storage != nil {
		stor = cfg.Storage
	} else {
		stor, err = NewSQLiteStorage(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage: %w", err)
		}
	}

	return &alignService{
		storage: stor,
		log:     cfg.Logger,
		config:  cfg,
	}, nil
}

// AlignLabels runs the aligner on in-memory sequences.
func (s *alignService) AlignLabels(phonemes []align.Phoneme, notes []align.Note) align.Result {
	return align.Align(phonemes, notes, s.config.Params)
}

func readPhonemes(path string) ([]align.Phoneme, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return label.ReadPhonemes(f)
}

func readNotes(path string) ([]align.Note, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return label.ReadNotes(f)
}

// AlignRecording aligns one recording of the dataset and writes its output.
// Nothing is written if either input cannot be read. A failed outcome is
// returned together with the error.
func (s *alignService) AlignRecording(ctx context.Context, id int) (*models.RecordingOutcome, error) {
	started := time.Now()
	layout := s.config.Layout
	tag := dataset.FormatID(id)

	outcome := &models.RecordingOutcome{RecordingID: id, Status: models.StatusFailed}
	fail := func(err error) (*models.RecordingOutcome, error) {
		outcome.Error = err.Error()
		outcome.DurationMs = time.Since(started).Milliseconds()
		s.log.Errorf("[%s] %v", tag, err)
		return outcome, err
	}

	if err := ctx.Err(); err != nil {
		return fail(err)
	}

	phonemes, err := readPhonemes(layout.MonoLabel(id))
	if err != nil {
		return fail(fmt.Errorf("recording %s: mono label: %w", tag, err))
	}
	notes, err := readNotes(layout.NoteLabel(id))
	if err != nil {
		return fail(fmt.Errorf("recording %s: note label: %w", tag, err))
	}
	s.log.Debugf("[%s] %d phonemes, %d notes", tag, len(phonemes), len(notes))

	res := s.AlignLabels(phonemes, notes)

	var buf bytes.Buffer
	if err := label.WriteAligned(&buf, res.Labels); err != nil {
		return fail(fmt.Errorf("recording %s: formatting output: %w", tag, err))
	}
	out := layout.Aligned(id)
	if err := utils.WriteFileAtomic(out, buf.Bytes()); err != nil {
		return fail(fmt.Errorf("recording %s: writing output: %w", tag, err))
	}

	outcome.OutputPath = out
	outcome.Phonemes = len(phonemes)
	outcome.Notes = len(notes)
	outcome.ExactMatches = res.ExactMatches
	outcome.NonVoiced = res.NonVoiced
	outcome.Unresolved = len(res.Unresolved)
	outcome.NearMisses = res.NearMisses
	outcome.Cost = res.Cost
	outcome.Status = models.StatusAligned

	if len(res.Unresolved) > 0 {
		first := phonemes[res.Unresolved[0]]
		outcome.Diagnostic = &models.Diagnostic{
			RecordingID: id,
			Start:       first.Start,
			Lyrics:      first.Lyrics,
			Count:       len(res.Unresolved),
		}
		outcome.Status = models.StatusPartial
		s.log.Warnf("%s", DiagnosticMessage(*outcome.Diagnostic))
	}

	outcome.DurationMs = time.Since(started).Milliseconds()
	s.log.Infof("[%s] aligned %d phonemes (cost %.2f, %d exact)", tag, len(phonemes), res.Cost, res.ExactMatches)
	return outcome, nil
}

// AlignDataset aligns every id on a worker pool. A failing recording is
// recorded and does not stop the others. onDone, if set, is called once per
// recording from a single goroutine as results arrive.
//
// Cancelling ctx stops new recordings from starting; those are recorded as
// failed and the context error is returned with the run.
func (s *alignService) AlignDataset(ctx context.Context, ids []int, onDone func(models.RecordingOutcome)) (*models.Run, error) {
	unlock, err := s.config.Layout.Lock()
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := unlock(); err != nil {
			s.log.Warnf("failed to release dataset lock: %v", err)
		}
	}()

	run := &models.Run{
		StartedAt: time.Now(),
		Params:    paramsSnapshot(s.config),
		Total:     len(ids),
	}
	run.ID, err = s.storage.CreateRun(run.StartedAt, run.Params, run.Total)
	if err != nil {
		return nil, fmt.Errorf("failed to record run: %w", err)
	}
	s.log.Infof("run %s: aligning %d recordings with %d workers", run.ID, len(ids), s.config.Workers)

	workers := s.config.Workers
	if workers > len(ids) {
		workers = len(ids)
	}

	jobs := make(chan int, len(ids))
	results := make(chan models.RecordingOutcome, len(ids))

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range jobs {
				outcome, _ := s.AlignRecording(ctx, id)
				results <- *outcome
			}
		}()
	}

	for _, id := range ids {
		jobs <- id
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	for outcome := range results {
		outcome.RunID = run.ID
		switch outcome.Status {
		case models.StatusFailed:
			run.Failed++
		case models.StatusPartial:
			run.Succeeded++
			run.Unresolved++
		default:
			run.Succeeded++
		}
		if err := s.storage.SaveOutcome(outcome); err != nil {
			s.log.Warnf("run %s: failed to record recording %s: %v", run.ID, dataset.FormatID(outcome.RecordingID), err)
		}
		if onDone != nil {
			onDone(outcome)
		}
	}

	run.FinishedAt = time.Now()
	if err := s.storage.FinishRun(run.ID, run.FinishedAt, run.Succeeded, run.Failed, run.Unresolved); err != nil {
		s.log.Warnf("run %s: failed to record totals: %v", run.ID, err)
	}
	s.log.Infof("run %s: %d aligned, %d failed, %d with unresolved notes", run.ID, run.Succeeded, run.Failed, run.Unresolved)

	return run, ctx.Err()
}

// ListRuns returns the recorded runs, newest first.
func (s *alignService) ListRuns() ([]models.Run, error) {
	return s.storage.ListRuns()
}

// GetRun returns a run and its per-recording outcomes.
func (s *alignService) GetRun(runID string) (*models.Run, []models.RecordingOutcome, error) {
	run, err := s.storage.GetRun(runID)
	if err != nil {
		return nil, nil, err
	}
	outcomes, err := s.storage.GetOutcomes(runID)
	if err != nil {
		return nil, nil, err
	}
	return run, outcomes, nil
}

// Close releases all resources held by the service.
func (s *alignService) Close() error {
	return s.storage.Close()
}
