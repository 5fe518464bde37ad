//go:build !js && !wasm
// +build !js,!wasm

package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/himanishpuri/NoteAlign/pkg/models"
	"github.com/himanishpuri/NoteAlign/pkg/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const DefaultDBFile = "notealign.sqlite3"
const errDBClientNil = "db client is nil"

// ErrRunNotFound is returned when a run id is unknown.
var ErrRunNotFound = errors.New("run not found")

type DBClient struct {
	DB *gorm.DB
	db *sql.DB
}

type Run struct {
	ID         string    `gorm:"primaryKey;type:varchar(36)"`
	StartedAt  time.Time `gorm:"index:idx_run_started"`
	FinishedAt *time.Time
	Params     string // JSON snapshot of models.Params
	Total      int
	Succeeded  int
	Failed     int
	Unresolved int
}

type RecordingResult struct {
	ID           uint   `gorm:"primaryKey;autoIncrement"`
	RunID        string `gorm:"type:varchar(36);uniqueIndex:idx_run_recording,priority:1"`
	RecordingID  int    `gorm:"uniqueIndex:idx_run_recording,priority:2"`
	Status       string `gorm:"index:idx_status"`
	OutputPath   string
	Phonemes     int
	Notes        int
	ExactMatches int
	NonVoiced    int
	Unresolved   int
	NearMisses   int
	Cost         float64
	DurationMs   int64
	Error        string
	CreatedAt    time.Time
}

type Diagnostic struct {
	ID          uint   `gorm:"primaryKey;autoIncrement"`
	RunID       string `gorm:"type:varchar(36);index:idx_diag_run"`
	RecordingID int
	Start       float64
	Lyrics      string
	Count       int
}

func NewDBClient() (*DBClient, error) {
	dbPath := os.Getenv("NOTEALIGN_DB_PATH")
	if dbPath == "" {
		dbPath = DefaultDBFile
	}
	return NewDBClientWithPath(dbPath)
}

func NewDBClientWithPath(dbPath string) (*DBClient, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil && !os.IsExist(err) {
		if filepath.Dir(dbPath) != "." {
			return nil, fmt.Errorf("creating db dir: %w", err)
		}
	}

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}

	db, err := gorm.Open(sqlite.Open(dbPath+"?_pragma=busy_timeout(5000)"), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting sql.DB from gorm: %w", err)
	}

	// sqlite allows a single writer at a time.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&Run{}, &RecordingResult{}, &Diagnostic{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("auto migrate: %w", err)
	}

	return &DBClient{DB: db, db: sqlDB}, nil
}

func (c *DBClient) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// CreateRun inserts a new run and returns its id.
func (c *DBClient) CreateRun(startedAt time.Time, params models.Params, total int) (string, error) {
	if c == nil || c.DB == nil {
		return "", errors.New(errDBClientNil)
	}

	raw, err := json.Marshal(params)
	if err != nil {
		return "", fmt.Errorf("encoding params: %w", err)
	}

	run := Run{
		ID:        utils.GenerateUUID(),
		StartedAt: startedAt,
		Params:    string(raw),
		Total:     total,
	}
	if err := c.DB.Create(&run).Error; err != nil {
		return "", fmt.Errorf("creating run: %w", err)
	}
	return run.ID, nil
}

// SaveOutcome stores one recording result and its diagnostic, if any.
func (c *DBClient) SaveOutcome(o models.RecordingOutcome) error {
	if c == nil || c.DB == nil {
		return errors.New(errDBClientNil)
	}
	return c.DB.Transaction(func(tx *gorm.DB) error {
		row := RecordingResult{
			RunID:        o.RunID,
			RecordingID:  o.RecordingID,
			Status:       o.Status,
			OutputPath:   o.OutputPath,
			Phonemes:     o.Phonemes,
			Notes:        o.Notes,
			ExactMatches: o.ExactMatches,
			NonVoiced:    o.NonVoiced,
			Unresolved:   o.Unresolved,
			NearMisses:   o.NearMisses,
			Cost:         o.Cost,
			DurationMs:   o.DurationMs,
			Error:        o.Error,
		}
		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("creating recording result: %w", err)
		}
		if o.Diagnostic != nil {
			d := Diagnostic{
				RunID:       o.RunID,
				RecordingID: o.Diagnostic.RecordingID,
				Start:       o.Diagnostic.Start,
				Lyrics:      o.Diagnostic.Lyrics,
				Count:       o.Diagnostic.Count,
			}
			if err := tx.Create(&d).Error; err != nil {
				return fmt.Errorf("creating diagnostic: %w", err)
			}
		}
		return nil
	})
}

// FinishRun stamps the finish time and the outcome totals.
func (c *DBClient) FinishRun(id string, finishedAt time.Time, succeeded, failed, unresolved int) error {
	if c == nil || c.DB == nil {
		return errors.New(errDBClientNil)
	}
	res := c.DB.Model(&Run{}).Where("id = ?", id).Updates(map[string]any{
		"finished_at": finishedAt,
		"succeeded":   succeeded,
		"failed":      failed,
		"unresolved":  unresolved,
	})
	if res.Error != nil {
		return fmt.Errorf("finishing run: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrRunNotFound
	}
	return nil
}

// GetRun loads a run by id.
func (c *DBClient) GetRun(id string) (*models.Run, error) {
	if c == nil || c.DB == nil {
		return nil, errors.New(errDBClientNil)
	}
	var row Run
	if err := c.DB.Where("id = ?", id).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRunNotFound
		}
		return nil, fmt.Errorf("querying run: %w", err)
	}
	run, err := row.toModel()
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// ListRuns returns all runs, newest first.
func (c *DBClient) ListRuns() ([]models.Run, error) {
	if c == nil || c.DB == nil {
		return nil, errors.New(errDBClientNil)
	}
	var rows []Run
	if err := c.DB.Order("started_at desc").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	out := make([]models.Run, 0, len(rows))
	for _, r := range rows {
		run, err := r.toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, nil
}

// GetOutcomes returns the per-recording results of a run ordered by
// recording id, with diagnostics attached.
func (c *DBClient) GetOutcomes(runID string) ([]models.RecordingOutcome, error) {
	if c == nil || c.DB == nil {
		return nil, errors.New(errDBClientNil)
	}

	var rows []RecordingResult
	if err := c.DB.Where("run_id = ?", runID).Order("recording_id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("querying recording results: %w", err)
	}
	var diags []Diagnostic
	if err := c.DB.Where("run_id = ?", runID).Find(&diags).Error; err != nil {
		return nil, fmt.Errorf("querying diagnostics: %w", err)
	}

	byRecording := make(map[int]*models.Diagnostic, len(diags))
	for _, d := range diags {
		byRecording[d.RecordingID] = &models.Diagnostic{
			RecordingID: d.RecordingID,
			Start:       d.Start,
			Lyrics:      d.Lyrics,
			Count:       d.Count,
		}
	}

	out := make([]models.RecordingOutcome, 0, len(rows))
	for _, r := range rows {
		out = append(out, models.RecordingOutcome{
			RunID:        r.RunID,
			RecordingID:  r.RecordingID,
			Status:       r.Status,
			OutputPath:   r.OutputPath,
			Phonemes:     r.Phonemes,
			Notes:        r.Notes,
			ExactMatches: r.ExactMatches,
			NonVoiced:    r.NonVoiced,
			Unresolved:   r.Unresolved,
			NearMisses:   r.NearMisses,
			Cost:         r.Cost,
			DurationMs:   r.DurationMs,
			Error:        r.Error,
			Diagnostic:   byRecording[r.RecordingID],
		})
	}
	return out, nil
}

// DeleteRun removes a run and everything recorded under it.
func (c *DBClient) DeleteRun(id string) error {
	if c == nil || c.DB == nil {
		return errors.New(errDBClientNil)
	}
	return c.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("run_id = ?", id).Delete(&Diagnostic{}).Error; err != nil {
			return err
		}
		if err := tx.Where("run_id = ?", id).Delete(&RecordingResult{}).Error; err != nil {
			return err
		}
		if err := tx.Where("id = ?", id).Delete(&Run{}).Error; err != nil {
			return err
		}
		return nil
	})
}

func (r Run) toModel() (models.Run, error) {
	var params models.Params
	if r.Params != "" {
		if err := json.Unmarshal([]byte(r.Params), &params); err != nil {
			return models.Run{}, fmt.Errorf("decoding params of run %s: %w", r.ID, err)
		}
	}
	run := models.Run{
		ID:         r.ID,
		StartedAt:  r.StartedAt,
		Params:     params,
		Total:      r.Total,
		Succeeded:  r.Succeeded,
		Failed:     r.Failed,
		Unresolved: r.Unresolved,
	}
	if r.FinishedAt != nil {
		run.FinishedAt = *r.FinishedAt
	}
	return run, nil
}
