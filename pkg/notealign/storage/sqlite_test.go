package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/himanishpuri/NoteAlign/pkg/models"
)

// Helper function to create a temporary test database
func setupTestDB(t *testing.T) (*DBClient, string) {
	t.Helper()

	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test_notealign.sqlite3")

	t.Setenv("NOTEALIGN_DB_PATH", dbPath)

	client, err := NewDBClient()
	if err != nil {
		t.Fatalf("Failed to create test DB client: %v", err)
	}

	t.Cleanup(func() {
		client.Close()
	})

	return client, dbPath
}

func testParams() models.Params {
	return models.Params{LyricMismatchWeight: 10, UseTimeDistance: true, NonVoiced: []string{"pau", "br"}}
}

// TestNewDBClient tests database initialization
func TestNewDBClient(t *testing.T) {
	client, dbPath := setupTestDB(t)

	if client.DB == nil {
		t.Fatal("Expected non-nil GORM DB handle")
	}
	if client.db == nil {
		t.Fatal("Expected non-nil sql.DB handle")
	}
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Errorf("Database file was not created at %s", dbPath)
	}
}

// TestNewDBClientWithPath tests database creation in a missing subdirectory
func TestNewDBClientWithPath(t *testing.T) {
	customPath := filepath.Join(t.TempDir(), "subdir", "custom.db")

	client, err := NewDBClientWithPath(customPath)
	if err != nil {
		t.Fatalf("Failed to create DB with custom path: %v", err)
	}
	defer client.Close()

	if _, err := os.Stat(customPath); os.IsNotExist(err) {
		t.Errorf("Database file was not created at custom path %s", customPath)
	}
}

func TestCreateAndGetRun(t *testing.T) {
	client, _ := setupTestDB(t)

	id, err := client.CreateRun(time.Now(), testParams(), 3)
	if err != nil {
		t.Fatalf("CreateRun failed: %v", err)
	}
	if len(id) != 36 {
		t.Errorf("Expected a UUID run id, got %q", id)
	}

	run, err := client.GetRun(id)
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if run.Total != 3 {
		t.Errorf("Expected total 3, got %d", run.Total)
	}
	if !run.FinishedAt.IsZero() {
		t.Error("Expected unfinished run to have zero FinishedAt")
	}
	if run.Params.LyricMismatchWeight != 10 || !run.Params.UseTimeDistance {
		t.Errorf("Params not restored: %+v", run.Params)
	}
	if len(run.Params.NonVoiced) != 2 {
		t.Errorf("Expected 2 non-voiced tokens, got %v", run.Params.NonVoiced)
	}
}

func TestGetRun_NotFound(t *testing.T) {
	client, _ := setupTestDB(t)

	_, err := client.GetRun("00000000-0000-0000-0000-000000000000")
	if !errors.Is(err, ErrRunNotFound) {
		t.Errorf("Expected ErrRunNotFound, got %v", err)
	}

	err = client.FinishRun("00000000-0000-0000-0000-000000000000", time.Now(), 0, 0, 0)
	if !errors.Is(err, ErrRunNotFound) {
		t.Errorf("Expected ErrRunNotFound from FinishRun, got %v", err)
	}
}

func TestSaveOutcomeAndFinish(t *testing.T) {
	client, _ := setupTestDB(t)

	runID, err := client.CreateRun(time.Now(), testParams(), 2)
	if err != nil {
		t.Fatalf("CreateRun failed: %v", err)
	}

	outcomes := []models.RecordingOutcome{
		{
			RunID: runID, RecordingID: 2, Status: models.StatusPartial,
			Phonemes: 10, Notes: 8, ExactMatches: 6, Unresolved: 1, Cost: 10.5,
			Diagnostic: &models.Diagnostic{RecordingID: 2, Start: 1.25, Lyrics: "a", Count: 1},
		},
		{RunID: runID, RecordingID: 1, Status: models.StatusFailed, Error: "line 3: malformed"},
	}
	for _, o := range outcomes {
		if err := client.SaveOutcome(o); err != nil {
			t.Fatalf("SaveOutcome failed: %v", err)
		}
	}

	if err := client.FinishRun(runID, time.Now(), 1, 1, 1); err != nil {
		t.Fatalf("FinishRun failed: %v", err)
	}

	run, err := client.GetRun(runID)
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if run.FinishedAt.IsZero() {
		t.Error("Expected FinishedAt to be set")
	}
	if run.Succeeded != 1 || run.Failed != 1 || run.Unresolved != 1 {
		t.Errorf("Unexpected totals: %+v", run)
	}

	got, err := client.GetOutcomes(runID)
	if err != nil {
		t.Fatalf("GetOutcomes failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 outcomes, got %d", len(got))
	}
	if got[0].RecordingID != 1 || got[1].RecordingID != 2 {
		t.Errorf("Expected outcomes ordered by recording id, got %d, %d", got[0].RecordingID, got[1].RecordingID)
	}
	if got[0].Diagnostic != nil {
		t.Error("Expected no diagnostic for recording 1")
	}
	if got[1].Diagnostic == nil || got[1].Diagnostic.Lyrics != "a" || got[1].Diagnostic.Start != 1.25 {
		t.Errorf("Diagnostic not restored: %+v", got[1].Diagnostic)
	}
	if got[1].Cost != 10.5 {
		t.Errorf("Expected cost 10.5, got %v", got[1].Cost)
	}
}

func TestSaveOutcome_DuplicateRecording(t *testing.T) {
	client, _ := setupTestDB(t)

	runID, _ := client.CreateRun(time.Now(), testParams(), 1)
	o := models.RecordingOutcome{RunID: runID, RecordingID: 1, Status: models.StatusAligned}

	if err := client.SaveOutcome(o); err != nil {
		t.Fatalf("SaveOutcome failed: %v", err)
	}
	if err := client.SaveOutcome(o); err == nil {
		t.Error("Expected unique constraint error for a repeated recording in the same run")
	}
}

func TestListRuns(t *testing.T) {
	client, _ := setupTestDB(t)

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	older, _ := client.CreateRun(base, testParams(), 1)
	newer, _ := client.CreateRun(base.Add(time.Hour), testParams(), 1)

	runs, err := client.ListRuns()
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("Expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID != newer || runs[1].ID != older {
		t.Errorf("Expected newest run first")
	}
}

func TestDeleteRun(t *testing.T) {
	client, _ := setupTestDB(t)

	runID, _ := client.CreateRun(time.Now(), testParams(), 1)
	client.SaveOutcome(models.RecordingOutcome{
		RunID: runID, RecordingID: 1, Status: models.StatusPartial,
		Diagnostic: &models.Diagnostic{RecordingID: 1, Lyrics: "i", Count: 2},
	})

	if err := client.DeleteRun(runID); err != nil {
		t.Fatalf("DeleteRun failed: %v", err)
	}

	if _, err := client.GetRun(runID); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("Expected run to be gone, got %v", err)
	}
	var count int64
	client.DB.Model(&Diagnostic{}).Where("run_id = ?", runID).Count(&count)
	if count != 0 {
		t.Errorf("Expected diagnostics to be deleted, found %d", count)
	}
}

func TestNilClient(t *testing.T) {
	var c *DBClient

	if err := c.Close(); err != nil {
		t.Errorf("Expected nil Close on nil client, got %v", err)
	}
	if _, err := c.ListRuns(); err == nil {
		t.Error("Expected error from nil client")
	}
}
