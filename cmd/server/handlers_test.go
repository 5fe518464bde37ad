package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/himanishpuri/NoteAlign/pkg/models"
	"github.com/himanishpuri/NoteAlign/pkg/notealign"
	"github.com/himanishpuri/NoteAlign/pkg/notealign/align"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeService struct {
	runs     []models.Run
	outcomes map[string][]models.RecordingOutcome
}

func (f *fakeService) AlignLabels(phonemes []align.Phoneme, notes []align.Note) align.Result {
	return align.Align(phonemes, notes, align.DefaultParams())
}

func (f *fakeService) AlignRecording(ctx context.Context, id int) (*models.RecordingOutcome, error) {
	return nil, nil
}

func (f *fakeService) AlignDataset(ctx context.Context, ids []int, onDone func(models.RecordingOutcome)) (*models.Run, error) {
	return nil, nil
}

func (f *fakeService) ListRuns() ([]models.Run, error) { return f.runs, nil }

func (f *fakeService) GetRun(runID string) (*models.Run, []models.RecordingOutcome, error) {
	for i := range f.runs {
		if f.runs[i].ID == runID {
			return &f.runs[i], f.outcomes[runID], nil
		}
	}
	return nil, nil, notealign.ErrRunNotFound
}

func (f *fakeService) Close() error { return nil }

func newTestServer(svc notealign.Service) http.Handler {
	s := NewServer(svc, &ServerConfig{
		DBPath:         "test.sqlite3",
		DatasetRoot:    ".",
		Params:         align.DefaultParams(),
		AllowedOrigins: []string{"*"},
	})
	return s.setupRoutes()
}

func TestHandleAlign(t *testing.T) {
	h := newTestServer(&fakeService{})

	body := `{"mono_label":"0 0.1 pau\n0.1 0.3 k\n0.3 0.5 a","note_label":"0,pau,0\n0.1,k,60\n0.3,a,62"}`
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/align", strings.NewReader(body)))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp AlignResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "0,0.1,pau,0\n0.1,0.3,k,60\n0.3,0.5,a,62", resp.Aligned)
	assert.Equal(t, 2, resp.ExactMatches)
	assert.Empty(t, resp.Unresolved)
	assert.Nil(t, resp.Diagnostic)
}

func TestHandleAlign_Unresolved(t *testing.T) {
	h := newTestServer(&fakeService{})

	body := `{"mono_label":"0 0.1 a","note_label":""}`
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/align", strings.NewReader(body)))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp AlignResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "0,0.1,a,0", resp.Aligned)
	assert.Equal(t, []int{0}, resp.Unresolved)
	require.NotNil(t, resp.Diagnostic)
	assert.Equal(t, "a", resp.Diagnostic.Lyrics)
	assert.Equal(t, 1, resp.Diagnostic.Count)
}

func TestHandleAlign_Malformed(t *testing.T) {
	h := newTestServer(&fakeService{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/align",
		strings.NewReader(`{"mono_label":"0 0.1 a","note_label":"0,a"}`)))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/align", strings.NewReader("{")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/align", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

const runID = "8f14e45f-ceea-467f-a0e6-0b6d5a4c2a11"

func TestHandleAlign_TooManyCells(t *testing.T) {
	h := newTestServer(&fakeService{})

	var mono, notes strings.Builder
	for i := 0; i < 2100; i++ {
		mono.WriteString("0 0 a\n")
		notes.WriteString("0,a,0\n")
	}
	body, err := json.Marshal(AlignRequest{MonoLabel: mono.String(), NoteLabel: notes.String()})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/align", bytes.NewReader(body)))

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Contains(t, resp.Message, "too large")
}

func TestHandleRuns(t *testing.T) {
	started := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	svc := &fakeService{
		runs: []models.Run{{ID: runID, StartedAt: started, Total: 2, Succeeded: 1, Failed: 1}},
		outcomes: map[string][]models.RecordingOutcome{
			runID: {{RunID: runID, RecordingID: 1, Status: models.StatusAligned}},
		},
	}
	h := newTestServer(svc)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/runs", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var list ListRunsResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&list))
	assert.Equal(t, 1, list.Count)
	assert.Nil(t, list.Runs[0].FinishedAt)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/runs/"+runID, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var detail RunDetailResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&detail))
	assert.Equal(t, runID, detail.Run.ID)
	assert.Len(t, detail.Recordings, 1)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/runs/00000000-0000-4000-8000-000000000000", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/runs/missing", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	h := newTestServer(&fakeService{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/align", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
