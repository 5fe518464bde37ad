package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/himanishpuri/NoteAlign/pkg/logger"
	"github.com/himanishpuri/NoteAlign/pkg/models"
	"github.com/himanishpuri/NoteAlign/pkg/notealign"
	"github.com/himanishpuri/NoteAlign/pkg/notealign/align"
	"github.com/himanishpuri/NoteAlign/pkg/notealign/label"
	"github.com/himanishpuri/NoteAlign/pkg/utils"
)

// Server encapsulates the HTTP server and its dependencies
type Server struct {
	service notealign.Service
	config  *ServerConfig
	log     notealign.Logger
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           int
	DBPath         string
	DatasetRoot    string
	Params         align.Params
	AllowedOrigins []string
}

// NewServer creates a new server instance
func NewServer(service notealign.Service, config *ServerConfig) *Server {
	return &Server{
		service: service,
		config:  config,
		log:     logger.GetLogger().WithPrefix("http"),
	}
}

// respondJSON writes a JSON response
func (s *Server) respondJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Errorf("Failed to encode JSON response: %v", err)
	}
}

// respondError writes an error response
func (s *Server) respondError(w http.ResponseWriter, statusCode int, message string) {
	s.respondJSON(w, statusCode, ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	})
}

// handleRoot handles GET /
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"service": "NoteAlign API",
		"version": "1.0.0",
		"endpoints": map[string]string{
			"health":  "GET /health",
			"metrics": "GET /api/health/metrics",
			"align":   "POST /api/align",
			"runs":    "GET /api/runs",
			"getRun":  "GET /api/runs/{id}",
		},
	})
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// handleMetrics handles GET /api/health/metrics
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	runs, err := s.service.ListRuns()
	if err != nil {
		s.log.Errorf("Failed to get run count: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to retrieve metrics")
		return
	}

	resp := MetricsResponse{
		Status:       "healthy",
		DatabasePath: s.config.DBPath,
		DatasetRoot:  s.config.DatasetRoot,
		RunCount:     len(runs),
	}
	if len(runs) > 0 {
		resp.LastRun = runs[0].ID
	}
	s.respondJSON(w, http.StatusOK, resp)
}

// handleAlign handles POST /api/align
func (s *Server) handleAlign(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 2*MaxLabelBytes+4096)
	var req AlignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.log.Errorf("Failed to decode request: %v", err)
		s.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	phonemes, err := label.ReadPhonemes(strings.NewReader(req.MonoLabel))
	if err != nil {
		s.respondError(w, http.StatusUnprocessableEntity, fmt.Sprintf("mono_label: %v", err))
		return
	}
	notes, err := label.ReadNotes(strings.NewReader(req.NoteLabel))
	if err != nil {
		s.respondError(w, http.StatusUnprocessableEntity, fmt.Sprintf("note_label: %v", err))
		return
	}

	if err := align.CheckSize(len(phonemes), len(notes)); err != nil {
		s.log.Warnf("Rejected alignment of %d phonemes x %d notes", len(phonemes), len(notes))
		s.respondError(w, http.StatusRequestEntityTooLarge, err.Error())
		return
	}

	params := s.config.Params
	if req.LyricMismatchWeight != nil {
		params.LyricMismatchWeight = *req.LyricMismatchWeight
	}
	if req.UseTimeDistance != nil {
		params.UseTimeDistance = *req.UseTimeDistance
	}
	if len(req.NonVoiced) > 0 {
		params.NonVoiced = req.NonVoiced
	}

	res := align.Align(phonemes, notes, params)

	var buf bytes.Buffer
	if err := label.WriteAligned(&buf, res.Labels); err != nil {
		s.log.Errorf("Failed to format labels: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to format labels")
		return
	}

	resp := AlignResponse{
		Aligned:      buf.String(),
		Cost:         res.Cost,
		ExactMatches: res.ExactMatches,
		NearMisses:   res.NearMisses,
		Unresolved:   res.Unresolved,
	}
	if resp.Unresolved == nil {
		resp.Unresolved = []int{}
	}
	if len(res.Unresolved) > 0 {
		first := res.Labels[res.Unresolved[0]]
		d := models.Diagnostic{Start: first.Start, Lyrics: first.Lyrics, Count: len(res.Unresolved)}
		resp.Diagnostic = &DiagnosticDTO{
			Message: notealign.DiagnosticMessage(d),
			Start:   d.Start,
			Lyrics:  d.Lyrics,
			Count:   d.Count,
		}
		s.log.Warnf("%s", resp.Diagnostic.Message)
	}

	s.log.Infof("Aligned %d phoneme(s) against %d note(s), cost %.3f", len(phonemes), len(notes), res.Cost)
	s.respondJSON(w, http.StatusOK, resp)
}

// handleRuns handles GET /api/runs
func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	runs, err := s.service.ListRuns()
	if err != nil {
		s.log.Errorf("Failed to list runs: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to retrieve runs")
		return
	}

	dtos := make([]RunDTO, len(runs))
	for i, run := range runs {
		dtos[i] = toRunDTO(run)
	}
	s.respondJSON(w, http.StatusOK, ListRunsResponse{Runs: dtos, Count: len(dtos)})
}

// handleRun handles GET /api/runs/{id}
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/runs/")
	if id == "" {
		s.respondError(w, http.StatusBadRequest, "Run ID required")
		return
	}
	if !utils.IsUUID(id) {
		s.respondError(w, http.StatusBadRequest, "Invalid run ID")
		return
	}

	run, outcomes, err := s.service.GetRun(id)
	if errors.Is(err, notealign.ErrRunNotFound) {
		s.log.Warnf("Run not found: %s", id)
		s.respondError(w, http.StatusNotFound, fmt.Sprintf("Run %s not found", id))
		return
	}
	if err != nil {
		s.log.Errorf("Failed to load run %s: %v", id, err)
		s.respondError(w, http.StatusInternalServerError, "Failed to retrieve run")
		return
	}

	if outcomes == nil {
		outcomes = []models.RecordingOutcome{}
	}
	s.respondJSON(w, http.StatusOK, RunDetailResponse{Run: toRunDTO(*run), Recordings: outcomes})
}
