package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dgallion1/docvoice/internal/apperr"
	"github.com/dgallion1/docvoice/internal/pipeline"
	"github.com/go-chi/chi/v5"
)

// handleListNarrations lists every job the server remembers.
func (s *Server) handleListNarrations(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"narrations": s.orchestrator.ListJobs()})
}

// handleDeleteNarration forgets a finished job and deletes its files.
func (s *Server) handleDeleteNarration(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	err := s.orchestrator.DeleteJob(jobID)
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, apperr.ErrNotFound):
		jsonError(w, "job not found", http.StatusNotFound)
	case errors.Is(err, pipeline.ErrJobRunning):
		jsonError(w, err.Error(), http.StatusConflict)
	default:
		jsonError(w, "failed to delete narration: "+err.Error(), http.StatusInternalServerError)
	}
}
