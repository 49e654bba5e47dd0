package api

import (
	"encoding/json"
	"net/http"

	"github.com/dgallion1/docvoice/internal/pipeline"
)

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	byStatus := map[pipeline.JobStatus]int{}
	for _, job := range s.orchestrator.ListJobs() {
		byStatus[job.Status]++
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"queue_depth":  s.orchestrator.QueueDepth(),
		"worker_count": s.orchestrator.WorkerCount(),
		"jobs":         byStatus,
	})
}
