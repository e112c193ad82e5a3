package api

import (
	"encoding/json"
	"net/http"
)

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if s.answers == nil {
		jsonError(w, "stats unavailable", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"model":       s.answers.Model(),
		"completions": s.answers.Stats().Snapshot(),
		"queue_depth": s.orchestrator.QueueDepth(),
		"sessions":    s.sessions.Count(),
	})
}
