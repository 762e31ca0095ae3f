package api

import (
	"encoding/json"
	"net/http"

	"github.com/nerrad567/gray-logic-show/internal/filter"
	"github.com/nerrad567/gray-logic-show/internal/instrumentation"
)

// filterEvaluation is the body of the filter evaluation endpoints.
type filterEvaluation struct {
	Enabled *bool `json:"enabled"`
}

// handleGetFilterEvaluation reports whether post filters are applied.
func (s *Server) handleGetFilterEvaluation(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"enabled": filter.EvaluationEnabled()})
}

// handleSetFilterEvaluation switches post-filter evaluation for every
// output at once.
func (s *Server) handleSetFilterEvaluation(w http.ResponseWriter, r *http.Request) {
	var req filterEvaluation
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Enabled == nil {
		writeBadRequest(w, "enabled is required")
		return
	}

	filter.SetEvaluation(*req.Enabled)
	s.logger.Info("filter evaluation changed", "enabled", *req.Enabled, "by", actor(r))
	writeJSON(w, http.StatusOK, map[string]bool{"enabled": *req.Enabled})
}

// handleInstrumentation returns the current instrumentation values.
func (s *Server) handleInstrumentation(w http.ResponseWriter, _ *http.Request) {
	samples := s.registry.Snapshot()
	if samples == nil {
		samples = []instrumentation.Sample{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"values": samples,
		"count":  len(samples),
	})
}
