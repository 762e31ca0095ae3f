package api

import (
	"net/http"
	"strconv"

	"github.com/nerrad567/gray-logic-show/internal/journal"
)

// handleListDeviceEvents returns device journal entries, newest first.
//
// Query parameters: device, kind, limit (default 50, max 200), offset.
func (s *Server) handleListDeviceEvents(w http.ResponseWriter, r *http.Request) {
	if s.journal == nil {
		writeUnavailable(w, "journal")
		return
	}
	q := r.URL.Query()
	filter := journal.Filter{
		Device: q.Get("device"),
		Kind:   q.Get("kind"),
	}
	var ok bool
	if filter.Limit, ok = queryInt(w, q.Get("limit"), "limit"); !ok {
		return
	}
	if filter.Offset, ok = queryInt(w, q.Get("offset"), "offset"); !ok {
		return
	}

	result, err := s.journal.ListDeviceEvents(r.Context(), filter)
	if err != nil {
		s.logger.Error("listing device events", "error", err)
		writeInternalError(w, "failed to list device events")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleListLiveIntents returns the most recent live intents.
func (s *Server) handleListLiveIntents(w http.ResponseWriter, r *http.Request) {
	if s.journal == nil {
		writeUnavailable(w, "journal")
		return
	}
	limit, ok := queryInt(w, r.URL.Query().Get("limit"), "limit")
	if !ok {
		return
	}
	intents, err := s.journal.ListLiveIntents(r.Context(), limit)
	if err != nil {
		s.logger.Error("listing live intents", "error", err)
		writeInternalError(w, "failed to list live intents")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"intents": intents,
		"count":   len(intents),
	})
}

// queryInt parses an optional non-negative integer parameter, writing a 400
// when it is malformed.
func queryInt(w http.ResponseWriter, raw, name string) (int, bool) {
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		writeBadRequest(w, name+" must be a non-negative integer")
		return 0, false
	}
	return n, true
}
