package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/nerrad567/gray-logic-show/internal/execution"
)

// handleListEffects returns the scheduled effects ordered by start.
func (s *Server) handleListEffects(w http.ResponseWriter, _ *http.Request) {
	if s.playback == nil {
		writeUnavailable(w, "playback")
		return
	}
	effects := s.playback.Effects()
	writeJSON(w, http.StatusOK, map[string]any{
		"position": s.playback.Position(),
		"effects":  effects,
		"count":    len(effects),
	})
}

// handleScheduleEffect schedules an effect. The body has the same JSON form
// as a live intent MQTT message.
func (s *Server) handleScheduleEffect(w http.ResponseWriter, r *http.Request) {
	if s.playback == nil {
		writeUnavailable(w, "playback")
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeBadRequest(w, "reading body: "+err.Error())
		return
	}
	e, delay, err := execution.ParseLiveMessage(body)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	id := s.playback.ScheduleNow(e, delay)
	s.logger.Info("effect scheduled via API", "effect", e.Name, "id", id, "by", actor(r))
	writeJSON(w, http.StatusCreated, map[string]string{"id": id.String()})
}

// handleCancelEffect removes a scheduled effect.
func (s *Server) handleCancelEffect(w http.ResponseWriter, r *http.Request) {
	if s.playback == nil {
		writeUnavailable(w, "playback")
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeBadRequest(w, "invalid effect id")
		return
	}
	if err := s.playback.Cancel(id); err != nil {
		if errors.Is(err, execution.ErrEffectNotFound) {
			writeNotFound(w, "effect not found")
			return
		}
		writeInternalError(w, err.Error())
		return
	}
	s.logger.Info("effect cancelled via API", "id", id, "by", actor(r))
	w.WriteHeader(http.StatusNoContent)
}
