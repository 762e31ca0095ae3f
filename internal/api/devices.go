package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/gray-logic-show/internal/hardware"
)

// handleListDevices returns the stats of every hardware thread.
func (s *Server) handleListDevices(w http.ResponseWriter, _ *http.Request) {
	if s.manager == nil {
		writeUnavailable(w, "hardware manager")
		return
	}
	stats := s.manager.Stats()
	writeJSON(w, http.StatusOK, map[string]any{
		"devices": stats,
		"count":   len(stats),
	})
}

// handlePauseDevice pauses one device thread.
func (s *Server) handlePauseDevice(w http.ResponseWriter, r *http.Request) {
	s.setDevicePaused(w, r, true)
}

// handleResumeDevice resumes one device thread.
func (s *Server) handleResumeDevice(w http.ResponseWriter, r *http.Request) {
	s.setDevicePaused(w, r, false)
}

func (s *Server) setDevicePaused(w http.ResponseWriter, r *http.Request, paused bool) {
	if s.manager == nil {
		writeUnavailable(w, "hardware manager")
		return
	}
	name := chi.URLParam(r, "name")

	var err error
	if paused {
		err = s.manager.Pause(name)
	} else {
		err = s.manager.Resume(name)
	}
	if errors.Is(err, hardware.ErrDeviceNotFound) {
		writeNotFound(w, "device not found")
		return
	}
	if err != nil {
		writeInternalError(w, err.Error())
		return
	}

	s.logger.Info("device paused state changed", "device", name, "paused", paused, "by", actor(r))
	t, _ := s.manager.Thread(name)
	writeJSON(w, http.StatusOK, t.Stats())
}
