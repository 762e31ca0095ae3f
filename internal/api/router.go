package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/instrumentation", s.handleInstrumentation)

		r.Route("/devices", func(r chi.Router) {
			r.Get("/", s.handleListDevices)
			r.With(s.authMiddleware).Post("/{name}/pause", s.handlePauseDevice)
			r.With(s.authMiddleware).Post("/{name}/resume", s.handleResumeDevice)
		})

		r.Route("/controllers", func(r chi.Router) {
			r.Get("/", s.handleListControllers)
			r.Get("/{id}/outputs", s.handleControllerOutputs)
		})

		r.Get("/previews", s.handleListPreviews)

		r.Route("/filters", func(r chi.Router) {
			r.Get("/evaluation", s.handleGetFilterEvaluation)
			r.With(s.authMiddleware).Put("/evaluation", s.handleSetFilterEvaluation)
		})

		r.Route("/playback", func(r chi.Router) {
			r.Get("/effects", s.handleListEffects)
			r.With(s.authMiddleware).Post("/effects", s.handleScheduleEffect)
			r.With(s.authMiddleware).Delete("/effects/{id}", s.handleCancelEffect)
		})

		r.Route("/journal", func(r chi.Router) {
			r.Get("/", s.handleListDeviceEvents)
			r.Get("/intents", s.handleListLiveIntents)
		})
	})

	path := s.wsCfg.Path
	if path == "" {
		path = "/ws"
	}
	r.Get(path, s.handleWebSocket)

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}
