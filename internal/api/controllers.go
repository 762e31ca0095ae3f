package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/gray-logic-show/internal/modules/preview"
	"github.com/nerrad567/gray-logic-show/internal/output"
)

// controllerView is the JSON summary of a controller.
type controllerView struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Outputs    int    `json:"outputs"`
	Root       bool   `json:"root"`
	ChainIndex int    `json:"chain_index"`
	Prior      string `json:"prior,omitempty"`
}

func (s *Server) viewController(c *output.Controller) controllerView {
	v := controllerView{
		ID:         c.ID().String(),
		Name:       c.Name(),
		Outputs:    c.OutputCount(),
		Root:       c.IsRoot(),
		ChainIndex: s.rig.Linking.ChainIndex(c.ID()),
	}
	if prior, ok := s.rig.Linking.Prior(c.ID()); ok {
		v.Prior = prior.ID().String()
	}
	return v
}

// handleListControllers returns every controller in configuration order.
func (s *Server) handleListControllers(w http.ResponseWriter, _ *http.Request) {
	if s.rig == nil {
		writeUnavailable(w, "controllers")
		return
	}
	views := make([]controllerView, 0, len(s.rig.Controllers))
	for _, c := range s.rig.Controllers {
		views = append(views, s.viewController(c))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"controllers": views,
		"count":       len(views),
	})
}

// handleControllerOutputs returns a snapshot of a controller's outputs.
// The id may also be the controller name.
func (s *Server) handleControllerOutputs(w http.ResponseWriter, r *http.Request) {
	if s.rig == nil {
		writeUnavailable(w, "controllers")
		return
	}
	c, ok := s.rig.Controller(chi.URLParam(r, "id"))
	if !ok {
		writeNotFound(w, "controller not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"controller": s.viewController(c),
		"outputs":    c.Snapshot(),
	})
}

// handleListPreviews returns the latest frame of every chain member of every
// preview module. Clients load it before subscribing to preview.{module}.
func (s *Server) handleListPreviews(w http.ResponseWriter, _ *http.Request) {
	if s.rig == nil {
		writeUnavailable(w, "controllers")
		return
	}
	previews := make(map[string][]preview.Frame, len(s.rig.Previews))
	for _, m := range s.rig.Previews {
		previews[m.Name()] = m.Frames()
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"previews": previews,
		"count":    len(previews),
	})
}
