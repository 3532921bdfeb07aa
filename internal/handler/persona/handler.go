// Package persona lists the available doorkeeper characters.
package persona

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aegatekeeper/backend/internal/model/persona"
	"github.com/aegatekeeper/backend/pkg/utils"
)

// Handler serves the persona catalog.
type Handler struct {
	personas persona.Store
}

// New creates the persona handler.
func New(personas persona.Store) *Handler {
	return &Handler{personas: personas}
}

// RegisterRoutes mounts the persona routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/personas", h.handleListPersonas)
}

// System prompts and riddle banks never serialize; guests only see the
// public face of each doorkeeper.
func (h *Handler) handleListPersonas(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.personas.List())
}
