// Package badge exposes paid-badge image generation over HTTP.
package badge

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aegatekeeper/backend/pkg/utils"
)

// Generator renders a badge portrait.
type Generator interface {
	Generate(ctx context.Context, personDescription string, amountAE float64, eventName string) (string, error)
}

// Handler serves the badge generation endpoint.
type Handler struct {
	generator Generator
}

// New creates the badge handler. generator may be nil when generation is
// not configured; requests then get a 400 pointing at the missing config.
func New(generator Generator) *Handler {
	return &Handler{generator: generator}
}

// RegisterRoutes mounts the badge routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/generate-badge", h.handleGenerate)
}

func (h *Handler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if h.generator == nil {
		utils.RespondError(w, http.StatusBadRequest, "badge generation is not configured")
		return
	}

	var payload struct {
		PersonDescription string  `json:"personDescription"`
		AmountAE          float64 `json:"amountAE"`
		EventName         string  `json:"eventName"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.PersonDescription == "" {
		utils.RespondError(w, http.StatusBadRequest, "personDescription is required")
		return
	}

	image, err := h.generator.Generate(r.Context(), payload.PersonDescription, payload.AmountAE, payload.EventName)
	if err != nil {
		utils.RespondAppError(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]string{"badgeImage": image})
}
