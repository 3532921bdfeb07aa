// Package analyze exposes the pre-conversation analyzers over HTTP.
package analyze

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	analyzeService "github.com/aegatekeeper/backend/internal/service/analyze"
	"github.com/aegatekeeper/backend/pkg/utils"
)

// Handler serves the image and website analyzers. Both endpoints always
// answer 200: analysis failures degrade to fallbacks or an error field, so
// the door form never blocks on them.
type Handler struct {
	website *analyzeService.WebsiteAnalyzer
	image   *analyzeService.ImageAnalyzer
}

// New creates the analyze handler.
func New(website *analyzeService.WebsiteAnalyzer, image *analyzeService.ImageAnalyzer) *Handler {
	return &Handler{website: website, image: image}
}

// RegisterRoutes mounts the analyzer routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/analyze-image", h.handleAnalyzeImage)
	r.Post("/analyze-website", h.handleAnalyzeWebsite)
}

func (h *Handler) handleAnalyzeImage(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		ImageDataURL string `json:"imageDataUrl"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	utils.RespondJSON(w, http.StatusOK, h.image.Analyze(r.Context(), payload.ImageDataURL))
}

func (h *Handler) handleAnalyzeWebsite(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		URL        string `json:"url"`
		IncludeRaw bool   `json:"includeRaw,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.URL == "" {
		utils.RespondError(w, http.StatusBadRequest, "url is required")
		return
	}

	utils.RespondJSON(w, http.StatusOK, h.website.Analyze(r.Context(), payload.URL, payload.IncludeRaw))
}
