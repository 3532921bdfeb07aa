// Package gate exposes the doorkeeper conversation over HTTP.
package gate

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	gatesvc "github.com/aegatekeeper/backend/internal/service/gate"
	"github.com/aegatekeeper/backend/internal/service/session"
	"github.com/aegatekeeper/backend/pkg/utils"
)

// Handler serves the session lifecycle routes.
type Handler struct {
	gateSvc  *gatesvc.Service
	streamer Streamer
}

// New creates the gate handler. streamer may be nil; the SSE route then
// reports streaming unavailable.
func New(gateSvc *gatesvc.Service, streamer Streamer) *Handler {
	return &Handler{gateSvc: gateSvc, streamer: streamer}
}

// RegisterRoutes mounts the gate routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/gate/session", h.handleCreateSession)
	r.Get("/gate/session/{sessionID}", h.handleGetSession)
	r.Post("/gate/session/{sessionID}/message", h.handleMessage)
	r.Post("/gate/session/{sessionID}/payment", h.handlePayment)
	r.Get("/gate/stream/{sessionID}", h.handleStream)
}

func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req gatesvc.StartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.gateSvc.StartSession(r.Context(), req)
	if err != nil {
		respondGateError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusCreated, result)
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, transcript, err := h.gateSvc.GetSession(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		respondGateError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"session":    sess,
		"transcript": transcript,
	})
}

func (h *Handler) handleMessage(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.gateSvc.HandleTurn(r.Context(), chi.URLParam(r, "sessionID"), payload.Text)
	if err != nil {
		respondGateError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, result)
}

func (h *Handler) handlePayment(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		TxHash string `json:"txHash"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.TxHash == "" {
		utils.RespondError(w, http.StatusBadRequest, "txHash is required")
		return
	}

	result, err := h.gateSvc.ConfirmPayment(r.Context(), chi.URLParam(r, "sessionID"), payload.TxHash)
	if err != nil {
		respondGateError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, result)
}

// respondGateError maps orchestrator sentinels to their HTTP statuses before
// falling back to the shared taxonomy.
func respondGateError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		utils.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, session.ErrSessionClosed):
		utils.RespondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, gatesvc.ErrNoPendingProposal):
		utils.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, gatesvc.ErrModelUnavailable), errors.Is(err, gatesvc.ErrPaymentsUnavailable):
		utils.RespondError(w, http.StatusServiceUnavailable, err.Error())
	default:
		utils.RespondAppError(w, err)
	}
}
