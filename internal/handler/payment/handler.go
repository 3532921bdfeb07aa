// Package payment exposes on-chain payment verification over HTTP.
package payment

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	paysvc "github.com/aegatekeeper/backend/internal/service/payment"
	"github.com/aegatekeeper/backend/pkg/utils"
)

// Verifier checks a claimed payment against the chain.
type Verifier interface {
	Verify(ctx context.Context, req paysvc.VerifyRequest) (*paysvc.VerifyResult, error)
}

// Handler serves the standalone verification endpoint.
type Handler struct {
	verifier Verifier
}

// New creates the payment handler. verifier may be nil when the chain is
// not configured; requests then get a 503.
func New(verifier Verifier) *Handler {
	return &Handler{verifier: verifier}
}

// RegisterRoutes mounts the payment routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/payment/verify", h.handleVerify)
}

func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	if h.verifier == nil {
		utils.RespondError(w, http.StatusServiceUnavailable, "payment verification unavailable")
		return
	}

	var req paysvc.VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.verifier.Verify(r.Context(), req)
	if err != nil {
		utils.RespondAppError(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"ok":              true,
		"txHash":          result.TxHash,
		"amountAE":        result.AmountAE,
		"alreadyVerified": result.AlreadyVerified,
	})
}
