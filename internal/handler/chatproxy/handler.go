// Package chatproxy exposes the stateless OpenAI-shaped completion endpoint
// the doorkeeper frontend talks to.
package chatproxy

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aegatekeeper/backend/internal/model/gate"
	"github.com/aegatekeeper/backend/pkg/utils"
)

// Completer runs the model over a raw transcript.
type Completer interface {
	Generate(ctx context.Context, turns []gate.Turn, temperature *float32, maxTokens *int) (string, error)
}

// Handler proxies chat completions to the configured model.
type Handler struct {
	ai Completer
}

// New creates the chat proxy handler. ai may be nil when no model is
// configured; requests then get a 503.
func New(ai Completer) *Handler {
	return &Handler{ai: ai}
}

// RegisterRoutes mounts the chat route.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chat", h.handleChat)
}

type chatRequest struct {
	Messages    []wireMessage `json:"messages"`
	Temperature *float32      `json:"temperature,omitempty"`
	MaxTokens   *int          `json:"max_tokens,omitempty"`
}

// wireMessage accepts both the plain-string and the multipart content shape
// of the OpenAI wire format.
type wireMessage struct {
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"`
}

type wirePart struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	ImageURL *struct {
		URL string `json:"url"`
	} `json:"image_url,omitempty"`
}

func (m wireMessage) toTurn() (gate.Turn, error) {
	turn := gate.Turn{Role: gate.Role(m.Role)}

	var text string
	if err := json.Unmarshal(m.Content, &text); err == nil {
		turn.Content = text
		return turn, nil
	}

	var parts []wirePart
	if err := json.Unmarshal(m.Content, &parts); err != nil {
		return gate.Turn{}, err
	}
	for _, part := range parts {
		switch part.Type {
		case "text":
			if turn.Content != "" {
				turn.Content += "\n"
			}
			turn.Content += part.Text
		case "image_url":
			if part.ImageURL != nil {
				turn.ImageURL = part.ImageURL.URL
			}
		}
	}
	return turn, nil
}

func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	if h.ai == nil {
		utils.RespondError(w, http.StatusServiceUnavailable, "chat model unavailable")
		return
	}

	var payload chatRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(payload.Messages) == 0 {
		utils.RespondError(w, http.StatusBadRequest, "messages are required")
		return
	}

	turns := make([]gate.Turn, 0, len(payload.Messages))
	for _, msg := range payload.Messages {
		turn, err := msg.toTurn()
		if err != nil {
			utils.RespondError(w, http.StatusBadRequest, "invalid message content")
			return
		}
		turns = append(turns, turn)
	}

	content, err := h.ai.Generate(r.Context(), turns, payload.Temperature, payload.MaxTokens)
	if err != nil {
		utils.RespondAppError(w, err)
		return
	}

	// Mirrors the upstream completion shape so existing clients keep working.
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"choices": []map[string]any{
			{
				"message": map[string]string{
					"role":    "assistant",
					"content": content,
				},
			},
		},
	})
}
