package gate

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/cloudwego/eino/schema"
	"github.com/go-chi/chi/v5"

	gatemodel "github.com/aegatekeeper/backend/internal/model/gate"
	"github.com/aegatekeeper/backend/internal/service/ai"
	gatesvc "github.com/aegatekeeper/backend/internal/service/gate"
	"github.com/aegatekeeper/backend/pkg/utils"
)

// Streamer is the model surface the SSE route drives directly; the
// orchestrator only sees the finished reply.
type Streamer interface {
	StreamingEnabled() bool
	StreamReply(ctx context.Context, systemPrompt string, history []gatemodel.Turn, query string) (*schema.StreamReader[*schema.Message], error)
	ReplyTo(ctx context.Context, systemPrompt string, history []gatemodel.Turn, query string) (string, error)
}

// streamEvent is one SSE frame of a streamed gate turn.
type streamEvent struct {
	Event     string              `json:"event"`
	Content   string              `json:"content,omitempty"`
	SessionID string              `json:"sessionId,omitempty"`
	Gate      *gatesvc.TurnResult `json:"gate,omitempty"`
	Finished  bool                `json:"finished,omitempty"`
	Error     string              `json:"error,omitempty"`
}

func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	userMessage := r.URL.Query().Get("message")

	if h.streamer == nil {
		utils.RespondError(w, http.StatusServiceUnavailable, "streaming unavailable")
		return
	}
	if userMessage == "" {
		utils.RespondError(w, http.StatusBadRequest, "message query parameter is required")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	ctx := r.Context()
	sess, doorkeeper, history, err := h.gateSvc.PrepareStreamTurn(ctx, sessionID)
	if err != nil {
		respondGateError(w, err)
		return
	}

	utils.SetupSSEHeaders(w)
	sendEvent(w, flusher, streamEvent{Event: "start", SessionID: sessionID})

	reply, err := h.produceReply(ctx, w, flusher, sessionID, doorkeeper.SystemPrompt, history, userMessage)
	if err != nil {
		sendEvent(w, flusher, streamEvent{Event: "error", SessionID: sessionID, Error: err.Error()})
		return
	}
	sendEvent(w, flusher, streamEvent{Event: "message", SessionID: sessionID, Content: reply})

	result, err := h.gateSvc.CompleteTurn(ctx, sess, doorkeeper, history, userMessage, reply)
	if err != nil {
		sendEvent(w, flusher, streamEvent{Event: "error", SessionID: sessionID, Error: err.Error()})
		return
	}

	sendEvent(w, flusher, streamEvent{Event: "gate", SessionID: sessionID, Gate: result})
	sendEvent(w, flusher, streamEvent{Event: "end", SessionID: sessionID, Finished: true})
	log.Printf("[stream] completed turn: session=%s turns=%d outcome=%s", sessionID, result.Turns, result.Outcome)
}

// produceReply streams deltas when the model supports it, falling back to
// one blocking call otherwise. The returned reply is reasoning-stripped.
func (h *Handler) produceReply(ctx context.Context, w http.ResponseWriter, flusher http.Flusher, sessionID, systemPrompt string, history []gatemodel.Turn, userMessage string) (string, error) {
	if !h.streamer.StreamingEnabled() {
		return h.streamer.ReplyTo(ctx, systemPrompt, history, userMessage)
	}

	stream, err := h.streamer.StreamReply(ctx, systemPrompt, history, userMessage)
	if err != nil {
		return "", err
	}
	defer stream.Close()

	chunks := make([]*schema.Message, 0, 8)
	for {
		chunk, recvErr := stream.Recv()
		if errors.Is(recvErr, io.EOF) {
			break
		}
		if recvErr != nil {
			return "", recvErr
		}
		if chunk == nil {
			continue
		}

		chunks = append(chunks, chunk)
		if chunk.Content != "" {
			sendEvent(w, flusher, streamEvent{Event: "delta", SessionID: sessionID, Content: chunk.Content})
		}
	}

	full, err := schema.ConcatMessages(chunks)
	if err != nil {
		return "", err
	}
	return ai.StripReasoning(full.Content), nil
}

func sendEvent(w http.ResponseWriter, flusher http.Flusher, event streamEvent) {
	utils.SendSSEChunk(w, flusher, event)
}
