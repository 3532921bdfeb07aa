package ai

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/url"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/aegatekeeper/backend/internal/apperr"
	"github.com/aegatekeeper/backend/internal/config"
	"github.com/aegatekeeper/backend/internal/model/gate"
)

// Service executes LLM turns: it owns the chat model, a persona prompt
// chain for doorkeeper replies, and the raw-transcript path used by the
// stateless proxy and the analyzers. No retries happen here; callers decide
// whether a failure reaches the guest.
type Service struct {
	chatModel model.ChatModel
	cfg       config.AIConfig
	chain     compose.Runnable[map[string]any, *schema.Message]
}

// NewService builds the chat model and compiles the persona chain.
func NewService(ctx context.Context, cfg config.AIConfig) (*Service, error) {
	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chat chain: %w", err)
	}

	return &Service{
		chatModel: chatModel,
		cfg:       cfg,
		chain:     runnable,
	}, nil
}

// StreamingEnabled indicates whether SSE streaming is switched on.
func (s *Service) StreamingEnabled() bool {
	return s.cfg.StreamResponse
}

// GetChatModel exposes the underlying model for sibling services.
func (s *Service) GetChatModel() model.ChatModel {
	return s.chatModel
}

// ReplyTo runs one doorkeeper turn: system prompt + transcript history +
// the guest's latest message, returning the cleaned reply text.
func (s *Service) ReplyTo(ctx context.Context, systemPrompt string, history []gate.Turn, query string) (string, error) {
	input := map[string]any{
		"system":  systemPrompt,
		"history": buildHistory(history),
		"query":   query,
	}

	response, err := s.chain.Invoke(ctx, input)
	if err != nil {
		return "", wrapModelErr("chat turn", err)
	}

	content := StripReasoning(response.Content)
	if content == "" {
		return "", apperr.Upstreamf("chat turn", errors.New("empty response from model"))
	}

	log.Printf("[ai] generated reply, length=%d", len(content))
	return content, nil
}

// StreamReply is the streaming variant of ReplyTo. The caller is responsible
// for closing the reader and for stripping reasoning from the concatenated
// result before storing it.
func (s *Service) StreamReply(ctx context.Context, systemPrompt string, history []gate.Turn, query string) (*schema.StreamReader[*schema.Message], error) {
	if !s.StreamingEnabled() {
		return nil, fmt.Errorf("streaming disabled in configuration")
	}

	input := map[string]any{
		"system":  systemPrompt,
		"history": buildHistory(history),
		"query":   query,
	}

	stream, err := s.chain.Stream(ctx, input)
	if err != nil {
		return nil, wrapModelErr("chat stream", err)
	}

	return stream, nil
}

// Generate runs the model over a raw transcript, used by the stateless
// /api/chat proxy and the gate opener (which carries an image part).
// Temperature and token budget override the configured defaults when set.
func (s *Service) Generate(ctx context.Context, turns []gate.Turn, temperature *float32, maxTokens *int) (string, error) {
	if len(turns) == 0 {
		return "", apperr.Validationf("messages are required")
	}

	messages := make([]*schema.Message, 0, len(turns))
	for i := range turns {
		messages = append(messages, toSchemaMessage(turns[i]))
	}

	var opts []model.Option
	if temperature != nil {
		opts = append(opts, model.WithTemperature(*temperature))
	}
	if maxTokens != nil {
		opts = append(opts, model.WithMaxTokens(*maxTokens))
	}

	response, err := s.chatModel.Generate(ctx, messages, opts...)
	if err != nil {
		return "", wrapModelErr("completion", err)
	}

	content := StripReasoning(response.Content)
	if content == "" {
		return "", apperr.Upstreamf("completion", errors.New("empty response from model"))
	}

	return content, nil
}

// Summarize asks the model a single-shot question with a small token budget.
func (s *Service) Summarize(ctx context.Context, promptText string, maxTokens int) (string, error) {
	return s.Generate(ctx, []gate.Turn{
		{Role: gate.RoleUser, Content: promptText},
	}, nil, &maxTokens)
}

// DescribeImage runs a single vision turn over the supplied data URL.
func (s *Service) DescribeImage(ctx context.Context, promptText, imageDataURL string, maxTokens int) (string, error) {
	return s.Generate(ctx, []gate.Turn{
		{Role: gate.RoleUser, Content: promptText, ImageURL: imageDataURL},
	}, nil, &maxTokens)
}

// buildHistory converts stored transcript turns into schema messages for the
// history placeholder. The system turn is excluded; the chain re-adds it.
func buildHistory(turns []gate.Turn) []*schema.Message {
	// Gate conversations resolve within 12 turns, so the window is generous.
	const historyLimit = 24

	if len(turns) == 0 {
		return nil
	}

	startIdx := 0
	if len(turns) > historyLimit {
		startIdx = len(turns) - historyLimit
	}

	history := make([]*schema.Message, 0, len(turns)-startIdx)
	for _, turn := range turns[startIdx:] {
		if turn.Role == gate.RoleSystem {
			continue
		}
		history = append(history, toSchemaMessage(turn))
	}

	return history
}

func toSchemaMessage(turn gate.Turn) *schema.Message {
	role := schema.User
	switch turn.Role {
	case gate.RoleSystem:
		role = schema.System
	case gate.RoleAssistant:
		role = schema.Assistant
	}

	if turn.ImageURL == "" {
		return &schema.Message{Role: role, Content: turn.Content}
	}

	return &schema.Message{
		Role: role,
		MultiContent: []schema.ChatMessagePart{
			{Type: schema.ChatMessagePartTypeText, Text: turn.Content},
			{
				Type:     schema.ChatMessagePartTypeImageURL,
				ImageURL: &schema.ChatMessageImageURL{URL: turn.ImageURL},
			},
		},
	}
}

// wrapModelErr separates fetch-level failures from upstream error payloads
// so handlers can report "could not reach the model" differently from
// "the model refused".
func wrapModelErr(op string, err error) error {
	var urlErr *url.Error
	var netErr net.Error
	if errors.As(err, &urlErr) || errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) {
		return apperr.ClassifyTransport(err)
	}
	return apperr.Upstreamf(op, err)
}
