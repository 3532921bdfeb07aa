// Package scoring rates guest turns across the four readiness dimensions.
// When enabled it asks the chat model for a JSON verdict and falls back to
// the keyword heuristics when the model is unavailable or returns garbage.
package scoring

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/aegatekeeper/backend/internal/analysis/readiness"
	"github.com/aegatekeeper/backend/internal/model/gate"
	"github.com/aegatekeeper/backend/internal/model/persona"
)

// Config controls the scoring service.
type Config struct {
	Enabled      bool
	HistoryLimit int
}

// Service scores one guest utterance per turn.
type Service struct {
	enabled      bool
	classifier   compose.Runnable[map[string]any, *schema.Message]
	fallback     func(utterance string) gate.Score
	historyLimit int
}

// NewService builds the scoring service. chatModel may reuse the shared
// model instance and may be nil, in which case only heuristics run.
func NewService(ctx context.Context, chatModel model.ChatModel, cfg Config) (*Service, error) {
	historyLimit := cfg.HistoryLimit
	if historyLimit <= 0 {
		historyLimit = 6
	}

	svc := &Service{
		enabled:      cfg.Enabled && chatModel != nil,
		fallback:     readiness.Analyze,
		historyLimit: historyLimit,
	}

	if !svc.enabled {
		return svc, nil
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage(scoringSystemPrompt),
		schema.UserMessage(scoringUserPrompt),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile scoring chain: %w", err)
	}

	svc.classifier = runnable
	return svc, nil
}

// Enabled reports whether the LLM classifier is active.
func (s *Service) Enabled() bool {
	return s != nil && s.enabled && s.classifier != nil
}

// ScoreTurn rates the guest's latest utterance in context. It never fails:
// any classifier problem degrades to the heuristic score.
func (s *Service) ScoreTurn(ctx context.Context, doorkeeper *persona.Persona, history []gate.Turn, utterance string) gate.Score {
	if !s.Enabled() {
		return s.fallback(utterance)
	}

	input := map[string]any{
		"persona":   summarizePersona(doorkeeper),
		"history":   formatHistory(history, s.historyLimit),
		"utterance": strings.TrimSpace(utterance),
	}

	msg, err := s.classifier.Invoke(ctx, input)
	if err != nil {
		log.Printf("[scoring] classifier invoke failed, using heuristics: %v", err)
		return s.fallback(utterance)
	}
	if msg == nil || strings.TrimSpace(msg.Content) == "" {
		return s.fallback(utterance)
	}

	verdict, err := parseClassifierOutput(msg.Content)
	if err != nil {
		log.Printf("[scoring] classifier output parse failed, using heuristics: %v", err)
		return s.fallback(utterance)
	}

	return gate.Score{
		Pitch:  clamp01(verdict.Pitch),
		Riddle: clamp01(verdict.Riddle),
		Wit:    clamp01(verdict.Wit),
		Fit:    clamp01(verdict.Fit),
	}
}

type classifierVerdict struct {
	Pitch  float64 `json:"pitch"`
	Riddle float64 `json:"riddle"`
	Wit    float64 `json:"wit"`
	Fit    float64 `json:"fit"`
	Reason string  `json:"reason"`
}

// parseClassifierOutput lifts the first JSON object out of the model reply.
func parseClassifierOutput(content string) (*classifierVerdict, error) {
	trimmed := strings.TrimSpace(content)
	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start == -1 || end == -1 || end <= start {
		return nil, fmt.Errorf("missing json object")
	}

	verdict := &classifierVerdict{}
	if err := json.Unmarshal([]byte(trimmed[start:end+1]), verdict); err != nil {
		return nil, err
	}
	return verdict, nil
}

func summarizePersona(p *persona.Persona) string {
	if p == nil {
		return "generic doorkeeper"
	}
	return fmt.Sprintf("%s (%s)", strings.TrimSpace(p.Name), strings.TrimSpace(p.Title))
}

func formatHistory(turns []gate.Turn, limit int) string {
	if len(turns) == 0 {
		return "no prior conversation"
	}
	if limit < 1 {
		limit = 1
	}
	start := len(turns) - limit
	if start < 0 {
		start = 0
	}

	var builder strings.Builder
	for i := start; i < len(turns); i++ {
		turn := turns[i]
		if turn.Role == gate.RoleSystem {
			continue
		}
		content := strings.TrimSpace(turn.Content)
		if content == "" {
			continue
		}
		if builder.Len() > 0 {
			builder.WriteString("\n")
		}
		if turn.Role == gate.RoleAssistant {
			builder.WriteString("doorkeeper: ")
		} else {
			builder.WriteString("guest: ")
		}
		builder.WriteString(content)
	}
	if builder.Len() == 0 {
		return "no prior conversation"
	}
	return builder.String()
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

const scoringSystemPrompt = "You grade a club guest's latest message on four dimensions for a doorkeeper game. " +
	"Return only one JSON object with fields: pitch (how concretely they describe what they build, 0-1), " +
	"riddle (technical accuracy when answering the doorkeeper's quiz, 0-1), wit (humor and quick comebacks, 0-1), " +
	"fit (style and outfit talk, 0-1), reason (one short sentence). No extra text."

const scoringUserPrompt = "Doorkeeper: {persona}\n\nRecent conversation:\n{history}\n\nGuest's latest message:\n{utterance}\n\nGrade it as JSON."
