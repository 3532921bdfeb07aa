package badge

import (
	"context"
	"fmt"
	"log"

	openai "github.com/sashabaranov/go-openai"

	"github.com/aegatekeeper/backend/internal/apperr"
	"github.com/aegatekeeper/backend/internal/config"
)

// Generator produces paid-badge portraits through an OpenAI-compatible
// image endpoint.
type Generator struct {
	client *openai.Client
	cfg    config.BadgeConfig
}

// NewGenerator builds a generator from badge config. Returns a config error
// when the endpoint is not set up.
func NewGenerator(cfg config.BadgeConfig) (*Generator, error) {
	if !cfg.Enabled() {
		return nil, apperr.Configf("badge generation is not configured: set BADGE_API_KEY and BADGE_MODEL")
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &Generator{
		client: openai.NewClientWithConfig(clientCfg),
		cfg:    cfg,
	}, nil
}

// Generate renders a badge portrait seeded with the person description and
// returns it as a PNG data URL.
func (g *Generator) Generate(ctx context.Context, personDescription string, amountAE float64, eventName string) (string, error) {
	if personDescription == "" {
		return "", apperr.Validationf("personDescription is required")
	}
	if eventName == "" {
		eventName = g.cfg.EventName
	}

	resp, err := g.client.CreateImage(ctx, openai.ImageRequest{
		Model:          g.cfg.Model,
		Prompt:         badgePrompt(personDescription, amountAE, eventName),
		Size:           g.cfg.Size,
		N:              1,
		ResponseFormat: openai.CreateImageResponseFormatB64JSON,
	})
	if err != nil {
		return "", apperr.Upstreamf("badge generation", err)
	}
	if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		return "", apperr.Upstreamf("badge generation", fmt.Errorf("empty image response"))
	}

	log.Printf("[badge] generated portrait: event=%s amount=%g", eventName, amountAE)
	return "data:image/png;base64," + resp.Data[0].B64JSON, nil
}

func badgePrompt(personDescription string, amountAE float64, eventName string) string {
	return fmt.Sprintf(
		"A stylized collectible event badge portrait for %q. Subject: %s. "+
			"Bold flat colors, poster style, centered bust portrait, dark background, "+
			"small ornamental border. The badge commemorates an entry fee of %g AE.",
		eventName, personDescription, amountAE,
	)
}
