package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
)

// Config aggregates every section of the service configuration.
type Config struct {
	Server   ServerConfig
	AI       AIConfig
	Chain    ChainConfig
	Badge    BadgeConfig
	Payments PaymentsConfig
	Analyze  AnalyzeConfig
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	analyze, err := loadAnalyzeConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:   server,
		AI:       ai,
		Chain:    loadChainConfig(),
		Badge:    loadBadgeConfig(),
		Payments: loadPaymentsConfig(),
		Analyze:  analyze,
	}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// Allow ":8080" or "127.0.0.1:8080" directly.
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// AIConfig describes the chat model used for doorkeeper turns, analysis
// summaries and turn scoring.
type AIConfig struct {
	APIKey              string
	Model               string
	BaseURL             string
	Temperature         *float64
	TopP                *float64
	MaxTokens           *int
	StreamResponse      bool
	ScoringLLMEnabled   bool
	ScoringHistoryLimit int
}

// Enabled reports whether the required model credentials are present.
func (c AIConfig) Enabled() bool {
	return c.Model != "" && c.APIKey != ""
}

// NewChatModel builds a model instance from the configuration. The BaseURL
// may point at any OpenAI-compatible chat-completions gateway.
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("chat model not configured: set AI_API_KEY and AI_MODEL")
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	var topP *float32
	if c.TopP != nil {
		val := float32(*c.TopP)
		topP = &val
	}

	var maxTokens *int
	if c.MaxTokens != nil {
		val := *c.MaxTokens
		maxTokens = &val
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		APIKey:      c.APIKey,
		Model:       c.Model,
		MaxTokens:   maxTokens,
		Temperature: temperature,
		TopP:        topP,
	}

	return ark.NewChatModel(ctx, cfg)
}

func loadAIConfig() (AIConfig, error) {
	temperature, err := parseOptionalFloatEnv("AI_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}
	if temperature == nil {
		def := 0.7
		temperature = &def
	}

	topP, err := parseOptionalFloatEnv("AI_TOP_P")
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("AI_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}
	if maxTokens == nil {
		def := 800
		maxTokens = &def
	}

	stream, err := parseBoolEnv("AI_STREAM", true)
	if err != nil {
		return AIConfig{}, err
	}

	scoringEnabled, err := parseBoolEnv("AI_SCORING_LLM_ENABLED", false)
	if err != nil {
		return AIConfig{}, err
	}

	scoringHistory := 6
	if historyOverride, err := parseOptionalIntEnv("AI_SCORING_HISTORY_LIMIT"); err != nil {
		return AIConfig{}, err
	} else if historyOverride != nil {
		if *historyOverride < 1 {
			scoringHistory = 1
		} else {
			scoringHistory = *historyOverride
		}
	}

	return AIConfig{
		APIKey:              strings.TrimSpace(os.Getenv("AI_API_KEY")),
		Model:               strings.TrimSpace(os.Getenv("AI_MODEL")),
		BaseURL:             getEnvOrDefault("AI_BASE_URL", "https://openrouter.ai/api/v1"),
		Temperature:         temperature,
		TopP:                topP,
		MaxTokens:           maxTokens,
		StreamResponse:      stream,
		ScoringLLMEnabled:   scoringEnabled,
		ScoringHistoryLimit: scoringHistory,
	}, nil
}

// ChainConfig describes the chain node used for payment verification.
type ChainConfig struct {
	NodeURL         string
	ReceiverAddress string
}

// Enabled reports whether payment verification can run.
func (c ChainConfig) Enabled() bool {
	return c.NodeURL != "" && c.ReceiverAddress != ""
}

func loadChainConfig() ChainConfig {
	return ChainConfig{
		NodeURL:         getEnvOrDefault("AE_NODE_URL", "https://testnet.aeternity.io"),
		ReceiverAddress: strings.TrimSpace(os.Getenv("AE_RECEIVER_ADDRESS")),
	}
}

// BadgeConfig describes the image-generation endpoint for paid badges.
type BadgeConfig struct {
	APIKey    string
	BaseURL   string
	Model     string
	Size      string
	EventName string
}

// Enabled reports whether paid badge generation is configured.
func (c BadgeConfig) Enabled() bool {
	return c.APIKey != "" && c.Model != ""
}

func loadBadgeConfig() BadgeConfig {
	apiKey := strings.TrimSpace(os.Getenv("BADGE_API_KEY"))
	if apiKey == "" {
		// Fall back to the chat credential when the gateway serves both.
		apiKey = strings.TrimSpace(os.Getenv("AI_API_KEY"))
	}

	return BadgeConfig{
		APIKey:    apiKey,
		BaseURL:   getEnvOrDefault("BADGE_BASE_URL", "https://api.openai.com/v1"),
		Model:     strings.TrimSpace(os.Getenv("BADGE_MODEL")),
		Size:      getEnvOrDefault("BADGE_SIZE", "1024x1024"),
		EventName: getEnvOrDefault("BADGE_EVENT_NAME", "Aeternity Gate"),
	}
}

// PaymentsConfig selects the verified-payment store backend.
type PaymentsConfig struct {
	// StorePath enables the SQLite-backed store when set; empty keeps the
	// volatile in-memory store.
	StorePath string
}

func loadPaymentsConfig() PaymentsConfig {
	return PaymentsConfig{
		StorePath: strings.TrimSpace(os.Getenv("PAYMENT_STORE_PATH")),
	}
}

// AnalyzeConfig bounds the website-fetch collaborator.
type AnalyzeConfig struct {
	WebsiteTimeout time.Duration
}

func loadAnalyzeConfig() (AnalyzeConfig, error) {
	seconds, err := parseOptionalIntEnv("ANALYZE_TIMEOUT_SECONDS")
	if err != nil {
		return AnalyzeConfig{}, err
	}

	timeout := 30 * time.Second
	if seconds != nil && *seconds > 0 {
		timeout = time.Duration(*seconds) * time.Second
	}

	return AnalyzeConfig{WebsiteTimeout: timeout}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
