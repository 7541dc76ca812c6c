package llm

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/paperdigest/internal/model"
)

// apiKeyEnv lists the environment variables consulted per provider, in order
var apiKeyEnv = map[string][]string{
	"openai":    {"OPENAI_API_KEY"},
	"kimi":      {"KIMI_API_KEY", "MOONSHOT_API_KEY"},
	"deepseek":  {"DEEPSEEK_API_KEY"},
	"anthropic": {"ANTHROPIC_API_KEY"},
	"gemini":    {"GEMINI_API_KEY", "GOOGLE_API_KEY"},
}

// NewBackend creates a backend for the configured provider
func NewBackend(ctx context.Context, config Config) (Backend, error) {
	switch strings.ToLower(config.Provider) {
	case "openai", "kimi", "moonshot", "deepseek":
		return NewOpenAIBackend(config)

	case "anthropic", "claude":
		return NewAnthropicBackend(config)

	case "gemini", "google":
		return NewGeminiBackend(ctx, config)

	case "ollama":
		return NewOllamaBackend(config)

	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: openai, kimi, deepseek, anthropic, gemini, ollama)", config.Provider)
	}
}

// ConfigFromModel resolves the named provider's settings into a backend Config.
// Missing API keys are filled from the provider's environment variables.
func ConfigFromModel(name string, cfg model.Config) (Config, error) {
	name, pc, err := cfg.LLM.Resolve(name)
	if err != nil {
		return Config{}, err
	}

	c := Config{
		Provider:   name,
		Model:      pc.Model,
		APIKey:     pc.APIKey,
		BaseURL:    pc.BaseURL,
		Timeout:    cfg.LLM.Timeout(),
		MaxTokens:  pc.MaxTokens,
		HTTPProxy:  cfg.HTTP.HTTPProxy,
		HTTPSProxy: cfg.HTTP.HTTPSProxy,
	}
	if c.APIKey == "" {
		c.APIKey = LookupAPIKey(name)
	}
	if name == "ollama" {
		if env := os.Getenv("OLLAMA_BASE_URL"); env != "" {
			c.BaseURL = env
		}
	}
	return c, nil
}

// LookupAPIKey returns the first non-empty environment key for a provider
func LookupAPIKey(provider string) string {
	for _, env := range apiKeyEnv[strings.ToLower(provider)] {
		if v := os.Getenv(env); v != "" {
			return v
		}
	}
	return ""
}

// APIKeyEnv returns the environment variable names read for a provider
func APIKeyEnv(provider string) []string {
	return apiKeyEnv[strings.ToLower(provider)]
}
