// Package llm talks to language model providers through a single Backend contract.
package llm

import (
	"context"
	"errors"
	"time"
)

// Role tags a chat message
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one role-tagged chat turn
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Request is a provider-neutral completion request.
// Temperature is nil when the caller wants the provider default.
type Request struct {
	Messages    []Message
	Temperature *float64
	MaxTokens   int
}

// Usage is token accounting reported by the provider
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Response is a provider-neutral completion result
type Response struct {
	Text      string `json:"text"`
	Reasoning string `json:"reasoning,omitempty"`
	Model     string `json:"model"`
	Usage     *Usage `json:"usage,omitempty"`
	Cached    bool   `json:"-"`
}

// Capabilities describes what a backend variant accepts and returns
type Capabilities struct {
	// Temperature is false for reasoning-oriented models that reject sampling controls
	Temperature bool
	// Reasoning is true when the backend returns a separate reasoning channel
	Reasoning bool
}

// Backend is a language model provider
type Backend interface {
	// Name returns the provider name (openai, kimi, deepseek, anthropic, gemini, ollama)
	Name() string

	// Model returns the model the backend sends requests to
	Model() string

	// Capabilities reports which request options the backend honours
	Capabilities() Capabilities

	// Complete sends one request and returns the model's reply
	Complete(ctx context.Context, req Request) (*Response, error)
}

var (
	// ErrMissingAPIKey is returned when a hosted provider has no credentials
	ErrMissingAPIKey = errors.New("API key is required")

	// ErrEmptyChoices is returned when the provider answered with no content
	ErrEmptyChoices = errors.New("provider returned no choices")

	// ErrEmptyResponse is returned by callers when a reply holds only whitespace
	ErrEmptyResponse = errors.New("empty model response")
)

// Config holds the settings needed to construct a backend
type Config struct {
	// Provider name: openai, kimi, deepseek, anthropic, gemini, ollama
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for hosted providers
	APIKey string

	// BaseURL for OpenAI-compatible endpoints, Anthropic or Ollama
	BaseURL string

	// Timeout for one API request
	Timeout time.Duration

	// MaxTokens default when the request does not set one
	MaxTokens int

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
}

func (c Config) timeout() time.Duration {
	if c.Timeout <= 0 {
		return 120 * time.Second
	}
	return c.Timeout
}

func (c Config) maxTokens(req Request) int {
	if req.MaxTokens > 0 {
		return req.MaxTokens
	}
	if c.MaxTokens > 0 {
		return c.MaxTokens
	}
	return 4000
}

// Temperature returns a pointer for Request.Temperature
func Temperature(t float64) *float64 {
	return &t
}

// splitSystem separates system instructions from the conversation turns
func splitSystem(msgs []Message) (string, []Message) {
	var system string
	rest := make([]Message, 0, len(msgs))
	for _, m := range msgs {
		if m.Role == RoleSystem {
			if system != "" {
				system += "\n\n"
			}
			system += m.Content
			continue
		}
		rest = append(rest, m)
	}
	return system, rest
}
