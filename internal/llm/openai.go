package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/ppiankov/paperdigest/internal/util"
)

// Default endpoints for OpenAI-compatible providers
const (
	KimiBaseURL     = "https://api.moonshot.cn/v1"
	DeepSeekBaseURL = "https://api.deepseek.com/v1"
)

// OpenAIBackend serves OpenAI and the OpenAI-compatible Kimi and DeepSeek APIs
type OpenAIBackend struct {
	client *openai.Client
	name   string
	config Config
	caps   Capabilities
}

// NewOpenAIBackend creates a backend for an OpenAI-compatible provider
func NewOpenAIBackend(config Config) (*OpenAIBackend, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("%s: %w", config.Provider, ErrMissingAPIKey)
	}

	name := strings.ToLower(config.Provider)
	if name == "" {
		name = "openai"
	}
	if config.BaseURL == "" {
		switch name {
		case "kimi", "moonshot":
			config.BaseURL = KimiBaseURL
		case "deepseek":
			config.BaseURL = DeepSeekBaseURL
		}
	}
	if config.Model == "" {
		config.Model = defaultOpenAIModel(name)
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = strings.TrimSuffix(config.BaseURL, "/")
	}
	clientConfig.HTTPClient = &http.Client{
		Timeout:   config.timeout(),
		Transport: &http.Transport{Proxy: util.NewProxyFunc(config.HTTPProxy, config.HTTPSProxy)},
	}

	return &OpenAIBackend{
		client: openai.NewClientWithConfig(clientConfig),
		name:   name,
		config: config,
		caps:   openAICapabilities(config.Model),
	}, nil
}

func defaultOpenAIModel(provider string) string {
	switch provider {
	case "kimi", "moonshot":
		return "kimi-k2-0711-preview"
	case "deepseek":
		return "deepseek-chat"
	default:
		return openai.GPT4oMini
	}
}

// isReasoningModel reports models that reject temperature
func isReasoningModel(model string) bool {
	m := strings.ToLower(model)
	if strings.Contains(m, "reasoner") {
		return true
	}
	for _, prefix := range []string{"o1", "o3", "o4", "gpt-5"} {
		if strings.HasPrefix(m, prefix) {
			return true
		}
	}
	return false
}

func openAICapabilities(model string) Capabilities {
	reasoning := isReasoningModel(model)
	return Capabilities{
		Temperature: !reasoning,
		Reasoning:   strings.Contains(strings.ToLower(model), "reasoner"),
	}
}

// Name returns the provider name
func (b *OpenAIBackend) Name() string {
	return b.name
}

// Model returns the configured model
func (b *OpenAIBackend) Model() string {
	return b.config.Model
}

// Capabilities reports whether temperature is accepted and reasoning is exposed
func (b *OpenAIBackend) Capabilities() Capabilities {
	return b.caps
}

// Complete sends a chat completion request
func (b *OpenAIBackend) Complete(ctx context.Context, req Request) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, b.config.timeout())
	defer cancel()

	chatReq := openai.ChatCompletionRequest{
		Model:    b.config.Model,
		Messages: make([]openai.ChatCompletionMessage, 0, len(req.Messages)),
	}
	for _, m := range req.Messages {
		chatReq.Messages = append(chatReq.Messages, openai.ChatCompletionMessage{
			Role:    string(m.Role),
			Content: m.Content,
		})
	}

	maxTokens := b.config.maxTokens(req)
	if isReasoningModel(b.config.Model) && !strings.Contains(strings.ToLower(b.config.Model), "reasoner") {
		// OpenAI reasoning models only accept max_completion_tokens
		chatReq.MaxCompletionTokens = maxTokens
	} else {
		chatReq.MaxTokens = maxTokens
	}
	if req.Temperature != nil && b.caps.Temperature {
		chatReq.Temperature = float32(*req.Temperature)
	}

	resp, err := b.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return nil, fmt.Errorf("%s API error: %w", b.name, err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%s: %w", b.name, ErrEmptyChoices)
	}

	msg := resp.Choices[0].Message
	modelName := resp.Model
	if modelName == "" {
		modelName = b.config.Model
	}

	return &Response{
		Text:      strings.TrimSpace(msg.Content),
		Reasoning: strings.TrimSpace(msg.ReasoningContent),
		Model:     modelName,
		Usage: &Usage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
		},
	}, nil
}
