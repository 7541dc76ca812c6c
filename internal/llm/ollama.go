package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
)

// OllamaBackend runs against a local Ollama server through langchaingo
type OllamaBackend struct {
	llm    llms.Model
	config Config
}

// NewOllamaBackend creates a new Ollama backend
func NewOllamaBackend(config Config) (*OllamaBackend, error) {
	if config.BaseURL == "" {
		config.BaseURL = "http://localhost:11434"
	}
	if config.Model == "" {
		config.Model = "llama3.1"
	}

	model, err := ollama.New(
		ollama.WithModel(config.Model),
		ollama.WithServerURL(config.BaseURL),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize ollama: %w", err)
	}

	return &OllamaBackend{llm: model, config: config}, nil
}

// Name returns the provider name
func (b *OllamaBackend) Name() string {
	return "ollama"
}

// Model returns the configured model
func (b *OllamaBackend) Model() string {
	return b.config.Model
}

// Capabilities reports that temperature is accepted
func (b *OllamaBackend) Capabilities() Capabilities {
	return Capabilities{Temperature: true}
}

// Complete sends the conversation to the local model
func (b *OllamaBackend) Complete(ctx context.Context, req Request) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, b.config.timeout())
	defer cancel()

	content := make([]llms.MessageContent, 0, len(req.Messages))
	for _, m := range req.Messages {
		content = append(content, llms.TextParts(langchainRole(m.Role), m.Content))
	}

	opts := []llms.CallOption{llms.WithMaxTokens(b.config.maxTokens(req))}
	if req.Temperature != nil {
		opts = append(opts, llms.WithTemperature(*req.Temperature))
	}

	resp, err := b.llm.GenerateContent(ctx, content, opts...)
	if err != nil {
		return nil, fmt.Errorf("ollama error: %w", err)
	}

	return ollamaResponse(resp, b.config.Model)
}

func langchainRole(r Role) llms.ChatMessageType {
	switch r {
	case RoleSystem:
		return llms.ChatMessageTypeSystem
	case RoleAssistant:
		return llms.ChatMessageTypeAI
	default:
		return llms.ChatMessageTypeHuman
	}
}

// ollamaResponse maps a langchaingo result onto Response.
// Token counts come from GenerationInfo when the server reports them.
func ollamaResponse(resp *llms.ContentResponse, modelName string) (*Response, error) {
	if resp == nil || len(resp.Choices) == 0 || resp.Choices[0] == nil {
		return nil, fmt.Errorf("ollama: %w", ErrEmptyChoices)
	}
	choice := resp.Choices[0]

	out := &Response{
		Text:  strings.TrimSpace(choice.Content),
		Model: modelName,
	}
	in, okIn := intInfo(choice.GenerationInfo, "PromptTokens")
	completion, okOut := intInfo(choice.GenerationInfo, "CompletionTokens")
	if okIn || okOut {
		out.Usage = &Usage{InputTokens: in, OutputTokens: completion}
	}
	return out, nil
}

func intInfo(info map[string]any, key string) (int, bool) {
	switch v := info[key].(type) {
	case int:
		return v, true
	case int32:
		return int(v), true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}
