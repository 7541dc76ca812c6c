package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiBackend talks to Google Gemini through the generative-ai-go client
type GeminiBackend struct {
	client *genai.Client
	config Config
}

// NewGeminiBackend creates a new Gemini backend
func NewGeminiBackend(ctx context.Context, config Config) (*GeminiBackend, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("gemini: %w", ErrMissingAPIKey)
	}
	if config.Model == "" {
		config.Model = "gemini-1.5-flash"
	}

	opts := []option.ClientOption{option.WithAPIKey(config.APIKey)}
	if config.BaseURL != "" {
		opts = append(opts, option.WithEndpoint(config.BaseURL))
	}

	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &GeminiBackend{client: client, config: config}, nil
}

// Name returns the provider name
func (b *GeminiBackend) Name() string {
	return "gemini"
}

// Model returns the configured model
func (b *GeminiBackend) Model() string {
	return b.config.Model
}

// Capabilities reports that temperature is accepted
func (b *GeminiBackend) Capabilities() Capabilities {
	return Capabilities{Temperature: true}
}

// Close releases the underlying client
func (b *GeminiBackend) Close() error {
	return b.client.Close()
}

// Complete replays earlier turns as chat history and sends the last one
func (b *GeminiBackend) Complete(ctx context.Context, req Request) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, b.config.timeout())
	defer cancel()

	system, turns := splitSystem(req.Messages)
	if len(turns) == 0 {
		return nil, fmt.Errorf("gemini: request has no user message")
	}

	gm := b.client.GenerativeModel(b.config.Model)
	gm.SetMaxOutputTokens(int32(b.config.maxTokens(req)))
	if req.Temperature != nil {
		gm.SetTemperature(float32(*req.Temperature))
	}
	if system != "" {
		gm.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	}

	cs := gm.StartChat()
	for _, m := range turns[:len(turns)-1] {
		role := "user"
		if m.Role == RoleAssistant {
			role = "model"
		}
		cs.History = append(cs.History, &genai.Content{Role: role, Parts: []genai.Part{genai.Text(m.Content)}})
	}

	resp, err := cs.SendMessage(ctx, genai.Text(turns[len(turns)-1].Content))
	if err != nil {
		return nil, fmt.Errorf("gemini API error: %w", err)
	}

	return geminiResponse(resp, b.config.Model)
}

// geminiResponse concatenates the text parts of the first candidate
func geminiResponse(resp *genai.GenerateContentResponse, modelName string) (*Response, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("gemini: %w", ErrEmptyChoices)
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			sb.WriteString(string(t))
		}
	}

	out := &Response{Text: strings.TrimSpace(sb.String()), Model: modelName}
	if md := resp.UsageMetadata; md != nil {
		out.Usage = &Usage{
			InputTokens:  int(md.PromptTokenCount),
			OutputTokens: int(md.CandidatesTokenCount),
		}
	}
	return out, nil
}
