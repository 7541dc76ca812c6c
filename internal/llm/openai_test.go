package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sashabaranov/go-openai"
)

func newOpenAITestServer(t *testing.T, modelName string, capture *map[string]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("Expected path /chat/completions, got %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("Expected Authorization header Bearer test-key, got %s", r.Header.Get("Authorization"))
		}
		if capture != nil {
			if err := json.NewDecoder(r.Body).Decode(capture); err != nil {
				t.Errorf("decode request: %v", err)
			}
		}

		resp := openai.ChatCompletionResponse{
			ID:      "chatcmpl-123",
			Object:  "chat.completion",
			Created: 1677652288,
			Model:   modelName,
			Choices: []openai.ChatCompletionChoice{
				{
					Index: 0,
					Message: openai.ChatCompletionMessage{
						Role:             "assistant",
						Content:          `  {"q1_main_content": "x"}  `,
						ReasoningContent: "thinking it through",
					},
					FinishReason: "stop",
				},
			},
			Usage: openai.Usage{
				PromptTokens:     120,
				CompletionTokens: 30,
				TotalTokens:      150,
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func TestOpenAIBackend_Complete_Success(t *testing.T) {
	var body map[string]any
	server := newOpenAITestServer(t, "gpt-4o-mini", &body)
	defer server.Close()

	backend, err := NewOpenAIBackend(Config{
		Provider: "openai",
		APIKey:   "test-key",
		BaseURL:  server.URL,
		Model:    "gpt-4o-mini",
	})
	if err != nil {
		t.Fatalf("Failed to create backend: %v", err)
	}

	resp, err := backend.Complete(context.Background(), Request{
		Messages: []Message{
			{Role: RoleSystem, Content: "You analyse papers."},
			{Role: RoleUser, Content: "Title: X"},
		},
		Temperature: Temperature(0.3),
		MaxTokens:   500,
	})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	if resp.Text != `{"q1_main_content": "x"}` {
		t.Errorf("Unexpected text: %q", resp.Text)
	}
	if resp.Usage == nil || resp.Usage.InputTokens != 120 || resp.Usage.OutputTokens != 30 {
		t.Errorf("Unexpected usage: %+v", resp.Usage)
	}
	if resp.Model != "gpt-4o-mini" {
		t.Errorf("Unexpected model: %s", resp.Model)
	}

	if temp, ok := body["temperature"].(float64); !ok || temp < 0.29 || temp > 0.31 {
		t.Errorf("Expected temperature 0.3 in request, got %v", body["temperature"])
	}
	if body["max_tokens"] != float64(500) {
		t.Errorf("Expected max_tokens 500, got %v", body["max_tokens"])
	}
	msgs, _ := body["messages"].([]any)
	if len(msgs) != 2 {
		t.Errorf("Expected 2 messages, got %d", len(msgs))
	}
}

func TestOpenAIBackend_ReasonerOmitsTemperature(t *testing.T) {
	var body map[string]any
	server := newOpenAITestServer(t, "deepseek-reasoner", &body)
	defer server.Close()

	backend, err := NewOpenAIBackend(Config{
		Provider: "deepseek",
		APIKey:   "test-key",
		BaseURL:  server.URL,
		Model:    "deepseek-reasoner",
	})
	if err != nil {
		t.Fatalf("Failed to create backend: %v", err)
	}

	caps := backend.Capabilities()
	if caps.Temperature {
		t.Error("deepseek-reasoner must not accept temperature")
	}
	if !caps.Reasoning {
		t.Error("deepseek-reasoner exposes reasoning content")
	}

	resp, err := backend.Complete(context.Background(), Request{
		Messages:    []Message{{Role: RoleUser, Content: "hi"}},
		Temperature: Temperature(0.7),
	})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	if _, ok := body["temperature"]; ok {
		t.Errorf("temperature must be omitted, got %v", body["temperature"])
	}
	if resp.Reasoning != "thinking it through" {
		t.Errorf("Unexpected reasoning: %q", resp.Reasoning)
	}
}

func TestOpenAIBackend_OSeriesUsesMaxCompletionTokens(t *testing.T) {
	var body map[string]any
	server := newOpenAITestServer(t, "o3-mini", &body)
	defer server.Close()

	backend, err := NewOpenAIBackend(Config{Provider: "openai", APIKey: "test-key", BaseURL: server.URL, Model: "o3-mini"})
	if err != nil {
		t.Fatalf("Failed to create backend: %v", err)
	}

	if _, err := backend.Complete(context.Background(), Request{
		Messages:  []Message{{Role: RoleUser, Content: "hi"}},
		MaxTokens: 256,
	}); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	if body["max_completion_tokens"] != float64(256) {
		t.Errorf("Expected max_completion_tokens 256, got %v", body["max_completion_tokens"])
	}
	if _, ok := body["max_tokens"]; ok {
		t.Error("max_tokens must not be sent to o-series models")
	}
}

func TestOpenAIBackend_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error": {"message": "Internal Server Error", "type": "server_error"}}`))
	}))
	defer server.Close()

	backend, err := NewOpenAIBackend(Config{Provider: "kimi", APIKey: "test-key", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("Failed to create backend: %v", err)
	}

	_, err = backend.Complete(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "hi"}}})
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
}

func TestOpenAIBackend_Defaults(t *testing.T) {
	tests := []struct {
		provider  string
		wantModel string
	}{
		{"kimi", "kimi-k2-0711-preview"},
		{"deepseek", "deepseek-chat"},
		{"openai", openai.GPT4oMini},
	}

	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			b, err := NewOpenAIBackend(Config{Provider: tt.provider, APIKey: "k"})
			if err != nil {
				t.Fatalf("Failed to create backend: %v", err)
			}
			if b.Model() != tt.wantModel {
				t.Errorf("expected model %s, got %s", tt.wantModel, b.Model())
			}
			if b.Name() != tt.provider {
				t.Errorf("expected name %s, got %s", tt.provider, b.Name())
			}
			if !b.Capabilities().Temperature {
				t.Errorf("%s chat models accept temperature", tt.provider)
			}
		})
	}
}

func TestOpenAIBackend_MissingKey(t *testing.T) {
	if _, err := NewOpenAIBackend(Config{Provider: "openai"}); err == nil {
		t.Fatal("Expected error for missing API key")
	}
}
