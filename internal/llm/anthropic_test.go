package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestAnthropicBackend_Complete_Success(t *testing.T) {
	var got anthropicRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("Expected path /v1/messages, got %s", r.URL.Path)
		}
		if r.Header.Get("x-api-key") != "test-key" {
			t.Errorf("Expected x-api-key header test-key, got %s", r.Header.Get("x-api-key"))
		}
		if r.Header.Get("anthropic-version") != "2023-06-01" {
			t.Errorf("Expected anthropic-version header 2023-06-01, got %s", r.Header.Get("anthropic-version"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}

		resp := anthropicResponse{
			ID:   "msg_123",
			Type: "message",
			Role: "assistant",
			Content: []anthropicContent{
				{Type: "text", Text: `{"q1_main_content": `},
				{Type: "text", Text: `"x"}`},
			},
			Model: "claude-3-5-haiku-20241022",
		}
		resp.Usage.InputTokens = 50
		resp.Usage.OutputTokens = 20
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	backend, err := NewAnthropicBackend(Config{APIKey: "test-key", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("Failed to create backend: %v", err)
	}

	resp, err := backend.Complete(context.Background(), Request{
		Messages: []Message{
			{Role: RoleSystem, Content: "You analyse papers."},
			{Role: RoleUser, Content: "Title: X"},
		},
		Temperature: Temperature(0.3),
		MaxTokens:   800,
	})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	if resp.Text != `{"q1_main_content": "x"}` {
		t.Errorf("Unexpected text: %q", resp.Text)
	}
	if resp.Usage.InputTokens != 50 || resp.Usage.OutputTokens != 20 {
		t.Errorf("Unexpected usage: %+v", resp.Usage)
	}

	if got.System != "You analyse papers." {
		t.Errorf("system prompt should move to the system field, got %q", got.System)
	}
	if len(got.Messages) != 1 || got.Messages[0].Role != "user" {
		t.Errorf("unexpected messages: %+v", got.Messages)
	}
	if got.MaxTokens != 800 {
		t.Errorf("expected max_tokens 800, got %d", got.MaxTokens)
	}
	if got.Temperature == nil || *got.Temperature != 0.3 {
		t.Errorf("expected temperature 0.3, got %v", got.Temperature)
	}
}

func TestAnthropicBackend_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"type": "error", "error": {"type": "authentication_error", "message": "invalid x-api-key"}}`))
	}))
	defer server.Close()

	backend, err := NewAnthropicBackend(Config{APIKey: "bad-key", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("Failed to create backend: %v", err)
	}

	_, err = backend.Complete(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "hi"}}})
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	if !strings.Contains(err.Error(), "authentication_error") {
		t.Errorf("Expected error to mention authentication_error, got: %v", err)
	}
}

func TestAnthropicBackend_EmptyContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id": "msg_1", "content": []}`))
	}))
	defer server.Close()

	backend, err := NewAnthropicBackend(Config{APIKey: "test-key", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("Failed to create backend: %v", err)
	}

	if _, err := backend.Complete(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "hi"}}}); err == nil {
		t.Fatal("Expected error for empty content")
	}
}
