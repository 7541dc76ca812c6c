package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/paperdigest/internal/model"
)

func TestConfigFromModel_EnvKeys(t *testing.T) {
	t.Setenv("KIMI_API_KEY", "")
	t.Setenv("MOONSHOT_API_KEY", "sk-moon")

	cfg := model.DefaultConfig()
	c, err := ConfigFromModel("", cfg)
	require.NoError(t, err)

	assert.Equal(t, "kimi", c.Provider)
	assert.Equal(t, "kimi-k2-0711-preview", c.Model)
	assert.Equal(t, "sk-moon", c.APIKey)
	assert.Equal(t, cfg.LLM.Timeout(), c.Timeout)
}

func TestConfigFromModel_ExplicitKeyWins(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "from-env")

	cfg := model.DefaultConfig()
	pc := cfg.LLM.Providers["openai"]
	pc.APIKey = "from-file"
	cfg.LLM.Providers["openai"] = pc

	c, err := ConfigFromModel("openai", cfg)
	require.NoError(t, err)
	assert.Equal(t, "from-file", c.APIKey)
}

func TestConfigFromModel_OllamaBaseURL(t *testing.T) {
	t.Setenv("OLLAMA_BASE_URL", "http://gpu-box:11434")

	c, err := ConfigFromModel("ollama", model.DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, "http://gpu-box:11434", c.BaseURL)
}

func TestConfigFromModel_Unknown(t *testing.T) {
	_, err := ConfigFromModel("nope", model.DefaultConfig())
	assert.Error(t, err)
}

func TestNewBackend(t *testing.T) {
	tests := []struct {
		provider string
		wantName string
	}{
		{"openai", "openai"},
		{"kimi", "kimi"},
		{"deepseek", "deepseek"},
		{"anthropic", "anthropic"},
		{"ollama", "ollama"},
	}

	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			b, err := NewBackend(context.Background(), Config{Provider: tt.provider, APIKey: "k"})
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, b.Name())
			assert.NotEmpty(t, b.Model())
		})
	}

	_, err := NewBackend(context.Background(), Config{Provider: "mystery"})
	assert.Error(t, err)
}
