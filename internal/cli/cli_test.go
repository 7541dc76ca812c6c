package cli

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/paperdigest/internal/cache"
	"github.com/ppiankov/paperdigest/internal/model"
)

func TestMaskSecrets(t *testing.T) {
	cfg := model.DefaultConfig()
	pc := cfg.LLM.Providers["openai"]
	pc.APIKey = "sk-1234567890abcdef"
	cfg.LLM.Providers["openai"] = pc

	masked := maskSecrets(cfg)
	assert.Equal(t, "sk-1****cdef", masked.LLM.Providers["openai"].APIKey)
	assert.Equal(t, "sk-1234567890abcdef", cfg.LLM.Providers["openai"].APIKey, "original untouched")
	assert.Equal(t, "****", maskKey("short"))
}

func TestLoadConfig_FileOverlaysDefaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	path := filepath.Join(t.TempDir(), "paperdigest.yaml")
	require.NoError(t, os.WriteFile(path, []byte("classifier:\n  strategy: lexical\n  threshold: 0.7\nanalysis:\n  language: zh\n"), 0o644))
	viper.SetConfigFile(path)
	require.NoError(t, viper.ReadInConfig())

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "lexical", cfg.Classifier.Strategy)
	assert.Equal(t, 0.7, cfg.Classifier.Threshold)
	assert.Equal(t, "zh", cfg.Analysis.Language)
	assert.Equal(t, "kimi", cfg.LLM.Provider, "unset keys keep defaults")
	assert.Equal(t, 5, cfg.Classifier.BatchSize)
}

func TestLoadConfig_PartialProviderKeepsDefaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	path := filepath.Join(t.TempDir(), "paperdigest.yaml")
	require.NoError(t, os.WriteFile(path, []byte("llm:\n  providers:\n    kimi:\n      api_key: sk-test\n    ollama:\n      model: qwen2.5\n"), 0o644))
	viper.SetConfigFile(path)
	require.NoError(t, viper.ReadInConfig())

	cfg, err := loadConfig()
	require.NoError(t, err)

	kimi := cfg.LLM.Providers["kimi"]
	assert.Equal(t, "sk-test", kimi.APIKey)
	assert.Equal(t, "kimi-k2-0711-preview", kimi.Model)
	assert.Equal(t, "https://api.moonshot.cn/v1", kimi.BaseURL)
	assert.Equal(t, 0.3, kimi.Temperature)
	assert.Equal(t, 4000, kimi.MaxTokens)

	ollama := cfg.LLM.Providers["ollama"]
	assert.Equal(t, "qwen2.5", ollama.Model)
	assert.Equal(t, "http://localhost:11434", ollama.BaseURL)

	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Providers["openai"].Model)
}

func TestLoadConfig_Invalid(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	viper.Set("analysis.language", "fr")
	_, err := loadConfig()
	assert.Error(t, err)
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "paperdigest.yaml")
	configInitPath = path
	t.Cleanup(func() { configInitPath = "paperdigest.yaml" })

	require.NoError(t, configInitCmd.RunE(configInitCmd, nil))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "strategy: semantic")
	assert.Contains(t, string(data), "KIMI_API_KEY")

	assert.Error(t, configInitCmd.RunE(configInitCmd, nil), "refuses to overwrite")
}

func TestRequestedIDs_MergesFlagAndFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ids.txt")
	require.NoError(t, os.WriteFile(path, []byte("# rerun\n2501.00002\n\n2501.00003v2\n"), 0o644))

	analyzeIDs, analyzeIDFile = []string{"2501.00001"}, path
	t.Cleanup(func() { analyzeIDs, analyzeIDFile = nil, "" })

	ids, err := requestedIDs()
	require.NoError(t, err)
	assert.Equal(t, []string{"2501.00001", "2501.00002", "2501.00003v2"}, ids)

	analyzeIDFile = filepath.Join(t.TempDir(), "missing.txt")
	_, err = requestedIDs()
	assert.Error(t, err)
}

func TestCacheClear(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	dir := filepath.Join(t.TempDir(), "cache")
	viper.Set("cache.dir", dir)

	c := cache.NewDiskCache(dir, time.Hour)
	key := cache.Key("llm", "prompt")
	require.NoError(t, c.Set(key, []byte("answer"), 0))

	require.NoError(t, cacheClearCmd.RunE(cacheClearCmd, nil))

	_, ok := c.Get(key)
	assert.False(t, ok)
	_, err := os.Stat(dir)
	assert.True(t, os.IsNotExist(err))
}
