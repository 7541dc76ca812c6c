package model

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"
)

// Config is the complete run configuration
type Config struct {
	Source     SourceConfig     `yaml:"source" mapstructure:"source"`
	Classifier ClassifierConfig `yaml:"classifier" mapstructure:"classifier"`
	LLM        LLMConfig        `yaml:"llm" mapstructure:"llm"`
	Analysis   AnalysisConfig   `yaml:"analysis" mapstructure:"analysis"`
	Storage    StorageConfig    `yaml:"storage" mapstructure:"storage"`
	Cache      CacheConfig      `yaml:"cache" mapstructure:"cache"`
	HTTP       HTTPConfig       `yaml:"http" mapstructure:"http"`
}

// SourceConfig selects where candidate papers come from
type SourceConfig struct {
	Kind       string `yaml:"kind" mapstructure:"kind"` // listing, rss
	ListingURL string `yaml:"listing_url" mapstructure:"listing_url"`
	FeedURL    string `yaml:"feed_url" mapstructure:"feed_url"`
	Category   string `yaml:"category" mapstructure:"category"`
}

// ResearchArea is a named interest used by the semantic classifier
type ResearchArea struct {
	Name        string `yaml:"name" mapstructure:"name"`
	Description string `yaml:"description" mapstructure:"description"`
}

// ClassifierConfig controls relevance filtering
type ClassifierConfig struct {
	Strategy          string              `yaml:"strategy" mapstructure:"strategy"` // semantic, lexical
	Threshold         float64             `yaml:"threshold" mapstructure:"threshold"`
	BatchSize         int                 `yaml:"batch_size" mapstructure:"batch_size"`
	BatchDelaySeconds float64             `yaml:"batch_delay_seconds" mapstructure:"batch_delay_seconds"`
	Fallback          bool                `yaml:"fallback" mapstructure:"fallback"`
	Provider          string              `yaml:"provider,omitempty" mapstructure:"provider"` // defaults to llm.provider
	Areas             []ResearchArea      `yaml:"areas" mapstructure:"areas"`
	Keywords          map[string][]string `yaml:"keywords" mapstructure:"keywords"`
}

// BatchDelay returns the pause between classification batches
func (c ClassifierConfig) BatchDelay() time.Duration {
	return seconds(c.BatchDelaySeconds)
}

// ProviderConfig holds per-backend credentials and limits
type ProviderConfig struct {
	Model       string  `yaml:"model" mapstructure:"model"`
	APIKey      string  `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL     string  `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Temperature float64 `yaml:"temperature" mapstructure:"temperature"`
	MaxTokens   int     `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// LLMConfig selects the active backend and pacing
type LLMConfig struct {
	Provider            string                    `yaml:"provider" mapstructure:"provider"`
	TimeoutSeconds      int                       `yaml:"timeout_seconds" mapstructure:"timeout_seconds"`
	RequestDelaySeconds float64                   `yaml:"request_delay_seconds" mapstructure:"request_delay_seconds"`
	Providers           map[string]ProviderConfig `yaml:"providers" mapstructure:"providers"`
}

// Timeout returns the per-call deadline
func (c LLMConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 120 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// RequestDelay returns the fixed pause between consecutive model calls
func (c LLMConfig) RequestDelay() time.Duration {
	return seconds(c.RequestDelaySeconds)
}

// Resolve returns the settings for the named provider, or the active one when name is empty
func (c LLMConfig) Resolve(name string) (string, ProviderConfig, error) {
	if name == "" {
		name = c.Provider
	}
	name = strings.ToLower(name)
	pc, ok := c.Providers[name]
	if !ok {
		return "", ProviderConfig{}, fmt.Errorf("no settings for LLM provider %q", name)
	}
	return name, pc, nil
}

// AnalysisConfig controls the per-paper analysis step
type AnalysisConfig struct {
	Language         string `yaml:"language" mapstructure:"language"` // en, zh
	FetchFullText    bool   `yaml:"fetch_full_text" mapstructure:"fetch_full_text"`
	MaxFullTextChars int    `yaml:"max_full_text_chars" mapstructure:"max_full_text_chars"`
	MaxPapers        int    `yaml:"max_papers" mapstructure:"max_papers"` // 0 means all
	SkipSeen         bool   `yaml:"skip_seen" mapstructure:"skip_seen"`
}

// StorageConfig locates run artifacts
type StorageConfig struct {
	BaseDir   string `yaml:"base_dir" mapstructure:"base_dir"`
	HistoryDB string `yaml:"history_db" mapstructure:"history_db"`
}

// CacheConfig controls the model response cache
type CacheConfig struct {
	Enabled  bool   `yaml:"enabled" mapstructure:"enabled"`
	Dir      string `yaml:"dir" mapstructure:"dir"`
	TTLHours int    `yaml:"ttl_hours" mapstructure:"ttl_hours"`
}

// TTL returns the cache entry lifetime
func (c CacheConfig) TTL() time.Duration {
	if c.TTLHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.TTLHours) * time.Hour
}

// HTTPConfig controls page and document fetching
type HTTPConfig struct {
	UserAgent         string  `yaml:"user_agent" mapstructure:"user_agent"`
	TimeoutSeconds    int     `yaml:"timeout_seconds" mapstructure:"timeout_seconds"`
	MaxBytes          int64   `yaml:"max_bytes" mapstructure:"max_bytes"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int     `yaml:"burst" mapstructure:"burst"`
	MaxRetries        int     `yaml:"max_retries" mapstructure:"max_retries"`
	RespectRobots     bool    `yaml:"respect_robots" mapstructure:"respect_robots"`
	HTTPProxy         string  `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy        string  `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
}

// Timeout returns the per-request deadline
func (c HTTPConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// DefaultKeywords is the built-in lexical interest table
func DefaultKeywords() map[string][]string {
	return map[string][]string{
		"large_language_models":          {"large language model", "llm", "gpt"},
		"agents":                         {"agent", "intelligent agent", "multi-agent", "autonomous agent"},
		"reinforcement_learning":         {"reinforcement learning", "rlhf", "proximal policy optimization", "direct preference optimization"},
		"multimodal":                     {"multimodal", "vision-language", "image-text", "audio-visual", "video", "vlm", "mllm"},
		"fine_tuning":                    {"fine-tuning", "adapter", "lora", "qlora"},
		"pre_training":                   {"pre-training", "pre-trained"},
		"optimization":                   {"optimizer"},
		"retrieval_augmented_generation": {"(rag)", "retrieval-augmented generation", "retrieval augmented generation"},
		"post_training":                  {"post-training"},
	}
}

// DefaultAreas is the built-in semantic interest enumeration
func DefaultAreas() []ResearchArea {
	return []ResearchArea{
		{Name: "large_language_models", Description: "Architecture, training, evaluation and behaviour of large language models"},
		{Name: "agents", Description: "LLM-based agents, tool use, planning and multi-agent systems"},
		{Name: "reinforcement_learning", Description: "Reinforcement learning, including RLHF, PPO and preference optimisation"},
		{Name: "multimodal", Description: "Vision-language, audio-visual and other multimodal models"},
		{Name: "fine_tuning", Description: "Parameter-efficient fine-tuning, adapters, LoRA"},
		{Name: "pre_training", Description: "Pre-training data, objectives and scaling"},
		{Name: "optimization", Description: "Optimizers and training dynamics for deep learning"},
		{Name: "retrieval_augmented_generation", Description: "Retrieval-augmented generation and knowledge grounding"},
		{Name: "post_training", Description: "Alignment and post-training of foundation models"},
	}
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Source: SourceConfig{
			Kind:       "listing",
			ListingURL: "https://arxiv.org/list/cs/new",
			FeedURL:    "https://rss.arxiv.org/rss/cs",
			Category:   "cs",
		},
		Classifier: ClassifierConfig{
			Strategy:          "semantic",
			Threshold:         0.6,
			BatchSize:         5,
			BatchDelaySeconds: 2,
			Fallback:          true,
			Areas:             DefaultAreas(),
			Keywords:          DefaultKeywords(),
		},
		LLM: LLMConfig{
			Provider:            "kimi",
			TimeoutSeconds:      120,
			RequestDelaySeconds: 1,
			Providers: map[string]ProviderConfig{
				"kimi":      {Model: "kimi-k2-0711-preview", BaseURL: "https://api.moonshot.cn/v1", Temperature: 0.3, MaxTokens: 4000},
				"openai":    {Model: "gpt-4o-mini", Temperature: 0.3, MaxTokens: 4000},
				"deepseek":  {Model: "deepseek-chat", BaseURL: "https://api.deepseek.com/v1", Temperature: 0.3, MaxTokens: 4000},
				"anthropic": {Model: "claude-3-5-haiku-20241022", Temperature: 0.3, MaxTokens: 4000},
				"gemini":    {Model: "gemini-1.5-flash", Temperature: 0.3, MaxTokens: 4000},
				"ollama":    {Model: "llama3.1", BaseURL: "http://localhost:11434", Temperature: 0.3, MaxTokens: 4000},
			},
		},
		Analysis: AnalysisConfig{
			Language:         "en",
			FetchFullText:    true,
			MaxFullTextChars: 20000,
		},
		Storage: StorageConfig{
			BaseDir:   "digests",
			HistoryDB: "digests/history.db",
		},
		Cache: CacheConfig{
			Enabled:  true,
			Dir:      ".cache/paperdigest",
			TTLHours: 72,
		},
		HTTP: HTTPConfig{
			UserAgent:         "paperdigest/0.1 (+https://github.com/ppiankov/paperdigest)",
			TimeoutSeconds:    30,
			MaxBytes:          10_000_000,
			RequestsPerSecond: 1,
			Burst:             1,
			MaxRetries:        3,
			RespectRobots:     true,
		},
	}
}

// Validate rejects configurations the pipeline cannot run with
func (c Config) Validate() error {
	switch c.Classifier.Strategy {
	case "semantic", "lexical":
	default:
		return fmt.Errorf("unknown classifier strategy %q (supported: semantic, lexical)", c.Classifier.Strategy)
	}
	if c.Classifier.Threshold < 0 || c.Classifier.Threshold > 1 {
		return fmt.Errorf("classifier threshold %.2f outside [0,1]", c.Classifier.Threshold)
	}
	if c.Classifier.BatchSize < 1 {
		return fmt.Errorf("classifier batch size must be at least 1")
	}
	switch c.Analysis.Language {
	case "en", "zh":
	default:
		return fmt.Errorf("unknown answer language %q (supported: en, zh)", c.Analysis.Language)
	}
	if _, _, err := c.LLM.Resolve(""); err != nil {
		return err
	}
	return nil
}

// ExpandEnv substitutes ${VAR} references in credentials and endpoints
func (c *Config) ExpandEnv() {
	for name, pc := range c.LLM.Providers {
		pc.APIKey = os.ExpandEnv(pc.APIKey)
		pc.BaseURL = os.ExpandEnv(pc.BaseURL)
		c.LLM.Providers[name] = pc
	}
	c.HTTP.HTTPProxy = os.ExpandEnv(c.HTTP.HTTPProxy)
	c.HTTP.HTTPSProxy = os.ExpandEnv(c.HTTP.HTTPSProxy)
}

// ProviderNames lists the configured backends in stable order
func (c LLMConfig) ProviderNames() []string {
	names := make([]string, 0, len(c.Providers))
	for name := range c.Providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func seconds(s float64) time.Duration {
	if s <= 0 {
		return 0
	}
	return time.Duration(s * float64(time.Second))
}
