package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/paperdigest/internal/llm"
	"github.com/ppiankov/paperdigest/internal/model"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage paperdigest configuration",
	Long: `Manage paperdigest configuration files and settings.

Configuration hierarchy (highest to lowest priority):
1. CLI flags
2. Environment variables (PAPERDIGEST_*, provider API keys)
3. Config file (./paperdigest.yaml or ~/.paperdigest/config.yaml)
4. Defaults`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		if configFile := viper.ConfigFileUsed(); configFile != "" {
			fmt.Fprintf(os.Stderr, "Configuration file: %s\n\n", configFile)
		} else {
			fmt.Fprintf(os.Stderr, "No configuration file found (using defaults)\n\n")
		}

		yamlData, err := yaml.Marshal(maskSecrets(cfg))
		if err != nil {
			return fmt.Errorf("error marshaling config: %w", err)
		}

		fmt.Println("═══════════════════════════════════════════════════════════")
		fmt.Println("  Current Configuration")
		fmt.Println("═══════════════════════════════════════════════════════════")
		fmt.Println()
		fmt.Println(string(yamlData))

		fmt.Println("API keys:")
		for _, name := range cfg.LLM.ProviderNames() {
			envs := llm.APIKeyEnv(name)
			if len(envs) == 0 {
				continue
			}
			state := "missing"
			if cfg.LLM.Providers[name].APIKey != "" || llm.LookupAPIKey(name) != "" {
				state = "set"
			}
			marker := " "
			if name == cfg.LLM.Provider {
				marker = "*"
			}
			fmt.Printf(" %s %-10s %-8s (%s)\n", marker, name, state, strings.Join(envs, ", "))
		}
		fmt.Println()
		return nil
	},
}

var configInitPath string

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configInitPath
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file already exists: %s\nUse 'paperdigest config show' to view it, or delete it first to recreate", path)
		}
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("error creating config directory: %w", err)
			}
		}

		yamlData, err := yaml.Marshal(model.DefaultConfig())
		if err != nil {
			return fmt.Errorf("error marshaling config: %w", err)
		}

		var sb strings.Builder
		sb.WriteString("# paperdigest configuration\n")
		sb.WriteString("#\n")
		sb.WriteString("# Values may reference environment variables as ${NAME}.\n")
		sb.WriteString("# API keys are read from the environment when api_key is empty:\n")
		sb.WriteString("#   KIMI_API_KEY, OPENAI_API_KEY, DEEPSEEK_API_KEY, ANTHROPIC_API_KEY, GEMINI_API_KEY\n")
		sb.WriteString("# or from one file per key in .secrets/ (e.g. .secrets/kimi-api-key).\n")
		sb.WriteString("# OLLAMA_BASE_URL overrides the ollama endpoint.\n\n")
		sb.Write(yamlData)

		if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
			return fmt.Errorf("error writing config: %w", err)
		}

		_, _ = okColor.Printf("✓ Created default configuration: %s\n", path)
		fmt.Printf("\nTo view the configuration:\n")
		fmt.Printf("  paperdigest config show\n\n")
		return nil
	},
}

// maskSecrets hides API keys before display
func maskSecrets(cfg model.Config) model.Config {
	providers := make(map[string]model.ProviderConfig, len(cfg.LLM.Providers))
	for name, pc := range cfg.LLM.Providers {
		if pc.APIKey != "" {
			pc.APIKey = maskKey(pc.APIKey)
		}
		providers[name] = pc
	}
	cfg.LLM.Providers = providers
	return cfg
}

func maskKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "****" + key[len(key)-4:]
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)

	configInitCmd.Flags().StringVar(&configInitPath, "path", "paperdigest.yaml", "where to write the file")
}
