// Package cli implements the paperdigest command line.
package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/paperdigest/internal/model"
	"github.com/ppiankov/paperdigest/internal/secrets"
)

// Version is set at build time
var Version = "0.1.0"

var (
	cfgFile    string
	secretsDir string
	runDate    string
	verbose    bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "paperdigest",
	Short: "Daily digest of new computer science papers",
	Long: `paperdigest fetches the day's new computer science submissions, keeps the
ones relevant to your research areas, asks a language model six fixed questions
about each, and writes the answers and a markdown digest under a dated run
directory.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := secrets.Load(secretsDir)
		if err != nil {
			return err
		}
		if set := secrets.Export(loaded); len(set) > 0 && verbose {
			sort.Strings(set)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", set)
		}
		return nil
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("paperdigest v%s\n", Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./paperdigest.yaml or $HOME/.paperdigest/paperdigest.yaml)")
	rootCmd.PersistentFlags().StringVar(&secretsDir, "secrets-dir", ".secrets", "directory of one-file-per-key API secrets")
	rootCmd.PersistentFlags().StringVar(&runDate, "date", "", "run date as YYMMDD (default: today)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("paperdigest")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(filepath.Join(home, ".paperdigest"))
		}
	}

	// PAPERDIGEST_LLM_PROVIDER overrides llm.provider, and so on
	viper.SetEnvPrefix("PAPERDIGEST")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	for _, key := range []string{
		"source.kind", "classifier.strategy", "classifier.threshold", "llm.provider",
		"analysis.language", "analysis.max_papers", "storage.base_dir", "cache.enabled",
	} {
		_ = viper.BindEnv(key)
	}

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// setProviderDefaults registers every provider field with viper so a file that
// sets one field of a provider keeps the others. Map entries are otherwise
// decoded into zero values.
func setProviderDefaults(providers map[string]model.ProviderConfig) {
	for name, pc := range providers {
		prefix := "llm.providers." + name + "."
		viper.SetDefault(prefix+"model", pc.Model)
		viper.SetDefault(prefix+"api_key", pc.APIKey)
		viper.SetDefault(prefix+"base_url", pc.BaseURL)
		viper.SetDefault(prefix+"temperature", pc.Temperature)
		viper.SetDefault(prefix+"max_tokens", pc.MaxTokens)
	}
}

// loadConfig overlays the config file and environment on the defaults
func loadConfig() (model.Config, error) {
	cfg := model.DefaultConfig()
	setProviderDefaults(cfg.LLM.Providers)
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	cfg.ExpandEnv()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
