package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/paperdigest/internal/cache"
)

// cacheCmd groups response cache maintenance
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the model response cache",
}

// cacheClearCmd empties the response cache, also when caching is disabled
var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every cached model response",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := cache.NewLayeredCache(time.Hour, cfg.Cache.Dir, cfg.Cache.TTL()).Clear(); err != nil {
			return fmt.Errorf("clear cache: %w", err)
		}
		_, _ = okColor.Fprintf(os.Stdout, "✓ Cleared %s\n", cfg.Cache.Dir)
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}
