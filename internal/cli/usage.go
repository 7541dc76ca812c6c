package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/paperdigest/internal/store"
)

// usageCmd represents the usage command
var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Show token usage and estimated cost of a run",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		st, err := store.New(cfg.Storage.BaseDir, runDate)
		if err != nil {
			return err
		}

		snap, err := st.LoadUsage()
		if err != nil {
			return fmt.Errorf("no token usage for %s: %w", st.Date(), err)
		}

		fmt.Printf("Token usage for %s (started %s, %s elapsed)\n\n",
			st.Date(), snap.StartTime.Format(time.RFC3339),
			(time.Duration(snap.ElapsedSeconds * float64(time.Second))).Round(time.Second))
		fmt.Printf("%-32s %8s %12s %12s %10s\n", "MODEL", "CALLS", "INPUT", "OUTPUT", "COST $")
		for _, m := range snap.Models {
			fmt.Printf("%-32s %8d %12d %12d %10.4f\n", m.Model, m.Calls, m.InputTokens, m.OutputTokens, m.Cost)
		}
		_, _ = headColor.Printf("%-32s %8d %12d %12d %10.4f\n", "TOTAL", snap.APICalls, snap.TotalInputTokens, snap.TotalOutputTokens, snap.EstimatedCost)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(usageCmd)
}
