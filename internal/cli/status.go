package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ppiankov/paperdigest/internal/store"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show what a run directory holds",
	Long: `Status lists the available run dates and, for the selected date (default:
the newest run), the candidate, analysis, summary, usage and report artifacts.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		runs, err := store.ListRuns(cfg.Storage.BaseDir)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Printf("No runs under %s\n", cfg.Storage.BaseDir)
			return nil
		}

		date := runDate
		if date == "" {
			date = runs[0]
		}
		st, err := store.New(cfg.Storage.BaseDir, date)
		if err != nil {
			return err
		}

		fmt.Println("═══════════════════════════════════════════════════════════")
		fmt.Printf("  Run %s  (%s)\n", st.Date(), st.RunDir())
		fmt.Println("═══════════════════════════════════════════════════════════")

		if candidates, err := st.LoadCandidates(); err == nil {
			fmt.Printf("Candidates:     %d\n", len(candidates))
		} else {
			fmt.Printf("Candidates:     none\n")
		}

		files, err := st.AnalysisFiles()
		if err != nil {
			return err
		}
		fmt.Printf("Analysis files: %d\n", len(files))

		records, err := st.LoadSummary()
		if err != nil {
			_, _ = failColor.Printf("Daily summary:  unreadable (%v)\n", err)
		} else {
			fmt.Printf("Daily summary:  %d papers\n", len(records))
		}

		if snap, err := st.LoadUsage(); err == nil {
			fmt.Printf("Token usage:    %d calls, %d tokens, $%.4f\n", snap.APICalls, snap.TotalTokens, snap.EstimatedCost)
		} else {
			fmt.Printf("Token usage:    none\n")
		}

		if _, err := os.Stat(st.ReportPath()); err == nil {
			fmt.Printf("Report:         %s\n", st.ReportPath())
		} else {
			fmt.Printf("Report:         not rendered\n")
		}

		if cfg.Storage.HistoryDB != "" {
			if _, err := os.Stat(cfg.Storage.HistoryDB); err == nil {
				h, err := store.OpenHistory(cfg.Storage.HistoryDB)
				if err == nil {
					defer h.Close()
					if n, err := h.Count(context.Background()); err == nil {
						fmt.Printf("History:        %d papers analyzed across all runs\n", n)
					}
				}
			}
		}

		fmt.Printf("\nRuns (%d): ", len(runs))
		for i, r := range runs {
			if i == 8 {
				fmt.Printf("…")
				break
			}
			fmt.Printf("%s ", r)
		}
		fmt.Println()
		fmt.Printf("Base directory: %s\n", filepath.Clean(cfg.Storage.BaseDir))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
