package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/paperdigest/internal/pipeline"
	"github.com/ppiankov/paperdigest/internal/store"
)

// reportCmd represents the report command
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Render the markdown digest from a run's daily summary",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		st, err := store.New(cfg.Storage.BaseDir, runDate)
		if err != nil {
			return err
		}

		path, err := pipeline.New(cfg, pipeline.Deps{Store: st}, logWriter()).Report()
		if err != nil {
			return err
		}
		_, _ = okColor.Fprintf(os.Stderr, "✓ Wrote report: %s\n", path)
		if printReport {
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			fmt.Print(string(data))
		}
		return nil
	},
}

var printReport bool

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().BoolVar(&printReport, "print", false, "also print the report to stdout")
}
