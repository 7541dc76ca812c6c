package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/paperdigest/internal/pipeline"
	"github.com/ppiankov/paperdigest/internal/worker"
)

// fetchCmd represents the fetch command
var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch and classify candidates without analyzing them",
	Long: `Fetch gathers the day's papers, keeps the relevant ones and writes them to
candidates/ in the run directory. Use 'paperdigest analyze' afterwards.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext()
		defer stop()

		p, cleanup, err := buildPipeline(ctx, false)
		defer cleanup()
		if err != nil {
			return err
		}

		var sum pipeline.Summary
		relevant, err := p.Fetch(ctx, &sum)
		if err != nil {
			return fmt.Errorf("fetch failed: %w", err)
		}

		_, _ = okColor.Fprintf(os.Stderr, "✓ %d candidates, %d relevant\n", sum.Candidates, sum.Relevant)
		for _, paper := range relevant {
			fmt.Printf("%s\t%s\t%s\n", paper.ID, paper.Category(), paper.Title)
		}

		// Classification calls are metered too
		if err := p.Store().SaveUsage(p.Ledger().Snapshot()); err != nil {
			_, _ = failColor.Fprintf(os.Stderr, "✗ Saving token usage: %v\n", err)
		}
		return nil
	},
}

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze the candidates saved by an earlier fetch",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext()
		defer stop()

		p, cleanup, err := buildPipeline(ctx, true)
		defer cleanup()
		if err != nil {
			return err
		}
		ids, err := requestedIDs()
		if err != nil {
			return err
		}
		attachProgress(p)

		sum, err := p.AnalyzeSaved(ctx, ids...)
		if sum != nil {
			printSummary(sum)
		}
		if err != nil && (sum == nil || !sum.Interrupted) {
			return fmt.Errorf("analyze failed: %w", err)
		}
		return nil
	},
}

var (
	analyzeIDs    []string
	analyzeIDFile string
)

// requestedIDs merges --ids with the lines of --ids-file
func requestedIDs() ([]string, error) {
	ids := append([]string(nil), analyzeIDs...)
	if analyzeIDFile != "" {
		lines, err := worker.ReadLines(analyzeIDFile)
		if err != nil {
			return nil, fmt.Errorf("read ids file: %w", err)
		}
		ids = append(ids, lines...)
	}
	return ids, nil
}

func init() {
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().IntVar(&maxPapers, "max-papers", 0, "analyze at most N papers (0: config value)")
	analyzeCmd.Flags().BoolVar(&noCache, "no-cache", false, "bypass the model response cache")
	analyzeCmd.Flags().StringSliceVar(&analyzeIDs, "ids", nil, "analyze only these saved candidates (re-analyzes seen papers)")
	analyzeCmd.Flags().StringVar(&analyzeIDFile, "ids-file", "", "file with one paper id per line, # for comments")
}
