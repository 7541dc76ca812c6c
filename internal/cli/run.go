package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ppiankov/paperdigest/internal/pipeline"
)

var (
	maxPapers int
	noCache   bool
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Fetch, classify, analyze and report the day's papers",
	Long: `Run performs the whole daily job:
- fetch the new submissions listing (or RSS feed)
- keep papers relevant to the configured research areas
- ask the model six questions about each relevant paper
- write per-paper JSON, the daily summary, token usage and a markdown report

Interrupting with Ctrl-C stops between papers; everything finished so far stays on disk.

Example:
  paperdigest run
  paperdigest run --date 250102 --max-papers 10`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().IntVar(&maxPapers, "max-papers", 0, "analyze at most N relevant papers (0: config value)")
	runCmd.Flags().BoolVar(&noCache, "no-cache", false, "bypass the model response cache")
}

// signalContext cancels on SIGINT or SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func buildPipeline(ctx context.Context, analyze bool) (*pipeline.Pipeline, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, func() {}, err
	}
	if maxPapers > 0 {
		cfg.Analysis.MaxPapers = maxPapers
	}
	return pipeline.Build(ctx, cfg, pipeline.BuildOptions{
		Date:    runDate,
		NoCache: noCache,
		Analyze: analyze,
	}, logWriter())
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	p, cleanup, err := buildPipeline(ctx, true)
	defer cleanup()
	if err != nil {
		return err
	}
	attachProgress(p)

	_, _ = headColor.Fprintf(os.Stderr, "paperdigest run %s → %s\n", p.Store().Date(), p.Store().RunDir())

	sum, err := p.Run(ctx)
	if sum != nil {
		printSummary(sum)
	}
	if err != nil && (sum == nil || !sum.Interrupted) {
		return fmt.Errorf("run failed: %w", err)
	}
	return nil
}
