package cli

import (
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	"github.com/ppiankov/paperdigest/internal/model"
	"github.com/ppiankov/paperdigest/internal/pipeline"
)

var (
	okColor   = color.New(color.FgGreen)
	failColor = color.New(color.FgRed)
	warnColor = color.New(color.FgYellow)
	headColor = color.New(color.FgCyan, color.Bold)
)

// logWriter is where pipeline progress lines go: everything when verbose,
// nothing otherwise (the progress bar and final summary stand in)
func logWriter() io.Writer {
	if verbose {
		return os.Stderr
	}
	return io.Discard
}

func getProgressBar(total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription(color.BlueString(description)),
		progressbar.OptionSetItsString("papers"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionSetRenderBlankState(true),
	)
}

// attachProgress drives a progress bar from the analysis engine when not verbose
func attachProgress(p *pipeline.Pipeline) {
	if verbose || p.Engine() == nil {
		return
	}
	var bar *progressbar.ProgressBar
	p.Engine().OnProgress(func(done, total int, paper model.Paper, rec *model.AnalysisRecord, err error) {
		if bar == nil {
			bar = getProgressBar(total, "Analyzing")
		}
		_ = bar.Add(1)
		if done == total {
			_ = bar.Finish()
		}
	})
}

// printSummary shows the end-of-run banner; verbose runs already logged it
func printSummary(sum *pipeline.Summary) {
	w := os.Stderr
	if sum.Interrupted {
		_, _ = warnColor.Fprintf(w, "\n⚠ Run %s interrupted; finished papers are saved\n", sum.Date)
	} else {
		_, _ = okColor.Fprintf(w, "\n✓ Run %s complete\n", sum.Date)
	}
	if !verbose {
		pipeline.WriteSummary(w, sum)
	}
}
