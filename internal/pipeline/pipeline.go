// Package pipeline runs a day's digest: fetch, classify, analyze, persist, report.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/ppiankov/paperdigest/internal/analyze"
	"github.com/ppiankov/paperdigest/internal/classify"
	"github.com/ppiankov/paperdigest/internal/model"
	"github.com/ppiankov/paperdigest/internal/report"
	"github.com/ppiankov/paperdigest/internal/source"
	"github.com/ppiankov/paperdigest/internal/store"
	"github.com/ppiankov/paperdigest/internal/usage"
)

// Deps are the collaborators of one run
type Deps struct {
	Sources    []source.Source
	Classifier *classify.Classifier
	Engine     *analyze.Engine
	Store      *store.Store
	History    *store.History
	Ledger     *usage.Ledger
}

// Pipeline orchestrates a run
type Pipeline struct {
	deps   Deps
	config model.Config
	log    io.Writer
	now    func() time.Time
}

// New creates a pipeline from explicit dependencies
func New(cfg model.Config, deps Deps, log io.Writer) *Pipeline {
	if log == nil {
		log = io.Discard
	}
	if deps.Ledger == nil {
		deps.Ledger = usage.NewLedger()
	}
	return &Pipeline{deps: deps, config: cfg, log: log, now: time.Now}
}

// Summary describes what a run did
type Summary struct {
	Date        string         `json:"date"`
	Candidates  int            `json:"candidates"`
	Relevant    int            `json:"relevant"`
	Skipped     int            `json:"skipped"`
	Analyzed    int            `json:"analyzed"`
	Failed      int            `json:"failed"`
	Interrupted bool           `json:"interrupted"`
	ReportPath  string         `json:"report_path,omitempty"`
	Usage       usage.Snapshot `json:"usage"`
	Duration    time.Duration  `json:"duration"`
}

// Fetch gathers candidates, classifies them and saves the relevant ones
func (p *Pipeline) Fetch(ctx context.Context, sum *Summary) ([]model.Paper, error) {
	fmt.Fprintf(p.log, "\n═══ Fetching candidates ═══\n")
	papers, err := source.Gather(ctx, p.log, p.deps.Sources...)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if !errors.Is(err, source.ErrSourceUnavailable) {
			return nil, err
		}
		fmt.Fprintf(p.log, "✗ %v\n", err)
		return nil, nil
	}
	sum.Candidates = len(papers)
	if len(papers) == 0 {
		return nil, nil
	}

	fmt.Fprintf(p.log, "\n═══ Classifying ═══\n")
	relevant, _, err := p.deps.Classifier.Classify(ctx, papers)
	sum.Relevant = len(relevant)
	if err != nil {
		return relevant, err
	}

	paths, err := p.deps.Store.SaveCandidates(relevant)
	if err != nil {
		fmt.Fprintf(p.log, "✗ Saving candidates: %v\n", err)
	} else {
		fmt.Fprintf(p.log, "✓ Wrote %d candidate files to %s\n", len(paths), p.deps.Store.RunDir())
	}
	return relevant, nil
}

// Analyze runs the engine over papers, skipping ones analyzed in earlier runs
// when configured, and honoring the paper cap
func (p *Pipeline) Analyze(ctx context.Context, papers []model.Paper, sum *Summary) ([]model.AnalysisRecord, error) {
	return p.analyze(ctx, papers, sum, p.config.Analysis.SkipSeen)
}

func (p *Pipeline) analyze(ctx context.Context, papers []model.Paper, sum *Summary, skipSeen bool) ([]model.AnalysisRecord, error) {
	if p.deps.Engine == nil {
		return nil, fmt.Errorf("pipeline built without an analysis engine")
	}
	if skipSeen && p.deps.History != nil {
		fresh, err := p.deps.History.FilterUnseen(ctx, papers)
		if err != nil {
			fmt.Fprintf(p.log, "✗ History lookup: %v\n", err)
		} else {
			sum.Skipped = len(papers) - len(fresh)
			papers = fresh
		}
	}
	if limit := p.config.Analysis.MaxPapers; limit > 0 && len(papers) > limit {
		papers = papers[:limit]
	}

	fmt.Fprintf(p.log, "\n═══ Analyzing %d papers ═══\n", len(papers))
	records, err := p.deps.Engine.Run(ctx, papers)
	sum.Analyzed = len(records)
	if err == nil {
		sum.Failed = len(papers) - len(records)
	}
	return records, err
}

// Report renders the markdown digest from the persisted summary
func (p *Pipeline) Report() (string, error) {
	records, err := p.deps.Store.LoadSummary()
	if err != nil {
		return "", fmt.Errorf("load summary: %w", err)
	}
	snap := p.deps.Ledger.Snapshot()
	if saved, err := p.deps.Store.LoadUsage(); err == nil && saved.APICalls > snap.APICalls {
		snap = saved
	}

	content, err := report.Markdown(
		report.Build(p.deps.Store.Date(), records, &snap, p.now()),
		report.Options{Language: p.config.Analysis.Language},
	)
	if err != nil {
		return "", fmt.Errorf("render report: %w", err)
	}
	return p.deps.Store.SaveReport(content)
}

// Run executes the whole day. The usage snapshot is flushed and the summary
// is printed on every exit path, including cancellation and panics.
func (p *Pipeline) Run(ctx context.Context) (sum *Summary, err error) {
	sum = &Summary{Date: p.deps.Store.Date()}
	defer p.guard(sum, p.now(), &err)

	papers, err := p.Fetch(ctx, sum)
	if err != nil {
		return sum, err
	}
	if len(papers) == 0 {
		fmt.Fprintf(p.log, "No relevant papers for %s\n", sum.Date)
		return sum, nil
	}

	return sum, p.analyzeAndReport(ctx, papers, sum, p.config.Analysis.SkipSeen)
}

// AnalyzeSaved analyzes the candidates saved by an earlier fetch of the same day.
// When ids are given only those candidates are analyzed, even if already seen.
func (p *Pipeline) AnalyzeSaved(ctx context.Context, ids ...string) (sum *Summary, err error) {
	sum = &Summary{Date: p.deps.Store.Date()}
	defer p.guard(sum, p.now(), &err)

	papers, err := p.deps.Store.LoadCandidates()
	if err != nil {
		return sum, err
	}
	sum.Candidates = len(papers)

	// The fetch that saved these candidates paid for classification
	if saved, err := p.deps.Store.LoadUsage(); err == nil {
		p.deps.Ledger.Merge(saved)
	}

	skipSeen := p.config.Analysis.SkipSeen
	if len(ids) > 0 {
		papers = selectIDs(papers, ids)
		if len(papers) == 0 {
			return sum, fmt.Errorf("none of the %d requested ids are among the saved candidates", len(ids))
		}
		skipSeen = false
	}
	sum.Relevant = len(papers)

	return sum, p.analyzeAndReport(ctx, papers, sum, skipSeen)
}

// selectIDs keeps the papers named in ids, ignoring version suffixes
func selectIDs(papers []model.Paper, ids []string) []model.Paper {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[source.StripVersion(strings.TrimSpace(id))] = true
	}
	var out []model.Paper
	for _, paper := range papers {
		if want[source.StripVersion(paper.ID)] {
			out = append(out, paper)
		}
	}
	return out
}

func (p *Pipeline) analyzeAndReport(ctx context.Context, papers []model.Paper, sum *Summary, skipSeen bool) error {
	records, err := p.analyze(ctx, papers, sum, skipSeen)
	if err != nil {
		return err
	}

	if len(records) > 0 {
		path, rerr := p.Report()
		if rerr != nil {
			fmt.Fprintf(p.log, "✗ Report: %v\n", rerr)
		} else {
			sum.ReportPath = path
		}
	}
	return nil
}

// guard recovers a panic into *errp, marks interruptions and finishes the run
func (p *Pipeline) guard(sum *Summary, start time.Time, errp *error) {
	if r := recover(); r != nil {
		*errp = fmt.Errorf("pipeline panic: %v", r)
		fmt.Fprintf(p.log, "✗ %v\n", *errp)
	}
	if errors.Is(*errp, context.Canceled) || errors.Is(*errp, context.DeadlineExceeded) {
		sum.Interrupted = true
	}
	sum.Duration = p.now().Sub(start)
	p.finish(sum)
}

// finish flushes the ledger and prints the final summary
func (p *Pipeline) finish(sum *Summary) {
	sum.Usage = p.deps.Ledger.Snapshot()
	if err := p.deps.Store.SaveUsage(sum.Usage); err != nil {
		fmt.Fprintf(p.log, "✗ Saving token usage: %v\n", err)
	}
	WriteSummary(p.log, sum)
}

// WriteSummary prints the end-of-run banner
func WriteSummary(w io.Writer, sum *Summary) {
	fmt.Fprintf(w, "\n═══════════════════════════════════════\n")
	if sum.Interrupted {
		fmt.Fprintf(w, "Run %s interrupted\n", sum.Date)
	} else {
		fmt.Fprintf(w, "Run %s complete\n", sum.Date)
	}
	fmt.Fprintf(w, "═══════════════════════════════════════\n")
	fmt.Fprintf(w, "Candidates:  %d\n", sum.Candidates)
	fmt.Fprintf(w, "Relevant:    %d\n", sum.Relevant)
	if sum.Skipped > 0 {
		fmt.Fprintf(w, "Seen before: %d\n", sum.Skipped)
	}
	fmt.Fprintf(w, "Analyzed:    %d\n", sum.Analyzed)
	if sum.Failed > 0 {
		fmt.Fprintf(w, "Failed:      %d\n", sum.Failed)
	}
	fmt.Fprintf(w, "API calls:   %d\n", sum.Usage.APICalls)
	fmt.Fprintf(w, "Tokens:      %d (in %d / out %d)\n", sum.Usage.TotalTokens, sum.Usage.TotalInputTokens, sum.Usage.TotalOutputTokens)
	fmt.Fprintf(w, "Est. cost:   $%.4f\n", sum.Usage.EstimatedCost)
	if sum.ReportPath != "" {
		fmt.Fprintf(w, "Report:      %s\n", sum.ReportPath)
	}
	fmt.Fprintf(w, "Duration:    %s\n", sum.Duration.Round(time.Second))
}
