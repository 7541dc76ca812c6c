// Package analyze asks the model the six analytical questions about each paper.
package analyze

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ppiankov/paperdigest/internal/llm"
	"github.com/ppiankov/paperdigest/internal/model"
	"github.com/ppiankov/paperdigest/internal/respparse"
	"github.com/ppiankov/paperdigest/internal/source"
)

// minFullTextChars is the shortest extraction treated as a real full text
const minFullTextChars = 500

// DocumentFetcher retrieves a paper's HTML rendering
type DocumentFetcher interface {
	Fetch(ctx context.Context, rawURL string) (*source.FetchResult, error)
}

// Sink persists finished analyses
type Sink interface {
	SaveAnalysis(rec model.AnalysisRecord) (string, error)
	UpsertSummary(rec model.AnalysisRecord) error
}

// Recorder remembers analyzed papers across runs
type Recorder interface {
	Record(ctx context.Context, rec model.AnalysisRecord) error
}

// Options tune the engine
type Options struct {
	Language         string
	FetchFullText    bool
	MaxFullTextChars int
	Temperature      float64
	MaxTokens        int
}

// Progress is called after every paper, successful or not
type Progress func(done, total int, p model.Paper, rec *model.AnalysisRecord, err error)

// Engine analyzes papers one at a time and persists each result immediately
type Engine struct {
	backend  llm.Backend
	fetcher  DocumentFetcher
	sink     Sink
	recorder Recorder
	opts     Options
	log      io.Writer
	now      func() time.Time
	progress Progress
}

// NewEngine creates an engine. fetcher, sink and recorder may be nil.
func NewEngine(backend llm.Backend, fetcher DocumentFetcher, sink Sink, opts Options, log io.Writer) *Engine {
	if log == nil {
		log = io.Discard
	}
	return &Engine{
		backend: backend,
		fetcher: fetcher,
		sink:    sink,
		opts:    opts,
		log:     log,
		now:     time.Now,
	}
}

// WithRecorder attaches a cross-run recorder
func (e *Engine) WithRecorder(r Recorder) *Engine {
	e.recorder = r
	return e
}

// OnProgress sets the per-paper callback
func (e *Engine) OnProgress(fn Progress) *Engine {
	e.progress = fn
	return e
}

// AnalyzePaper produces the analysis record for one paper without persisting it
func (e *Engine) AnalyzePaper(ctx context.Context, p model.Paper) (*model.AnalysisRecord, error) {
	fullText := e.fullText(ctx, p)

	msgs, err := BuildMessages(p, fullText, e.opts.Language)
	if err != nil {
		return nil, fmt.Errorf("build prompt: %w", err)
	}

	req := llm.Request{Messages: msgs, MaxTokens: e.opts.MaxTokens}
	if e.backend.Capabilities().Temperature {
		req.Temperature = llm.Temperature(e.opts.Temperature)
	}

	resp, err := e.backend.Complete(ctx, req)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(resp.Text) == "" {
		return nil, llm.ErrEmptyResponse
	}

	parsed := respparse.ParseAnalysis(resp.Text)

	modelName := resp.Model
	if modelName == "" {
		modelName = e.backend.Model()
	}

	return &model.AnalysisRecord{
		PaperID:          p.ID,
		Title:            p.Title,
		Authors:          p.Authors,
		URL:              p.URL,
		MatchedCategory:  p.Category(),
		Answers:          parsed.Answers,
		AnalysisTime:     e.now(),
		Provider:         e.backend.Name(),
		Model:            modelName,
		ReasoningProcess: resp.Reasoning,
		ParseMode:        parsed.Mode,
		FullTextUsed:     fullText != "",
	}, nil
}

// fullText fetches and extracts the HTML rendering; any failure yields ""
func (e *Engine) fullText(ctx context.Context, p model.Paper) string {
	if !e.opts.FetchFullText || e.fetcher == nil {
		return ""
	}
	docURL := DocumentURL(p.URL)
	if docURL == "" {
		return ""
	}

	result, err := e.fetcher.Fetch(ctx, docURL)
	if err != nil {
		fmt.Fprintf(e.log, "  ⚠ %s: full text unavailable (%v), using abstract\n", p.ID, err)
		return ""
	}
	if ct := strings.ToLower(result.ContentType); ct != "" && !strings.Contains(ct, "html") {
		return ""
	}

	text, err := ExtractText(result.Body, e.opts.MaxFullTextChars)
	if err != nil || utf8.RuneCountInString(text) < minFullTextChars {
		return ""
	}
	return text
}

// Run analyzes papers in order. A failing paper is logged and skipped;
// persistence failures are logged and the record is still returned.
// Cancellation stops the loop between papers and is returned with the
// records finished so far.
func (e *Engine) Run(ctx context.Context, papers []model.Paper) ([]model.AnalysisRecord, error) {
	records := make([]model.AnalysisRecord, 0, len(papers))

	for i, p := range papers {
		if err := ctx.Err(); err != nil {
			return records, err
		}

		rec, err := e.AnalyzePaper(ctx, p)
		if err != nil {
			if ctx.Err() != nil {
				return records, ctx.Err()
			}
			fmt.Fprintf(e.log, "  ✗ %s: analysis failed: %v\n", p.ID, err)
			e.notify(i+1, len(papers), p, nil, err)
			continue
		}

		e.persist(ctx, *rec)
		records = append(records, *rec)
		fmt.Fprintf(e.log, "  ✓ %s analyzed (%s)\n", p.ID, rec.ParseMode)
		e.notify(i+1, len(papers), p, rec, nil)
	}

	return records, nil
}

func (e *Engine) persist(ctx context.Context, rec model.AnalysisRecord) {
	if e.sink != nil {
		if _, err := e.sink.SaveAnalysis(rec); err != nil {
			fmt.Fprintf(e.log, "  ✗ %s: save analysis: %v\n", rec.PaperID, err)
		}
		if err := e.sink.UpsertSummary(rec); err != nil {
			fmt.Fprintf(e.log, "  ✗ %s: update daily summary: %v\n", rec.PaperID, err)
		}
	}
	if e.recorder != nil {
		if err := e.recorder.Record(ctx, rec); err != nil {
			fmt.Fprintf(e.log, "  ✗ %s: record history: %v\n", rec.PaperID, err)
		}
	}
}

func (e *Engine) notify(done, total int, p model.Paper, rec *model.AnalysisRecord, err error) {
	if e.progress != nil {
		e.progress(done, total, p, rec, err)
	}
}
