package pipeline

import (
	"context"
	"fmt"
	"io"

	"github.com/ppiankov/paperdigest/internal/analyze"
	"github.com/ppiankov/paperdigest/internal/cache"
	"github.com/ppiankov/paperdigest/internal/classify"
	"github.com/ppiankov/paperdigest/internal/llm"
	"github.com/ppiankov/paperdigest/internal/model"
	"github.com/ppiankov/paperdigest/internal/source"
	"github.com/ppiankov/paperdigest/internal/store"
	"github.com/ppiankov/paperdigest/internal/usage"
	"github.com/ppiankov/paperdigest/internal/worker"
)

// BuildOptions adjust a run built from configuration
type BuildOptions struct {
	Date    string // YYMMDD, empty for today
	NoCache bool
	Analyze bool // construct the analysis engine
}

// Build wires a pipeline from configuration. The returned cleanup closes the
// history database and any backend holding connections.
func Build(ctx context.Context, cfg model.Config, opts BuildOptions, log io.Writer) (*Pipeline, func(), error) {
	if log == nil {
		log = io.Discard
	}
	var closers []io.Closer
	cleanup := func() {
		for _, c := range closers {
			_ = c.Close()
		}
	}

	st, err := store.New(cfg.Storage.BaseDir, opts.Date)
	if err != nil {
		return nil, cleanup, err
	}

	fetcher := source.NewFetcher(cfg.HTTP)
	sources, err := source.New(cfg.Source, fetcher)
	if err != nil {
		return nil, cleanup, err
	}

	ledger := usage.NewLedger()
	pacer := worker.NewPacer(cfg.LLM.RequestDelay())
	var respCache cache.Cache
	if cfg.Cache.Enabled && !opts.NoCache {
		respCache = cache.New(cfg.Cache)
	}

	newBackend := func(provider string) (llm.Backend, float64, error) {
		bc, err := llm.ConfigFromModel(provider, cfg)
		if err != nil {
			return nil, 0, err
		}
		raw, err := llm.NewBackend(ctx, bc)
		if err != nil {
			return nil, 0, err
		}
		if c, ok := raw.(io.Closer); ok {
			closers = append(closers, c)
		}
		_, pc, _ := cfg.LLM.Resolve(provider)
		return llm.Wrap(raw, respCache, cfg.Cache.TTL(), ledger, pacer), pc.Temperature, nil
	}

	var classifierBackend llm.Backend
	var classifierTemp float64
	if cfg.Classifier.Strategy != string(model.StrategyLexical) {
		classifierBackend, classifierTemp, err = newBackend(cfg.Classifier.Provider)
		if err != nil {
			return nil, cleanup, fmt.Errorf("classifier backend: %w", err)
		}
	}

	classifier, err := classify.New(cfg.Classifier, classifierBackend, classifierTemp, log)
	if err != nil {
		return nil, cleanup, err
	}

	deps := Deps{
		Sources:    sources,
		Classifier: classifier,
		Store:      st,
		Ledger:     ledger,
	}

	if cfg.Storage.HistoryDB != "" {
		history, err := store.OpenHistory(cfg.Storage.HistoryDB)
		if err != nil {
			fmt.Fprintf(log, "⚠ History disabled: %v\n", err)
		} else {
			deps.History = history
			closers = append(closers, history)
		}
	}

	if opts.Analyze {
		backend, temp, err := newBackend("")
		if err != nil {
			return nil, cleanup, fmt.Errorf("analysis backend: %w", err)
		}
		_, pc, _ := cfg.LLM.Resolve("")

		engine := analyze.NewEngine(backend, fetcher, st, analyze.Options{
			Language:         cfg.Analysis.Language,
			FetchFullText:    cfg.Analysis.FetchFullText,
			MaxFullTextChars: cfg.Analysis.MaxFullTextChars,
			Temperature:      temp,
			MaxTokens:        pc.MaxTokens,
		}, log)
		if deps.History != nil {
			engine.WithRecorder(deps.History.ForRun(st.Date()))
		}
		deps.Engine = engine
	}

	return New(cfg, deps, log), cleanup, nil
}

// Store returns the run's store
func (p *Pipeline) Store() *store.Store {
	return p.deps.Store
}

// Engine returns the analysis engine, nil when the pipeline was built without one
func (p *Pipeline) Engine() *analyze.Engine {
	return p.deps.Engine
}

// Ledger returns the run's usage ledger
func (p *Pipeline) Ledger() *usage.Ledger {
	return p.deps.Ledger
}
