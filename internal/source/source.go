// Package source gathers candidate papers from the arXiv listing page or RSS feed.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/ppiankov/paperdigest/internal/model"
)

// ErrSourceUnavailable marks a source that could not produce any papers
var ErrSourceUnavailable = errors.New("source unavailable")

// Source produces the day's candidate papers
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]model.Paper, error)
}

// nowFunc stamps crawl times; tests pin it
var nowFunc = time.Now

// New builds the sources named by cfg.Kind: listing, rss or both
func New(cfg model.SourceConfig, fetcher *Fetcher) ([]Source, error) {
	switch strings.ToLower(cfg.Kind) {
	case "", "listing":
		return []Source{NewListingSource(cfg.ListingURL, cfg.Category, fetcher)}, nil
	case "rss":
		return []Source{NewRSSSource(cfg.FeedURL, cfg.Category, fetcher)}, nil
	case "both":
		return []Source{
			NewListingSource(cfg.ListingURL, cfg.Category, fetcher),
			NewRSSSource(cfg.FeedURL, cfg.Category, fetcher),
		}, nil
	default:
		return nil, fmt.Errorf("unknown source kind: %s (supported: listing, rss, both)", cfg.Kind)
	}
}

// Gather fetches every source in order and merges the results, dropping invalid
// and repeated papers. A failing source is logged and skipped; the error wraps
// ErrSourceUnavailable only when every source failed.
func Gather(ctx context.Context, log io.Writer, sources ...Source) ([]model.Paper, error) {
	var (
		all    []model.Paper
		failed int
		last   error
	)

	for _, src := range sources {
		papers, err := src.Fetch(ctx)
		if err != nil {
			failed++
			last = err
			fmt.Fprintf(log, "✗ Source %s: %v\n", src.Name(), err)
			continue
		}
		fmt.Fprintf(log, "✓ Source %s: %d papers\n", src.Name(), len(papers))
		all = append(all, papers...)
	}

	if len(sources) > 0 && failed == len(sources) {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, last)
	}
	return model.DedupePapers(all), nil
}
