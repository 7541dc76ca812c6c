package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/ppiankov/paperdigest/internal/httputil"
	"github.com/ppiankov/paperdigest/internal/model"
	"github.com/ppiankov/paperdigest/internal/util"
	"github.com/ppiankov/paperdigest/internal/worker"
)

// ErrDisallowed is returned when robots.txt forbids a URL
var ErrDisallowed = errors.New("disallowed by robots.txt")

// Fetcher retrieves pages politely: robots.txt, per-host rate limits and retries
type Fetcher struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
	maxRetries int
	limiter    *worker.Limiter
	robots     *util.RobotsChecker
}

// NewFetcher creates a Fetcher from the HTTP settings
func NewFetcher(cfg model.HTTPConfig) *Fetcher {
	client := util.NewHTTPClient(cfg.Timeout(), cfg.HTTPProxy, cfg.HTTPSProxy)

	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 1
	}

	f := &Fetcher{
		httpClient: client,
		userAgent:  cfg.UserAgent,
		maxBytes:   cfg.MaxBytes,
		maxRetries: cfg.MaxRetries,
		limiter:    worker.NewLimiter(rps, cfg.Burst),
	}
	if f.maxBytes <= 0 {
		f.maxBytes = 10 * 1024 * 1024
	}
	if cfg.RespectRobots {
		f.robots = util.NewRobotsChecker(client, cfg.UserAgent)
	}
	return f
}

// FetchResult contains a fetched body and its metadata
type FetchResult struct {
	Body        []byte
	StatusCode  int
	ContentType string
	FinalURL    string
}

// Fetch retrieves rawURL. Non-2xx statuses are errors.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*FetchResult, error) {
	if f.robots != nil {
		allowed, crawlDelay, err := f.robots.CanFetch(ctx, rawURL)
		if err != nil {
			return nil, fmt.Errorf("robots check: %w", err)
		}
		if !allowed {
			return nil, fmt.Errorf("%s: %w", rawURL, ErrDisallowed)
		}
		f.limiter.ApplyCrawlDelay(rawURL, crawlDelay)
	}

	if err := f.limiter.Wait(ctx, rawURL); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/rss+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := httputil.DoWithRetry(ctx, f.httpClient, req, f.maxRetries)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status: %d %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	return &FetchResult{
		Body:        body,
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		FinalURL:    resp.Request.URL.String(),
	}, nil
}
