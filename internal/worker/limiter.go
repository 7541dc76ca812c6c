package worker

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter paces fetches per host so listing, feed and document requests stay polite
type Limiter struct {
	mu           sync.RWMutex
	hosts        map[string]*rate.Limiter
	defaultRate  rate.Limit
	defaultBurst int
}

// NewLimiter creates a limiter granting each host requestsPerSecond with the given burst
func NewLimiter(requestsPerSecond float64, burst int) *Limiter {
	if burst <= 0 {
		burst = 5
	}
	return &Limiter{
		hosts:        make(map[string]*rate.Limiter),
		defaultRate:  rate.Limit(requestsPerSecond),
		defaultBurst: burst,
	}
}

// Wait blocks until rawURL's host may be requested again
func (l *Limiter) Wait(ctx context.Context, rawURL string) error {
	host, err := hostOf(rawURL)
	if err != nil {
		return err
	}
	return l.forHost(host).Wait(ctx)
}

// Allow reports whether rawURL's host may be requested right now, consuming a token if so
func (l *Limiter) Allow(rawURL string) bool {
	host, err := hostOf(rawURL)
	if err != nil {
		return false
	}
	return l.forHost(host).Allow()
}

// ApplyCrawlDelay slows a host down to one request per crawl-delay when that is
// stricter than its current rate
func (l *Limiter) ApplyCrawlDelay(rawURL string, crawlDelay time.Duration) {
	if crawlDelay <= 0 {
		return
	}
	host, err := hostOf(rawURL)
	if err != nil {
		return
	}
	want := rate.Every(crawlDelay)

	l.mu.Lock()
	defer l.mu.Unlock()
	if current, ok := l.hosts[host]; ok && current.Limit() <= want {
		return
	}
	l.hosts[host] = rate.NewLimiter(want, 1)
}

func (l *Limiter) forHost(host string) *rate.Limiter {
	l.mu.RLock()
	lim, ok := l.hosts[host]
	l.mu.RUnlock()
	if ok {
		return lim
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if lim, ok := l.hosts[host]; ok {
		return lim
	}
	lim = rate.NewLimiter(l.defaultRate, l.defaultBurst)
	l.hosts[host] = lim
	return lim
}

// hostOf returns the lower-cased host of rawURL, port included
func hostOf(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	if u.Host == "" {
		return "", fmt.Errorf("no host in %q", rawURL)
	}
	return strings.ToLower(u.Host), nil
}
