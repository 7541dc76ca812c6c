package worker

import (
	"context"
	"testing"
	"time"
)

func TestLimiter_DefaultBurst(t *testing.T) {
	if l := NewLimiter(10, -1); l.defaultBurst != 5 {
		t.Errorf("expected default burst 5 for negative input, got %d", l.defaultBurst)
	}
}

func TestLimiter_Wait(t *testing.T) {
	limiter := NewLimiter(100, 1)
	ctx := context.Background()

	if err := limiter.Wait(ctx, "https://arxiv.org/list/cs/new"); err != nil {
		t.Errorf("wait failed: %v", err)
	}
	if err := limiter.Wait(ctx, "https://rss.arxiv.org/rss/cs"); err != nil {
		t.Errorf("wait failed: %v", err)
	}
	if err := limiter.Wait(ctx, "/relative/path"); err == nil {
		t.Error("expected error for a URL without host")
	}
}

func TestLimiter_PerHost(t *testing.T) {
	limiter := NewLimiter(1, 1)

	if !limiter.Allow("https://arxiv.org/a") {
		t.Fatal("first request should pass")
	}
	if limiter.Allow("https://ARXIV.org/b") {
		t.Error("same host in another case should share the budget")
	}
	if !limiter.Allow("https://export.arxiv.org/a") {
		t.Error("another host should have its own budget")
	}
}

func TestLimiter_WaitCancelled(t *testing.T) {
	limiter := NewLimiter(0.001, 1)
	url := "https://arxiv.org/html/2501.00001"
	if err := limiter.Wait(context.Background(), url); err != nil {
		t.Fatalf("first wait failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := limiter.Wait(ctx, url); err == nil {
		t.Error("expected the second wait to give up with the context")
	}
}

func TestHostOf(t *testing.T) {
	host, err := hostOf("https://Arxiv.org:8443/list/cs.AI/new")
	if err != nil {
		t.Fatalf("hostOf failed: %v", err)
	}
	if host != "arxiv.org:8443" {
		t.Errorf("expected arxiv.org:8443, got %s", host)
	}

	if _, err := hostOf("::invalid"); err == nil {
		t.Error("expected error for invalid URL")
	}
}

func TestLimiter_ApplyCrawlDelay(t *testing.T) {
	limiter := NewLimiter(10, 1)
	url := "https://arxiv.org/list/cs/new"

	limiter.ApplyCrawlDelay(url, 15*time.Second)

	if !limiter.Allow(url) {
		t.Fatalf("first request should pass")
	}
	if limiter.Allow(url) {
		t.Errorf("crawl delay should block the second request")
	}

	// A looser crawl delay never speeds a host up
	limiter.ApplyCrawlDelay(url, time.Millisecond)
	if limiter.Allow(url) {
		t.Errorf("looser crawl delay must not replace a stricter rate")
	}
}
