// Package httputil provides HTTP helpers shared by the fetchers.
package httputil

import (
	"context"
	"io"
	"math"
	"net/http"
	"strconv"
	"time"
)

// RetryBaseDelay is the first backoff step; tests shorten it
var RetryBaseDelay = 5 * time.Second

const defaultMaxRetries = 3

// retryable reports whether a status is worth retrying
func retryable(code int) bool {
	return code == http.StatusTooManyRequests || code == http.StatusServiceUnavailable || code == http.StatusBadGateway
}

// DoWithRetry executes req and retries 429/502/503 responses with exponential backoff
// (base, 2*base, 4*base...). A Retry-After header in seconds overrides the step
// when it is longer. After maxRetries the last response is returned as-is.
func DoWithRetry(ctx context.Context, client *http.Client, req *http.Request, maxRetries int) (*http.Response, error) {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	for attempt := 0; ; attempt++ {
		resp, err := client.Do(req.Clone(ctx))
		if err != nil {
			return nil, err
		}

		if !retryable(resp.StatusCode) || attempt >= maxRetries {
			return resp, nil
		}

		backoff := time.Duration(math.Pow(2, float64(attempt))) * RetryBaseDelay
		if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil {
			if ra := time.Duration(secs) * time.Second; ra > backoff {
				backoff = ra
			}
		}

		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}
