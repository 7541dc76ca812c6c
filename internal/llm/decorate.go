package llm

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/ppiankov/paperdigest/internal/cache"
	"github.com/ppiankov/paperdigest/internal/usage"
	"github.com/ppiankov/paperdigest/internal/worker"
)

// CachedBackend answers repeated identical requests from a cache.
// Only non-empty replies are stored.
type CachedBackend struct {
	Backend
	cache cache.Cache
	ttl   time.Duration
}

// NewCachedBackend wraps b with a response cache
func NewCachedBackend(b Backend, c cache.Cache, ttl time.Duration) *CachedBackend {
	return &CachedBackend{Backend: b, cache: c, ttl: ttl}
}

// Complete serves a cached reply or forwards to the wrapped backend
func (b *CachedBackend) Complete(ctx context.Context, req Request) (*Response, error) {
	key := requestKey(b.Backend, req)

	if data, ok := b.cache.Get(key); ok {
		var resp Response
		if err := json.Unmarshal(data, &resp); err == nil && resp.Text != "" {
			resp.Cached = true
			return &resp, nil
		}
	}

	resp, err := b.Backend.Complete(ctx, req)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(resp.Text) != "" {
		if data, err := json.Marshal(resp); err == nil {
			_ = b.cache.Set(key, data, b.ttl)
		}
	}
	return resp, nil
}

// requestKey hashes everything that changes the reply
func requestKey(b Backend, req Request) string {
	parts := []string{b.Name(), b.Model(), strconv.Itoa(req.MaxTokens)}
	if req.Temperature != nil && b.Capabilities().Temperature {
		parts = append(parts, strconv.FormatFloat(*req.Temperature, 'f', -1, 64))
	} else {
		parts = append(parts, "")
	}
	for _, m := range req.Messages {
		parts = append(parts, string(m.Role), m.Content)
	}
	return cache.Key("llm", parts...)
}

// MeteredBackend records every successful call in a usage ledger
type MeteredBackend struct {
	Backend
	ledger *usage.Ledger
}

// NewMeteredBackend wraps b so its token usage lands in ledger
func NewMeteredBackend(b Backend, ledger *usage.Ledger) *MeteredBackend {
	return &MeteredBackend{Backend: b, ledger: ledger}
}

// Complete forwards the call and adds its usage, tagged with the model that answered
func (b *MeteredBackend) Complete(ctx context.Context, req Request) (*Response, error) {
	resp, err := b.Backend.Complete(ctx, req)
	if err != nil {
		return nil, err
	}

	modelName := resp.Model
	if modelName == "" {
		modelName = b.Model()
	}
	in, out := 0, 0
	if resp.Usage != nil {
		in, out = resp.Usage.InputTokens, resp.Usage.OutputTokens
	}
	b.ledger.AddUsage(in, out, modelName)
	return resp, nil
}

// PacedBackend enforces a fixed delay between consecutive calls
type PacedBackend struct {
	Backend
	pacer *worker.Pacer
}

// NewPacedBackend wraps b with pacer
func NewPacedBackend(b Backend, pacer *worker.Pacer) *PacedBackend {
	return &PacedBackend{Backend: b, pacer: pacer}
}

// Complete waits for the pacer before forwarding
func (b *PacedBackend) Complete(ctx context.Context, req Request) (*Response, error) {
	if err := b.pacer.Wait(ctx); err != nil {
		return nil, err
	}
	return b.Backend.Complete(ctx, req)
}

// Wrap composes the standard decorators: cache hits skip pacing and metering.
// A nil cache disables caching.
func Wrap(b Backend, c cache.Cache, ttl time.Duration, ledger *usage.Ledger, pacer *worker.Pacer) Backend {
	if pacer != nil {
		b = NewPacedBackend(b, pacer)
	}
	if ledger != nil {
		b = NewMeteredBackend(b, ledger)
	}
	if c != nil {
		b = NewCachedBackend(b, c, ttl)
	}
	return b
}
