package worker

import (
	"context"
	"sync"
	"time"
)

// sleepFunc is replaced in tests to avoid real delays
var sleepFunc = Sleep

// Sleep blocks for d or until ctx is done
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Pacer inserts a fixed delay between consecutive calls.
// The first call passes immediately.
type Pacer struct {
	delay time.Duration
	mu    sync.Mutex
	used  bool
}

// NewPacer creates a pacer with the given inter-call delay
func NewPacer(delay time.Duration) *Pacer {
	return &Pacer{delay: delay}
}

// Wait blocks until the next call may start
func (p *Pacer) Wait(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.used {
		p.used = true
		return ctx.Err()
	}
	return sleepFunc(ctx, p.delay)
}
