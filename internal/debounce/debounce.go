// Package debounce delays work until a key has been quiet for a while.
package debounce

import (
	"context"
	"errors"
	"sync"
	"time"
)

const DefaultDelay = 300 * time.Millisecond

// ErrSuperseded is returned to a waiter whose key was triggered again
// before its quiet period ended.
var ErrSuperseded = errors.New("debounce: superseded by a newer call")

type waiter struct {
	timer     *time.Timer
	fired     chan struct{}
	cancelled chan struct{}
}

// Debouncer coalesces bursts of calls per key: only the last call of a
// burst proceeds.
type Debouncer struct {
	delay   time.Duration
	mu      sync.Mutex
	pending map[string]*waiter
}

func New(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay, pending: make(map[string]*waiter)}
}

// Wait blocks until key has seen no newer Wait for the configured delay.
// It returns ErrSuperseded if a newer call for key arrived first, or the
// context error if ctx ends. A zero delay returns immediately.
func (d *Debouncer) Wait(ctx context.Context, key string) error {
	if d == nil || d.delay <= 0 {
		return ctx.Err()
	}

	w := &waiter{fired: make(chan struct{}), cancelled: make(chan struct{})}

	d.mu.Lock()
	if prev, ok := d.pending[key]; ok && prev.timer.Stop() {
		close(prev.cancelled)
	}
	d.pending[key] = w
	w.timer = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		if d.pending[key] == w {
			delete(d.pending, key)
		}
		d.mu.Unlock()
		close(w.fired)
	})
	d.mu.Unlock()

	select {
	case <-w.fired:
		return nil
	case <-w.cancelled:
		return ErrSuperseded
	case <-ctx.Done():
		d.mu.Lock()
		if w.timer.Stop() && d.pending[key] == w {
			delete(d.pending, key)
		}
		d.mu.Unlock()
		return ctx.Err()
	}
}

// Pending reports how many keys are waiting.
func (d *Debouncer) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}
