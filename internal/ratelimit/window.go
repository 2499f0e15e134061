// Package ratelimit enforces a shared request-rate ceiling across every
// worker in the process. One sliding window of request timestamps is the
// single source of truth; it is snapshotted after every acquire so the
// ceiling survives restarts.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/davidbz/foresight/internal/observability"
)

// Store persists the window state between process runs.
type Store interface {
	// Load returns the previously saved timestamps, oldest first.
	Load() ([]time.Time, error)

	// Save replaces the saved timestamps.
	Save(stamps []time.Time) error
}

// SlidingWindow allows at most Limit requests within any trailing Window.
type SlidingWindow struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	expiry time.Duration
	store  Store
	clock  func() time.Time
	stamps []time.Time
}

// Option tunes a SlidingWindow.
type Option func(*SlidingWindow)

// WithClock overrides the time source.
func WithClock(clock func() time.Time) Option {
	return func(w *SlidingWindow) {
		w.clock = clock
	}
}

// NewSlidingWindow constructs the limiter and restores persisted state.
// A nil store disables persistence. Load failures are non-fatal: the window
// starts empty and cross-restart enforcement is degraded until I/O recovers.
func NewSlidingWindow(limit int, window, expiry time.Duration, store Store, opts ...Option) *SlidingWindow {
	if limit <= 0 {
		limit = 1
	}

	w := &SlidingWindow{
		limit:  limit,
		window: window,
		expiry: expiry,
		store:  store,
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}

	if store != nil {
		stamps, err := store.Load()
		if err != nil {
			observability.FromContext(context.Background()).Warn(
				"rate window state unavailable, starting empty",
				zap.Error(err),
			)
		} else {
			w.stamps = stamps
		}
	}

	return w
}

// Acquire blocks until issuing a request now stays within the limit, then
// records the request and snapshots the window. The whole check-sleep-append
// sequence runs under one lock: the window is shared quota state, and a
// partial update would let the effective limit be exceeded.
func (w *SlidingWindow) Acquire(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	for {
		now := w.clock()
		w.prune(now)

		if len(w.stamps) < w.limit {
			break
		}

		sleep := w.window - now.Sub(w.stamps[0])
		if sleep <= 0 {
			continue
		}
		if err := sleepCtx(ctx, sleep); err != nil {
			return err
		}
	}

	w.stamps = append(w.stamps, w.clock())
	w.persist()
	return nil
}

// prune drops timestamps outside the trailing window. A saved window whose
// newest entry predates now by more than the expiry is stale state from an
// old run, not trustworthy quota, and is discarded wholesale.
func (w *SlidingWindow) prune(now time.Time) {
	if len(w.stamps) > 0 && now.Sub(w.stamps[len(w.stamps)-1]) > w.expiry {
		w.stamps = w.stamps[:0]
		return
	}

	cutoff := now.Add(-w.window)
	kept := w.stamps[:0]
	for _, s := range w.stamps {
		if s.After(cutoff) {
			kept = append(kept, s)
		}
	}
	w.stamps = kept
}

func (w *SlidingWindow) persist() {
	if w.store == nil {
		return
	}
	if err := w.store.Save(w.stamps); err != nil {
		observability.FromContext(context.Background()).Warn(
			"failed to persist rate window, in-memory limit still applies",
			zap.Error(err),
		)
	}
}

// sleepCtx sleeps for d, returning early if ctx is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
