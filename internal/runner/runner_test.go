package runner_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/foresight/internal/runner"
)

type countingLimiter struct {
	mu       sync.Mutex
	acquires int
	err      error
}

func (l *countingLimiter) Acquire(context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.acquires++
	return l.err
}

func TestRun(t *testing.T) {
	ctx := context.Background()

	t.Run("should process every item", func(t *testing.T) {
		items := []int{1, 2, 3, 4, 5}

		results := runner.Run(ctx, items, 3, nil,
			func(_ context.Context, n int) (int, error) {
				return n * 10, nil
			})

		require.ElementsMatch(t, []int{10, 20, 30, 40, 50}, results)
	})

	t.Run("should drop failing items without aborting the rest", func(t *testing.T) {
		items := []int{1, 2, 3, 4, 5}

		results := runner.Run(ctx, items, 3, nil,
			func(_ context.Context, n int) (int, error) {
				if n == 3 {
					return 0, errors.New("item blew up")
				}
				return n, nil
			})

		require.ElementsMatch(t, []int{1, 2, 4, 5}, results)
	})

	t.Run("should attempt each item exactly once", func(t *testing.T) {
		var attempts int32

		runner.Run(ctx, []int{1, 2, 3, 4}, 2, nil,
			func(_ context.Context, n int) (int, error) {
				atomic.AddInt32(&attempts, 1)
				return 0, errors.New("always fails")
			})

		require.Equal(t, int32(4), atomic.LoadInt32(&attempts))
	})

	t.Run("should bound concurrency to max workers", func(t *testing.T) {
		const maxWorkers = 2
		var current, peak int32

		runner.Run(ctx, make([]int, 10), maxWorkers, nil,
			func(_ context.Context, _ int) (int, error) {
				n := atomic.AddInt32(&current, 1)
				for {
					p := atomic.LoadInt32(&peak)
					if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
						break
					}
				}
				time.Sleep(10 * time.Millisecond)
				atomic.AddInt32(&current, -1)
				return 0, nil
			})

		require.LessOrEqual(t, atomic.LoadInt32(&peak), int32(maxWorkers))
	})

	t.Run("should acquire the limiter once per item", func(t *testing.T) {
		limiter := &countingLimiter{}

		runner.Run(ctx, []int{1, 2, 3}, 2, limiter,
			func(_ context.Context, n int) (int, error) {
				return n, nil
			})

		require.Equal(t, 3, limiter.acquires)
	})

	t.Run("should drop items when the limiter wait is aborted", func(t *testing.T) {
		limiter := &countingLimiter{err: context.Canceled}
		var invoked int32

		results := runner.Run(ctx, []int{1, 2, 3}, 2, limiter,
			func(_ context.Context, n int) (int, error) {
				atomic.AddInt32(&invoked, 1)
				return n, nil
			})

		require.Empty(t, results)
		require.Zero(t, atomic.LoadInt32(&invoked))
	})

	t.Run("should return nothing for an empty item list", func(t *testing.T) {
		results := runner.Run(ctx, nil, 4, nil,
			func(_ context.Context, n int) (int, error) {
				return n, nil
			})

		require.Nil(t, results)
	})

	t.Run("should treat a non-positive worker count as one", func(t *testing.T) {
		results := runner.Run(ctx, []int{1, 2}, 0, nil,
			func(_ context.Context, n int) (int, error) {
				return n, nil
			})

		require.ElementsMatch(t, []int{1, 2}, results)
	})
}
