// Package runner executes per-item work over a bounded worker pool. Every
// worker passes through the shared rate limiter before invoking its work
// function, which throttles aggregate throughput without serializing the
// calls themselves.
package runner

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/davidbz/foresight/internal/domain"
	"github.com/davidbz/foresight/internal/observability"
)

// Run processes every item with at most maxWorkers concurrent executions and
// returns the non-failed results in completion order. A failing item is
// logged with its identity and dropped; it never aborts or blocks the other
// items. The call returns only after every item has completed or failed.
// A nil limiter disables throttling.
func Run[I, R any](
	ctx context.Context,
	items []I,
	maxWorkers int,
	limiter domain.Limiter,
	fn func(ctx context.Context, item I) (R, error),
) []R {
	if len(items) == 0 {
		return nil
	}
	if maxWorkers <= 0 {
		maxWorkers = 1
	}

	logger := observability.FromContext(ctx)
	sem := make(chan struct{}, maxWorkers)
	results := make(chan R, len(items))

	var wg sync.WaitGroup
	for i, item := range items {
		wg.Add(1)
		go func(idx int, it I) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			if limiter != nil {
				if err := limiter.Acquire(ctx); err != nil {
					logger.Warn("rate limiter wait aborted, dropping item",
						zap.Int("item_index", idx),
						zap.Any("item", it),
						zap.Error(err),
					)
					return
				}
			}

			r, err := fn(ctx, it)
			if err != nil {
				logger.Warn("work item failed, dropping it",
					zap.Int("item_index", idx),
					zap.Any("item", it),
					zap.Error(err),
				)
				return
			}
			results <- r
		}(i, item)
	}

	wg.Wait()
	close(results)

	out := make([]R, 0, len(items))
	for r := range results {
		out = append(out, r)
	}
	return out
}
