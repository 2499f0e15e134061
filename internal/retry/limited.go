package retry

import (
	"context"

	"github.com/davidbz/foresight/internal/domain"
)

type limitedCompleter struct {
	limiter domain.Limiter
	next    Completer
}

// Limited wraps a completer so every call, repair calls included, passes
// through the shared rate limiter first. A nil limiter returns the completer
// unchanged.
func Limited(limiter domain.Limiter, next Completer) Completer {
	if limiter == nil {
		return next
	}
	return &limitedCompleter{limiter: limiter, next: next}
}

func (l *limitedCompleter) Complete(ctx context.Context, req *domain.CompletionRequest) (string, error) {
	if err := l.limiter.Acquire(ctx); err != nil {
		return "", err
	}
	return l.next.Complete(ctx, req)
}
