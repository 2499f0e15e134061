// Package client is the single entry point for completion calls. It routes a
// request to the backend provider serving its model, unwraps the provider
// envelope into plain text, and accounts usage for every attempt. Retry is
// the caller's responsibility, never this layer's.
package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/davidbz/foresight/internal/domain"
	"github.com/davidbz/foresight/internal/observability"
)

// Client dispatches completion requests.
type Client struct {
	registry domain.ProviderRegistry
	ledger   domain.UsageRecorder
	cache    domain.CompletionCache
	cacheTTL time.Duration
}

// New creates a client. cache may be nil to disable caching.
func New(registry domain.ProviderRegistry, ledger domain.UsageRecorder, cache domain.CompletionCache, cacheTTL time.Duration) *Client {
	return &Client{
		registry: registry,
		ledger:   ledger,
		cache:    cache,
		cacheTTL: cacheTTL,
	}
}

// Complete routes req by model and returns the response text. Exactly one
// ledger record is written per provider attempt, including failed attempts
// with zero token counts, so consumption stays auditable on error. Cache
// hits consume no quota and write no record.
func (c *Client) Complete(ctx context.Context, req *domain.CompletionRequest) (string, error) {
	if req == nil {
		return "", fmt.Errorf("request cannot be nil")
	}

	ctx = observability.WithModel(ctx, req.Model)
	logger := observability.FromContext(ctx)

	if c.cache != nil {
		cached, err := c.cache.Get(ctx, req)
		if err == nil {
			logger.Debug("completion served from cache")
			return cached.Content, nil
		}
		if !errors.Is(err, domain.ErrCacheMiss) {
			logger.Warn("cache lookup failed, continuing without cache", zap.Error(err))
		}
	}

	provider, err := c.registry.GetByModel(ctx, req.Model)
	if err != nil {
		return "", fmt.Errorf("provider routing failed: %w", err)
	}

	ctx = observability.WithProvider(ctx, provider.Name())

	resp, err := provider.Complete(ctx, req)
	if err != nil {
		// The attempt still happened; account it with zero tokens.
		c.ledger.Record(ctx, req.Model, provider.Name(), 0, 0)
		logger.Error("completion call failed",
			zap.String("model", req.Model),
			zap.String("provider", provider.Name()),
			zap.Error(err),
		)
		return "", fmt.Errorf("completion failed: %w", err)
	}

	remaining, tracked := c.ledger.Record(ctx, req.Model, provider.Name(),
		resp.Usage.PromptTokens, resp.Usage.CompletionTokens)

	logger.Debug("completion succeeded",
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
		zap.Int64("remaining_tokens", remaining),
		zap.Bool("quota_tracked", tracked),
	)

	if c.cache != nil {
		if err := c.cache.Set(ctx, req, resp, c.cacheTTL); err != nil {
			logger.Warn("failed to store completion in cache", zap.Error(err))
		}
	}

	return resp.Content, nil
}
