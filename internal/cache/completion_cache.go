// Package cache provides a completion cache backed by Redis. Responses are
// keyed by a digest of the exact request, so only byte-identical requests
// hit.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/davidbz/foresight/internal/domain"
)

const keyPrefix = "foresight:completion:"

// CompletionCache implements domain.CompletionCache on Redis.
type CompletionCache struct {
	client *redis.Client
}

// NewCompletionCache creates a cache using the given Redis client.
func NewCompletionCache(client *redis.Client) *CompletionCache {
	return &CompletionCache{client: client}
}

// Get retrieves a cached response for an identical request.
func (c *CompletionCache) Get(ctx context.Context, req *domain.CompletionRequest) (*domain.CompletionResponse, error) {
	if req == nil {
		return nil, errors.New("request cannot be nil")
	}

	key, err := cacheKey(req)
	if err != nil {
		return nil, err
	}

	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("cache get: %w", err)
	}

	var resp domain.CompletionResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("decode cached response: %w", err)
	}
	return &resp, nil
}

// Set stores a response for the request.
func (c *CompletionCache) Set(ctx context.Context, req *domain.CompletionRequest, resp *domain.CompletionResponse, ttl time.Duration) error {
	if req == nil || resp == nil {
		return errors.New("request and response cannot be nil")
	}

	key, err := cacheKey(req)
	if err != nil {
		return err
	}

	data, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("encode response: %w", err)
	}

	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// cacheKey digests the canonical JSON form of the request.
func cacheKey(req *domain.CompletionRequest) (string, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("encode request for cache key: %w", err)
	}
	sum := sha256.Sum256(data)
	return keyPrefix + hex.EncodeToString(sum[:]), nil
}

var _ domain.CompletionCache = (*CompletionCache)(nil)
