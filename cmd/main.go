package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/dig"

	"github.com/davidbz/foresight/internal/cache"
	"github.com/davidbz/foresight/internal/client"
	"github.com/davidbz/foresight/internal/config"
	"github.com/davidbz/foresight/internal/domain"
	"github.com/davidbz/foresight/internal/http"
	"github.com/davidbz/foresight/internal/http/middleware"
	"github.com/davidbz/foresight/internal/ledger"
	"github.com/davidbz/foresight/internal/observability"
	"github.com/davidbz/foresight/internal/provider/echo"
	"github.com/davidbz/foresight/internal/provider/openai"
	"github.com/davidbz/foresight/internal/provider/registry"
	"github.com/davidbz/foresight/internal/ratelimit"
)

// ErrProviderNotConfigured indicates that a provider is not configured and should be skipped.
var ErrProviderNotConfigured = errors.New("provider not configured")

func main() {
	container := buildContainer()

	err := container.Invoke(func(server *http.Server) {
		if err := server.Start(); err != nil {
			log.Fatalf("Server failed to start: %v", err)
		}
	})
	if err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}
}

func buildContainer() *dig.Container {
	container := dig.New()

	// Configuration
	if err := container.Provide(config.Load); err != nil {
		log.Fatalf("Failed to provide config: %v", err)
	}
	if err := container.Provide(config.ParseDependenciesConfig); err != nil {
		log.Fatalf("Failed to provide config dependencies: %v", err)
	}

	// Observability
	if err := container.Provide(observability.InitLogger); err != nil {
		log.Fatalf("Failed to provide logger: %v", err)
	}

	// Provider Registry
	if err := container.Provide(func() domain.ProviderRegistry {
		return registry.NewRegistry()
	}); err != nil {
		log.Fatalf("Failed to provide registry: %v", err)
	}

	// OpenAI Provider
	if err := container.Provide(func(cfg *config.Config) (*openai.Provider, error) {
		if cfg.OpenAI.APIKey == "" {
			return nil, ErrProviderNotConfigured
		}

		return openai.NewProvider(cfg.OpenAI)
	}); err != nil {
		log.Fatalf("Failed to provide OpenAI provider: %v", err)
	}

	// Register providers with registry (invoked for side effects).
	// Echo is always available for development and smoke tests.
	if err := container.Invoke(func(reg domain.ProviderRegistry) error {
		if err := reg.Register(context.Background(), echo.NewProvider()); err != nil {
			return fmt.Errorf("failed to register echo provider: %w", err)
		}
		return nil
	}); err != nil {
		log.Fatalf("Failed to register providers: %v", err)
	}

	// OpenAI registration is separate so a missing key skips only OpenAI.
	if err := container.Invoke(func(reg domain.ProviderRegistry, openaiProvider *openai.Provider) error {
		if err := reg.Register(context.Background(), openaiProvider); err != nil {
			return fmt.Errorf("failed to register OpenAI provider: %w", err)
		}
		return nil
	}); err != nil && !errors.Is(err, ErrProviderNotConfigured) {
		log.Fatalf("Failed to register OpenAI provider: %v", err)
	}

	// Rate limiter: one shared ceiling for the whole process.
	if err := container.Provide(func(cfg *config.RateLimitConfig) domain.Limiter {
		return ratelimit.NewSlidingWindow(
			cfg.Limit,
			time.Duration(cfg.WindowSec)*time.Second,
			time.Duration(cfg.ExpirySec)*time.Second,
			ratelimit.NewFileStore(cfg.StatePath),
		)
	}); err != nil {
		log.Fatalf("Failed to provide rate limiter: %v", err)
	}

	// Usage ledger: quota routing table is validated at startup.
	if err := container.Provide(func(cfg *config.LedgerConfig) (domain.UsageRecorder, error) {
		table, err := config.LoadQuotas(cfg.QuotasPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load quota table: %w", err)
		}

		return ledger.New(table,
			ledger.NewFileBalanceStore(cfg.BalancesPath),
			ledger.NewCSVAuditWriter(cfg.AuditPath),
		)
	}); err != nil {
		log.Fatalf("Failed to provide usage ledger: %v", err)
	}

	// Completion cache: disabled unless Redis is configured.
	if err := container.Provide(func(cfg *config.CacheConfig) domain.CompletionCache {
		if cfg.RedisAddr == "" {
			return nil
		}

		return cache.NewCompletionCache(redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}))
	}); err != nil {
		log.Fatalf("Failed to provide completion cache: %v", err)
	}

	// Completion client
	if err := container.Provide(func(
		reg domain.ProviderRegistry,
		recorder domain.UsageRecorder,
		completionCache domain.CompletionCache,
		cacheCfg *config.CacheConfig,
	) *client.Client {
		return client.New(reg, recorder, completionCache,
			time.Duration(cacheCfg.TTLSec)*time.Second)
	}); err != nil {
		log.Fatalf("Failed to provide completion client: %v", err)
	}

	// HTTP Layer
	if err := container.Provide(func(corsCfg *config.CORSConfig) middleware.Middleware {
		return middleware.BuildMiddlewareChain(corsCfg)
	}); err != nil {
		log.Fatalf("Failed to provide middleware: %v", err)
	}
	if err := container.Provide(http.NewHandler); err != nil {
		log.Fatalf("Failed to provide HTTP handler: %v", err)
	}
	if err := container.Provide(http.NewServer); err != nil {
		log.Fatalf("Failed to provide HTTP server: %v", err)
	}

	return container
}
