package domain

import (
	"context"
	"time"
)

// Provider represents any completion backend.
type Provider interface {
	// Complete sends a completion request and returns the full response.
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)

	// Name returns the provider identifier.
	Name() string

	// IsModelSupported checks if the provider supports the given model.
	IsModelSupported(ctx context.Context, model string) bool

	// SupportedModels returns the models this provider serves.
	SupportedModels(ctx context.Context) []string
}

// ProviderRegistry manages available providers.
type ProviderRegistry interface {
	// Register adds a provider to the registry.
	Register(ctx context.Context, provider Provider) error

	// Get retrieves a provider by name.
	Get(ctx context.Context, providerName string) (Provider, error)

	// GetByModel retrieves the provider that serves the given model.
	GetByModel(ctx context.Context, model string) (Provider, error)

	// List returns all available providers.
	List(ctx context.Context) ([]string, error)
}

// Limiter gates outbound calls against a shared request-rate ceiling.
type Limiter interface {
	// Acquire blocks until issuing a request now stays within the limit,
	// then records the request. Returns early only on ctx cancellation.
	Acquire(ctx context.Context) error
}

// UsageRecorder accounts token consumption after each call attempt.
type UsageRecorder interface {
	// Record debits the quota mapped to model and appends an audit entry.
	// tracked is false when the model maps to no configured quota key;
	// usage is still audited in that case.
	Record(ctx context.Context, model, provider string, inputTokens, outputTokens int) (remaining int64, tracked bool)
}

// CompletionCache stores completion responses keyed by the exact request.
type CompletionCache interface {
	// Get retrieves a cached response. Returns ErrCacheMiss when absent.
	Get(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)

	// Set stores a response for the request.
	Set(ctx context.Context, req *CompletionRequest, resp *CompletionResponse, ttl time.Duration) error
}

// EventPublisher publishes events for observability.
type EventPublisher interface {
	// Publish publishes an event with the given type and data.
	Publish(ctx context.Context, eventType string, data map[string]interface{})
}

// PromptRenderer renders a named prompt template into chat messages.
// Template content is opaque to this system.
type PromptRenderer interface {
	Render(ctx context.Context, promptName string, vars map[string]any) ([]Message, error)
}

// CandidateSource retrieves candidate documents by keyword.
// The retrieval backend is opaque to this system; only identities,
// summaries and section texts are consumed.
type CandidateSource interface {
	// Search returns candidate IDs for a query.
	Search(ctx context.Context, query string, limit int) ([]string, error)

	// Summary returns the summary text for a candidate.
	Summary(ctx context.Context, candidateID string) (string, error)

	// Sections returns the candidate's full text split into sections.
	Sections(ctx context.Context, candidateID string) ([]string, error)
}
