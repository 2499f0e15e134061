// Package registry implements the provider registry. Model-to-provider
// routing is a fixed table built at registration time from each provider's
// declared model set; there is no call-time model-name sniffing.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/davidbz/foresight/internal/domain"
)

// Registry implements the ProviderRegistry interface.
type Registry struct {
	mu              sync.RWMutex
	providers       map[string]domain.Provider
	modelToProvider map[string]string
}

// NewRegistry creates a new provider registry.
func NewRegistry() *Registry {
	return &Registry{
		providers:       make(map[string]domain.Provider),
		modelToProvider: make(map[string]string),
	}
}

// Register adds a provider to the registry and indexes its declared models.
// A model already claimed by another provider is a configuration error.
func (r *Registry) Register(ctx context.Context, provider domain.Provider) error {
	if provider == nil {
		return errors.New("provider cannot be nil")
	}

	name := provider.Name()
	if name == "" {
		return errors.New("provider name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.providers[name]; exists {
		return fmt.Errorf("provider %s already registered", name)
	}

	for _, model := range provider.SupportedModels(ctx) {
		if owner, claimed := r.modelToProvider[model]; claimed {
			return fmt.Errorf("model %s already served by provider %s", model, owner)
		}
	}

	r.providers[name] = provider
	for _, model := range provider.SupportedModels(ctx) {
		r.modelToProvider[model] = name
	}

	return nil
}

// Get retrieves a provider by name.
func (r *Registry) Get(_ context.Context, providerName string) (domain.Provider, error) {
	if providerName == "" {
		return nil, errors.New("provider name cannot be empty")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	provider, exists := r.providers[providerName]
	if !exists {
		return nil, fmt.Errorf("provider %s not found", providerName)
	}

	return provider, nil
}

// List returns all available providers.
func (r *Registry) List(_ context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}

	return names, nil
}

// GetByModel retrieves the provider serving the given model. Unknown models
// are an error; routing never falls back to guessing.
func (r *Registry) GetByModel(_ context.Context, model string) (domain.Provider, error) {
	if model == "" {
		return nil, errors.New("model cannot be empty")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	providerName, exists := r.modelToProvider[model]
	if !exists {
		return nil, fmt.Errorf("no provider found for model: %s", model)
	}

	provider, exists := r.providers[providerName]
	if !exists {
		return nil, fmt.Errorf("provider not found: %s", providerName)
	}

	return provider, nil
}

var _ domain.ProviderRegistry = (*Registry)(nil)
