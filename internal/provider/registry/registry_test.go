package registry_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/foresight/internal/domain"
	"github.com/davidbz/foresight/internal/provider/registry"
)

// mockProvider is a mock implementation of domain.Provider for testing.
type mockProvider struct {
	name   string
	models []string
}

func (m *mockProvider) Complete(_ context.Context, _ *domain.CompletionRequest) (*domain.CompletionResponse, error) {
	return &domain.CompletionResponse{Provider: m.name}, nil
}

func (m *mockProvider) Name() string {
	return m.name
}

func (m *mockProvider) IsModelSupported(_ context.Context, model string) bool {
	for _, supported := range m.models {
		if supported == model {
			return true
		}
	}
	return false
}

func (m *mockProvider) SupportedModels(_ context.Context) []string {
	return m.models
}

func TestRegistry_Register(t *testing.T) {
	t.Run("should register provider successfully", func(t *testing.T) {
		reg := registry.NewRegistry()
		ctx := context.Background()

		provider := &mockProvider{name: "test-provider", models: []string{"test-model"}}

		err := reg.Register(ctx, provider)
		require.NoError(t, err)

		got, err := reg.Get(ctx, "test-provider")
		require.NoError(t, err)
		require.Equal(t, provider, got)
	})

	t.Run("should return error when provider is nil", func(t *testing.T) {
		reg := registry.NewRegistry()

		err := reg.Register(context.Background(), nil)
		require.Error(t, err)
		require.Contains(t, err.Error(), "cannot be nil")
	})

	t.Run("should return error when provider name is empty", func(t *testing.T) {
		reg := registry.NewRegistry()

		err := reg.Register(context.Background(), &mockProvider{name: ""})
		require.Error(t, err)
		require.Contains(t, err.Error(), "cannot be empty")
	})

	t.Run("should return error when provider already registered", func(t *testing.T) {
		reg := registry.NewRegistry()
		ctx := context.Background()

		require.NoError(t, reg.Register(ctx, &mockProvider{name: "dup", models: []string{"m1"}}))

		err := reg.Register(ctx, &mockProvider{name: "dup", models: []string{"m2"}})
		require.Error(t, err)
		require.Contains(t, err.Error(), "already registered")
	})

	t.Run("should return error when a model is already served", func(t *testing.T) {
		reg := registry.NewRegistry()
		ctx := context.Background()

		require.NoError(t, reg.Register(ctx, &mockProvider{name: "first", models: []string{"gpt-4", "gpt-3.5-turbo"}}))

		err := reg.Register(ctx, &mockProvider{name: "second", models: []string{"gpt-4"}})
		require.Error(t, err)
		require.Contains(t, err.Error(), "already served")

		// The conflicting provider must not be half-registered.
		_, err = reg.Get(ctx, "second")
		require.Error(t, err)
	})
}

func TestRegistry_Get(t *testing.T) {
	t.Run("should get registered provider", func(t *testing.T) {
		reg := registry.NewRegistry()
		ctx := context.Background()

		provider := &mockProvider{name: "openai", models: []string{"gpt-4"}}
		require.NoError(t, reg.Register(ctx, provider))

		got, err := reg.Get(ctx, "openai")
		require.NoError(t, err)
		require.Equal(t, provider, got)
	})

	t.Run("should return error when provider name is empty", func(t *testing.T) {
		reg := registry.NewRegistry()

		_, err := reg.Get(context.Background(), "")
		require.Error(t, err)
	})

	t.Run("should return error when provider not found", func(t *testing.T) {
		reg := registry.NewRegistry()

		_, err := reg.Get(context.Background(), "missing")
		require.Error(t, err)
		require.Contains(t, err.Error(), "not found")
	})
}

func TestRegistry_List(t *testing.T) {
	t.Run("should return empty list when no providers registered", func(t *testing.T) {
		reg := registry.NewRegistry()

		names, err := reg.List(context.Background())
		require.NoError(t, err)
		require.Empty(t, names)
	})

	t.Run("should return all registered providers", func(t *testing.T) {
		reg := registry.NewRegistry()
		ctx := context.Background()

		require.NoError(t, reg.Register(ctx, &mockProvider{name: "openai", models: []string{"gpt-4"}}))
		require.NoError(t, reg.Register(ctx, &mockProvider{name: "echo", models: []string{"echo4"}}))

		names, err := reg.List(ctx)
		require.NoError(t, err)
		require.ElementsMatch(t, []string{"openai", "echo"}, names)
	})
}

func TestRegistry_GetByModel(t *testing.T) {
	t.Run("should return the provider serving the model", func(t *testing.T) {
		reg := registry.NewRegistry()
		ctx := context.Background()

		openai := &mockProvider{name: "openai", models: []string{"gpt-4", "gpt-3.5-turbo"}}
		echo := &mockProvider{name: "echo", models: []string{"echo4"}}
		require.NoError(t, reg.Register(ctx, openai))
		require.NoError(t, reg.Register(ctx, echo))

		got, err := reg.GetByModel(ctx, "gpt-3.5-turbo")
		require.NoError(t, err)
		require.Equal(t, openai, got)

		got, err = reg.GetByModel(ctx, "echo4")
		require.NoError(t, err)
		require.Equal(t, echo, got)
	})

	t.Run("should return error when model is empty", func(t *testing.T) {
		reg := registry.NewRegistry()

		_, err := reg.GetByModel(context.Background(), "")
		require.Error(t, err)
	})

	t.Run("should return error for an undeclared model", func(t *testing.T) {
		reg := registry.NewRegistry()
		ctx := context.Background()

		require.NoError(t, reg.Register(ctx, &mockProvider{name: "openai", models: []string{"gpt-4"}}))

		_, err := reg.GetByModel(ctx, "claude-3")
		require.Error(t, err)
		require.Contains(t, err.Error(), "no provider found")
	})

	t.Run("should route only through declared models", func(t *testing.T) {
		reg := registry.NewRegistry()
		ctx := context.Background()

		// IsModelSupported is broader than the declared set; routing must
		// still use only the registration-time table.
		provider := &mockProvider{name: "sneaky", models: nil}
		require.NoError(t, reg.Register(ctx, provider))

		_, err := reg.GetByModel(ctx, "sneaky-model")
		require.Error(t, err)
	})
}

func TestRegistry_Concurrent(t *testing.T) {
	t.Run("should handle concurrent registrations safely", func(t *testing.T) {
		reg := registry.NewRegistry()
		ctx := context.Background()

		errs := make(chan error, 10)
		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func(n int) {
				defer wg.Done()
				errs <- reg.Register(ctx, &mockProvider{
					name:   fmt.Sprintf("provider-%d", n),
					models: []string{fmt.Sprintf("model-%d", n)},
				})
			}(i)
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}

		names, err := reg.List(ctx)
		require.NoError(t, err)
		require.Len(t, names, 10)
	})
}
