package echo_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/foresight/internal/domain"
	"github.com/davidbz/foresight/internal/provider/echo"
)

func TestNewProvider(t *testing.T) {
	provider := echo.NewProvider()

	require.NotNil(t, provider)
	require.Equal(t, "echo", provider.Name())
}

func TestComplete_Success(t *testing.T) {
	provider := echo.NewProvider()

	req := &domain.CompletionRequest{
		Model: "echo4",
		Messages: []domain.Message{
			{Role: "user", Content: "hello world"},
		},
	}

	resp, err := provider.Complete(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, resp)
	require.Equal(t, "hello world", resp.Content)
	require.Equal(t, "echo4", resp.Model)
	require.Equal(t, "echo", resp.Provider)
	require.Equal(t, 2, resp.Usage.PromptTokens)
	require.Equal(t, 2, resp.Usage.CompletionTokens)
	require.Equal(t, 4, resp.Usage.TotalTokens)
	require.NotEmpty(t, resp.ID)
}

func TestComplete_NilRequest(t *testing.T) {
	provider := echo.NewProvider()

	resp, err := provider.Complete(context.Background(), nil)
	require.Error(t, err)
	require.Nil(t, resp)
	require.Contains(t, err.Error(), "request cannot be nil")
}

func TestComplete_UnsupportedModel(t *testing.T) {
	provider := echo.NewProvider()

	req := &domain.CompletionRequest{
		Model: "gpt-4",
		Messages: []domain.Message{
			{Role: "user", Content: "hello"},
		},
	}

	resp, err := provider.Complete(context.Background(), req)
	require.Error(t, err)
	require.Nil(t, resp)
	require.Contains(t, err.Error(), "not supported")
}

func TestComplete_EmptyMessages(t *testing.T) {
	provider := echo.NewProvider()

	req := &domain.CompletionRequest{
		Model:    "echo4",
		Messages: []domain.Message{},
	}

	resp, err := provider.Complete(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, resp)
	require.Empty(t, resp.Content)
	require.Zero(t, resp.Usage.TotalTokens)
}

func TestComplete_MultipleMessages(t *testing.T) {
	provider := echo.NewProvider()

	req := &domain.CompletionRequest{
		Model: "echo4",
		Messages: []domain.Message{
			{Role: "system", Content: "be helpful"},
			{Role: "user", Content: "first question"},
			{Role: "assistant", Content: "first answer"},
		},
	}

	resp, err := provider.Complete(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, "be helpful first question first answer", resp.Content)
	require.Equal(t, 6, resp.Usage.PromptTokens)
}

func TestIsModelSupported(t *testing.T) {
	provider := echo.NewProvider()
	ctx := context.Background()

	require.True(t, provider.IsModelSupported(ctx, "echo4"))
	require.False(t, provider.IsModelSupported(ctx, "gpt-4"))
	require.False(t, provider.IsModelSupported(ctx, ""))
}

func TestSupportedModels(t *testing.T) {
	provider := echo.NewProvider()

	require.Equal(t, []string{"echo4"}, provider.SupportedModels(context.Background()))
}
