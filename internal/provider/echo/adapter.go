// Package echo provides a testing provider that echoes back input messages.
// It implements the domain.Provider interface without making external API
// calls, providing deterministic responses for testing and development.
package echo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/davidbz/foresight/internal/domain"
	"github.com/davidbz/foresight/internal/observability"
)

const (
	providerName = "echo"
	modelName    = "echo4"
)

// Provider implements the domain.Provider interface for echo testing.
type Provider struct {
	name            string
	supportedModels map[string]bool
}

// NewProvider creates a new echo provider.
// No configuration is required as this provider operates entirely in-memory.
func NewProvider() *Provider {
	return &Provider{
		name: providerName,
		supportedModels: map[string]bool{
			modelName: true,
		},
	}
}

// Complete sends a completion request and returns the echoed response.
func (p *Provider) Complete(ctx context.Context, req *domain.CompletionRequest) (*domain.CompletionResponse, error) {
	if req == nil {
		return nil, errors.New("request cannot be nil")
	}

	if !p.supportedModels[req.Model] {
		return nil, fmt.Errorf("model %s is not supported by echo provider", req.Model)
	}

	logger := observability.FromContext(ctx)
	logger.Debug("echoing request")

	echoContent := buildEchoContent(req.Messages)

	promptTokens := countTokens(echoContent)
	completionTokens := promptTokens // Echo returns same size
	totalTokens := promptTokens + completionTokens

	logger.Debug("echo completed",
		observability.Int("prompt_tokens", promptTokens),
		observability.Int("completion_tokens", completionTokens),
	)

	return &domain.CompletionResponse{
		ID:       fmt.Sprintf("echo-%d", time.Now().UnixNano()),
		Model:    req.Model,
		Provider: p.name,
		Content:  echoContent,
		Usage: domain.Usage{
			PromptTokens:     promptTokens,
			CompletionTokens: completionTokens,
			TotalTokens:      totalTokens,
		},
		FinishTime: time.Now(),
	}, nil
}

// Name returns the provider identifier.
func (p *Provider) Name() string {
	return p.name
}

// IsModelSupported checks if the provider supports the given model.
func (p *Provider) IsModelSupported(_ context.Context, model string) bool {
	return p.supportedModels[model]
}

// SupportedModels returns the models this provider serves.
func (p *Provider) SupportedModels(_ context.Context) []string {
	models := make([]string, 0, len(p.supportedModels))
	for m := range p.supportedModels {
		models = append(models, m)
	}
	return models
}

// buildEchoContent concatenates all message contents.
func buildEchoContent(messages []domain.Message) string {
	parts := make([]string, 0, len(messages))
	for _, msg := range messages {
		parts = append(parts, msg.Content)
	}
	return strings.Join(parts, " ")
}

// countTokens approximates token count by whitespace-separated words.
func countTokens(text string) int {
	return len(strings.Fields(text))
}

var _ domain.Provider = (*Provider)(nil)
