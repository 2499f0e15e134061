// Package openai provides an adapter for OpenAI-compatible endpoints using
// the official SDK. It implements the domain.Provider interface and converts
// between domain types and SDK types. The served model set is configuration,
// not a hardcoded table, so the same adapter fronts proxies serving other
// model families.
package openai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/davidbz/foresight/internal/domain"
	"github.com/davidbz/foresight/internal/observability"
)

// Provider implements the domain.Provider interface for OpenAI.
type Provider struct {
	client openai.Client
	name   string
	models map[string]bool
	order  []string
}

// NewProvider creates a new OpenAI provider.
func NewProvider(config Config) (*Provider, error) {
	if config.APIKey == "" {
		return nil, errors.New("OpenAI API key is required")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(config.APIKey),
	}

	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}

	if config.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(time.Duration(config.Timeout)*time.Second))
	}

	// The SDK's own retry stays off by default: retry policy belongs to
	// the calling layers, not the transport.
	if config.MaxRetries > 0 {
		opts = append(opts, option.WithMaxRetries(config.MaxRetries))
	}

	models := make(map[string]bool, len(config.Models))
	for _, m := range config.Models {
		models[m] = true
	}

	return &Provider{
		client: openai.NewClient(opts...),
		name:   "openai",
		models: models,
		order:  config.Models,
	}, nil
}

// Complete sends a completion request and returns the full response.
func (p *Provider) Complete(ctx context.Context, req *domain.CompletionRequest) (*domain.CompletionResponse, error) {
	if req == nil {
		return nil, errors.New("request cannot be nil")
	}

	logger := observability.FromContext(ctx)
	logger.Debug("calling OpenAI API")

	params := p.toSDKParams(req)

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		logger.Error("OpenAI API call failed", observability.Error(err))
		return nil, fmt.Errorf("OpenAI API call failed: %w", err)
	}

	logger.Debug("OpenAI API call succeeded",
		observability.Int("prompt_tokens", int(resp.Usage.PromptTokens)),
		observability.Int("completion_tokens", int(resp.Usage.CompletionTokens)),
	)

	return p.toDomainResponse(resp), nil
}

// Name returns the provider identifier.
func (p *Provider) Name() string {
	return p.name
}

// IsModelSupported checks if the provider serves the given model.
func (p *Provider) IsModelSupported(_ context.Context, model string) bool {
	return p.models[model]
}

// SupportedModels returns the configured model set.
func (p *Provider) SupportedModels(_ context.Context) []string {
	out := make([]string, len(p.order))
	copy(out, p.order)
	return out
}

// toSDKParams converts a domain request to SDK ChatCompletionNewParams.
func (p *Provider) toSDKParams(req *domain.CompletionRequest) openai.ChatCompletionNewParams {
	messages := make([]openai.ChatCompletionMessageParamUnion, len(req.Messages))
	for i, msg := range req.Messages {
		switch msg.Role {
		case "user":
			messages[i] = openai.UserMessage(msg.Content)
		case "assistant":
			messages[i] = openai.AssistantMessage(msg.Content)
		case "system":
			messages[i] = openai.SystemMessage(msg.Content)
		default:
			// Fallback to user message if role is unknown
			messages[i] = openai.UserMessage(msg.Content)
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(req.Model),
		Messages: messages,
	}

	if req.Temperature > 0 {
		params.Temperature = openai.Float(req.Temperature)
	}

	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}

	return params
}

// toDomainResponse converts an SDK response to a domain response.
func (p *Provider) toDomainResponse(resp *openai.ChatCompletion) *domain.CompletionResponse {
	content := ""
	if len(resp.Choices) > 0 {
		content = resp.Choices[0].Message.Content
	}

	return &domain.CompletionResponse{
		ID:       resp.ID,
		Model:    string(resp.Model),
		Provider: p.name,
		Content:  content,
		Usage: domain.Usage{
			PromptTokens:     int(resp.Usage.PromptTokens),
			CompletionTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:      int(resp.Usage.TotalTokens),
		},
		FinishTime: time.Now(),
	}
}

var _ domain.Provider = (*Provider)(nil)
