// Package openai provides a generation provider using OpenAI chat completions.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
)

// Ensure Provider implements the interface.
var _ driven.GenerationProvider = (*Provider)(nil)

// Default configuration values.
const (
	DefaultModel   = openai.GPT4oMini
	DefaultTimeout = 60 * time.Second
)

// Config holds configuration for the OpenAI provider.
type Config struct {
	// APIKey is the OpenAI API key (required).
	APIKey string

	// BaseURL overrides the API base URL for OpenAI-compatible servers.
	BaseURL string

	// Model is the chat model to use (default: gpt-4o-mini).
	Model string

	// Timeout is the HTTP client timeout (default: 60s).
	Timeout time.Duration
}

// Provider generates answers with OpenAI chat models.
type Provider struct {
	client *openai.Client
	model  string
}

// New creates a new OpenAI provider.
func New(cfg Config) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: %w: API key is required", domain.ErrProviderUnavailable)
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}
	config.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &Provider{
		client: openai.NewClientWithConfig(config),
		model:  cfg.Model,
	}, nil
}

// Name returns "openai".
func (p *Provider) Name() string { return "openai" }

// Generate runs one chat completion with a system and a user message.
func (p *Provider) Generate(ctx context.Context, req driven.GenerationRequest) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Prompt,
	})

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       p.model,
		Messages:    messages,
		Temperature: float32(req.Temperature),
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return "", classify(err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai: %w: no choices returned", domain.ErrGenerationProvider)
	}
	answer := resp.Choices[0].Message.Content
	if strings.TrimSpace(answer) == "" {
		return "", fmt.Errorf("openai: %w: empty response", domain.ErrGenerationProvider)
	}
	return answer, nil
}

// classify wraps an API failure in the matching domain error.
func classify(err error) error {
	var apiErr *openai.APIError
	if !errors.As(err, &apiErr) {
		return fmt.Errorf("openai: %w: %w", domain.ErrGenerationProvider, err)
	}
	switch apiErr.HTTPStatusCode {
	case http.StatusTooManyRequests:
		return fmt.Errorf("openai: %w: %s", domain.ErrRateLimited, apiErr.Message)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("openai: %w: %s", domain.ErrProviderUnavailable, apiErr.Message)
	}
	return fmt.Errorf("openai: %w: %s", domain.ErrGenerationProvider, apiErr.Message)
}

// Close releases resources.
func (p *Provider) Close() error { return nil }
