// Package anthropic generates answers through the Anthropic Messages API.
package anthropic

import (
	"bytes"
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
)

var _ driven.GenerationProvider = (*Provider)(nil)

const (
	DefaultBaseURL   = "https://api.anthropic.com"
	DefaultModel     = "claude-3-5-haiku-latest"
	DefaultTimeout   = 60 * time.Second
	DefaultMaxTokens = 1024

	anthropicVersion = "2023-06-01"

	// maxErrorBody caps how much of a failed response is read.
	maxErrorBody = 64 << 10
)

// Config configures the provider. Only APIKey is required.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

type Provider struct {
	client   *http.Client
	endpoint string
	apiKey   string
	model    string
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// messagesRequest is the body of POST /v1/messages. max_tokens is mandatory.
type messagesRequest struct {
	Model       string    `json:"model"`
	System      string    `json:"system,omitempty"`
	Messages    []message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature *float64  `json:"temperature,omitempty"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type messagesResponse struct {
	Content    []contentBlock `json:"content"`
	StopReason string         `json:"stop_reason"`
	Error      *apiError      `json:"error,omitempty"`
}

type apiError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func New(cfg Config) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic: %w: API key is required", domain.ErrProviderUnavailable)
	}
	return &Provider{
		client:   &http.Client{Timeout: cmp.Or(cfg.Timeout, DefaultTimeout)},
		endpoint: strings.TrimRight(cmp.Or(cfg.BaseURL, DefaultBaseURL), "/") + "/v1/messages",
		apiKey:   cfg.APIKey,
		model:    cmp.Or(cfg.Model, DefaultModel),
	}, nil
}

func (p *Provider) Name() string { return "anthropic" }

// Generate sends the prompt as a single user turn and joins the text blocks
// of the reply.
func (p *Provider) Generate(ctx context.Context, req driven.GenerationRequest) (string, error) {
	temperature := req.Temperature
	body, err := json.Marshal(messagesRequest{
		Model:       p.model,
		System:      req.System,
		Messages:    []message{{Role: "user", Content: req.Prompt}},
		MaxTokens:   cmp.Or(max(req.MaxTokens, 0), DefaultMaxTokens),
		Temperature: &temperature,
	})
	if err != nil {
		return "", fmt.Errorf("anthropic: encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("anthropic: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", p.apiKey)
	httpReq.Header.Set("anthropic-version", anthropicVersion)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("anthropic: %w: %w", domain.ErrGenerationProvider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", statusError(resp)
	}

	var out messagesResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("anthropic: %w: decode response: %w", domain.ErrGenerationProvider, err)
	}
	if out.Error != nil {
		return "", fmt.Errorf("anthropic: %w: %s", domain.ErrGenerationProvider, out.Error.Message)
	}

	var text strings.Builder
	for _, block := range out.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if strings.TrimSpace(text.String()) == "" {
		return "", fmt.Errorf("anthropic: %w: empty response", domain.ErrGenerationProvider)
	}
	return text.String(), nil
}

// statusError maps a non-200 reply to a domain error carrying the API message.
func statusError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var parsed messagesResponse
	msg := http.StatusText(resp.StatusCode)
	if json.Unmarshal(raw, &parsed) == nil && parsed.Error != nil {
		msg = parsed.Error.Message
	}

	kind := domain.ErrGenerationProvider
	switch resp.StatusCode {
	case http.StatusTooManyRequests:
		kind = domain.ErrRateLimited
	case http.StatusUnauthorized, http.StatusForbidden:
		kind = domain.ErrProviderUnavailable
	}
	return fmt.Errorf("anthropic: %w (status %d): %s", kind, resp.StatusCode, msg)
}

func (p *Provider) Close() error { return nil }
