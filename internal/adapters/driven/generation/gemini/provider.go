// Package gemini provides a generation provider using Google Gemini models.
package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
)

// Ensure Provider implements the interface.
var _ driven.GenerationProvider = (*Provider)(nil)

// DefaultModel is the Gemini model used when none is configured.
const DefaultModel = "gemini-1.5-flash"

// Config holds configuration for the Gemini provider.
type Config struct {
	// APIKey is the Gemini API key (required).
	APIKey string

	// Model is the model to use (default: gemini-1.5-flash).
	Model string

	// Endpoint overrides the API endpoint.
	Endpoint string
}

// Provider generates answers with Gemini models.
type Provider struct {
	client *genai.Client
	model  string
}

// New creates a new Gemini provider.
func New(ctx context.Context, cfg Config) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: %w: API key is required", domain.ErrProviderUnavailable)
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	opts := []option.ClientOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}

	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return &Provider{client: client, model: cfg.Model}, nil
}

// Name returns "gemini".
func (p *Provider) Name() string { return "gemini" }

// Generate calls generateContent with the system instruction set on the model.
func (p *Provider) Generate(ctx context.Context, req driven.GenerationRequest) (string, error) {
	model := p.client.GenerativeModel(p.model)
	if req.System != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(req.System)}}
	}
	model.SetTemperature(float32(req.Temperature))
	if req.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(req.MaxTokens))
	}

	resp, err := model.GenerateContent(ctx, genai.Text(req.Prompt))
	if err != nil {
		return "", classify(err)
	}
	return responseText(resp)
}

// Close releases the underlying client.
func (p *Provider) Close() error { return p.client.Close() }

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("gemini: %w: no candidates returned", domain.ErrGenerationProvider)
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	if strings.TrimSpace(b.String()) == "" {
		return "", fmt.Errorf("gemini: %w: empty response", domain.ErrGenerationProvider)
	}
	return b.String(), nil
}

// classify maps the gRPC status of a failed call to a domain error.
func classify(err error) error {
	kind := domain.ErrGenerationProvider
	switch status.Code(err) {
	case codes.ResourceExhausted:
		kind = domain.ErrRateLimited
	case codes.Unauthenticated, codes.PermissionDenied:
		kind = domain.ErrProviderUnavailable
	}
	return fmt.Errorf("gemini: %w: %w", kind, err)
}
