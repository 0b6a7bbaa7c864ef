// Package openai embeds text with the OpenAI embeddings endpoint.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
)

const (
	DefaultModel   = "text-embedding-3-small"
	DefaultTimeout = 60 * time.Second

	fallbackDimensions = 1536
)

// model describes what the API returns for a known embedding model.
type model struct {
	dimensions int
	// shortenable models accept a dimensions request parameter.
	shortenable bool
}

var models = map[string]model{
	"text-embedding-3-small": {dimensions: 1536, shortenable: true},
	"text-embedding-3-large": {dimensions: 3072, shortenable: true},
	"text-embedding-ada-002": {dimensions: 1536},
}

// Config configures an EmbeddingService. Only APIKey is required.
// BaseURL points the client at Azure OpenAI or another compatible server.
// A non-zero Dimensions asks shortenable models for shorter vectors.
type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	Timeout    time.Duration
	Dimensions int
}

// EmbeddingService calls the OpenAI embeddings API.
type EmbeddingService struct {
	client     *openai.Client
	model      string
	dimensions int
	requestDim int // sent with each request when non-zero
}

var _ driven.EmbeddingService = (*EmbeddingService)(nil)

func NewEmbeddingService(cfg Config) (*EmbeddingService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: %w: API key is required", domain.ErrEmbeddingUnavailable)
	}
	name := cfg.Model
	if name == "" {
		name = DefaultModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	clientCfg.HTTPClient = &http.Client{Timeout: timeout}

	s := &EmbeddingService{
		client:     openai.NewClientWithConfig(clientCfg),
		model:      name,
		dimensions: fallbackDimensions,
	}
	m, known := models[name]
	if known {
		s.dimensions = m.dimensions
	}
	if cfg.Dimensions > 0 {
		s.dimensions = cfg.Dimensions
		if !known || m.shortenable {
			s.requestDim = cfg.Dimensions
		}
	}
	return s, nil
}

func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch embeds texts in a single request. The API may answer out of
// order so vectors are placed by their index field.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	resp, err := s.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input:      texts,
		Model:      openai.EmbeddingModel(s.model),
		Dimensions: s.requestDim,
	})
	if err != nil {
		return nil, classify(err)
	}

	out := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(out) {
			return nil, fmt.Errorf("openai: %w: index %d out of range", domain.ErrEmbedding, d.Index)
		}
		out[d.Index] = d.Embedding
	}
	for i := range out {
		if len(out[i]) == 0 {
			return nil, fmt.Errorf("openai: %w: no vector for input %d", domain.ErrEmbedding, i)
		}
	}
	return out, nil
}

func (s *EmbeddingService) Dimensions() int  { return s.dimensions }
func (s *EmbeddingService) ModelName() string { return s.model }

// Ping embeds a one-word text.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	_, err := s.Embed(ctx, "ping")
	return err
}

func (s *EmbeddingService) Close() error { return nil }

func classify(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusTooManyRequests:
			return fmt.Errorf("openai: %w: %s", domain.ErrRateLimited, apiErr.Message)
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("openai: %w: %s", domain.ErrEmbeddingUnavailable, apiErr.Message)
		}
	}
	return fmt.Errorf("openai: %w: %w", domain.ErrEmbedding, err)
}
