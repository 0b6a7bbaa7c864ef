// Package gemini embeds text with Google Gemini embedding models.
package gemini

import (
	"cmp"
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
)

var _ driven.EmbeddingService = (*EmbeddingService)(nil)

const (
	DefaultModel      = "text-embedding-004"
	DefaultDimensions = 768
)

// Config configures the service. Only APIKey is required.
type Config struct {
	APIKey     string
	Model      string
	Dimensions int

	// Endpoint overrides the API endpoint.
	Endpoint string
}

// EmbeddingService embeds stored chunks and questions with different task
// types so retrieval-tuned models see the asymmetry.
type EmbeddingService struct {
	client     *genai.Client
	document   *genai.EmbeddingModel
	query      *genai.EmbeddingModel
	model      string
	dimensions int
}

func NewEmbeddingService(ctx context.Context, cfg Config) (*EmbeddingService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: %w: API key is required", domain.ErrEmbeddingUnavailable)
	}
	model := cmp.Or(cfg.Model, DefaultModel)

	opts := []option.ClientOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}

	document := client.EmbeddingModel(model)
	document.TaskType = genai.TaskTypeRetrievalDocument
	query := client.EmbeddingModel(model)
	query.TaskType = genai.TaskTypeRetrievalQuery

	return &EmbeddingService{
		client:     client,
		document:   document,
		query:      query,
		model:      model,
		dimensions: cmp.Or(cfg.Dimensions, DefaultDimensions),
	}, nil
}

// Embed embeds a question.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	res, err := s.query.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, classify(err)
	}
	if res.Embedding == nil || len(res.Embedding.Values) == 0 {
		return nil, fmt.Errorf("gemini: %w: no embedding returned", domain.ErrEmbedding)
	}
	return res.Embedding.Values, nil
}

// EmbedBatch embeds chunk texts in one request, in input order.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	b := s.document.NewBatch()
	for _, t := range texts {
		b.AddContent(genai.Text(t))
	}
	res, err := s.document.BatchEmbedContents(ctx, b)
	if err != nil {
		return nil, classify(err)
	}
	return vectors(res, len(texts))
}

// vectors checks that every input got a non-empty embedding.
func vectors(res *genai.BatchEmbedContentsResponse, want int) ([][]float32, error) {
	if res == nil || len(res.Embeddings) != want {
		got := 0
		if res != nil {
			got = len(res.Embeddings)
		}
		return nil, fmt.Errorf("gemini: %w: got %d embeddings for %d texts", domain.ErrEmbedding, got, want)
	}
	out := make([][]float32, want)
	for i, e := range res.Embeddings {
		if e == nil || len(e.Values) == 0 {
			return nil, fmt.Errorf("gemini: %w: missing embedding for input %d", domain.ErrEmbedding, i)
		}
		out[i] = e.Values
	}
	return out, nil
}

// classify maps the gRPC status of a failed call to a domain error.
func classify(err error) error {
	kind := domain.ErrEmbedding
	switch status.Code(err) {
	case codes.ResourceExhausted:
		kind = domain.ErrRateLimited
	case codes.Unauthenticated, codes.PermissionDenied:
		kind = domain.ErrEmbeddingUnavailable
	}
	return fmt.Errorf("gemini: %w: %w", kind, err)
}

func (s *EmbeddingService) Dimensions() int   { return s.dimensions }
func (s *EmbeddingService) ModelName() string { return s.model }

// Ping embeds a short probe text.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	_, err := s.Embed(ctx, "ping")
	return err
}

func (s *EmbeddingService) Close() error { return s.client.Close() }
