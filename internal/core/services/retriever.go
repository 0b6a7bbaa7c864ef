package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-kb/internal/logger"
)

var _ driving.RetrievalService = (*Retriever)(nil)

// Retriever embeds questions and runs similarity search against the store.
type Retriever struct {
	embedder driven.EmbeddingService
	store    driven.DocumentStore
	topK     int
	minScore float64
}

// RetrieverOption configures a Retriever.
type RetrieverOption func(*Retriever)

// WithTopK sets the default number of chunks returned.
func WithTopK(k int) RetrieverOption {
	return func(r *Retriever) {
		if k > 0 {
			r.topK = k
		}
	}
}

// WithMinScore sets the minimum cosine similarity for a hit.
func WithMinScore(score float64) RetrieverOption {
	return func(r *Retriever) {
		r.minScore = score
	}
}

// NewRetriever creates a retriever with TopK 5 and MinScore 0.7 unless overridden.
func NewRetriever(embedder driven.EmbeddingService, store driven.DocumentStore, opts ...RetrieverOption) *Retriever {
	r := &Retriever{
		embedder: embedder,
		store:    store,
		topK:     domain.DefaultTopK,
		minScore: domain.DefaultMinScore,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Retrieve embeds the question and returns the best matching chunks.
// No match is an empty slice, not an error.
func (r *Retriever) Retrieve(
	ctx context.Context, question string, categories []domain.Category, topK int,
) ([]domain.ScoredChunk, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("%w: question is required", domain.ErrInvalidInput)
	}
	if r.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	if topK <= 0 {
		topK = r.topK
	}

	vector, err := r.embedder.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}

	hits, err := r.store.SearchSimilar(ctx, vector, domain.SimilarityQuery{
		TopK:       topK,
		MinScore:   r.minScore,
		Categories: categories,
	})
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	logger.Debug("Retrieved %d chunk(s) (topK=%d, minScore=%.2f, categories=%v)",
		len(hits), topK, r.minScore, categories)
	if hits == nil {
		hits = []domain.ScoredChunk{}
	}
	return hits, nil
}
