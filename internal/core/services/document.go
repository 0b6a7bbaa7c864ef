package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driving"
)

var _ driving.DocumentService = (*DocumentService)(nil)

// DocumentService provides read access to ingested documents.
type DocumentService struct {
	docStore    driven.DocumentStore
	sourceStore driven.SourceStore
}

// NewDocumentService creates a new document service.
func NewDocumentService(docStore driven.DocumentStore, sourceStore driven.SourceStore) *DocumentService {
	return &DocumentService{
		docStore:    docStore,
		sourceStore: sourceStore,
	}
}

// ListBySource returns all documents for a configured source.
func (s *DocumentService) ListBySource(ctx context.Context, sourceID string) ([]domain.Document, error) {
	if _, err := s.sourceStore.Get(ctx, sourceID); err != nil {
		return nil, err
	}
	docs, err := s.docStore.ListBySource(ctx, sourceID)
	if err != nil {
		return nil, err
	}
	if docs == nil {
		docs = []domain.Document{}
	}
	return docs, nil
}

// ListByCategory returns all documents in a category.
func (s *DocumentService) ListByCategory(ctx context.Context, category domain.Category) ([]domain.Document, error) {
	if !category.IsValid() {
		return nil, fmt.Errorf("%w: unknown category %q", domain.ErrInvalidInput, category)
	}
	docs, err := s.docStore.ListByCategory(ctx, category)
	if err != nil {
		return nil, err
	}
	if docs == nil {
		docs = []domain.Document{}
	}
	return docs, nil
}

// Get retrieves a document by ID.
func (s *DocumentService) Get(ctx context.Context, documentID string) (*domain.Document, error) {
	if documentID == "" {
		return nil, fmt.Errorf("%w: document id is required", domain.ErrInvalidInput)
	}
	return s.docStore.GetDocument(ctx, documentID)
}

// Chunks returns a document's chunks in position order, with embeddings stripped.
func (s *DocumentService) Chunks(ctx context.Context, documentID string) ([]domain.Chunk, error) {
	if _, err := s.Get(ctx, documentID); err != nil {
		return nil, err
	}
	chunks, err := s.docStore.ListChunks(ctx, documentID)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Chunk, len(chunks))
	for i, c := range chunks {
		out[i] = c.WithoutEmbedding()
	}
	return out, nil
}

// Stats returns store-wide counts.
func (s *DocumentService) Stats(ctx context.Context) (domain.StoreStats, error) {
	return s.docStore.Stats(ctx)
}
