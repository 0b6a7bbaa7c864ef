package driving

import (
	"context"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

// DocumentService provides read access to stored documents.
type DocumentService interface {
	// ListBySource returns all documents for a source.
	ListBySource(ctx context.Context, sourceID string) ([]domain.Document, error)

	// ListByCategory returns all documents in a category.
	ListByCategory(ctx context.Context, category domain.Category) ([]domain.Document, error)

	// Get retrieves a document by ID.
	Get(ctx context.Context, documentID string) (*domain.Document, error)

	// Chunks returns a document's chunks ordered by position, without embeddings.
	Chunks(ctx context.Context, documentID string) ([]domain.Chunk, error)

	// Stats returns store-wide counts.
	Stats(ctx context.Context) (domain.StoreStats, error)
}
