package driven

import (
	"context"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

// DocumentStore persists documents and chunks and searches chunk embeddings.
// All writes are upserts keyed by ID.
type DocumentStore interface {
	// PutDocument stores or updates a document.
	// An existing document keeps its original CreatedAt.
	PutDocument(ctx context.Context, doc *domain.Document) error

	// PutChunk stores or updates a single chunk.
	PutChunk(ctx context.Context, chunk domain.Chunk) error

	// PutChunks stores or updates chunks in one batch.
	PutChunks(ctx context.Context, chunks []domain.Chunk) error

	// GetDocument retrieves a document by ID.
	// Returns domain.ErrNotFound if it does not exist.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// ListBySource returns the documents of a source.
	ListBySource(ctx context.Context, sourceID string) ([]domain.Document, error)

	// ListByCategory returns the documents in a category.
	ListByCategory(ctx context.Context, category domain.Category) ([]domain.Document, error)

	// ListChunks returns a document's chunks ordered by position.
	ListChunks(ctx context.Context, documentID string) ([]domain.Chunk, error)

	// SearchSimilar returns the chunks most similar to vector.
	// Chunks without an embedding, or with a different dimension, are skipped.
	// Results are sorted by descending score.
	SearchSimilar(ctx context.Context, vector []float32, q domain.SimilarityQuery) ([]domain.ScoredChunk, error)

	// PruneChunks removes a document's chunks at positions >= keep.
	PruneChunks(ctx context.Context, documentID string, keep int) error

	// DeleteSource removes a source's documents and their chunks.
	// Returns the number of documents removed.
	DeleteSource(ctx context.Context, sourceID string) (int, error)

	// Stats returns document and chunk counts.
	Stats(ctx context.Context) (domain.StoreStats, error)

	// Close releases resources.
	Close() error
}
