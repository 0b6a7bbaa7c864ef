package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
)

// Ensure DocumentStore implements the interface.
var _ driven.DocumentStore = (*DocumentStore)(nil)

// DocumentStore is an in-memory implementation of driven.DocumentStore.
// Similarity search is a linear scan over every embedded chunk.
type DocumentStore struct {
	mu        sync.RWMutex
	documents map[string]domain.Document
	chunks    map[string]map[string]domain.Chunk // documentID -> chunkID -> chunk
}

// NewDocumentStore creates a new in-memory document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		documents: make(map[string]domain.Document),
		chunks:    make(map[string]map[string]domain.Chunk),
	}
}

// PutDocument stores or updates a document, keeping the first CreatedAt.
func (s *DocumentStore) PutDocument(_ context.Context, doc *domain.Document) error {
	if doc == nil || doc.ID == "" {
		return &domain.StoreError{Op: "put document", Err: domain.ErrInvalidInput}
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *doc
	if existing, ok := s.documents[doc.ID]; ok && !existing.CreatedAt.IsZero() {
		stored.CreatedAt = existing.CreatedAt
	}
	s.documents[doc.ID] = stored
	return nil
}

// PutChunk stores or updates a single chunk.
func (s *DocumentStore) PutChunk(ctx context.Context, chunk domain.Chunk) error {
	return s.PutChunks(ctx, []domain.Chunk{chunk})
}

// PutChunks stores or updates chunks. Every chunk's document must exist.
func (s *DocumentStore) PutChunks(_ context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range chunks {
		if _, ok := s.documents[c.DocumentID]; !ok {
			return &domain.StoreError{
				Op:  "put chunks",
				Err: fmt.Errorf("document %s: %w", c.DocumentID, domain.ErrNotFound),
			}
		}
	}
	for _, c := range chunks {
		byID, ok := s.chunks[c.DocumentID]
		if !ok {
			byID = make(map[string]domain.Chunk)
			s.chunks[c.DocumentID] = byID
		}
		byID[c.ID] = c
	}
	return nil
}

// GetDocument retrieves a document by ID.
func (s *DocumentStore) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &doc, nil
}

// ListBySource returns a source's documents ordered by URL.
func (s *DocumentStore) ListBySource(_ context.Context, sourceID string) ([]domain.Document, error) {
	return s.filter(func(d *domain.Document) bool { return d.SourceID == sourceID }), nil
}

// ListByCategory returns a category's documents ordered by URL.
func (s *DocumentStore) ListByCategory(_ context.Context, category domain.Category) ([]domain.Document, error) {
	return s.filter(func(d *domain.Document) bool { return d.Metadata.Category == category }), nil
}

func (s *DocumentStore) filter(keep func(*domain.Document) bool) []domain.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.Document
	for id := range s.documents {
		doc := s.documents[id]
		if keep(&doc) {
			result = append(result, doc)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].SourceURL != result[j].SourceURL {
			return result[i].SourceURL < result[j].SourceURL
		}
		return result[i].ID < result[j].ID
	})
	return result
}

// ListChunks returns a document's chunks ordered by position.
func (s *DocumentStore) ListChunks(_ context.Context, documentID string) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byID := s.chunks[documentID]
	result := make([]domain.Chunk, 0, len(byID))
	for _, c := range byID {
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Position < result[j].Position })
	return result, nil
}

// SearchSimilar scores every embedded chunk against vector.
func (s *DocumentStore) SearchSimilar(
	ctx context.Context,
	vector []float32,
	q domain.SimilarityQuery,
) ([]domain.ScoredChunk, error) {
	if len(vector) == 0 {
		return nil, &domain.StoreError{Op: "search", Err: domain.ErrInvalidInput}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var hits []domain.ScoredChunk
	for docID, byID := range s.chunks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		doc, ok := s.documents[docID]
		if !ok || !q.MatchesCategory(doc.Metadata.Category) {
			continue
		}
		for _, c := range byID {
			if !q.Accepts(vector, c.Embedding) {
				continue
			}
			hits = append(hits, domain.ScoredChunk{
				Chunk:    c,
				Document: doc,
				Score:    domain.CosineSimilarity(vector, c.Embedding),
			})
		}
	}
	return domain.RankScored(hits, q), nil
}

// PruneChunks removes a document's chunks at positions >= keep.
func (s *DocumentStore) PruneChunks(_ context.Context, documentID string, keep int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, c := range s.chunks[documentID] {
		if c.Position >= keep {
			delete(s.chunks[documentID], id)
		}
	}
	return nil
}

// DeleteSource removes a source's documents and their chunks.
func (s *DocumentStore) DeleteSource(_ context.Context, sourceID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, doc := range s.documents {
		if doc.SourceID == sourceID {
			delete(s.documents, id)
			delete(s.chunks, id)
			removed++
		}
	}
	return removed, nil
}

// Stats returns document and chunk counts.
func (s *DocumentStore) Stats(_ context.Context) (domain.StoreStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := domain.StoreStats{Documents: len(s.documents)}
	for _, byID := range s.chunks {
		for _, c := range byID {
			stats.Chunks++
			if c.HasEmbedding() {
				stats.EmbeddedChunks++
			}
		}
	}
	return stats, nil
}

// Close is a no-op.
func (s *DocumentStore) Close() error { return nil }
