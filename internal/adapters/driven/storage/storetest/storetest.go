// Package storetest holds behaviour tests shared by every DocumentStore adapter.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
)

// Factory returns an empty store. The caller owns cleanup.
type Factory func(t *testing.T) driven.DocumentStore

// Run exercises the DocumentStore contract against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("PutAndGetDocument", func(t *testing.T) { testPutAndGetDocument(t, newStore(t)) })
	t.Run("GetDocumentNotFound", func(t *testing.T) { testGetDocumentNotFound(t, newStore(t)) })
	t.Run("UpsertKeepsCreatedAt", func(t *testing.T) { testUpsertKeepsCreatedAt(t, newStore(t)) })
	t.Run("ChunksRoundTrip", func(t *testing.T) { testChunksRoundTrip(t, newStore(t)) })
	t.Run("PutChunkUpsert", func(t *testing.T) { testPutChunkUpsert(t, newStore(t)) })
	t.Run("PutChunksMissingDocument", func(t *testing.T) { testPutChunksMissingDocument(t, newStore(t)) })
	t.Run("Lists", func(t *testing.T) { testLists(t, newStore(t)) })
	t.Run("SearchSimilar", func(t *testing.T) { testSearchSimilar(t, newStore(t)) })
	t.Run("SearchCategoryFilter", func(t *testing.T) { testSearchCategoryFilter(t, newStore(t)) })
	t.Run("PruneChunks", func(t *testing.T) { testPruneChunks(t, newStore(t)) })
	t.Run("DeleteSource", func(t *testing.T) { testDeleteSource(t, newStore(t)) })
}

var baseTime = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

// Document builds a test document.
func Document(id, sourceID string, category domain.Category) *domain.Document {
	return &domain.Document{
		ID:        id,
		SourceID:  sourceID,
		Title:     "Naslov " + id,
		SourceURL: "https://example.rs/" + id,
		Content:   "Sadržaj dokumenta " + id,
		Metadata: domain.DocumentMetadata{
			Category:     category,
			Language:     "sr",
			Tags:         []string{"pdv", "rok"},
			DocumentType: domain.DocumentTypeArticle,
			Year:         2025,
			LawReference: `"Sl. glasnik RS", br. 84/2004`,
			RelevantFor:  []string{"entrepreneur"},
		},
		CreatedAt: baseTime,
		UpdatedAt: baseTime,
	}
}

// Chunk builds a test chunk.
func Chunk(docID string, pos int, embedding []float32) domain.Chunk {
	content := "Deo teksta"
	return domain.Chunk{
		ID:         domain.ChunkID(docID, pos),
		DocumentID: docID,
		Content:    content,
		Position:   pos,
		TokenCount: domain.EstimateTokens(content),
		Embedding:  embedding,
		Metadata: domain.ChunkMetadata{
			Title:    "Naslov " + docID,
			Keywords: []string{"porez"},
		},
	}
}

func testPutAndGetDocument(t *testing.T, s driven.DocumentStore) {
	ctx := context.Background()
	doc := Document("doc-1", "purs", domain.CategoryVAT)
	require.NoError(t, s.PutDocument(ctx, doc))

	got, err := s.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, doc.SourceID, got.SourceID)
	assert.Equal(t, doc.Title, got.Title)
	assert.Equal(t, doc.SourceURL, got.SourceURL)
	assert.Equal(t, doc.Content, got.Content)
	assert.Equal(t, doc.Metadata.Category, got.Metadata.Category)
	assert.Equal(t, doc.Metadata.Tags, got.Metadata.Tags)
	assert.Equal(t, doc.Metadata.Year, got.Metadata.Year)
	assert.Equal(t, doc.Metadata.LawReference, got.Metadata.LawReference)
	assert.Equal(t, doc.Metadata.RelevantFor, got.Metadata.RelevantFor)
	assert.WithinDuration(t, doc.CreatedAt, got.CreatedAt, time.Second)
}

func testGetDocumentNotFound(t *testing.T, s driven.DocumentStore) {
	_, err := s.GetDocument(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func testUpsertKeepsCreatedAt(t *testing.T, s driven.DocumentStore) {
	ctx := context.Background()
	require.NoError(t, s.PutDocument(ctx, Document("doc-1", "purs", domain.CategoryVAT)))

	updated := Document("doc-1", "purs", domain.CategoryVAT)
	updated.Title = "Novi naslov"
	updated.CreatedAt = baseTime.Add(48 * time.Hour)
	updated.UpdatedAt = baseTime.Add(48 * time.Hour)
	require.NoError(t, s.PutDocument(ctx, updated))

	got, err := s.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "Novi naslov", got.Title)
	assert.WithinDuration(t, baseTime, got.CreatedAt, time.Second)
	assert.WithinDuration(t, baseTime.Add(48*time.Hour), got.UpdatedAt, time.Second)
}

func testChunksRoundTrip(t *testing.T, s driven.DocumentStore) {
	ctx := context.Background()
	require.NoError(t, s.PutDocument(ctx, Document("doc-1", "purs", domain.CategoryVAT)))

	oversized := Chunk("doc-1", 1, nil)
	oversized.Oversized = true
	chunks := []domain.Chunk{
		Chunk("doc-1", 2, []float32{0, 1}),
		oversized,
		Chunk("doc-1", 0, []float32{0.5, -0.25}),
	}
	require.NoError(t, s.PutChunks(ctx, chunks))

	got, err := s.ListChunks(ctx, "doc-1")
	require.NoError(t, err)
	require.Len(t, got, 3)
	for i, c := range got {
		assert.Equal(t, i, c.Position)
		assert.Equal(t, domain.ChunkID("doc-1", i), c.ID)
	}
	assert.Equal(t, []float32{0.5, -0.25}, got[0].Embedding)
	assert.Empty(t, got[1].Embedding)
	assert.True(t, got[1].Oversized)
	assert.Equal(t, chunks[0].TokenCount, got[2].TokenCount)
	assert.Equal(t, []string{"porez"}, got[2].Metadata.Keywords)

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.StoreStats{Documents: 1, Chunks: 3, EmbeddedChunks: 2}, stats)
}

func testPutChunkUpsert(t *testing.T, s driven.DocumentStore) {
	ctx := context.Background()
	require.NoError(t, s.PutDocument(ctx, Document("doc-1", "purs", domain.CategoryVAT)))

	c := Chunk("doc-1", 0, []float32{1, 0})
	require.NoError(t, s.PutChunk(ctx, c))
	c.Content = "Izmenjen tekst"
	require.NoError(t, s.PutChunk(ctx, c))

	got, err := s.ListChunks(ctx, "doc-1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Izmenjen tekst", got[0].Content)
}

func testPutChunksMissingDocument(t *testing.T, s driven.DocumentStore) {
	err := s.PutChunks(context.Background(), []domain.Chunk{Chunk("ghost", 0, []float32{1})})
	assert.ErrorIs(t, err, domain.ErrStore)
}

func testLists(t *testing.T, s driven.DocumentStore) {
	ctx := context.Background()
	require.NoError(t, s.PutDocument(ctx, Document("b", "purs", domain.CategoryVAT)))
	require.NoError(t, s.PutDocument(ctx, Document("a", "purs", domain.CategoryFlatTax)))
	require.NoError(t, s.PutDocument(ctx, Document("c", "apr", domain.CategoryVAT)))

	bySource, err := s.ListBySource(ctx, "purs")
	require.NoError(t, err)
	require.Len(t, bySource, 2)
	assert.Equal(t, "a", bySource[0].ID)
	assert.Equal(t, "b", bySource[1].ID)

	byCategory, err := s.ListByCategory(ctx, domain.CategoryVAT)
	require.NoError(t, err)
	require.Len(t, byCategory, 2)
	assert.Equal(t, "b", byCategory[0].ID)
	assert.Equal(t, "c", byCategory[1].ID)

	none, err := s.ListBySource(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func seedSearch(t *testing.T, s driven.DocumentStore) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.PutDocument(ctx, Document("vat", "purs", domain.CategoryVAT)))
	require.NoError(t, s.PutDocument(ctx, Document("flat", "purs", domain.CategoryFlatTax)))
	require.NoError(t, s.PutChunks(ctx, []domain.Chunk{
		Chunk("vat", 0, []float32{1, 0, 0}),
		Chunk("vat", 1, []float32{0, 1, 0}),
		Chunk("vat", 2, nil),
		Chunk("vat", 3, []float32{1, 0}),
	}))
	require.NoError(t, s.PutChunks(ctx, []domain.Chunk{
		Chunk("flat", 0, []float32{0.9, 0.1, 0}),
	}))
}

func testSearchSimilar(t *testing.T, s driven.DocumentStore) {
	seedSearch(t, s)
	ctx := context.Background()

	hits, err := s.SearchSimilar(ctx, []float32{1, 0, 0}, domain.SimilarityQuery{TopK: 5, MinScore: 0.5})
	require.NoError(t, err)
	require.Len(t, hits, 2)

	assert.Equal(t, domain.ChunkID("vat", 0), hits[0].Chunk.ID)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-6)
	assert.Equal(t, "vat", hits[0].Document.ID)
	assert.Equal(t, domain.CategoryVAT, hits[0].Document.Metadata.Category)

	assert.Equal(t, domain.ChunkID("flat", 0), hits[1].Chunk.ID)
	assert.Equal(t, "flat", hits[1].Document.ID)
	assert.Greater(t, hits[0].Score, hits[1].Score)

	top1, err := s.SearchSimilar(ctx, []float32{1, 0, 0}, domain.SimilarityQuery{TopK: 1, MinScore: 0})
	require.NoError(t, err)
	require.Len(t, top1, 1)
	assert.Equal(t, domain.ChunkID("vat", 0), top1[0].Chunk.ID)

	none, err := s.SearchSimilar(ctx, []float32{0, 0, 1}, domain.SimilarityQuery{TopK: 5, MinScore: 0.7})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func testSearchCategoryFilter(t *testing.T, s driven.DocumentStore) {
	seedSearch(t, s)

	hits, err := s.SearchSimilar(context.Background(), []float32{1, 0, 0}, domain.SimilarityQuery{
		TopK:       5,
		MinScore:   0.5,
		Categories: []domain.Category{domain.CategoryFlatTax},
	})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "flat", hits[0].Document.ID)
}

func testPruneChunks(t *testing.T, s driven.DocumentStore) {
	ctx := context.Background()
	require.NoError(t, s.PutDocument(ctx, Document("doc-1", "purs", domain.CategoryVAT)))
	require.NoError(t, s.PutChunks(ctx, []domain.Chunk{
		Chunk("doc-1", 0, []float32{1}),
		Chunk("doc-1", 1, []float32{1}),
		Chunk("doc-1", 2, []float32{1}),
	}))

	require.NoError(t, s.PruneChunks(ctx, "doc-1", 1))

	got, err := s.ListChunks(ctx, "doc-1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 0, got[0].Position)
}

func testDeleteSource(t *testing.T, s driven.DocumentStore) {
	ctx := context.Background()
	require.NoError(t, s.PutDocument(ctx, Document("a1", "purs", domain.CategoryVAT)))
	require.NoError(t, s.PutDocument(ctx, Document("a2", "purs", domain.CategoryVAT)))
	require.NoError(t, s.PutDocument(ctx, Document("b1", "apr", domain.CategoryVAT)))
	require.NoError(t, s.PutChunks(ctx, []domain.Chunk{Chunk("a1", 0, []float32{1})}))
	require.NoError(t, s.PutChunks(ctx, []domain.Chunk{Chunk("b1", 0, []float32{1})}))

	removed, err := s.DeleteSource(ctx, "purs")
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	_, err = s.GetDocument(ctx, "a1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	chunks, err := s.ListChunks(ctx, "a1")
	require.NoError(t, err)
	assert.Empty(t, chunks)

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.StoreStats{Documents: 1, Chunks: 1, EmbeddedChunks: 1}, stats)
}
