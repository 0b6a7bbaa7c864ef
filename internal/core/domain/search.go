package domain

import "sort"

// Default retrieval limits.
const (
	DefaultTopK     = 5
	DefaultMinScore = 0.7
)

// SimilarityQuery configures a vector similarity search.
type SimilarityQuery struct {
	// TopK is the maximum number of results.
	TopK int

	// MinScore drops results scoring below this cosine similarity.
	MinScore float64

	// Categories filters to chunks whose document is in one of these categories.
	// Empty means no filter.
	Categories []Category
}

// MatchesCategory reports whether c passes the category filter.
func (q SimilarityQuery) MatchesCategory(c Category) bool {
	if len(q.Categories) == 0 {
		return true
	}
	for _, want := range q.Categories {
		if want == c {
			return true
		}
	}
	return false
}

// ScoredChunk is a similarity hit hydrated with its owning document.
type ScoredChunk struct {
	// Chunk is the matched chunk.
	Chunk Chunk

	// Document is the chunk's owning document.
	Document Document

	// Score is the cosine similarity to the query vector.
	Score float64
}

// StoreStats summarises document store contents.
type StoreStats struct {
	Documents      int
	Chunks         int
	EmbeddedChunks int
}

// Normalize fills in default limits.
func (q SimilarityQuery) Normalize() SimilarityQuery {
	if q.TopK <= 0 {
		q.TopK = DefaultTopK
	}
	return q
}

// Accepts reports whether a chunk vector can be scored against a query vector.
// Chunks without an embedding or with a different dimension are never ranked.
func (q SimilarityQuery) Accepts(query, chunk []float32) bool {
	return len(chunk) > 0 && len(chunk) == len(query)
}

// RankScored drops hits below MinScore, sorts by descending score with
// ties broken by chunk ID, and truncates to TopK.
func RankScored(hits []ScoredChunk, q SimilarityQuery) []ScoredChunk {
	q = q.Normalize()

	kept := hits[:0]
	for _, h := range hits {
		if h.Score >= q.MinScore {
			kept = append(kept, h)
		}
	}

	sort.SliceStable(kept, func(i, j int) bool {
		if kept[i].Score != kept[j].Score {
			return kept[i].Score > kept[j].Score
		}
		return kept[i].Chunk.ID < kept[j].Chunk.ID
	})

	if len(kept) > q.TopK {
		kept = kept[:q.TopK]
	}
	return kept
}
