package driving

import (
	"context"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

// RetrievalService finds the chunks most relevant to a question.
type RetrievalService interface {
	// Retrieve embeds the question and searches the document store.
	// An empty result is valid. A non-positive topK uses the configured default.
	Retrieve(ctx context.Context, question string, categories []domain.Category, topK int) ([]domain.ScoredChunk, error)
}
