package driving

import (
	"context"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

// AnswerService answers questions from the knowledge base.
type AnswerService interface {
	// Answer retrieves context for the question and generates a grounded answer.
	// A question with no matching chunks is not an error: the result carries
	// a localized fallback answer, zero confidence and no sources.
	Answer(ctx context.Context, q domain.Query) (*domain.QueryResult, error)
}
