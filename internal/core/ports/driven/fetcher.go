package driven

import (
	"context"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

// Fetcher retrieves raw page bytes for a source.
// Implementations enforce the source's rate limit and retry budget.
// Failures are returned as *domain.FetchError.
type Fetcher interface {
	Fetch(ctx context.Context, source domain.Source, url string) ([]byte, error)
}
