package driven

import (
	"context"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

// SourceStore backs the source table. Sources come from configuration,
// so the store has no write side.
type SourceStore interface {
	// Get returns domain.ErrNotFound when id is not configured.
	Get(ctx context.Context, id string) (*domain.Source, error)

	// List keeps configuration order.
	List(ctx context.Context) ([]domain.Source, error)
}
