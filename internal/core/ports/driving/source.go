package driving

import (
	"context"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

// SourceService is the read-only view of the configured websites
// used by every front end to list sources and resolve a source ID.
type SourceService interface {
	// Get returns domain.ErrNotFound for an unknown ID.
	Get(ctx context.Context, id string) (*domain.Source, error)
	List(ctx context.Context) ([]domain.Source, error)
}
