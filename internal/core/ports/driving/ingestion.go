package driving

import (
	"context"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

// IngestRun ingests a source claimed by StartSource.
type IngestRun func(ctx context.Context, progress domain.ProgressFunc) (*domain.IngestReport, error)

// IngestionService fetches, chunks, embeds and stores source documents.
type IngestionService interface {
	// ScrapeSource ingests every page of one source.
	// Pages that fail are skipped and counted in the report.
	ScrapeSource(ctx context.Context, sourceID string, progress domain.ProgressFunc) (*domain.IngestReport, error)

	// StartSource claims a source for ingestion without running it.
	// It fails with domain.ErrIngestInProgress while the source is claimed.
	// The returned run releases the claim when it returns.
	StartSource(ctx context.Context, sourceID string) (IngestRun, error)

	// ScrapeAll ingests every configured source.
	// Reports are returned in source configuration order.
	ScrapeAll(ctx context.Context, progress domain.ProgressFunc) ([]domain.IngestReport, error)

	// Status returns the ingestion status for a source.
	Status(ctx context.Context, sourceID string) (*domain.IngestStatus, error)

	// PurgeSource removes every document of a source.
	// Returns the number of documents removed.
	PurgeSource(ctx context.Context, sourceID string) (int, error)
}
