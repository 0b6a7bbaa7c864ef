package domain

import "time"

// ProgressFunc receives human-readable ingestion status lines.
// It is called synchronously from the ingesting goroutine.
type ProgressFunc func(status string)

// IngestReport summarises one source's ingestion run.
type IngestReport struct {
	// SourceID identifies the ingested source.
	SourceID string

	// Documents is the count of successfully stored documents.
	Documents int

	// Failed is the count of URLs that were skipped.
	Failed int

	// Errors describes each skipped URL.
	Errors []string

	// StartedAt is when the run began.
	StartedAt time.Time

	// FinishedAt is when the run ended.
	FinishedAt time.Time
}

// Duration returns how long the run took.
func (r *IngestReport) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// IngestStatus is a point-in-time view of a running ingestion.
type IngestStatus struct {
	SourceID           string
	Running            bool
	DocumentsProcessed int
	ErrorCount         int
}
