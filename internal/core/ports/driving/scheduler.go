package driving

import "context"

// Scheduler re-ingests sources periodically while a long-running
// command (serve, tui, mcp serve) is active.
type Scheduler interface {
	// Start blocks until Stop is called or ctx is cancelled.
	Start(ctx context.Context) error

	// Stop ends the loop and waits for a running ingestion to finish.
	Stop() error
}
