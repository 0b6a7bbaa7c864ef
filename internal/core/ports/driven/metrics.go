package driven

import "time"

// Metrics records operational counters for ingestion and queries.
// A nil Metrics is not allowed; use NopMetrics instead.
type Metrics interface {
	// FetchAttempt records one HTTP attempt and its outcome ("ok", "retry", "error").
	FetchAttempt(sourceID, outcome string)

	// DocumentIngested records a stored document.
	DocumentIngested(sourceID string)

	// DocumentFailed records a skipped URL and the stage that failed.
	DocumentFailed(sourceID, stage string)

	// EmbeddingBatch records one provider batch call.
	EmbeddingBatch(size int, err error)

	// QueryCompleted records a finished query and its outcome
	// ("answered", "no_match", "error").
	QueryCompleted(outcome string, elapsed time.Duration)

	// ProviderFailure records a failed generation attempt.
	ProviderFailure(provider string)
}

// NopMetrics discards every observation.
type NopMetrics struct{}

func (NopMetrics) FetchAttempt(string, string) {}
func (NopMetrics) DocumentIngested(string) {}
func (NopMetrics) DocumentFailed(string, string) {}
func (NopMetrics) EmbeddingBatch(int, error) {}
func (NopMetrics) QueryCompleted(string, time.Duration) {}
func (NopMetrics) ProviderFailure(string) {}

var _ Metrics = NopMetrics{}
