package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrIngestInProgress indicates an ingestion is already running for the source.
	ErrIngestInProgress = errors.New("ingestion in progress")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrProviderUnavailable indicates every generation provider failed.
	// Queries fail with this error rather than returning an ungrounded answer.
	ErrProviderUnavailable = errors.New("generation provider unavailable")

	// ErrRateLimited indicates the remote API rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")

	// Pipeline stage errors.

	// ErrFetch indicates a page could not be retrieved.
	ErrFetch = errors.New("fetch failed")

	// ErrExtraction indicates a page could not be turned into text.
	ErrExtraction = errors.New("extraction failed")

	// ErrContentTooShort indicates extracted text fell below the minimum length.
	ErrContentTooShort = errors.New("content too short")

	// ErrEmbedding indicates the embedding provider failed.
	ErrEmbedding = errors.New("embedding failed")

	// ErrStore indicates a persistence failure.
	ErrStore = errors.New("store failure")

	// ErrGenerationProvider indicates a single generation provider failed.
	ErrGenerationProvider = errors.New("generation provider failed")
)

// FetchError describes a failed page retrieval.
type FetchError struct {
	SourceID   string
	URL        string
	StatusCode int
	Attempts   int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d after %d attempt(s)", e.URL, e.StatusCode, e.Attempts)
	}
	return fmt.Sprintf("fetch %s: %v (after %d attempt(s))", e.URL, e.Err, e.Attempts)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Is matches ErrFetch.
func (e *FetchError) Is(target error) bool { return target == ErrFetch }

// ExtractionError describes a page whose text could not be used.
type ExtractionError struct {
	URL string
	Err error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %v", e.URL, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// Is matches ErrExtraction.
func (e *ExtractionError) Is(target error) bool { return target == ErrExtraction }

// EmbeddingError describes a failed embedding call.
type EmbeddingError struct {
	// Batch is the 0-based batch index that failed, or -1 for single embeds.
	Batch int
	Err   error
}

func (e *EmbeddingError) Error() string {
	if e.Batch >= 0 {
		return fmt.Sprintf("embedding batch %d: %v", e.Batch, e.Err)
	}
	return fmt.Sprintf("embedding: %v", e.Err)
}

func (e *EmbeddingError) Unwrap() error { return e.Err }

// Is matches ErrEmbedding.
func (e *EmbeddingError) Is(target error) bool { return target == ErrEmbedding }

// StoreError describes a failed persistence operation.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// Is matches ErrStore.
func (e *StoreError) Is(target error) bool { return target == ErrStore }

// GenerationProviderError describes a failed call to one generation provider.
type GenerationProviderError struct {
	Provider string
	Err      error
}

func (e *GenerationProviderError) Error() string {
	return fmt.Sprintf("provider %s: %v", e.Provider, e.Err)
}

func (e *GenerationProviderError) Unwrap() error { return e.Err }

// Is matches ErrGenerationProvider.
func (e *GenerationProviderError) Is(target error) bool { return target == ErrGenerationProvider }
