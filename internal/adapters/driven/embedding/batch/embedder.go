// Package batch wraps an embedding service with request batching and a
// process-wide concurrency cap.
package batch

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
)

var _ driven.EmbeddingService = (*Embedder)(nil)

// Defaults.
const (
	DefaultBatchSize      = 100
	DefaultBatchPause     = 200 * time.Millisecond
	DefaultMaxConcurrency = 4
)

// Embedder splits large embedding requests into provider-sized batches.
// Batches within one call run sequentially with a pause between them;
// separate calls run concurrently up to the concurrency cap.
type Embedder struct {
	inner     driven.EmbeddingService
	batchSize int
	pause     time.Duration
	sem       *semaphore.Weighted
	metrics   driven.Metrics
}

// Option configures an Embedder.
type Option func(*Embedder)

// WithBatchSize sets the number of texts per provider call.
func WithBatchSize(n int) Option {
	return func(e *Embedder) {
		if n > 0 {
			e.batchSize = n
		}
	}
}

// WithBatchPause sets the pause between consecutive batches.
func WithBatchPause(d time.Duration) Option {
	return func(e *Embedder) {
		if d >= 0 {
			e.pause = d
		}
	}
}

// WithMaxConcurrency caps the number of in-flight Embed/EmbedBatch calls.
func WithMaxConcurrency(n int) Option {
	return func(e *Embedder) {
		if n > 0 {
			e.sem = semaphore.NewWeighted(int64(n))
		}
	}
}

// WithMetrics records every provider batch call.
func WithMetrics(m driven.Metrics) Option {
	return func(e *Embedder) {
		if m != nil {
			e.metrics = m
		}
	}
}

// New wraps inner with batching.
func New(inner driven.EmbeddingService, opts ...Option) *Embedder {
	e := &Embedder{
		inner:     inner,
		batchSize: DefaultBatchSize,
		pause:     DefaultBatchPause,
		sem:       semaphore.NewWeighted(DefaultMaxConcurrency),
		metrics:   driven.NopMetrics{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Embed generates a single embedding under the concurrency cap.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := e.sem.Acquire(ctx, 1); err != nil {
		return nil, &domain.EmbeddingError{Batch: -1, Err: err}
	}
	defer e.sem.Release(1)

	vec, err := e.inner.Embed(ctx, text)
	if err != nil {
		return nil, &domain.EmbeddingError{Batch: -1, Err: err}
	}
	if len(vec) == 0 {
		return nil, &domain.EmbeddingError{Batch: -1, Err: fmt.Errorf("empty vector")}
	}
	return vec, nil
}

// EmbedBatch embeds texts in batches and returns one vector per text, in order.
// A failing batch aborts the call; vectors from earlier batches are discarded.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if err := e.sem.Acquire(ctx, 1); err != nil {
		return nil, &domain.EmbeddingError{Batch: 0, Err: err}
	}
	defer e.sem.Release(1)

	out := make([][]float32, 0, len(texts))
	for batch, start := 0, 0; start < len(texts); batch, start = batch+1, start+e.batchSize {
		if batch > 0 && e.pause > 0 {
			if err := wait(ctx, e.pause); err != nil {
				return nil, &domain.EmbeddingError{Batch: batch, Err: err}
			}
		}

		end := min(start+e.batchSize, len(texts))
		vecs, err := e.inner.EmbedBatch(ctx, texts[start:end])
		e.metrics.EmbeddingBatch(end-start, err)
		if err != nil {
			return nil, &domain.EmbeddingError{Batch: batch, Err: err}
		}
		if len(vecs) != end-start {
			return nil, &domain.EmbeddingError{
				Batch: batch,
				Err:   fmt.Errorf("got %d vectors for %d texts", len(vecs), end-start),
			}
		}
		out = append(out, vecs...)
	}
	return out, nil
}

// Dimensions returns the wrapped service's vector size.
func (e *Embedder) Dimensions() int { return e.inner.Dimensions() }

// ModelName returns the wrapped service's model.
func (e *Embedder) ModelName() string { return e.inner.ModelName() }

// Ping checks the wrapped service.
func (e *Embedder) Ping(ctx context.Context) error { return e.inner.Ping(ctx) }

// Close closes the wrapped service.
func (e *Embedder) Close() error { return e.inner.Close() }

func wait(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
