package batch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
)

// fakeEmbedder returns a one-element vector holding each text's length.
type fakeEmbedder struct {
	mu       sync.Mutex
	sizes    []int
	failAt   int // batch call (1-based) that fails; 0 never fails
	short    bool
	delay    time.Duration
	calls    int
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{float32(len(text))}, nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	f.mu.Lock()
	f.calls++
	call := f.calls
	f.sizes = append(f.sizes, len(texts))
	f.mu.Unlock()

	if call == f.failAt {
		return nil, errors.New("provider down")
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{float32(len(t))}
	}
	if f.short {
		out = out[:len(out)-1]
	}
	return out, nil
}

func (f *fakeEmbedder) Dimensions() int                { return 1 }
func (f *fakeEmbedder) ModelName() string              { return "fake" }
func (f *fakeEmbedder) Ping(ctx context.Context) error { return nil }
func (f *fakeEmbedder) Close() error                   { return nil }

type recordingMetrics struct {
	driven.NopMetrics
	mu      sync.Mutex
	batches []int
	errs    int
}

func (m *recordingMetrics) EmbeddingBatch(size int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batches = append(m.batches, size)
	if err != nil {
		m.errs++
	}
}

func texts(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("t%d", i)
	}
	return out
}

func TestEmbedBatch_SplitsInOrder(t *testing.T) {
	inner := &fakeEmbedder{}
	metrics := &recordingMetrics{}
	e := New(inner, WithBatchPause(0), WithMetrics(metrics))

	in := texts(250)
	vecs, err := e.EmbedBatch(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, []int{100, 100, 50}, inner.sizes)
	assert.Equal(t, []int{100, 100, 50}, metrics.batches)
	require.Len(t, vecs, 250)
	for i, v := range vecs {
		assert.Equal(t, float32(len(in[i])), v[0])
	}
}

func TestEmbedBatch_PausesBetweenBatches(t *testing.T) {
	inner := &fakeEmbedder{}
	e := New(inner, WithBatchSize(2), WithBatchPause(30*time.Millisecond))

	start := time.Now()
	_, err := e.EmbedBatch(context.Background(), texts(6))
	require.NoError(t, err)

	// Three batches, two pauses.
	assert.GreaterOrEqual(t, time.Since(start), 60*time.Millisecond)
	assert.Equal(t, []int{2, 2, 2}, inner.sizes)
}

func TestEmbedBatch_FailureReportsBatch(t *testing.T) {
	inner := &fakeEmbedder{failAt: 2}
	metrics := &recordingMetrics{}
	e := New(inner, WithBatchSize(10), WithBatchPause(0), WithMetrics(metrics))

	_, err := e.EmbedBatch(context.Background(), texts(30))
	require.Error(t, err)

	var ee *domain.EmbeddingError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, 1, ee.Batch)
	assert.ErrorIs(t, err, domain.ErrEmbedding)
	assert.Equal(t, 2, inner.calls, "later batches must not run")
	assert.Equal(t, 1, metrics.errs)
}

func TestEmbedBatch_CountMismatch(t *testing.T) {
	e := New(&fakeEmbedder{short: true}, WithBatchPause(0))

	_, err := e.EmbedBatch(context.Background(), texts(3))
	assert.ErrorIs(t, err, domain.ErrEmbedding)
	assert.Contains(t, err.Error(), "got 2 vectors for 3 texts")
}

func TestEmbedBatch_Empty(t *testing.T) {
	inner := &fakeEmbedder{}
	vecs, err := New(inner).EmbedBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, vecs)
	assert.Zero(t, inner.calls)
}

func TestEmbedBatch_ConcurrencyCap(t *testing.T) {
	inner := &fakeEmbedder{delay: 20 * time.Millisecond}
	e := New(inner, WithMaxConcurrency(2), WithBatchPause(0))

	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.EmbedBatch(context.Background(), texts(1))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, inner.peak.Load(), int32(2))
	assert.Equal(t, 6, inner.calls)
}

func TestEmbedBatch_ContextCancelledDuringPause(t *testing.T) {
	e := New(&fakeEmbedder{}, WithBatchSize(1), WithBatchPause(time.Second))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := e.EmbedBatch(ctx, texts(3))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.ErrorIs(t, err, domain.ErrEmbedding)
}

func TestEmbed_WrapsErrors(t *testing.T) {
	e := New(&failingSingle{})
	_, err := e.Embed(context.Background(), "q")

	var ee *domain.EmbeddingError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, -1, ee.Batch)
}

func TestEmbed_Delegates(t *testing.T) {
	e := New(&fakeEmbedder{})
	vec, err := e.Embed(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, []float32{3}, vec)
	assert.Equal(t, 1, e.Dimensions())
	assert.Equal(t, "fake", e.ModelName())
	assert.NoError(t, e.Ping(context.Background()))
	assert.NoError(t, e.Close())
}

type failingSingle struct{ fakeEmbedder }

func (f *failingSingle) Embed(ctx context.Context, text string) ([]float32, error) {
	return nil, errors.New("unauthorized")
}
