package prometheus

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.FetchAttempt("purs", "ok")
	m.FetchAttempt("purs", "retry")
	m.FetchAttempt("purs", "retry")
	m.DocumentIngested("purs")
	m.DocumentFailed("purs", "fetch")
	m.ProviderFailure("openai")

	assert.InDelta(t, 1, testutil.ToFloat64(m.fetchAttempts.WithLabelValues("purs", "ok")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.fetchAttempts.WithLabelValues("purs", "retry")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.documentsStored.WithLabelValues("purs")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.documentsFailed.WithLabelValues("purs", "fetch")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.providerFailures.WithLabelValues("openai")), 0)
}

func TestMetrics_EmbeddingBatch(t *testing.T) {
	m := New()

	m.EmbeddingBatch(100, nil)
	m.EmbeddingBatch(50, nil)
	m.EmbeddingBatch(100, errors.New("rate limited"))

	assert.InDelta(t, 2, testutil.ToFloat64(m.embeddingBatches.WithLabelValues("ok")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.embeddingBatches.WithLabelValues("error")), 0)
	assert.InDelta(t, 150, testutil.ToFloat64(m.embeddedTexts), 0)
}

func TestMetrics_QueryCompleted(t *testing.T) {
	m := New()

	m.QueryCompleted("answered", 1500*time.Millisecond)
	m.QueryCompleted("no_match", 100*time.Millisecond)

	assert.InDelta(t, 1, testutil.ToFloat64(m.queries.WithLabelValues("answered")), 0)
	assert.Equal(t, 2, testutil.CollectAndCount(m.queryDuration))
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.QueryCompleted("answered", time.Second)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, string(body), `sercha_kb_queries_total{outcome="answered"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}
