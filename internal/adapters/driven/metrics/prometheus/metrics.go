// Package prometheus records ingestion and query metrics with the
// Prometheus client library.
package prometheus

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
)

const namespace = "sercha_kb"

var _ driven.Metrics = (*Metrics)(nil)

// Metrics implements driven.Metrics on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	fetchAttempts    *prometheus.CounterVec
	documentsStored  *prometheus.CounterVec
	documentsFailed  *prometheus.CounterVec
	embeddingBatches *prometheus.CounterVec
	embeddedTexts    prometheus.Counter
	queries          *prometheus.CounterVec
	queryDuration    *prometheus.HistogramVec
	providerFailures *prometheus.CounterVec
}

// New creates the collectors and registers them, along with the Go and
// process collectors, on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		fetchAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_attempts_total",
			Help:      "HTTP fetch attempts by source and outcome.",
		}, []string{"source", "outcome"}),
		documentsStored: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_ingested_total",
			Help:      "Documents stored by ingestion.",
		}, []string{"source"}),
		documentsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_failed_total",
			Help:      "URLs skipped during ingestion by failing stage.",
		}, []string{"source", "stage"}),
		embeddingBatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "embedding_batches_total",
			Help:      "Embedding provider batch calls by result.",
		}, []string{"result"}),
		embeddedTexts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "embedded_texts_total",
			Help:      "Texts sent to the embedding provider.",
		}),
		queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queries_total",
			Help:      "Answered queries by outcome.",
		}, []string{"outcome"}),
		queryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_duration_seconds",
			Help:      "Query latency by outcome.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"outcome"}),
		providerFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generation_provider_failures_total",
			Help:      "Failed generation attempts by provider.",
		}, []string{"provider"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.fetchAttempts,
		m.documentsStored,
		m.documentsFailed,
		m.embeddingBatches,
		m.embeddedTexts,
		m.queries,
		m.queryDuration,
		m.providerFailures,
	)
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) FetchAttempt(sourceID, outcome string) {
	m.fetchAttempts.WithLabelValues(sourceID, outcome).Inc()
}

func (m *Metrics) DocumentIngested(sourceID string) {
	m.documentsStored.WithLabelValues(sourceID).Inc()
}

func (m *Metrics) DocumentFailed(sourceID, stage string) {
	m.documentsFailed.WithLabelValues(sourceID, stage).Inc()
}

func (m *Metrics) EmbeddingBatch(size int, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.embeddingBatches.WithLabelValues(result).Inc()
	if err == nil {
		m.embeddedTexts.Add(float64(size))
	}
}

func (m *Metrics) QueryCompleted(outcome string, elapsed time.Duration) {
	m.queries.WithLabelValues(outcome).Inc()
	m.queryDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

func (m *Metrics) ProviderFailure(provider string) {
	m.providerFailures.WithLabelValues(provider).Inc()
}
