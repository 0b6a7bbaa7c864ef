package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driving"
)

// mockEmbedder maps known texts to vectors and falls back to a keyword vector.
type mockEmbedder struct {
	vectors  map[string][]float32
	err      error
	failOn   string
	calls    atomic.Int32
	batchLen []int
	mu       sync.Mutex
}

func (m *mockEmbedder) vector(text string) []float32 {
	if v, ok := m.vectors[text]; ok {
		return v
	}
	// [vat, flat-tax, other] keyword axes
	lower := strings.ToLower(text)
	v := []float32{0, 0, 0.1}
	if strings.Contains(lower, "pdv") || strings.Contains(lower, "vat") {
		v[0] = 1
	}
	if strings.Contains(lower, "paušal") || strings.Contains(lower, "flat") {
		v[1] = 1
	}
	return v
}

func (m *mockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	m.calls.Add(1)
	if m.err != nil {
		return nil, &domain.EmbeddingError{Batch: -1, Err: m.err}
	}
	return m.vector(text), nil
}

func (m *mockEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.calls.Add(1)
	m.mu.Lock()
	m.batchLen = append(m.batchLen, len(texts))
	m.mu.Unlock()
	if m.err != nil {
		return nil, &domain.EmbeddingError{Batch: 0, Err: m.err}
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if m.failOn != "" && strings.Contains(t, m.failOn) {
			return nil, &domain.EmbeddingError{Batch: 0, Err: errors.New("provider rejected input")}
		}
		out[i] = m.vector(t)
	}
	return out, nil
}

func (m *mockEmbedder) Dimensions() int              { return 3 }
func (m *mockEmbedder) ModelName() string            { return "mock" }
func (m *mockEmbedder) Ping(_ context.Context) error { return m.err }
func (m *mockEmbedder) Close() error                 { return nil }

// mockProvider is a scripted generation provider.
type mockProvider struct {
	name   string
	answer string
	err    error
	delay  time.Duration

	mu   sync.Mutex
	reqs []driven.GenerationRequest
}

func (m *mockProvider) Name() string { return m.name }

func (m *mockProvider) Generate(ctx context.Context, req driven.GenerationRequest) (string, error) {
	m.mu.Lock()
	m.reqs = append(m.reqs, req)
	m.mu.Unlock()

	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return m.answer, m.err
}

func (m *mockProvider) Close() error { return nil }

func (m *mockProvider) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.reqs)
}

// mockPrompts serves prompts from a map.
type mockPrompts map[string]string

func (m mockPrompts) Load(name string) (string, error) {
	if p, ok := m[name]; ok {
		return p, nil
	}
	return "", fmt.Errorf("load prompt %q: %w", name, domain.ErrNotFound)
}

func (m mockPrompts) Reload() {}

func defaultMockPrompts() mockPrompts {
	return mockPrompts{
		driven.PromptAnswerSystem:          "Answer in %s using the context.",
		driven.PromptFallbackPrefix + "sr": "Nema odgovora. Pogledajte %s",
		driven.PromptFallbackPrefix + "en": "No answer found. See %s",
	}
}

// mockRetriever returns fixed hits.
type mockRetriever struct {
	hits  []domain.ScoredChunk
	err   error
	gotK  int
	gotQ  string
	gotCs []domain.Category
}

func (m *mockRetriever) Retrieve(
	_ context.Context, question string, categories []domain.Category, topK int,
) ([]domain.ScoredChunk, error) {
	m.gotQ, m.gotCs, m.gotK = question, categories, topK
	return m.hits, m.err
}

// mockMetrics counts observations.
type mockMetrics struct {
	driven.NopMetrics
	mu       sync.Mutex
	outcomes []string
	failures map[string]int
	ingested int
	failed   map[string]int
}

func newMockMetrics() *mockMetrics {
	return &mockMetrics{failures: map[string]int{}, failed: map[string]int{}}
}

func (m *mockMetrics) QueryCompleted(outcome string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes = append(m.outcomes, outcome)
}

func (m *mockMetrics) ProviderFailure(provider string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[provider]++
}

func (m *mockMetrics) DocumentIngested(string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ingested++
}

func (m *mockMetrics) DocumentFailed(_, stage string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failed[stage]++
}

// mockIngestion records scheduler-driven runs.
type mockIngestion struct {
	mu      sync.Mutex
	runs    int
	reports []domain.IngestReport
	err     error
}

func (m *mockIngestion) ScrapeSource(context.Context, string, domain.ProgressFunc) (*domain.IngestReport, error) {
	return nil, nil
}

func (m *mockIngestion) StartSource(_ context.Context, sourceID string) (driving.IngestRun, error) {
	return func(ctx context.Context, progress domain.ProgressFunc) (*domain.IngestReport, error) {
		return m.ScrapeSource(ctx, sourceID, progress)
	}, nil
}

func (m *mockIngestion) ScrapeAll(context.Context, domain.ProgressFunc) ([]domain.IngestReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs++
	return m.reports, m.err
}

func (m *mockIngestion) Status(_ context.Context, id string) (*domain.IngestStatus, error) {
	return &domain.IngestStatus{SourceID: id}, nil
}

func (m *mockIngestion) PurgeSource(context.Context, string) (int, error) { return 0, nil }

func (m *mockIngestion) runCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.runs
}

var (
	_ driven.EmbeddingService   = (*mockEmbedder)(nil)
	_ driven.GenerationProvider = (*mockProvider)(nil)
	_ driven.PromptStore        = mockPrompts(nil)
	_ driving.RetrievalService  = (*mockRetriever)(nil)
	_ driven.Metrics            = (*mockMetrics)(nil)
	_ driving.IngestionService  = (*mockIngestion)(nil)
)

// hit builds a scored chunk for document docID.
func hit(docID string, pos int, score float64, category domain.Category, content string) domain.ScoredChunk {
	return domain.ScoredChunk{
		Chunk: domain.Chunk{
			ID:         domain.ChunkID(docID, pos),
			DocumentID: docID,
			Content:    content,
			Position:   pos,
			Embedding:  []float32{1, 0, 0},
		},
		Document: domain.Document{
			ID:        docID,
			SourceID:  "purs",
			Title:     "Title " + docID,
			SourceURL: "https://www.purs.gov.rs/" + docID + ".html",
			Metadata:  domain.DocumentMetadata{Category: category},
		},
		Score: score,
	}
}
