package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driving"
)

type stubAnswer struct {
	result *domain.QueryResult
	err    error
	got    domain.Query
}

func (s *stubAnswer) Answer(_ context.Context, q domain.Query) (*domain.QueryResult, error) {
	s.got = q
	return s.result, s.err
}

type stubIngestion struct {
	mu      sync.Mutex
	running map[string]bool
	scraped []string
	purged  int
	hold    chan struct{} // blocks claimed runs until closed
}

func (s *stubIngestion) ScrapeSource(_ context.Context, id string, progress domain.ProgressFunc) (*domain.IngestReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scraped = append(s.scraped, id)
	progress("[" + id + "] done")
	return &domain.IngestReport{SourceID: id, Documents: 1}, nil
}

func (s *stubIngestion) StartSource(_ context.Context, id string) (driving.IngestRun, error) {
	if id != "purs" {
		return nil, fmt.Errorf("source %q: %w", id, domain.ErrNotFound)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running[id] {
		return nil, fmt.Errorf("%w: %s", domain.ErrIngestInProgress, id)
	}
	if s.running == nil {
		s.running = map[string]bool{}
	}
	s.running[id] = true
	return func(ctx context.Context, progress domain.ProgressFunc) (*domain.IngestReport, error) {
		if s.hold != nil {
			<-s.hold
		}
		defer func() {
			s.mu.Lock()
			delete(s.running, id)
			s.mu.Unlock()
		}()
		return s.ScrapeSource(ctx, id, progress)
	}, nil
}

func (s *stubIngestion) ScrapeAll(ctx context.Context, progress domain.ProgressFunc) ([]domain.IngestReport, error) {
	r, err := s.ScrapeSource(ctx, "*", progress)
	return []domain.IngestReport{*r}, err
}

func (s *stubIngestion) Status(_ context.Context, id string) (*domain.IngestStatus, error) {
	if id != "purs" {
		return nil, fmt.Errorf("source %q: %w", id, domain.ErrNotFound)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return &domain.IngestStatus{SourceID: id, Running: s.running[id], DocumentsProcessed: 3}, nil
}

func (s *stubIngestion) PurgeSource(_ context.Context, id string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running[id] {
		return 0, domain.ErrIngestInProgress
	}
	return s.purged, nil
}

func (s *stubIngestion) scrapedIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.scraped...)
}

type stubSources struct{}

func (stubSources) Get(_ context.Context, id string) (*domain.Source, error) {
	return &domain.Source{ID: id}, nil
}

func (stubSources) List(context.Context) ([]domain.Source, error) {
	return []domain.Source{{ID: "purs", Name: "Poreska uprava", BaseURL: "https://www.purs.gov.rs", Paths: []string{"/a", "/b"}}}, nil
}

type stubDocuments struct{}

func (stubDocuments) ListBySource(_ context.Context, id string) ([]domain.Document, error) {
	if id != "purs" {
		return nil, domain.ErrNotFound
	}
	return []domain.Document{{ID: "d1", SourceID: "purs", Title: "PDV", Metadata: domain.DocumentMetadata{Category: domain.CategoryVAT}}}, nil
}

func (stubDocuments) ListByCategory(context.Context, domain.Category) ([]domain.Document, error) {
	return []domain.Document{}, nil
}

func (stubDocuments) Get(_ context.Context, id string) (*domain.Document, error) {
	if id != "d1" {
		return nil, domain.ErrNotFound
	}
	return &domain.Document{ID: "d1", Title: "PDV", SourceURL: "https://www.purs.gov.rs/pdv.html"}, nil
}

func (stubDocuments) Chunks(context.Context, string) ([]domain.Chunk, error) {
	return []domain.Chunk{{ID: "d1_chunk_0", DocumentID: "d1", Content: "Stopa PDV je 20%.", Embedding: []float32{1}}}, nil
}

func (stubDocuments) Stats(context.Context) (domain.StoreStats, error) {
	return domain.StoreStats{}, nil
}

var (
	_ driving.AnswerService    = (*stubAnswer)(nil)
	_ driving.IngestionService = (*stubIngestion)(nil)
	_ driving.SourceService    = stubSources{}
	_ driving.DocumentService  = stubDocuments{}
)

func newTestServer(t *testing.T, answer *stubAnswer, ingestion *stubIngestion) *Server {
	t.Helper()
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("sercha_kb_queries_total 1\n"))
	})
	s, err := NewServer(&Ports{
		Answer:    answer,
		Ingestion: ingestion,
		Source:    stubSources{},
		Document:  stubDocuments{},
	}, WithMetricsHandler(metrics))
	require.NoError(t, err)
	return s
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["error"]
}

func TestNewServer_RequiresAnswer(t *testing.T) {
	_, err := NewServer(nil)
	assert.Error(t, err)
	_, err = NewServer(&Ports{})
	assert.Error(t, err)
}

func TestQuery_Success(t *testing.T) {
	answer := &stubAnswer{result: &domain.QueryResult{
		Answer:     "Stopa PDV je 20% [1].",
		Sources:    []domain.SourceCitation{{Title: "PDV", URL: "https://www.purs.gov.rs/pdv.html", Source: "purs", Category: domain.CategoryVAT}},
		Confidence: 0.96,
		Chunks:     []domain.Chunk{{ID: "d1_chunk_0", DocumentID: "d1", Content: "Stopa", Embedding: []float32{0.1, 0.2}}},
		State:      domain.StateDone,
		Provider:   "openai",
	}}
	s := newTestServer(t, answer, &stubIngestion{})

	rec := do(t, s, http.MethodPost, "/api/v1/query",
		`{"question":"Koja je stopa PDV?","language":"sr","categories":["VAT"],"maxResults":3,"userContext":{"businessType":"preduzetnik","vatPayer":true}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Equal(t, "Koja je stopa PDV?", answer.got.Question)
	assert.Equal(t, "sr", answer.got.Language)
	assert.Equal(t, []domain.Category{domain.CategoryVAT}, answer.got.Categories)
	assert.Equal(t, 3, answer.got.MaxResults)
	require.NotNil(t, answer.got.UserContext)
	assert.True(t, answer.got.UserContext.VATPayer)

	assert.NotContains(t, rec.Body.String(), "embedding")
	var resp QueryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Stopa PDV je 20% [1].", resp.Answer)
	assert.InDelta(t, 0.96, resp.Confidence, 1e-9)
	require.Len(t, resp.Sources, 1)
	assert.Equal(t, "purs", resp.Sources[0].Source)
	require.Len(t, resp.Chunks, 1)
	assert.Equal(t, "d1", resp.Chunks[0].DocumentID)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestQuery_NoMatchSerialisesEmptySources(t *testing.T) {
	answer := &stubAnswer{result: &domain.QueryResult{Answer: "Nema odgovora.", State: domain.StateNoMatch}}
	s := newTestServer(t, answer, &stubIngestion{})

	rec := do(t, s, http.MethodPost, "/api/v1/query", `{"question":"kripto?"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"sources":[]`)
	assert.Contains(t, rec.Body.String(), `"chunks":[]`)
	assert.Contains(t, rec.Body.String(), `"confidence":0`)
}

func TestQuery_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
		err  error
		code int
	}{
		{"malformed body", `{"question":`, nil, http.StatusBadRequest},
		{"unknown category", `{"question":"q","categories":["crypto"]}`, nil, http.StatusBadRequest},
		{"negative max results", `{"question":"q","maxResults":-1}`, nil, http.StatusBadRequest},
		{"invalid input", `{"question":""}`, fmt.Errorf("question: %w", domain.ErrInvalidInput), http.StatusBadRequest},
		{"providers down", `{"question":"q"}`, fmt.Errorf("%w: boom", domain.ErrProviderUnavailable), http.StatusServiceUnavailable},
		{"embedding down", `{"question":"q"}`, domain.ErrEmbeddingUnavailable, http.StatusServiceUnavailable},
		{"store failure", `{"question":"q"}`, &domain.StoreError{Op: "search", Err: errors.New("disk")}, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, &stubAnswer{err: tt.err}, &stubIngestion{})
			rec := do(t, s, http.MethodPost, "/api/v1/query", tt.body)
			assert.Equal(t, tt.code, rec.Code)
			assert.NotEmpty(t, decodeError(t, rec))
		})
	}
}

func TestIngest_All(t *testing.T) {
	ingestion := &stubIngestion{}
	s := newTestServer(t, &stubAnswer{}, ingestion)

	rec := do(t, s, http.MethodPost, "/api/v1/ingest", "")
	assert.Equal(t, http.StatusAccepted, rec.Code)
	s.wg.Wait()
	assert.Equal(t, []string{"*"}, ingestion.scrapedIDs())
}

func TestIngest_Source(t *testing.T) {
	ingestion := &stubIngestion{running: map[string]bool{}}
	s := newTestServer(t, &stubAnswer{}, ingestion)

	rec := do(t, s, http.MethodPost, "/api/v1/ingest/purs", "")
	assert.Equal(t, http.StatusAccepted, rec.Code)
	s.wg.Wait()
	assert.Equal(t, []string{"purs"}, ingestion.scrapedIDs())

	rec = do(t, s, http.MethodPost, "/api/v1/ingest/unknown", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	ingestion.running["purs"] = true
	rec = do(t, s, http.MethodPost, "/api/v1/ingest/purs", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, decodeError(t, rec), "in progress")
}

func TestIngest_SourceClaimedBeforeAccepted(t *testing.T) {
	ingestion := &stubIngestion{hold: make(chan struct{})}
	s := newTestServer(t, &stubAnswer{}, ingestion)

	rec := do(t, s, http.MethodPost, "/api/v1/ingest/purs", "")
	require.Equal(t, http.StatusAccepted, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/v1/ingest/purs", "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	close(ingestion.hold)
	s.wg.Wait()
	assert.Equal(t, []string{"purs"}, ingestion.scrapedIDs())

	rec = do(t, s, http.MethodPost, "/api/v1/ingest/purs", "")
	assert.Equal(t, http.StatusAccepted, rec.Code)
	s.wg.Wait()
}

func TestSourceRoutes(t *testing.T) {
	ingestion := &stubIngestion{running: map[string]bool{}, purged: 4}
	s := newTestServer(t, &stubAnswer{}, ingestion)

	rec := do(t, s, http.MethodGet, "/api/v1/sources", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var sources []SourceResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sources))
	require.Len(t, sources, 1)
	assert.Equal(t, "Poreska uprava", sources[0].Name)
	assert.Equal(t, 2, sources[0].Pages)

	rec = do(t, s, http.MethodGet, "/api/v1/sources/purs/status", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var status StatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, 3, status.DocumentsProcessed)

	rec = do(t, s, http.MethodGet, "/api/v1/sources/purs/documents", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"category":"vat"`)

	rec = do(t, s, http.MethodGet, "/api/v1/sources/nope/documents", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, s, http.MethodDelete, "/api/v1/sources/purs/documents", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"deleted":4}`, rec.Body.String())

	ingestion.running["purs"] = true
	rec = do(t, s, http.MethodDelete, "/api/v1/sources/purs/documents", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestDocumentRoutes(t *testing.T) {
	s := newTestServer(t, &stubAnswer{}, &stubIngestion{})

	rec := do(t, s, http.MethodGet, "/api/v1/documents/d1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var doc DocumentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, "https://www.purs.gov.rs/pdv.html", doc.URL)

	rec = do(t, s, http.MethodGet, "/api/v1/documents/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/v1/documents/d1/chunks", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "embedding")
	assert.Contains(t, rec.Body.String(), `"documentId":"d1"`)
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t, &stubAnswer{}, &stubIngestion{})

	rec := do(t, s, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	rec = do(t, s, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "sercha_kb_queries_total")
}

func TestRoutesDisabledWithoutPorts(t *testing.T) {
	s, err := NewServer(&Ports{Answer: &stubAnswer{}})
	require.NoError(t, err)

	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodGet, "/api/v1/sources", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodGet, "/metrics", "").Code)
}

func TestRun_ShutsDownOnCancel(t *testing.T) {
	s := newTestServer(t, &stubAnswer{}, &stubIngestion{})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, "127.0.0.1:0") }()
	cancel()

	assert.NoError(t, <-done)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusConflict, statusFor(fmt.Errorf("x: %w", domain.ErrIngestInProgress)))
	assert.Equal(t, http.StatusInternalServerError, statusFor(errors.New("boom")))
}
