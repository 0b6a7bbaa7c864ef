package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-kb/internal/logger"
)

var _ driving.IngestionService = (*IngestionService)(nil)

// DefaultIngestionWorkers is the number of sources ingested concurrently.
const DefaultIngestionWorkers = 2

// Ingestion stages, used in logs, reports and metrics.
const (
	StageFetch   = "fetch"
	StageExtract = "extract"
	StageChunk   = "chunk"
	StageEmbed   = "embed"
	StageStore   = "store"
)

// DocumentID derives the stable document ID for a page of a source.
func DocumentID(sourceID, pageURL string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(sourceID+"|"+pageURL)).String()
}

// IngestionService runs the fetch, extract, chunk, embed and store pipeline.
// Pages of one source are processed sequentially; sources run on a bounded pool.
type IngestionService struct {
	sources   driven.SourceStore
	fetcher   driven.Fetcher
	extractor driven.Extractor
	pipeline  driven.PostProcessorPipeline
	embedder  driven.EmbeddingService
	store     driven.DocumentStore
	metrics   driven.Metrics
	workers   int
	now       func() time.Time

	mu     sync.RWMutex
	active map[string]*domain.IngestStatus
}

// IngestionOption configures an IngestionService.
type IngestionOption func(*IngestionService)

// WithIngestionWorkers sets how many sources are ingested concurrently.
func WithIngestionWorkers(n int) IngestionOption {
	return func(s *IngestionService) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithIngestionMetrics records per-document outcomes.
func WithIngestionMetrics(m driven.Metrics) IngestionOption {
	return func(s *IngestionService) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithIngestionClock sets the time source for document timestamps.
func WithIngestionClock(now func() time.Time) IngestionOption {
	return func(s *IngestionService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewIngestionService creates an ingestion service.
func NewIngestionService(
	sources driven.SourceStore,
	fetcher driven.Fetcher,
	extractor driven.Extractor,
	pipeline driven.PostProcessorPipeline,
	embedder driven.EmbeddingService,
	store driven.DocumentStore,
	opts ...IngestionOption,
) *IngestionService {
	s := &IngestionService{
		sources:   sources,
		fetcher:   fetcher,
		extractor: extractor,
		pipeline:  pipeline,
		embedder:  embedder,
		store:     store,
		metrics:   driven.NopMetrics{},
		workers:   DefaultIngestionWorkers,
		now:       time.Now,
		active:    make(map[string]*domain.IngestStatus),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ScrapeSource ingests every page of a source.
// Failed pages are logged, counted and skipped. Cancellation is honoured
// between pages; writes already made for a page are kept.
func (s *IngestionService) ScrapeSource(
	ctx context.Context, sourceID string, progress domain.ProgressFunc,
) (*domain.IngestReport, error) {
	run, err := s.StartSource(ctx, sourceID)
	if err != nil {
		return nil, err
	}
	return run(ctx, progress)
}

// StartSource claims sourceID and returns the run that ingests it.
// A source that is already claimed fails with domain.ErrIngestInProgress.
// The claim is held until run returns, so run must be called exactly once.
func (s *IngestionService) StartSource(ctx context.Context, sourceID string) (driving.IngestRun, error) {
	if s.embedder == nil {
		return nil, fmt.Errorf("ingest %s: %w", sourceID, domain.ErrEmbeddingUnavailable)
	}
	source, err := s.sources.Get(ctx, sourceID)
	if err != nil {
		return nil, fmt.Errorf("get source: %w", err)
	}
	urls, err := source.URLs()
	if err != nil {
		return nil, err
	}

	if !s.begin(sourceID) {
		return nil, fmt.Errorf("%w: %s", domain.ErrIngestInProgress, sourceID)
	}
	return func(ctx context.Context, progress domain.ProgressFunc) (*domain.IngestReport, error) {
		defer s.finish(sourceID)
		return s.scrape(ctx, source, urls, progress)
	}, nil
}

func (s *IngestionService) scrape(
	ctx context.Context, source *domain.Source, urls []string, progress domain.ProgressFunc,
) (*domain.IngestReport, error) {
	sourceID := source.ID
	emit := func(format string, args ...any) {
		if progress != nil {
			progress(fmt.Sprintf("[%s] ", sourceID) + fmt.Sprintf(format, args...))
		}
	}

	report := &domain.IngestReport{SourceID: sourceID, StartedAt: s.now()}
	logger.Info("Starting ingestion for source %s (%d page(s))", sourceID, len(urls))

	for i, pageURL := range urls {
		if err := ctx.Err(); err != nil {
			report.FinishedAt = s.now()
			return report, err
		}

		emit("fetching %s (%d/%d)", pageURL, i+1, len(urls))
		stage, err := s.ingestPage(ctx, *source, pageURL, emit)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				report.FinishedAt = s.now()
				return report, ctxErr
			}
			report.Failed++
			report.Errors = append(report.Errors, fmt.Sprintf("%s: %s: %v", pageURL, stage, err))
			s.metrics.DocumentFailed(sourceID, stage)
			s.update(sourceID, func(st *domain.IngestStatus) { st.ErrorCount++ })
			logger.Error("Ingest %s: %s failed for %s: %v", sourceID, stage, pageURL, err)
			emit("skipped %s: %s failed", pageURL, stage)
			continue
		}

		report.Documents++
		s.metrics.DocumentIngested(sourceID)
		s.update(sourceID, func(st *domain.IngestStatus) { st.DocumentsProcessed++ })
	}

	report.FinishedAt = s.now()
	emit("done: %d document(s), %d failed", report.Documents, report.Failed)
	logger.Info("Ingestion complete for %s: %d documents, %d failed in %s",
		sourceID, report.Documents, report.Failed, report.Duration())
	return report, nil
}

// ingestPage runs one page through the pipeline and returns the failing stage on error.
func (s *IngestionService) ingestPage(
	ctx context.Context, source domain.Source, pageURL string, emit func(string, ...any),
) (string, error) {
	raw, err := s.fetcher.Fetch(ctx, source, pageURL)
	if err != nil {
		return StageFetch, err
	}

	ext, err := s.extractor.Extract(raw, pageURL, source)
	if err != nil {
		return StageExtract, err
	}

	lang := ext.Language
	if lang == "" {
		lang = source.Language
	}
	now := s.now()
	doc := &domain.Document{
		ID:        DocumentID(source.ID, pageURL),
		SourceID:  source.ID,
		Title:     ext.Title,
		SourceURL: pageURL,
		Content:   ext.Text,
		Metadata: domain.DocumentMetadata{
			Category:     ext.Category,
			Language:     lang,
			Tags:         ext.Tags,
			DocumentType: ext.DocumentType,
			Year:         ext.Year,
			LawReference: ext.LawReference,
			RelevantFor:  ext.RelevantFor,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	emit("chunking %q", doc.Title)
	chunks, err := s.pipeline.Process(ctx, doc)
	if err != nil {
		return StageChunk, fmt.Errorf("post-process: %w", err)
	}

	if len(chunks) > 0 {
		emit("embedding %d chunk(s)", len(chunks))
		texts := make([]string, len(chunks))
		for i := range chunks {
			texts[i] = chunks[i].Content
		}
		vectors, err := s.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return StageEmbed, err
		}
		for i := range chunks {
			chunks[i].Embedding = vectors[i]
		}
	}

	emit("storing %s", doc.ID)
	if err := s.store.PutDocument(ctx, doc); err != nil {
		return StageStore, err
	}
	if err := s.store.PutChunks(ctx, chunks); err != nil {
		return StageStore, err
	}
	if err := s.store.PruneChunks(ctx, doc.ID, len(chunks)); err != nil {
		return StageStore, err
	}

	logger.Debug("Stored %s (%s) with %d chunk(s)", pageURL, doc.Metadata.Category, len(chunks))
	return "", nil
}

// ScrapeAll ingests every source on a bounded worker pool.
// Reports follow source configuration order. A failing source does not
// stop the others; their errors are joined.
func (s *IngestionService) ScrapeAll(ctx context.Context, progress domain.ProgressFunc) ([]domain.IngestReport, error) {
	sources, err := s.sources.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}

	var progressMu sync.Mutex
	serial := progress
	if progress != nil {
		serial = func(status string) {
			progressMu.Lock()
			defer progressMu.Unlock()
			progress(status)
		}
	}

	reports := make([]domain.IngestReport, len(sources))
	errs := make([]error, len(sources))

	var g errgroup.Group
	g.SetLimit(s.workers)
	for i := range sources {
		i, id := i, sources[i].ID
		g.Go(func() error {
			report, err := s.ScrapeSource(ctx, id, serial)
			if report != nil {
				reports[i] = *report
			} else {
				reports[i] = domain.IngestReport{SourceID: id}
			}
			if err != nil {
				errs[i] = fmt.Errorf("ingest %s: %w", id, err)
			}
			return nil
		})
	}
	_ = g.Wait()

	return reports, errors.Join(errs...)
}

// Status returns the live status of a source, or an idle status.
func (s *IngestionService) Status(ctx context.Context, sourceID string) (*domain.IngestStatus, error) {
	if _, err := s.sources.Get(ctx, sourceID); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if st, ok := s.active[sourceID]; ok {
		cp := *st
		return &cp, nil
	}
	return &domain.IngestStatus{SourceID: sourceID}, nil
}

// PurgeSource deletes every stored document of a source.
func (s *IngestionService) PurgeSource(ctx context.Context, sourceID string) (int, error) {
	if _, err := s.sources.Get(ctx, sourceID); err != nil {
		return 0, err
	}

	s.mu.RLock()
	_, running := s.active[sourceID]
	s.mu.RUnlock()
	if running {
		return 0, fmt.Errorf("%w: %s", domain.ErrIngestInProgress, sourceID)
	}

	n, err := s.store.DeleteSource(ctx, sourceID)
	if err != nil {
		return 0, fmt.Errorf("purge %s: %w", sourceID, err)
	}
	logger.Info("Purged %d document(s) of source %s", n, sourceID)
	return n, nil
}

func (s *IngestionService) begin(sourceID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.active[sourceID]; ok {
		return false
	}
	s.active[sourceID] = &domain.IngestStatus{SourceID: sourceID, Running: true}
	return true
}

func (s *IngestionService) finish(sourceID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.active, sourceID)
}

func (s *IngestionService) update(sourceID string, fn func(*domain.IngestStatus)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.active[sourceID]; ok {
		fn(st)
	}
}
