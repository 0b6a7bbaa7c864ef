package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/custodia-labs/sercha-kb/internal/adapters/driven/classifier/keyword"
	"github.com/custodia-labs/sercha-kb/internal/adapters/driven/config/file"
	"github.com/custodia-labs/sercha-kb/internal/adapters/driven/embedding/batch"
	geminiembed "github.com/custodia-labs/sercha-kb/internal/adapters/driven/embedding/gemini"
	openaiembed "github.com/custodia-labs/sercha-kb/internal/adapters/driven/embedding/openai"
	"github.com/custodia-labs/sercha-kb/internal/adapters/driven/extractor/html"
	"github.com/custodia-labs/sercha-kb/internal/adapters/driven/fetcher/web"
	"github.com/custodia-labs/sercha-kb/internal/adapters/driven/generation/anthropic"
	geminigen "github.com/custodia-labs/sercha-kb/internal/adapters/driven/generation/gemini"
	openaigen "github.com/custodia-labs/sercha-kb/internal/adapters/driven/generation/openai"
	"github.com/custodia-labs/sercha-kb/internal/adapters/driven/metrics/prometheus"
	"github.com/custodia-labs/sercha-kb/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sercha-kb/internal/adapters/driven/storage/postgres"
	"github.com/custodia-labs/sercha-kb/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/sercha-kb/internal/adapters/driving/cli"
	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-kb/internal/core/services"
	"github.com/custodia-labs/sercha-kb/internal/logger"
	"github.com/custodia-labs/sercha-kb/internal/postprocessors"
)

// closers releases resources in reverse order of acquisition.
type closers []func() error

func (c *closers) add(fn func() error) { *c = append(*c, fn) }

func (c closers) close() {
	for i := len(c) - 1; i >= 0; i-- {
		if err := c[i](); err != nil {
			logger.Warn("shutdown: %v", err)
		}
	}
}

// initialise loads configuration and builds every service the CLI needs.
func initialise(ctx context.Context, configPath string) (*cli.Services, func(), error) {
	dir, err := file.DefaultDir()
	if err != nil {
		return nil, nil, err
	}
	if err := file.LoadEnv(".env", filepath.Join(dir, ".env")); err != nil {
		return nil, nil, err
	}
	cfg, err := file.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	return build(ctx, cfg, dir)
}

// build wires the services for cfg. dir holds local state for the
// postgres driver's scheduler.
func build(ctx context.Context, cfg *file.Config, dir string) (*cli.Services, func(), error) {
	var cl closers
	fail := func(err error) (*cli.Services, func(), error) {
		cl.close()
		return nil, nil, err
	}

	metrics := prometheus.New()

	store, sqliteStore, err := openStore(ctx, cfg)
	if err != nil {
		return fail(err)
	}
	cl.add(store.Close)
	if sqliteStore != nil {
		cl.add(sqliteStore.Close)
	}

	sourceStore, err := memory.NewSourceStore(cfg.DomainSources())
	if err != nil {
		return fail(err)
	}

	s := &cli.Services{
		Source:     services.NewSourceService(sourceStore),
		Document:   services.NewDocumentService(store, sourceStore),
		Metrics:    metrics.Handler(),
		ServerAddr: cfg.Server.Addr,
		Language:   cfg.Answer.DefaultLanguage,
	}

	// Without an embedder the services run read-only: ask and ingest
	// fail with domain.ErrEmbeddingUnavailable.
	embedder, err := newEmbedder(ctx, cfg, metrics)
	if err != nil {
		logger.Warn("embedding unavailable, ask and ingest are disabled: %v", err)
		embedder = nil
	} else {
		cl.add(embedder.Close)
	}

	pipeline, err := postprocessors.NewDefaultPipeline(cfg.ChunkConfig())
	if err != nil {
		return fail(err)
	}

	fetcher := web.New(
		web.WithUserAgent(cfg.Ingestion.UserAgent),
		web.WithMetrics(metrics),
	)
	extractor := html.New(keyword.New(), html.WithMinContentLength(cfg.Ingestion.MinContentLength))

	ingestion := services.NewIngestionService(
		sourceStore, fetcher, extractor, pipeline, embedder, store,
		services.WithIngestionWorkers(cfg.Ingestion.Workers),
		services.WithIngestionMetrics(metrics),
	)
	s.Ingestion = ingestion

	retriever := services.NewRetriever(embedder, store,
		services.WithTopK(cfg.Retrieval.TopK),
		services.WithMinScore(cfg.Retrieval.MinScore),
	)
	s.Retrieval = retriever

	providers := newProviders(ctx, cfg)
	for _, p := range providers {
		cl.add(p.Close)
	}
	if len(providers) == 0 {
		logger.Warn("no generation provider configured, questions with matching documents will fail")
	}

	prompts, err := file.NewPromptStore("")
	if err != nil {
		return fail(err)
	}
	s.Answer = services.NewAnswerService(retriever, providers, prompts,
		services.WithAnswerConfig(services.AnswerConfig{
			DefaultLanguage:   cfg.Answer.DefaultLanguage,
			FallbackURL:       cfg.Answer.FallbackURL,
			GenerationTimeout: cfg.Generation.Timeout.Std(),
			Temperature:       cfg.Generation.Temperature,
			MaxTokens:         cfg.Generation.MaxTokens,
		}),
		services.WithAnswerMetrics(metrics),
	)

	schedCfg := domain.IngestSchedulerConfig(cfg.Ingestion.ScheduleInterval.Std())
	if schedCfg.Enabled && embedder == nil {
		logger.Warn("scheduled ingestion disabled: no embedder")
	}
	if schedCfg.Enabled && embedder != nil {
		state, err := schedulerState(cfg, sqliteStore, dir, &cl)
		if err != nil {
			return fail(err)
		}
		s.Scheduler = services.NewScheduler(schedCfg, state, ingestion)
		s.SchedulerEnabled = true
	}

	return s, cl.close, nil
}

// openStore opens the configured document store.
// The SQLite store is also returned so scheduler state can share its database.
func openStore(ctx context.Context, cfg *file.Config) (driven.DocumentStore, *sqlite.Store, error) {
	switch cfg.Storage.Driver {
	case file.DriverMemory:
		return memory.NewDocumentStore(), nil, nil
	case file.DriverPostgres:
		st, err := postgres.New(ctx, cfg.Storage.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		return st, nil, nil
	default:
		st, err := sqlite.NewStore(cfg.Storage.Path)
		if err != nil {
			return nil, nil, err
		}
		logger.Debug("sqlite store at %s", st.Path())
		return st.DocumentStore(), st, nil
	}
}

// schedulerState picks where task state lives. The memory driver keeps it in
// memory too; postgres keeps it in a local SQLite file under dir.
func schedulerState(cfg *file.Config, sqliteStore *sqlite.Store, dir string, cl *closers) (driven.SchedulerStore, error) {
	switch {
	case sqliteStore != nil:
		return sqliteStore.SchedulerStore(), nil
	case cfg.Storage.Driver == file.DriverMemory:
		return memory.NewSchedulerStore(), nil
	}
	state, err := sqlite.NewStore(filepath.Join(dir, "data"))
	if err != nil {
		return nil, fmt.Errorf("open scheduler state: %w", err)
	}
	cl.add(state.Close)
	return state.SchedulerStore(), nil
}

// newEmbedder builds the configured embedding provider behind the batching wrapper.
func newEmbedder(ctx context.Context, cfg *file.Config, m driven.Metrics) (driven.EmbeddingService, error) {
	ec := cfg.Embedding

	var (
		inner driven.EmbeddingService
		err   error
	)
	switch ec.Provider {
	case file.ProviderGemini:
		inner, err = geminiembed.NewEmbeddingService(ctx, geminiembed.Config{
			APIKey:     cfg.Secrets.GeminiKey,
			Model:      ec.Model,
			Dimensions: ec.Dimensions,
			Endpoint:   ec.BaseURL,
		})
	case file.ProviderOpenAI:
		inner, err = openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:     cfg.Secrets.OpenAIKey,
			BaseURL:    ec.BaseURL,
			Model:      ec.Model,
			Timeout:    ec.Timeout.Std(),
			Dimensions: ec.Dimensions,
		})
	default:
		err = fmt.Errorf("%w: embedding provider %q", domain.ErrInvalidInput, ec.Provider)
	}
	if err != nil {
		return nil, err
	}

	return batch.New(inner,
		batch.WithBatchSize(ec.BatchSize),
		batch.WithBatchPause(ec.BatchPause.Std()),
		batch.WithMaxConcurrency(ec.MaxConcurrency),
		batch.WithMetrics(m),
	), nil
}

// newProviders builds generation providers in failover order.
// Providers without credentials are skipped.
func newProviders(ctx context.Context, cfg *file.Config) []driven.GenerationProvider {
	gc := cfg.Generation
	var providers []driven.GenerationProvider
	for _, name := range gc.Providers {
		var (
			p   driven.GenerationProvider
			err error
		)
		switch name {
		case file.ProviderOpenAI:
			p, err = openaigen.New(openaigen.Config{
				APIKey:  cfg.Secrets.OpenAIKey,
				BaseURL: gc.OpenAI.BaseURL,
				Model:   gc.OpenAI.Model,
				Timeout: gc.Timeout.Std(),
			})
		case file.ProviderGemini:
			p, err = geminigen.New(ctx, geminigen.Config{
				APIKey:   cfg.Secrets.GeminiKey,
				Model:    gc.Gemini.Model,
				Endpoint: gc.Gemini.BaseURL,
			})
		case file.ProviderAnthropic:
			p, err = anthropic.New(anthropic.Config{
				APIKey:  cfg.Secrets.AnthropicKey,
				BaseURL: gc.Anthropic.BaseURL,
				Model:   gc.Anthropic.Model,
				Timeout: gc.Timeout.Std(),
			})
		default:
			err = errors.New("unknown provider")
		}
		if err != nil {
			logger.Warn("generation provider %s disabled: %v", name, err)
			continue
		}
		providers = append(providers, p)
	}
	return providers
}
