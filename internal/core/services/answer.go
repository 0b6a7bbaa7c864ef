package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-kb/internal/logger"
)

var _ driving.AnswerService = (*AnswerService)(nil)

// ExcerptLength is the maximum citation excerpt length in runes.
const ExcerptLength = 200

// languageNames maps answer languages to the name used in the system prompt.
var languageNames = map[string]string{
	"sr": "Serbian (Latin script)",
	"en": "English",
}

// AnswerConfig tunes answer composition.
type AnswerConfig struct {
	// DefaultLanguage is used when a query has none.
	DefaultLanguage string

	// FallbackURL is the official source offered when nothing matches.
	FallbackURL string

	// GenerationTimeout bounds each provider call.
	GenerationTimeout time.Duration

	// Temperature is passed to every provider.
	Temperature float64

	// MaxTokens caps answer length.
	MaxTokens int
}

// DefaultAnswerConfig returns the default answer settings.
func DefaultAnswerConfig() AnswerConfig {
	return AnswerConfig{
		DefaultLanguage:   "sr",
		FallbackURL:       "https://www.purs.gov.rs",
		GenerationTimeout: 30 * time.Second,
		Temperature:       0.2,
		MaxTokens:         1024,
	}
}

// AnswerService composes grounded answers.
// Generation providers are tried in order; the first non-empty answer wins.
type AnswerService struct {
	retriever driving.RetrievalService
	providers []driven.GenerationProvider
	prompts   driven.PromptStore
	metrics   driven.Metrics
	config    AnswerConfig
}

// AnswerOption configures an AnswerService.
type AnswerOption func(*AnswerService)

// WithAnswerConfig replaces the answer settings.
func WithAnswerConfig(cfg AnswerConfig) AnswerOption {
	return func(s *AnswerService) {
		def := DefaultAnswerConfig()
		if cfg.DefaultLanguage == "" {
			cfg.DefaultLanguage = def.DefaultLanguage
		}
		if cfg.FallbackURL == "" {
			cfg.FallbackURL = def.FallbackURL
		}
		if cfg.GenerationTimeout <= 0 {
			cfg.GenerationTimeout = def.GenerationTimeout
		}
		s.config = cfg
	}
}

// WithAnswerMetrics records query outcomes and provider failures.
func WithAnswerMetrics(m driven.Metrics) AnswerOption {
	return func(s *AnswerService) {
		if m != nil {
			s.metrics = m
		}
	}
}

// NewAnswerService creates an answer service.
func NewAnswerService(
	retriever driving.RetrievalService,
	providers []driven.GenerationProvider,
	prompts driven.PromptStore,
	opts ...AnswerOption,
) *AnswerService {
	s := &AnswerService{
		retriever: retriever,
		providers: providers,
		prompts:   prompts,
		metrics:   driven.NopMetrics{},
		config:    DefaultAnswerConfig(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Answer runs EMBED_QUERY, RETRIEVE, then either NO_MATCH or
// BUILD_CONTEXT, GENERATE and ATTRIBUTE_SOURCES.
func (s *AnswerService) Answer(ctx context.Context, q domain.Query) (*domain.QueryResult, error) {
	start := time.Now()
	result, err := s.answer(ctx, q)

	outcome := "answered"
	switch {
	case err != nil:
		outcome = "error"
	case result.State == domain.StateNoMatch:
		outcome = "no_match"
	}
	s.metrics.QueryCompleted(outcome, time.Since(start))
	return result, err
}

func (s *AnswerService) answer(ctx context.Context, q domain.Query) (*domain.QueryResult, error) {
	question := strings.TrimSpace(q.Question)
	if question == "" {
		return nil, fmt.Errorf("%w: question is required", domain.ErrInvalidInput)
	}
	lang := strings.ToLower(strings.TrimSpace(q.Language))
	if lang == "" {
		lang = s.config.DefaultLanguage
	}

	logger.Section("Answer")
	logger.Debug("Question: %q (language=%s)", question, lang)

	// EMBED_QUERY and RETRIEVE
	enter(domain.StateEmbedQuery)
	enter(domain.StateRetrieve)
	hits, err := s.retriever.Retrieve(ctx, question, q.Categories, q.MaxResults)
	if err != nil {
		return nil, fmt.Errorf("retrieve: %w", err)
	}

	if len(hits) == 0 {
		enter(domain.StateNoMatch)
		return s.noMatch(lang)
	}

	enter(domain.StateBuildContext)
	system, err := s.systemPrompt(lang)
	if err != nil {
		return nil, err
	}
	prompt := buildPrompt(question, hits, q.UserContext)

	enter(domain.StateGenerate)
	answer, provider, err := s.generate(ctx, driven.GenerationRequest{
		System:      system,
		Prompt:      prompt,
		Temperature: s.config.Temperature,
		MaxTokens:   s.config.MaxTokens,
	})
	if err != nil {
		return nil, err
	}

	enter(domain.StateAttributeSources)
	scores := make([]float64, len(hits))
	chunks := make([]domain.Chunk, len(hits))
	for i, h := range hits {
		scores[i] = h.Score
		chunks[i] = h.Chunk.WithoutEmbedding()
	}

	enter(domain.StateDone)
	return &domain.QueryResult{
		Answer:     answer,
		Sources:    citations(hits),
		Confidence: domain.Confidence(scores),
		Chunks:     chunks,
		State:      domain.StateDone,
		Provider:   provider,
	}, nil
}

func enter(state domain.AnswerState) {
	logger.Debug("Answer state: %s", state)
}

// noMatch builds the fallback result in the query language, or English.
func (s *AnswerService) noMatch(lang string) (*domain.QueryResult, error) {
	tmpl, err := s.prompts.Load(driven.PromptFallbackPrefix + lang)
	if err != nil {
		tmpl, err = s.prompts.Load(driven.PromptFallbackPrefix + "en")
		if err != nil {
			return nil, fmt.Errorf("load fallback prompt: %w", err)
		}
	}
	return &domain.QueryResult{
		Answer:     fill(tmpl, s.config.FallbackURL),
		Sources:    []domain.SourceCitation{},
		Confidence: 0,
		Chunks:     []domain.Chunk{},
		State:      domain.StateNoMatch,
	}, nil
}

func (s *AnswerService) systemPrompt(lang string) (string, error) {
	tmpl, err := s.prompts.Load(driven.PromptAnswerSystem)
	if err != nil {
		return "", fmt.Errorf("load system prompt: %w", err)
	}
	name, ok := languageNames[lang]
	if !ok {
		name = lang
	}
	return fill(tmpl, name), nil
}

// generate tries each provider in order under its own timeout.
func (s *AnswerService) generate(ctx context.Context, req driven.GenerationRequest) (string, string, error) {
	if len(s.providers) == 0 {
		return "", "", fmt.Errorf("%w: no generation providers configured", domain.ErrProviderUnavailable)
	}

	var errs []error
	for _, p := range s.providers {
		callCtx, cancel := context.WithTimeout(ctx, s.config.GenerationTimeout)
		text, err := p.Generate(callCtx, req)
		cancel()

		if err == nil && strings.TrimSpace(text) == "" {
			err = errors.New("empty answer")
		}
		if err == nil {
			logger.Debug("Answer generated by %s", p.Name())
			return strings.TrimSpace(text), p.Name(), nil
		}

		perr := &domain.GenerationProviderError{Provider: p.Name(), Err: err}
		logger.Error("Generation failed: %v", perr)
		s.metrics.ProviderFailure(p.Name())
		errs = append(errs, perr)

		if ctx.Err() != nil {
			break
		}
	}
	return "", "", fmt.Errorf("%w: %w", domain.ErrProviderUnavailable, errors.Join(errs...))
}

// buildPrompt renders the numbered context, the user's situation and the question.
func buildPrompt(question string, hits []domain.ScoredChunk, uc *domain.UserContext) string {
	var b strings.Builder
	b.WriteString("Context:\n")
	for i, h := range hits {
		title := h.Document.Title
		if title == "" {
			title = h.Chunk.Metadata.Title
		}
		fmt.Fprintf(&b, "\n[%d] %s (%s)\n%s\n", i+1, title, h.Document.Metadata.Category, strings.TrimSpace(h.Chunk.Content))
	}
	if line := userContextLine(uc); line != "" {
		fmt.Fprintf(&b, "\nUser context: %s\n", line)
	}
	fmt.Fprintf(&b, "\nQuestion: %s\n", question)
	return b.String()
}

func userContextLine(uc *domain.UserContext) string {
	if uc == nil {
		return ""
	}
	var parts []string
	if uc.BusinessType != "" {
		parts = append(parts, "business type: "+uc.BusinessType)
	}
	if uc.TaxID != "" {
		parts = append(parts, "tax id: "+uc.TaxID)
	}
	parts = append(parts, "VAT payer: "+yesNo(uc.VATPayer))
	if uc.AnnualIncome > 0 {
		parts = append(parts, "annual income: "+strconv.FormatFloat(uc.AnnualIncome, 'f', 2, 64))
	}
	parts = append(parts, "flat tax: "+yesNo(uc.FlatTax))
	return strings.Join(parts, "; ")
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// citations returns one citation per document in rank order.
// Each excerpt comes from the document's best scoring chunk.
func citations(hits []domain.ScoredChunk) []domain.SourceCitation {
	seen := make(map[string]bool, len(hits))
	out := make([]domain.SourceCitation, 0, len(hits))
	for _, h := range hits {
		docID := h.Chunk.DocumentID
		if seen[docID] {
			continue
		}
		seen[docID] = true

		title := h.Document.Title
		if title == "" {
			title = h.Chunk.Metadata.Title
		}
		out = append(out, domain.SourceCitation{
			Title:    title,
			URL:      h.Document.SourceURL,
			Source:   h.Document.SourceID,
			Excerpt:  excerpt(h.Chunk.Content, ExcerptLength),
			Category: h.Document.Metadata.Category,
		})
	}
	return out
}

// excerpt collapses whitespace and truncates to n runes, marking the cut with an ellipsis.
func excerpt(text string, n int) string {
	text = strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(text) <= n {
		return text
	}
	runes := []rune(text)
	return strings.TrimSpace(string(runes[:n])) + "…"
}

// fill substitutes arg for the first %s placeholder in a template.
// Templates edited without a placeholder are returned unchanged.
func fill(tmpl, arg string) string {
	return strings.Replace(tmpl, "%s", arg, 1)
}
