// Package chunker splits document text into token-bounded, overlapping chunks.
package chunker

import (
	"context"
	"strings"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
)

// Processor splits document content into chunks of at most MaxTokens.
// It implements the PostProcessor interface.
type Processor struct {
	maxTokens     int
	overlapTokens int
	strategy      domain.ChunkStrategy
	count         domain.TokenCounter
}

var _ driven.PostProcessor = (*Processor)(nil)

// Option configures the chunker processor.
type Option func(*Processor)

// WithMaxTokens sets the chunk size ceiling in tokens.
func WithMaxTokens(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.maxTokens = n
		}
	}
}

// WithOverlapTokens sets the overlap budget between consecutive chunks.
func WithOverlapTokens(n int) Option {
	return func(p *Processor) {
		if n >= 0 {
			p.overlapTokens = n
		}
	}
}

// WithStrategy sets the unit splitting strategy.
func WithStrategy(s domain.ChunkStrategy) Option {
	return func(p *Processor) {
		if s != "" {
			p.strategy = s
		}
	}
}

// WithTokenCounter replaces the token estimator.
func WithTokenCounter(c domain.TokenCounter) Option {
	return func(p *Processor) {
		if c != nil {
			p.count = c
		}
	}
}

// WithConfig applies a ChunkConfig.
func WithConfig(cfg domain.ChunkConfig) Option {
	return func(p *Processor) {
		WithMaxTokens(cfg.MaxTokens)(p)
		WithOverlapTokens(cfg.OverlapTokens)(p)
		WithStrategy(cfg.Strategy)(p)
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		maxTokens:     domain.DefaultMaxTokens,
		overlapTokens: domain.DefaultOverlapTokens,
		strategy:      domain.StrategyParagraph,
		count:         domain.EstimateTokens,
	}

	for _, opt := range opts {
		opt(p)
	}

	// Overlap must leave room for new content.
	if p.overlapTokens >= p.maxTokens {
		p.overlapTokens = p.maxTokens / 4
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// Process splits the document content into chunks.
// Input chunks are ignored; this processor creates new chunks from document content.
func (p *Processor) Process(ctx context.Context, doc *domain.Document, _ []domain.Chunk) ([]domain.Chunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return p.Chunk(doc.Content, doc.ID), nil
}

// Chunk splits text into chunks owned by documentID.
// The result is deterministic for a given text and configuration.
func (p *Processor) Chunk(text, documentID string) []domain.Chunk {
	var pieces []piece
	switch p.strategy {
	case domain.StrategySentence:
		pieces = p.bySentence(text)
	default:
		pieces = p.byParagraph(text)
	}
	if len(pieces) == 0 {
		return nil
	}

	chunks := make([]domain.Chunk, 0, len(pieces))
	for i, pc := range pieces {
		chunks = append(chunks, domain.Chunk{
			ID:         domain.ChunkID(documentID, i),
			DocumentID: documentID,
			Content:    pc.text,
			Position:   i,
			TokenCount: p.count(pc.text),
			Oversized:  pc.oversized,
		})
	}
	return chunks
}

type piece struct {
	text      string
	oversized bool
}

// layout describes how units are joined and how overlap is carried.
type layout struct {
	sep string

	// overlap returns the sentences to repeat from the closed buffer.
	overlap func(closed []string) []string

	// seed turns overlap sentences into leading buffer units.
	seed func(sentences []string) []string
}

func (p *Processor) byParagraph(text string) []piece {
	return p.accumulate(SplitParagraphs(text), layout{
		sep: "\n\n",
		overlap: func(closed []string) []string {
			return p.tailSentences(SplitSentences(strings.Join(closed, "\n\n")))
		},
		seed: func(sentences []string) []string {
			return []string{strings.Join(sentences, " ")}
		},
	})
}

func (p *Processor) bySentence(text string) []piece {
	var sentences []string
	for _, para := range SplitParagraphs(text) {
		sentences = append(sentences, SplitSentences(para)...)
	}
	if len(sentences) == 0 {
		return nil
	}

	total := 0
	for _, s := range sentences {
		total += p.count(s)
	}
	avg := total / len(sentences)
	if avg < 1 {
		avg = 1
	}
	n := p.overlapTokens / avg
	if n < 1 {
		n = 1
	}

	return p.accumulate(sentences, layout{
		sep: " ",
		overlap: func(closed []string) []string {
			if p.overlapTokens <= 0 {
				return nil
			}
			if len(closed) > n {
				closed = closed[len(closed)-n:]
			}
			return closed
		},
		seed: func(sentences []string) []string {
			return append([]string(nil), sentences...)
		},
	})
}

// tailSentences picks the last one or two sentences that fit the overlap budget.
// One sentence is always taken when overlap is enabled.
func (p *Processor) tailSentences(sentences []string) []string {
	if p.overlapTokens <= 0 || len(sentences) == 0 {
		return nil
	}
	last := len(sentences) - 1
	if last > 0 && p.count(sentences[last-1]+" "+sentences[last]) <= p.overlapTokens {
		return []string{sentences[last-1], sentences[last]}
	}
	return []string{sentences[last]}
}

// accumulate packs units into buffers that stay within maxTokens.
func (p *Processor) accumulate(units []string, l layout) []piece {
	var out []piece
	var buf []string
	fresh := false // buf holds content not yet emitted

	flush := func() {
		if fresh {
			out = append(out, piece{text: strings.Join(buf, l.sep)})
		}
		buf = nil
		fresh = false
	}

	for _, u := range units {
		if p.count(u) > p.maxTokens {
			flush()
			out = append(out, piece{text: u, oversized: true})
			continue
		}

		if len(buf) == 0 || p.fits(append(buf[:len(buf):len(buf)], u), l.sep) {
			buf = append(buf, u)
			fresh = true
			continue
		}

		closed := buf
		flush()

		ov := l.overlap(closed)
		for len(ov) > 0 && !p.fits(append(l.seed(ov), u), l.sep) {
			ov = ov[1:]
		}
		if len(ov) > 0 {
			buf = l.seed(ov)
		}
		buf = append(buf, u)
		fresh = true
	}
	flush()

	return out
}

func (p *Processor) fits(units []string, sep string) bool {
	return p.count(strings.Join(units, sep)) <= p.maxTokens
}
