// Package keywords enriches chunks with descriptive metadata.
package keywords

import (
	"context"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
)

// DefaultMaxKeywords is the number of keywords kept per chunk.
const DefaultMaxKeywords = 5

const (
	minWordLength    = 4
	maxHeadingLength = 80
)

// Processor fills ChunkMetadata from the chunk text and its document.
// It implements the PostProcessor interface and runs after the chunker.
type Processor struct {
	maxKeywords int
}

var _ driven.PostProcessor = (*Processor)(nil)

// Option configures the keywords processor.
type Option func(*Processor)

// WithMaxKeywords sets how many keywords are kept per chunk.
func WithMaxKeywords(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.maxKeywords = n
		}
	}
}

// New creates a keywords processor.
func New(opts ...Option) *Processor {
	p := &Processor{maxKeywords: DefaultMaxKeywords}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "keywords"
}

// Process sets Title, Section, Keywords and RelevantFor on every chunk.
func (p *Processor) Process(_ context.Context, doc *domain.Document, chunks []domain.Chunk) ([]domain.Chunk, error) {
	for i := range chunks {
		md := &chunks[i].Metadata
		md.Title = doc.Title
		md.Section = heading(chunks[i].Content)
		md.Keywords = p.topTerms(chunks[i].Content)
		if len(doc.Metadata.RelevantFor) > 0 {
			md.RelevantFor = append([]string(nil), doc.Metadata.RelevantFor...)
		}
	}
	return chunks, nil
}

// heading returns the first line when it looks like a section title:
// short, followed by more text, and not ending in sentence punctuation.
func heading(content string) string {
	first, rest, ok := strings.Cut(content, "\n")
	if !ok || strings.TrimSpace(rest) == "" {
		return ""
	}
	first = strings.TrimSpace(first)
	if first == "" || utf8.RuneCountInString(first) > maxHeadingLength {
		return ""
	}
	if strings.ContainsAny(first[len(first)-1:], ".,;!?") {
		return ""
	}
	return first
}

// topTerms returns the most frequent non-stopword terms, ties broken alphabetically.
func (p *Processor) topTerms(content string) []string {
	counts := make(map[string]int)
	for _, w := range strings.FieldsFunc(strings.ToLower(content), isSeparator) {
		if utf8.RuneCountInString(w) < minWordLength || stopwords[w] {
			continue
		}
		counts[w]++
	}
	if len(counts) == 0 {
		return nil
	}

	terms := make([]string, 0, len(counts))
	for w := range counts {
		terms = append(terms, w)
	}
	sort.Slice(terms, func(i, j int) bool {
		if counts[terms[i]] != counts[terms[j]] {
			return counts[terms[i]] > counts[terms[j]]
		}
		return terms[i] < terms[j]
	})

	if len(terms) > p.maxKeywords {
		terms = terms[:p.maxKeywords]
	}
	return terms
}

func isSeparator(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-'
}

// stopwords are frequent Serbian and English words with no retrieval value.
var stopwords = map[string]bool{
	// Serbian
	"koji": true, "koja": true, "koje": true, "kojim": true, "kojima": true,
	"kada": true, "kako": true, "može": true, "mogu": true, "biti": true,
	"bude": true, "budu": true, "nije": true, "nisu": true, "samo": true,
	"više": true, "manje": true, "ovaj": true, "ovog": true, "ovom": true,
	"ovoj": true, "ovde": true, "tome": true, "toga": true, "tako": true,
	"takođe": true, "prema": true, "preko": true, "posle": true, "pre": true,
	"između": true, "čega": true, "čemu": true, "svoj": true, "svoje": true,
	"svaki": true, "svako": true, "sve": true, "svih": true, "onda": true,
	"zato": true, "jesu": true, "bilo": true, "bila": true, "bili": true,
	"ukoliko": true, "odnosno": true, "kao": true, "ili": true, "ali": true,
	// English
	"that": true, "this": true, "with": true, "from": true, "have": true,
	"will": true, "which": true, "their": true, "there": true, "been": true,
	"were": true, "when": true, "what": true, "into": true, "than": true,
	"then": true, "them": true, "they": true, "also": true, "must": true,
	"such": true, "only": true, "each": true, "more": true, "other": true,
}
