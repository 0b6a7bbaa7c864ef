package domain

import (
	"fmt"
	"unicode/utf8"
)

// ChunkStrategy selects how text is split into units before accumulation.
type ChunkStrategy string

// Chunking strategies.
const (
	// StrategyParagraph splits on blank lines. This is the default.
	StrategyParagraph ChunkStrategy = "paragraph"

	// StrategySentence splits on sentence boundaries.
	StrategySentence ChunkStrategy = "sentence"

	// StrategySemantic groups whole paragraphs; it shares the paragraph algorithm.
	StrategySemantic ChunkStrategy = "semantic"
)

// Default chunking limits.
const (
	DefaultMaxTokens     = 500
	DefaultOverlapTokens = 50
)

// ChunkConfig bounds the size of produced chunks.
type ChunkConfig struct {
	MaxTokens     int
	OverlapTokens int
	Strategy      ChunkStrategy
}

// DefaultChunkConfig returns the default chunking configuration.
func DefaultChunkConfig() ChunkConfig {
	return ChunkConfig{
		MaxTokens:     DefaultMaxTokens,
		OverlapTokens: DefaultOverlapTokens,
		Strategy:      StrategyParagraph,
	}
}

// ParseChunkStrategy converts a string to a ChunkStrategy.
func ParseChunkStrategy(s string) (ChunkStrategy, error) {
	switch ChunkStrategy(s) {
	case StrategyParagraph, StrategySentence, StrategySemantic:
		return ChunkStrategy(s), nil
	case "":
		return StrategyParagraph, nil
	default:
		return "", fmt.Errorf("%w: unknown chunk strategy %q", ErrInvalidInput, s)
	}
}

// TokenCounter estimates the number of tokens in a text.
// A real tokenizer can be substituted without changing chunking behaviour.
type TokenCounter func(text string) int

// EstimateTokens approximates tokens as ceil(characters / 4).
// Characters are counted as runes so diacritics count once.
func EstimateTokens(text string) int {
	n := utf8.RuneCountInString(text)
	return (n + 3) / 4
}
