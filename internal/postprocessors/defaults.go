package postprocessors

import (
	"fmt"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-kb/internal/postprocessors/chunker"
	"github.com/custodia-labs/sercha-kb/internal/postprocessors/keywords"
)

const (
	StageChunker  = "chunker"
	StageKeywords = "keywords"
)

// DefaultOrder chunks first, then tags each chunk with keywords.
var DefaultOrder = []string{StageChunker, StageKeywords}

// RegisterDefaults adds the built-in stages to r.
func RegisterDefaults(r *Registry) {
	r.Register(StageChunker, buildChunker)
	r.Register(StageKeywords, buildKeywords)
}

// NewDefaultPipeline is the ingestion pipeline for a chunking configuration.
func NewDefaultPipeline(cfg domain.ChunkConfig) (*Pipeline, error) {
	r := NewRegistry()
	RegisterDefaults(r)
	return r.BuildPipeline(DefaultOrder, map[string]map[string]any{
		StageChunker: {
			"max_tokens":     cfg.MaxTokens,
			"overlap_tokens": cfg.OverlapTokens,
			"strategy":       string(cfg.Strategy),
		},
	})
}

// buildChunker reads max_tokens, overlap_tokens and strategy.
// Missing keys keep the chunker defaults; an explicit zero overlap disables overlap.
func buildChunker(settings map[string]any) (driven.PostProcessor, error) {
	var opts []chunker.Option
	if n, ok := intSetting(settings, "max_tokens"); ok && n > 0 {
		opts = append(opts, chunker.WithMaxTokens(n))
	}
	if n, ok := intSetting(settings, "overlap_tokens"); ok {
		opts = append(opts, chunker.WithOverlapTokens(n))
	}
	if s, ok := settings["strategy"].(string); ok {
		strategy, err := domain.ParseChunkStrategy(s)
		if err != nil {
			return nil, fmt.Errorf("chunker: %w", err)
		}
		opts = append(opts, chunker.WithStrategy(strategy))
	}
	return chunker.New(opts...), nil
}

// buildKeywords reads max_keywords.
func buildKeywords(settings map[string]any) (driven.PostProcessor, error) {
	var opts []keywords.Option
	if n, ok := intSetting(settings, "max_keywords"); ok && n > 0 {
		opts = append(opts, keywords.WithMaxKeywords(n))
	}
	return keywords.New(opts...), nil
}

// intSetting reads an integer that may have been decoded from TOML
// (int64) or JSON (float64). ok is false for missing or non-numeric values.
func intSetting(settings map[string]any, key string) (n int, ok bool) {
	switch v := settings[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	}
	return 0, false
}
