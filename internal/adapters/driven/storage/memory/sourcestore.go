package memory

import (
	"context"
	"fmt"
	"slices"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
)

// SourceStore is the fixed source table read from configuration.
// It never changes after construction, so reads need no locking.
// Callers get copies and cannot alter the table through returned slices.
type SourceStore struct {
	sources []domain.Source
	index   map[string]int
}

var _ driven.SourceStore = (*SourceStore)(nil)

// NewSourceStore validates every source and rejects repeated IDs.
func NewSourceStore(sources []domain.Source) (*SourceStore, error) {
	s := &SourceStore{index: make(map[string]int, len(sources))}
	for _, src := range sources {
		if err := src.Validate(); err != nil {
			return nil, err
		}
		if _, seen := s.index[src.ID]; seen {
			return nil, fmt.Errorf("%w: duplicate source id %q", domain.ErrInvalidInput, src.ID)
		}
		s.index[src.ID] = len(s.sources)
		s.sources = append(s.sources, cloneSource(src))
	}
	return s, nil
}

func (s *SourceStore) Get(_ context.Context, id string) (*domain.Source, error) {
	i, ok := s.index[id]
	if !ok {
		return nil, fmt.Errorf("source %q: %w", id, domain.ErrNotFound)
	}
	src := cloneSource(s.sources[i])
	return &src, nil
}

// List returns the sources in configuration order.
func (s *SourceStore) List(_ context.Context) ([]domain.Source, error) {
	out := make([]domain.Source, len(s.sources))
	for i, src := range s.sources {
		out[i] = cloneSource(src)
	}
	return out, nil
}

func cloneSource(src domain.Source) domain.Source {
	src.Paths = slices.Clone(src.Paths)
	src.Selectors.Exclude = slices.Clone(src.Selectors.Exclude)
	return src
}
