package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driving"
)

var _ driving.SourceService = (*SourceService)(nil)

// SourceService exposes the configured source table.
type SourceService struct {
	sourceStore driven.SourceStore
}

// NewSourceService creates a new source service.
func NewSourceService(sourceStore driven.SourceStore) *SourceService {
	return &SourceService{sourceStore: sourceStore}
}

// Get retrieves a source by ID.
func (s *SourceService) Get(ctx context.Context, id string) (*domain.Source, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: source id is required", domain.ErrInvalidInput)
	}
	source, err := s.sourceStore.Get(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get source %s: %w", id, err)
	}
	return source, nil
}

// List returns all configured sources.
func (s *SourceService) List(ctx context.Context) ([]domain.Source, error) {
	return s.sourceStore.List(ctx)
}
