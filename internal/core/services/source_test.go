package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-kb/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

func newTestSourceStore(t *testing.T) *memory.SourceStore {
	t.Helper()
	store, err := memory.NewSourceStore([]domain.Source{
		{ID: "purs", Name: "Poreska uprava", BaseURL: "https://www.purs.gov.rs", Paths: []string{"/pdv.html"}},
		{ID: "apr", BaseURL: "https://www.apr.gov.rs", Paths: []string{"/preduzetnici.html"}},
	})
	require.NoError(t, err)
	return store
}

func TestSourceService_Get(t *testing.T) {
	svc := NewSourceService(newTestSourceStore(t))

	src, err := svc.Get(context.Background(), "purs")
	require.NoError(t, err)
	assert.Equal(t, "Poreska uprava", src.DisplayName())

	_, err = svc.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.Get(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSourceService_List(t *testing.T) {
	svc := NewSourceService(newTestSourceStore(t))

	sources, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, sources, 2)
	assert.Equal(t, "purs", sources[0].ID)
	assert.Equal(t, "apr", sources[1].DisplayName())
}
