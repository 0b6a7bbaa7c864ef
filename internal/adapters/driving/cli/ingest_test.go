package cli

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

func TestIngestCmd_Use(t *testing.T) {
	assert.Equal(t, "ingest [source-id]", ingestCmd.Use)
}

func TestIngestCmd_NoService(t *testing.T) {
	setupTestServices(t, &Services{})
	_, err := execute(t, "ingest")
	assert.EqualError(t, err, "ingestion service not configured")
}

func TestIngestCmd_Source(t *testing.T) {
	start := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	ing := &mockIngestionService{
		progress: []string{"Fetching https://purs.gov.rs/pdv.html"},
		report: &domain.IngestReport{
			SourceID:   "purs",
			Documents:  3,
			Failed:     1,
			Errors:     []string{"https://purs.gov.rs/x.html: status 404"},
			StartedAt:  start,
			FinishedAt: start.Add(2 * time.Second),
		},
	}
	setupTestServices(t, &Services{Ingestion: ing})

	out, err := execute(t, "ingest", "purs")
	require.NoError(t, err)
	assert.Equal(t, "purs", ing.lastID)
	assert.Contains(t, out, "Fetching https://purs.gov.rs/pdv.html")
	assert.Contains(t, out, "purs: 3 document(s) stored, 1 failed in 2s")
	assert.Contains(t, out, "  - https://purs.gov.rs/x.html: status 404")
}

func TestIngestCmd_All(t *testing.T) {
	ing := &mockIngestionService{
		reports: []domain.IngestReport{
			{SourceID: "purs", Documents: 4},
			{SourceID: "apr", Documents: 2},
		},
	}
	setupTestServices(t, &Services{Ingestion: ing})

	out, err := execute(t, "ingest")
	require.NoError(t, err)
	assert.Contains(t, out, "purs: 4 document(s) stored, 0 failed")
	assert.Contains(t, out, "apr: 2 document(s) stored, 0 failed")
	assert.Contains(t, out, "Total: 6 document(s) from 2 source(s)")
}

func TestIngestCmd_Error(t *testing.T) {
	ing := &mockIngestionService{err: domain.ErrIngestInProgress}
	setupTestServices(t, &Services{Ingestion: ing})

	_, err := execute(t, "ingest", "purs")
	assert.True(t, errors.Is(err, domain.ErrIngestInProgress))
}

func TestIngestCmd_TooManyArgs(t *testing.T) {
	setupTestServices(t, &Services{Ingestion: &mockIngestionService{}})
	_, err := execute(t, "ingest", "a", "b")
	assert.Error(t, err)
}
