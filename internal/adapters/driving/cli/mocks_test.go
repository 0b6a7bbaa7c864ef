package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driving"
)

type mockAnswerService struct {
	result *domain.QueryResult
	err    error
	last   domain.Query
}

func (m *mockAnswerService) Answer(_ context.Context, q domain.Query) (*domain.QueryResult, error) {
	m.last = q
	return m.result, m.err
}

type mockIngestionService struct {
	report   *domain.IngestReport
	reports  []domain.IngestReport
	status   *domain.IngestStatus
	purged   int
	err      error
	progress []string
	lastID   string
}

func (m *mockIngestionService) ScrapeSource(
	_ context.Context, id string, progress domain.ProgressFunc,
) (*domain.IngestReport, error) {
	m.lastID = id
	for _, p := range m.progress {
		progress(p)
	}
	return m.report, m.err
}

func (m *mockIngestionService) StartSource(_ context.Context, sourceID string) (driving.IngestRun, error) {
	return func(ctx context.Context, progress domain.ProgressFunc) (*domain.IngestReport, error) {
		return m.ScrapeSource(ctx, sourceID, progress)
	}, nil
}

func (m *mockIngestionService) ScrapeAll(_ context.Context, progress domain.ProgressFunc) ([]domain.IngestReport, error) {
	for _, p := range m.progress {
		progress(p)
	}
	return m.reports, m.err
}

func (m *mockIngestionService) Status(_ context.Context, id string) (*domain.IngestStatus, error) {
	if m.status == nil {
		return &domain.IngestStatus{SourceID: id}, nil
	}
	return m.status, nil
}

func (m *mockIngestionService) PurgeSource(_ context.Context, id string) (int, error) {
	m.lastID = id
	return m.purged, m.err
}

type mockDocumentService struct {
	docs   []domain.Document
	chunks []domain.Chunk
	stats  domain.StoreStats
	err    error

	lastCategory domain.Category
}

func (m *mockDocumentService) ListBySource(_ context.Context, sourceID string) ([]domain.Document, error) {
	var out []domain.Document
	for _, d := range m.docs {
		if d.SourceID == sourceID {
			out = append(out, d)
		}
	}
	return out, m.err
}

func (m *mockDocumentService) ListByCategory(_ context.Context, c domain.Category) ([]domain.Document, error) {
	m.lastCategory = c
	var out []domain.Document
	for _, d := range m.docs {
		if d.Metadata.Category == c {
			out = append(out, d)
		}
	}
	return out, m.err
}

func (m *mockDocumentService) Get(_ context.Context, id string) (*domain.Document, error) {
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.docs {
		if m.docs[i].ID == id {
			return &m.docs[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockDocumentService) Chunks(_ context.Context, _ string) ([]domain.Chunk, error) {
	return m.chunks, m.err
}

func (m *mockDocumentService) Stats(_ context.Context) (domain.StoreStats, error) {
	return m.stats, m.err
}

type mockSourceService struct {
	sources []domain.Source
	err     error
}

func (m *mockSourceService) Get(_ context.Context, id string) (*domain.Source, error) {
	for i := range m.sources {
		if m.sources[i].ID == id {
			return &m.sources[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockSourceService) List(_ context.Context) ([]domain.Source, error) {
	return m.sources, m.err
}

var (
	_ driving.AnswerService    = (*mockAnswerService)(nil)
	_ driving.IngestionService = (*mockIngestionService)(nil)
	_ driving.DocumentService  = (*mockDocumentService)(nil)
	_ driving.SourceService    = (*mockSourceService)(nil)
)

// setupTestServices installs s for the duration of the test.
func setupTestServices(t *testing.T, s *Services) {
	t.Helper()
	prevInit := initialiser
	initialiser = nil
	SetServices(s)
	t.Cleanup(func() {
		SetServices(nil)
		initialiser = prevInit
	})
}

// execute runs the root command with args and returns its output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		resetFlags(rootCmd)
	})
	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

// resetFlags restores every flag to its default so tests do not leak state.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}
