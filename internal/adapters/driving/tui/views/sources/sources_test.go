package sources

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-kb/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driving"
)

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

func (m *mockSourceService) List(context.Context) ([]domain.Source, error) {
	return m.sources, m.err
}

type mockDocumentService struct {
	bySource map[string][]domain.Document
	err      error
}

func (m *mockDocumentService) ListBySource(_ context.Context, sourceID string) ([]domain.Document, error) {
	return m.bySource[sourceID], m.err
}

func (m *mockDocumentService) ListByCategory(context.Context, domain.Category) ([]domain.Document, error) {
	return nil, nil
}

func (m *mockDocumentService) Get(context.Context, string) (*domain.Document, error) {
	return nil, domain.ErrNotFound
}

func (m *mockDocumentService) Chunks(context.Context, string) ([]domain.Chunk, error) {
	return nil, nil
}

func (m *mockDocumentService) Stats(context.Context) (domain.StoreStats, error) {
	return domain.StoreStats{}, nil
}

type mockIngestionService struct {
	report  *domain.IngestReport
	err     error
	scraped []string
}

func (m *mockIngestionService) ScrapeSource(
	_ context.Context, sourceID string, _ domain.ProgressFunc,
) (*domain.IngestReport, error) {
	m.scraped = append(m.scraped, sourceID)
	return m.report, m.err
}

func (m *mockIngestionService) StartSource(_ context.Context, sourceID string) (driving.IngestRun, error) {
	return func(ctx context.Context, progress domain.ProgressFunc) (*domain.IngestReport, error) {
		return m.ScrapeSource(ctx, sourceID, progress)
	}, nil
}

func (m *mockIngestionService) ScrapeAll(context.Context, domain.ProgressFunc) ([]domain.IngestReport, error) {
	return nil, nil
}

func (m *mockIngestionService) Status(_ context.Context, sourceID string) (*domain.IngestStatus, error) {
	return &domain.IngestStatus{SourceID: sourceID}, nil
}

func (m *mockIngestionService) PurgeSource(context.Context, string) (int, error) {
	return 0, nil
}

func testSources() []domain.Source {
	return []domain.Source{
		{ID: "purs", Name: "Poreska uprava"},
		{ID: "apr", Name: "Agencija za privredne registre"},
	}
}

func newLoadedView(t *testing.T, ingestion *mockIngestionService) *View {
	t.Helper()
	docs := &mockDocumentService{bySource: map[string][]domain.Document{
		"purs": {{ID: "d1"}, {ID: "d2"}},
	}}
	var ing driving.IngestionService
	if ingestion != nil {
		ing = ingestion
	}
	v := NewView(nil, &mockSourceService{sources: testSources()}, docs, ing)
	v.SetDimensions(100, 30)

	cmd := v.Init()
	require.NotNil(t, cmd)
	v.Update(cmd())
	return v
}

func press(v *View, s string) tea.Cmd {
	var msg tea.KeyMsg
	switch s {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
	_, cmd := v.Update(msg)
	return cmd
}

func TestView_LoadsSourcesWithCounts(t *testing.T) {
	v := newLoadedView(t, nil)

	require.Len(t, v.Sources(), 2)
	assert.NoError(t, v.Err())

	view := v.View()
	assert.Contains(t, view, "Poreska uprava")
	assert.Contains(t, view, "2 docs")
	assert.Contains(t, view, "0 docs")
}

func TestView_LoadErrors(t *testing.T) {
	v := NewView(nil, nil, nil, nil)
	v.Update(v.Init()())
	assert.ErrorIs(t, v.Err(), errNoSourceService)

	v = NewView(nil, &mockSourceService{err: errors.New("boom")}, nil, nil)
	v.Update(v.Init()())
	assert.EqualError(t, v.Err(), "boom")
	assert.Contains(t, v.View(), "Error: boom")

	docsErr := &mockDocumentService{err: domain.ErrStore}
	v = NewView(nil, &mockSourceService{sources: testSources()}, docsErr, nil)
	v.Update(v.Init()())
	assert.ErrorIs(t, v.Err(), domain.ErrStore)
}

func TestView_EmptyAndLoading(t *testing.T) {
	v := NewView(nil, &mockSourceService{}, nil, nil)
	cmd := v.Init()
	assert.Contains(t, v.View(), "Loading sources")

	v.Update(cmd())
	assert.Contains(t, v.View(), "No sources configured")
}

func TestView_Navigation(t *testing.T) {
	v := newLoadedView(t, nil)

	press(v, "k")
	assert.Equal(t, 0, v.SelectedIndex())

	press(v, "j")
	press(v, "j")
	assert.Equal(t, 1, v.SelectedIndex())
	assert.Equal(t, "apr", v.SelectedSource().ID)
}

func TestView_EnterSelectsSource(t *testing.T) {
	v := newLoadedView(t, nil)

	cmd := press(v, "enter")

	require.NotNil(t, cmd)
	msg, ok := cmd().(messages.SourceSelected)
	require.True(t, ok)
	assert.Equal(t, "purs", msg.Source.ID)
}

func TestView_EscGoesToMenu(t *testing.T) {
	v := newLoadedView(t, nil)

	cmd := press(v, "esc")

	require.NotNil(t, cmd)
	assert.Equal(t, messages.ViewChanged{View: messages.ViewMenu}, cmd())
}

func TestView_Ingest(t *testing.T) {
	ingestion := &mockIngestionService{report: &domain.IngestReport{SourceID: "purs", Documents: 5, Failed: 1}}
	v := newLoadedView(t, ingestion)

	cmd := press(v, "i")
	require.NotNil(t, cmd)
	assert.True(t, v.Ingesting("purs"))
	assert.Contains(t, v.View(), "ingesting")

	// A second press while running is ignored.
	assert.Nil(t, press(v, "i"))

	reload := func() tea.Cmd {
		_, c := v.Update(cmd())
		return c
	}()
	assert.Equal(t, []string{"purs"}, ingestion.scraped)
	assert.False(t, v.Ingesting("purs"))
	assert.Equal(t, "purs: 5 document(s) stored, 1 failed", v.Message())
	assert.NotNil(t, reload)
}

func TestView_IngestError(t *testing.T) {
	ingestion := &mockIngestionService{err: domain.ErrIngestInProgress}
	v := newLoadedView(t, ingestion)

	cmd := press(v, "i")
	v.Update(cmd())

	assert.ErrorIs(t, v.Err(), domain.ErrIngestInProgress)
	assert.Contains(t, v.Err().Error(), "ingest purs")
}

func TestView_IngestWithoutService(t *testing.T) {
	v := newLoadedView(t, nil)

	assert.Nil(t, press(v, "i"))
	assert.ErrorIs(t, v.Err(), errNoIngestionService)
}

func TestView_Reload(t *testing.T) {
	v := newLoadedView(t, nil)

	cmd := press(v, "r")

	require.NotNil(t, cmd)
	_, ok := cmd().(messages.SourcesLoaded)
	assert.True(t, ok)
}
