// Package sources shows the configured sources with their document counts.
package sources

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/sercha-kb/internal/adapters/driving/tui/components/cursor"
	"github.com/custodia-labs/sercha-kb/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/sercha-kb/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/sercha-kb/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/sercha-kb/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driving"
)

var (
	errNoSourceService    = errors.New("source service not available")
	errNoIngestionService = errors.New("ingestion service not available")
)

const chrome = 8

// View lists sources. Ingesting one from here runs in the background
// and refreshes the counts when it finishes.
type View struct {
	styles *styles.Styles
	keys   *keymap.KeyMap
	ctx    context.Context

	sourceSvc driving.SourceService
	docSvc    driving.DocumentService
	ingestSvc driving.IngestionService

	sources   []domain.Source
	counts    map[string]int
	ingesting map[string]bool
	cursor    cursor.Cursor
	message   string
	width     int
	loading   bool
	err       error
}

// NewView needs only the source service. Without docs every count is zero
// and without ingest the [i] key reports an error.
func NewView(
	s *styles.Styles,
	src driving.SourceService,
	docs driving.DocumentService,
	ingest driving.IngestionService,
) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	v := &View{
		styles:    s,
		keys:      keymap.DefaultKeyMap(),
		ctx:       context.Background(),
		sourceSvc: src,
		docSvc:    docs,
		ingestSvc: ingest,
		counts:    map[string]int{},
		ingesting: map[string]bool{},
		width:     80,
	}
	v.cursor.SetWindow(24 - chrome)
	return v
}

func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

func (v *View) Init() tea.Cmd {
	v.loading = true
	return v.load()
}

func (v *View) load() tea.Cmd {
	ctx, src, docs := v.ctx, v.sourceSvc, v.docSvc
	return func() tea.Msg {
		if src == nil {
			return messages.SourcesLoaded{Err: errNoSourceService}
		}
		sources, err := src.List(ctx)
		if err != nil {
			return messages.SourcesLoaded{Err: err}
		}
		counts, err := countDocuments(ctx, docs, sources)
		return messages.SourcesLoaded{Sources: sources, Counts: counts, Err: err}
	}
}

func countDocuments(ctx context.Context, docs driving.DocumentService, sources []domain.Source) (map[string]int, error) {
	counts := make(map[string]int, len(sources))
	if docs == nil {
		return counts, nil
	}
	for _, s := range sources {
		found, err := docs.ListBySource(ctx, s.ID)
		if err != nil {
			return nil, err
		}
		counts[s.ID] = len(found)
	}
	return counts, nil
}

func (v *View) ingest(id string) tea.Cmd {
	ctx, svc := v.ctx, v.ingestSvc
	return func() tea.Msg {
		report, err := svc.ScrapeSource(ctx, id, nil)
		return messages.IngestCompleted{SourceID: id, Report: report, Err: err}
	}
}

func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
	case tea.KeyMsg:
		return v, v.handleKey(msg)
	case messages.SourcesLoaded:
		v.loading = false
		v.err = msg.Err
		if msg.Err == nil {
			v.sources = msg.Sources
			v.counts = msg.Counts
			if v.counts == nil {
				v.counts = map[string]int{}
			}
			v.cursor.SetLen(len(v.sources))
		}
	case messages.IngestCompleted:
		return v, v.ingested(msg)
	}
	return v, nil
}

func (v *View) ingested(msg messages.IngestCompleted) tea.Cmd {
	delete(v.ingesting, msg.SourceID)
	switch {
	case msg.Err != nil:
		v.message = ""
		v.err = fmt.Errorf("ingest %s: %w", msg.SourceID, msg.Err)
	case msg.Report != nil:
		v.err = nil
		v.message = fmt.Sprintf("%s: %d document(s) stored, %d failed",
			msg.SourceID, msg.Report.Documents, msg.Report.Failed)
	}
	return v.load()
}

func (v *View) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, v.keys.Up):
		v.cursor.Up()
	case key.Matches(msg, v.keys.Down):
		v.cursor.Down()
	case key.Matches(msg, v.keys.Select):
		if src := v.SelectedSource(); src != nil {
			picked := *src
			return func() tea.Msg { return messages.SourceSelected{Source: picked} }
		}
	case key.Matches(msg, v.keys.Ingest):
		return v.startIngest()
	case key.Matches(msg, v.keys.Reload):
		v.loading = true
		return v.load()
	case key.Matches(msg, v.keys.Back):
		return func() tea.Msg { return messages.ViewChanged{View: messages.ViewMenu} }
	}
	return nil
}

// startIngest ignores a source that is already being ingested.
func (v *View) startIngest() tea.Cmd {
	src := v.SelectedSource()
	if src == nil || v.ingesting[src.ID] {
		return nil
	}
	if v.ingestSvc == nil {
		v.err = errNoIngestionService
		return nil
	}
	v.ingesting[src.ID] = true
	v.message = "Ingesting " + src.DisplayName() + "..."
	return v.ingest(src.ID)
}

func (v *View) View() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n", v.styles.Title.Render("Sources"))

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading sources..."))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
	case len(v.sources) == 0:
		b.WriteString(v.styles.Muted.Render("No sources configured."))
	default:
		start, end := v.cursor.Visible()
		for i := start; i < end; i++ {
			b.WriteString(v.row(i))
			b.WriteByte('\n')
		}
	}

	if v.message != "" {
		fmt.Fprintf(&b, "\n%s", v.styles.Success.Render(v.message))
	}
	b.WriteString("\n\n")
	b.WriteString(v.styles.Help.Render("[enter] documents  [i] ingest  [r] reload  [esc] back"))
	return b.String()
}

// row lays out ID, name and document count in fixed columns.
func (v *View) row(i int) string {
	src := &v.sources[i]
	width := max(v.width-36, 10)
	id := fmt.Sprintf("%-12s ", src.ID)
	name := fmt.Sprintf("%-*s  ", width, list.Truncate(src.DisplayName(), width))

	docs := fmt.Sprintf("%d docs", v.counts[src.ID])
	if v.ingesting[src.ID] {
		docs = "ingesting"
	}

	if i == v.cursor.Index() {
		return v.styles.Selected.Render("> " + id + name + docs)
	}
	return v.styles.Normal.Render("  ") + v.styles.Subtitle.Render(id) +
		v.styles.Normal.Render(name) + v.styles.Muted.Render(docs)
}

func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.cursor.SetWindow(height - chrome)
}

func (v *View) Sources() []domain.Source { return v.sources }
func (v *View) SelectedIndex() int       { return v.cursor.Index() }
func (v *View) Message() string          { return v.message }
func (v *View) Err() error               { return v.err }

// Ingesting reports whether id was started from this view and has not finished.
func (v *View) Ingesting(id string) bool { return v.ingesting[id] }

func (v *View) SelectedSource() *domain.Source {
	if !v.cursor.Valid() {
		return nil
	}
	return &v.sources[v.cursor.Index()]
}
