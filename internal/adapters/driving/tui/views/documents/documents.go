// Package documents lists what has been ingested from one source.
package documents

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

var errNoDocumentService = errors.New("document service not available")

// chrome is the number of lines used by the title, pager and help.
const chrome = 8

type View struct {
	styles *styles.Styles
	keys   *keymap.KeyMap
	ctx    context.Context
	docs   driving.DocumentService

	source    *domain.Source
	documents []domain.Document
	cursor    cursor.Cursor
	width     int
	loading   bool
	err       error
}

func NewView(s *styles.Styles, docs driving.DocumentService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	v := &View{
		styles: s,
		keys:   keymap.DefaultKeyMap(),
		ctx:    context.Background(),
		docs:   docs,
		width:  80,
	}
	v.cursor.SetWindow(24 - chrome)
	return v
}

// WithContext sets the context passed to the document service.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

func (v *View) Init() tea.Cmd { return nil }

// SetSource clears the list and starts loading the documents of source.
func (v *View) SetSource(source domain.Source) tea.Cmd {
	v.source = &source
	v.documents = nil
	v.cursor.Reset()
	v.err = nil
	v.loading = true
	return v.load()
}

func (v *View) load() tea.Cmd {
	source, svc, ctx := v.source, v.docs, v.ctx
	return func() tea.Msg {
		if source == nil || svc == nil {
			return messages.DocumentsLoaded{Err: errNoDocumentService}
		}
		docs, err := svc.ListBySource(ctx, source.ID)
		return messages.DocumentsLoaded{SourceID: source.ID, Documents: docs, Err: err}
	}
}

func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
	case tea.KeyMsg:
		return v, v.handleKey(msg)
	case messages.DocumentsLoaded:
		v.loaded(msg)
	case messages.ErrorOccurred:
		v.err = msg.Err
	}
	return v, nil
}

// loaded applies a load result unless it belongs to a source we left.
func (v *View) loaded(msg messages.DocumentsLoaded) {
	if v.source != nil && msg.SourceID != "" && msg.SourceID != v.source.ID {
		return
	}
	v.loading = false
	v.err = msg.Err
	if msg.Err == nil {
		v.documents = msg.Documents
		v.cursor.SetLen(len(v.documents))
	}
}

func (v *View) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, v.keys.Up):
		v.cursor.Up()
	case key.Matches(msg, v.keys.Down):
		v.cursor.Down()
	case key.Matches(msg, v.keys.Select):
		if doc := v.SelectedDocument(); doc != nil {
			picked := *doc
			return func() tea.Msg { return messages.DocumentSelected{Document: picked} }
		}
	case key.Matches(msg, v.keys.Back):
		return func() tea.Msg { return messages.ViewChanged{View: messages.ViewSources} }
	case key.Matches(msg, v.keys.Reload):
		if v.source != nil {
			v.loading = true
			return v.load()
		}
	}
	return nil
}

func (v *View) View() string {
	name := "Unknown"
	if v.source != nil {
		name = v.source.DisplayName()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n", v.styles.Title.Render(fmt.Sprintf("Documents - %s (%d)", name, len(v.documents))))

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading documents..."))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
	case len(v.documents) == 0:
		b.WriteString(v.styles.Muted.Render("No documents ingested for this source."))
	default:
		start, end := v.cursor.Visible()
		for i := start; i < end; i++ {
			b.WriteString(v.row(i))
			b.WriteByte('\n')
		}
		if v.cursor.Scrolls() {
			b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  [%d-%d of %d]", start+1, end, len(v.documents))))
		}
	}

	b.WriteString("\n\n")
	b.WriteString(v.styles.Help.Render("[↑/↓] navigate  [enter] chunks  [r] reload  [esc] back"))
	return b.String()
}

// row renders a title padded to a fixed column followed by category and year.
func (v *View) row(i int) string {
	doc := &v.documents[i]
	title := doc.Title
	if title == "" {
		title = doc.ID
	}
	width := max(v.width-30, 10)
	title = fmt.Sprintf("%-*s", width, list.Truncate(title, width))

	meta := string(doc.Metadata.Category)
	if doc.Metadata.Year > 0 {
		meta += fmt.Sprintf(" %d", doc.Metadata.Year)
	}

	if i == v.cursor.Index() {
		return v.styles.Selected.Render("> " + title + "  " + meta)
	}
	return v.styles.Normal.Render("  "+title+"  ") + v.styles.Category.Render(meta)
}

func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.cursor.SetWindow(height - chrome)
}

func (v *View) Source() *domain.Source       { return v.source }
func (v *View) Documents() []domain.Document { return v.documents }
func (v *View) SelectedIndex() int           { return v.cursor.Index() }
func (v *View) Err() error                   { return v.err }

// SelectedDocument is nil while the list is empty.
func (v *View) SelectedDocument() *domain.Document {
	if !v.cursor.Valid() {
		return nil
	}
	return &v.documents[v.cursor.Index()]
}
