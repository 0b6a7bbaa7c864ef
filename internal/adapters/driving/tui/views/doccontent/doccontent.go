// Package doccontent shows the ordered chunks of a document.
package doccontent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/sercha-kb/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/sercha-kb/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driving"
)

var errNoDocumentService = errors.New("document service not available")

// reservedLines is the space taken by the title, separator and help.
const reservedLines = 6

// View is the document chunks view.
type View struct {
	styles          *styles.Styles
	ctx             context.Context
	documentService driving.DocumentService
	viewport        viewport.Model

	document *domain.Document
	chunks   []domain.Chunk
	width    int
	height   int
	ready    bool
	err      error
	loading  bool
}

// NewView creates a new document chunks view.
func NewView(s *styles.Styles, documentService driving.DocumentService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles:          s,
		ctx:             context.Background(),
		documentService: documentService,
		viewport:        viewport.New(80, 24-reservedLines),
		width:           80,
		height:          24,
	}
}

// WithContext sets the context used for service calls.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// SetDocument switches to a document and loads its chunks.
func (v *View) SetDocument(doc *domain.Document) tea.Cmd {
	v.document = doc
	v.chunks = nil
	v.err = nil
	v.loading = true
	v.viewport.SetContent("")
	v.viewport.GotoTop()
	return v.loadChunks()
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return nil
}

func (v *View) loadChunks() tea.Cmd {
	doc := v.document
	return func() tea.Msg {
		if doc == nil || v.documentService == nil {
			return messages.ChunksLoaded{Err: errNoDocumentService}
		}
		chunks, err := v.documentService.Chunks(v.ctx, doc.ID)
		return messages.ChunksLoaded{DocumentID: doc.ID, Chunks: chunks, Err: err}
	}
}

// Update handles messages for the chunks view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return v, func() tea.Msg {
				return messages.ViewChanged{View: messages.ViewDocuments}
			}
		case "g", "home":
			v.viewport.GotoTop()
			return v, nil
		case "G", "end":
			v.viewport.GotoBottom()
			return v, nil
		}
		var cmd tea.Cmd
		v.viewport, cmd = v.viewport.Update(msg)
		return v, cmd

	case messages.ChunksLoaded:
		if v.document != nil && msg.DocumentID != "" && msg.DocumentID != v.document.ID {
			return v, nil
		}
		v.loading = false
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.err = nil
		v.chunks = msg.Chunks
		v.render()
		return v, nil

	case messages.ErrorOccurred:
		v.err = msg.Err
		return v, nil
	}

	return v, nil
}

// render lays out the chunks into the viewport.
func (v *View) render() {
	textWidth := max(v.width-4, 20)
	var b strings.Builder
	for i := range v.chunks {
		c := &v.chunks[i]
		heading := fmt.Sprintf("[%d] %s", c.Position, chunkHeading(c))
		b.WriteString(v.styles.Subtitle.Render(heading))
		b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  %d tokens", c.TokenCount)))
		if c.Oversized {
			b.WriteString(v.styles.Warning.Render("  oversized"))
		}
		b.WriteString("\n")
		if len(c.Metadata.Keywords) > 0 {
			b.WriteString(v.styles.Category.Render(strings.Join(c.Metadata.Keywords, ", ")))
			b.WriteString("\n")
		}
		b.WriteString(v.styles.Normal.Width(textWidth).Render(c.Content))
		b.WriteString("\n\n")
	}
	v.viewport.SetContent(strings.TrimRight(b.String(), "\n"))
}

func chunkHeading(c *domain.Chunk) string {
	parts := make([]string, 0, 2)
	for _, p := range []string{c.Metadata.Section, c.Metadata.Subtitle} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return c.ID
	}
	return strings.Join(parts, " / ")
}

// View renders the chunks view.
func (v *View) View() string {
	var b strings.Builder

	title := "Document"
	if v.document != nil {
		title = v.document.Title
		if title == "" {
			title = v.document.ID
		}
	}
	b.WriteString(v.styles.Title.Render(title))
	if v.document != nil && v.document.SourceURL != "" {
		b.WriteString("  " + v.styles.Citation.Render(v.document.SourceURL))
	}
	b.WriteString("\n")
	b.WriteString(strings.Repeat("─", min(max(v.width-4, 1), 60)))
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading chunks..."))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render(fmt.Sprintf("Error: %s", v.err.Error())))
	case len(v.chunks) == 0:
		b.WriteString(v.styles.Muted.Render("(No chunks)"))
	default:
		b.WriteString(v.viewport.View())
		b.WriteString("\n")
		b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  %d chunk(s) [%.0f%%]", len(v.chunks), v.viewport.ScrollPercent()*100)))
	}

	b.WriteString("\n\n")
	b.WriteString(v.styles.Help.Render("[↑/↓/PgUp/PgDn] scroll  [g/G] top/bottom  [esc] back"))
	return b.String()
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
	v.viewport.Width = width
	v.viewport.Height = max(height-reservedLines, 1)
	if len(v.chunks) > 0 {
		v.render()
	}
}

// Document returns the current document.
func (v *View) Document() *domain.Document {
	return v.document
}

// Chunks returns the loaded chunks.
func (v *View) Chunks() []domain.Chunk {
	return v.chunks
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
