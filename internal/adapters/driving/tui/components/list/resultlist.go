// Package list provides list display components for the TUI.
package list

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/sercha-kb/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

// CitationList displays the sources cited by an answer in a navigable list.
type CitationList struct {
	citations []domain.SourceCitation
	selected  int
	styles    *styles.Styles
	width     int
	height    int
}

// NewCitationList creates an empty citation list.
func NewCitationList(s *styles.Styles) *CitationList {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &CitationList{
		styles: s,
		width:  80,
		height: 10,
	}
}

// Init initialises the list.
func (c *CitationList) Init() tea.Cmd {
	return nil
}

// Update handles list navigation messages.
func (c *CitationList) Update(msg tea.Msg) (*CitationList, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			c.MoveUp()
		case "down", "j":
			c.MoveDown()
		}
	}
	return c, nil
}

// View renders the citation list.
func (c *CitationList) View() string {
	if len(c.citations) == 0 {
		return c.styles.Muted.Render("No sources")
	}

	lines := make([]string, 0, len(c.citations)+2)
	lines = append(lines, c.styles.Subtitle.Render(fmt.Sprintf("Sources (%d)", len(c.citations))), "")

	// Each citation takes three lines.
	visible := max((c.height-2)/3, 1)
	start := 0
	if c.selected >= visible {
		start = c.selected - visible + 1
	}
	end := min(start+visible, len(c.citations))

	for i := start; i < end; i++ {
		lines = append(lines, c.renderCitation(i, &c.citations[i]))
	}
	return strings.Join(lines, "\n")
}

func (c *CitationList) renderCitation(index int, cite *domain.SourceCitation) string {
	indicator := "  "
	if index == c.selected {
		indicator = "> "
	}

	title := cite.Title
	if title == "" {
		title = "(Untitled)"
	}
	title = Truncate(title, max(c.width-24, 10))

	var titleLine string
	if index == c.selected {
		titleLine = c.styles.Selected.Render(fmt.Sprintf("%s[%d] %s", indicator, index+1, title))
	} else {
		titleLine = c.styles.Normal.Render(fmt.Sprintf("%s[%d] %s", indicator, index+1, title))
	}
	if cite.Category != "" {
		titleLine += " " + c.styles.Category.Render(string(cite.Category))
	}

	urlLine := c.styles.Citation.Render("    " + Truncate(cite.URL, max(c.width-6, 20)))
	excerpt := strings.Join(strings.Fields(cite.Excerpt), " ")
	excerptLine := c.styles.Muted.Render("    " + Truncate(excerpt, max(c.width-6, 20)))

	return titleLine + "\n" + urlLine + "\n" + excerptLine
}

// Truncate shortens s to n runes, marking the cut with an ellipsis.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}

// SetCitations replaces the list contents and resets the selection.
func (c *CitationList) SetCitations(citations []domain.SourceCitation) {
	c.citations = citations
	c.selected = 0
}

// Citations returns the current citations.
func (c *CitationList) Citations() []domain.SourceCitation {
	return c.citations
}

// Selected returns the index of the selected citation.
func (c *CitationList) Selected() int {
	return c.selected
}

// SelectedCitation returns the selected citation, or nil if the list is empty.
func (c *CitationList) SelectedCitation() *domain.SourceCitation {
	if c.selected < 0 || c.selected >= len(c.citations) {
		return nil
	}
	return &c.citations[c.selected]
}

// MoveUp moves selection up.
func (c *CitationList) MoveUp() {
	if c.selected > 0 {
		c.selected--
	}
}

// MoveDown moves selection down.
func (c *CitationList) MoveDown() {
	if c.selected < len(c.citations)-1 {
		c.selected++
	}
}

// SetDimensions sets the component dimensions.
func (c *CitationList) SetDimensions(width, height int) {
	c.width = width
	c.height = height
}

// Count returns the number of citations.
func (c *CitationList) Count() int {
	return len(c.citations)
}
