// Package menu is the TUI start screen.
package menu

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/sercha-kb/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/sercha-kb/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/sercha-kb/internal/adapters/driving/tui/styles"
)

// Item is one menu entry. An entry with Quit set exits the program.
type Item struct {
	Label       string
	Description string
	View        messages.ViewType
	Quit        bool
}

var defaultItems = []Item{
	{Label: "Ask", Description: "ask a tax or business question", View: messages.ViewAsk},
	{Label: "Sources", Description: "browse and ingest sources", View: messages.ViewSources},
	{Label: "Help", Description: "keybindings", View: messages.ViewHelp},
	{Label: "Quit", Quit: true},
}

// View is the start menu. Entries can be picked with the arrow keys
// or directly by their number.
type View struct {
	styles *styles.Styles
	keys   *keymap.KeyMap
	items  []Item
	cursor int
	ready  bool
}

func NewView(s *styles.Styles) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles: s,
		keys:   keymap.DefaultKeyMap(),
		items:  append([]Item(nil), defaultItems...),
	}
}

func (v *View) Init() tea.Cmd { return nil }

func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
	case tea.KeyMsg:
		return v, v.handleKey(msg)
	}
	return v, nil
}

func (v *View) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, v.keys.Up):
		v.cursor = max(v.cursor-1, 0)
	case key.Matches(msg, v.keys.Down):
		v.cursor = min(v.cursor+1, len(v.items)-1)
	case key.Matches(msg, v.keys.Select):
		return v.choose(v.cursor)
	case key.Matches(msg, v.keys.Quit):
		return tea.Quit
	default:
		if s := msg.String(); len(s) == 1 && s[0] >= '1' && int(s[0]-'1') < len(v.items) {
			v.cursor = int(s[0] - '1')
			return v.choose(v.cursor)
		}
	}
	return nil
}

func (v *View) choose(i int) tea.Cmd {
	item := v.items[i]
	if item.Quit {
		return tea.Quit
	}
	return func() tea.Msg { return messages.ViewChanged{View: item.View} }
}

func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	lines := []string{
		v.styles.Title.Render("Sercha KB"),
		v.styles.Muted.Render("Serbian tax and business regulations"),
		"",
	}
	for i, item := range v.items {
		label := fmt.Sprintf("%d. %s", i+1, item.Label)
		if i == v.cursor {
			label = "> " + v.styles.Subtitle.Render(label)
		} else {
			label = "  " + v.styles.Normal.Render(label)
		}
		if item.Description != "" {
			label += v.styles.Muted.Render("  " + item.Description)
		}
		lines = append(lines, label)
	}
	lines = append(lines, "", v.styles.Help.Render("[j/k] navigate  [1-4] jump  [enter] select  [q] quit"))
	return strings.Join(lines, "\n")
}

// SetDimensions marks the view ready. The menu does not depend on size.
func (v *View) SetDimensions(_, _ int) {
	v.ready = true
}

func (v *View) Selected() int { return v.cursor }

func (v *View) Items() []Item { return v.items }
