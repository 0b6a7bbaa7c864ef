// Package status provides status bar components for the TUI.
package status

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/sercha-kb/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/sercha-kb/internal/adapters/driving/tui/styles"
)

// State represents the current application state for display.
type State string

const (
	StateReady    State = "ready"
	StateThinking State = "thinking"
	StateError    State = "error"
	StateAnswered State = "answered"
	StateNoMatch  State = "no_match"
)

// Bar displays application status and keybinding hints.
type Bar struct {
	styles     *styles.Styles
	keymap     *keymap.KeyMap
	state      State
	message    string
	citations  int
	confidence float64
	provider   string
	width      int
}

// NewBar creates a new status bar component.
func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &Bar{
		styles: s,
		keymap: km,
		state:  StateReady,
		width:  80,
	}
}

// Init initialises the status bar.
func (b *Bar) Init() tea.Cmd {
	return nil
}

// Update is a no-op; the bar is driven through its setters.
func (b *Bar) Update(msg tea.Msg) (*Bar, tea.Cmd) {
	return b, nil
}

// View renders the status bar.
func (b *Bar) View() string {
	left := b.renderLeft()
	right := b.renderRight()

	padding := b.width - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 1 {
		padding = 1
	}

	return b.styles.StatusBar.Width(b.width).Render(
		left + strings.Repeat(" ", padding) + right,
	)
}

func (b *Bar) renderLeft() string {
	switch b.state {
	case StateThinking:
		return b.styles.Muted.Render("Thinking...")
	case StateError:
		if b.message != "" {
			return b.styles.Error.Render(fmt.Sprintf("Error: %s", b.message))
		}
		return b.styles.Error.Render("Error")
	case StateNoMatch:
		return b.styles.Warning.Render("No matching documents")
	case StateAnswered:
		conf := b.styles.Confidence(b.confidence).Render(fmt.Sprintf("%.0f%%", b.confidence*100))
		text := fmt.Sprintf("%d source(s) | confidence ", b.citations)
		if b.provider != "" {
			return b.styles.Normal.Render(text) + conf + b.styles.Muted.Render(" | "+b.provider)
		}
		return b.styles.Normal.Render(text) + conf
	case StateReady:
	}
	if b.message != "" {
		return b.styles.Muted.Render(b.message)
	}
	return b.styles.Muted.Render("Ready")
}

// renderRight renders keybinding hints.
func (b *Bar) renderRight() string {
	var bindings []key.Binding
	if b.state == StateAnswered || b.state == StateNoMatch {
		bindings = b.keymap.AnswerHelp()
	} else {
		bindings = b.keymap.ShortHelp()
	}

	hints := make([]string, 0, len(bindings))
	for _, binding := range bindings {
		h := binding.Help()
		hints = append(hints, fmt.Sprintf("%s: %s", h.Key, h.Desc))
	}
	return b.styles.Muted.Render(strings.Join(hints, " | "))
}

// SetState sets the current state.
func (b *Bar) SetState(state State) {
	b.state = state
}

// State returns the current state.
func (b *Bar) State() State {
	return b.state
}

// SetMessage sets a custom message.
func (b *Bar) SetMessage(message string) {
	b.message = message
}

// Message returns the current message.
func (b *Bar) Message() string {
	return b.message
}

// SetAnswer records the summary of an answer and switches to StateAnswered.
func (b *Bar) SetAnswer(citations int, confidence float64, provider string) {
	b.state = StateAnswered
	b.citations = citations
	b.confidence = confidence
	b.provider = provider
}

// Citations returns the citation count of the last answer.
func (b *Bar) Citations() int {
	return b.citations
}

// SetWidth sets the status bar width.
func (b *Bar) SetWidth(width int) {
	b.width = width
}

// Width returns the current width.
func (b *Bar) Width() int {
	return b.width
}

// Clear resets the status bar to default state.
func (b *Bar) Clear() {
	b.state = StateReady
	b.message = ""
	b.citations = 0
	b.confidence = 0
	b.provider = ""
}
