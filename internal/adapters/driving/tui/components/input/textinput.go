// Package input is the question field of the ask view.
package input

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/sercha-kb/internal/adapters/driving/tui/styles"
)

// MaxQuestionLength caps a question in characters.
const MaxQuestionLength = 500

const (
	placeholder = "Koliki je limit za paušalno oporezivanje?"
	labelWidth  = 16 // rendered "Question: " plus field border and padding
	minField    = 20
)

// QuestionInput is a single-line field with a "Question:" label.
type QuestionInput struct {
	textinput textinput.Model
	styles    *styles.Styles
	width     int
}

func NewQuestionInput(s *styles.Styles) *QuestionInput {
	if s == nil {
		s = styles.DefaultStyles()
	}
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = MaxQuestionLength
	ti.Focus()

	q := &QuestionInput{textinput: ti, styles: s}
	q.SetWidth(76)
	return q
}

func (q *QuestionInput) Init() tea.Cmd { return textinput.Blink }

func (q *QuestionInput) Update(msg tea.Msg) (*QuestionInput, tea.Cmd) {
	var cmd tea.Cmd
	q.textinput, cmd = q.textinput.Update(msg)
	return q, cmd
}

// View dims the label while the field is not focused.
func (q *QuestionInput) View() string {
	label := q.styles.Muted.Render("Question: ")
	if q.textinput.Focused() {
		label = q.styles.Title.Render("Question: ")
	}
	//nolint:misspell // lipgloss constant
	return lipgloss.JoinHorizontal(lipgloss.Center, label, q.styles.InputField.Render(q.textinput.View()))
}

func (q *QuestionInput) Value() string { return q.textinput.Value() }

// Question is the value without surrounding whitespace.
func (q *QuestionInput) Question() string { return strings.TrimSpace(q.textinput.Value()) }

func (q *QuestionInput) SetValue(v string) { q.textinput.SetValue(v) }
func (q *QuestionInput) Reset()            { q.textinput.Reset() }
func (q *QuestionInput) Focus() tea.Cmd    { return q.textinput.Focus() }
func (q *QuestionInput) Blur()             { q.textinput.Blur() }
func (q *QuestionInput) Focused() bool     { return q.textinput.Focused() }

// SetWidth sizes the whole component; the text field gets what the label leaves.
func (q *QuestionInput) SetWidth(width int) {
	q.width = width
	q.textinput.Width = max(width-labelWidth, minField)
}

func (q *QuestionInput) Width() int { return q.width }
