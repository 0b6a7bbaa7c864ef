// Package ask provides the question and answer view for the TUI.
package ask

import (
	"context"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/sercha-kb/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/sercha-kb/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/sercha-kb/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/sercha-kb/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/sercha-kb/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/sercha-kb/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driving"
)

// View asks questions and shows grounded answers with their sources.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	input     *input.QuestionInput
	spinner   spinner.Model
	citations *list.CitationList
	statusbar *status.Bar

	answerService driving.AnswerService
	ctx           context.Context
	language      string
	categories    []domain.Category

	result     *domain.QueryResult
	width      int
	height     int
	ready      bool
	err        error
	focusInput bool // true while typing, false while reading an answer
	thinking   bool
}

// NewView creates a new ask view.
func NewView(s *styles.Styles, km *keymap.KeyMap, answerService driving.AnswerService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &View{
		styles:        s,
		keymap:        km,
		input:         input.NewQuestionInput(s),
		spinner:       spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(s.Subtitle)),
		citations:     list.NewCitationList(s),
		statusbar:     status.NewBar(s, km),
		answerService: answerService,
		ctx:           context.Background(),
		width:         80,
		height:        24,
		focusInput:    true,
	}
}

// WithContext sets the context used for answer requests.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// WithLanguage sets the answer language. Empty keeps the service default.
func (v *View) WithLanguage(lang string) *View {
	v.language = lang
	return v
}

// WithCategories restricts retrieval to the given categories.
func (v *View) WithCategories(cats []domain.Category) *View {
	v.categories = cats
	return v
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return v.input.Init()
}

// Update handles messages for the ask view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case spinner.TickMsg:
		if !v.thinking {
			return v, nil
		}
		var cmd tea.Cmd
		v.spinner, cmd = v.spinner.Update(msg)
		return v, cmd

	case messages.AnswerCompleted:
		v.handleAnswerCompleted(msg)
		return v, nil

	case messages.ErrorOccurred:
		v.thinking = false
		v.setError(msg.Err)
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	if key.Matches(msg, v.keymap.Back) {
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	}

	if v.focusInput {
		if key.Matches(msg, v.keymap.Ask) {
			question := v.input.Question()
			if question == "" || v.thinking {
				return v, nil
			}
			v.thinking = true
			v.err = nil
			v.focusInput = false
			v.input.Blur()
			v.statusbar.Clear()
			v.statusbar.SetState(status.StateThinking)
			return v, tea.Batch(v.spinner.Tick, v.ask(question))
		}
		var cmd tea.Cmd
		v.input, cmd = v.input.Update(msg)
		return v, cmd
	}

	switch {
	case key.Matches(msg, v.keymap.Up):
		v.citations.MoveUp()
	case key.Matches(msg, v.keymap.Down):
		v.citations.MoveDown()
	case key.Matches(msg, v.keymap.NewQuestion):
		if !v.thinking {
			v.Reset()
			return v, v.input.Focus()
		}
	}
	return v, nil
}

// ask returns a command that answers the question.
func (v *View) ask(question string) tea.Cmd {
	q := domain.Query{
		Question:   question,
		Language:   v.language,
		Categories: v.categories,
	}
	return func() tea.Msg {
		if v.answerService == nil {
			return messages.ErrorOccurred{Err: ErrNoAnswerService}
		}
		result, err := v.answerService.Answer(v.ctx, q)
		return messages.AnswerCompleted{Result: result, Err: err}
	}
}

func (v *View) handleAnswerCompleted(msg messages.AnswerCompleted) {
	v.thinking = false
	if msg.Err != nil {
		v.setError(msg.Err)
		return
	}
	if msg.Result == nil {
		v.setError(ErrEmptyAnswer)
		return
	}

	v.err = nil
	v.result = msg.Result
	v.citations.SetCitations(msg.Result.Sources)
	if msg.Result.State == domain.StateNoMatch {
		v.statusbar.SetState(status.StateNoMatch)
		return
	}
	v.statusbar.SetAnswer(len(msg.Result.Sources), msg.Result.Confidence, msg.Result.Provider)
}

func (v *View) setError(err error) {
	v.err = err
	v.statusbar.SetState(status.StateError)
	v.statusbar.SetMessage(err.Error())
}

// View renders the ask view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	sections := make([]string, 0, 12)
	sections = append(sections,
		v.styles.Title.Render("Sercha KB"),
		v.styles.Muted.Render("Serbian tax and business regulations"),
		"",
		v.input.View(),
		"",
	)

	if v.thinking {
		sections = append(sections, v.spinner.View()+" "+v.styles.Muted.Render("Searching the knowledge base..."), "")
	}

	if v.err != nil {
		sections = append(sections, v.styles.Error.Render("Error: "+v.err.Error()), "")
	}

	if v.result != nil && !v.thinking {
		answerWidth := max(v.width-4, 20)
		sections = append(sections, v.styles.Answer.Width(answerWidth).Render(v.result.Answer), "")
		if len(v.result.Sources) > 0 {
			sections = append(sections, v.citations.View(), "")
		}
	}

	sections = append(sections, v.statusbar.View())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	v.input.SetWidth(width)
	v.citations.SetDimensions(width, max(height/2, 6))
	v.statusbar.SetWidth(width)
}

// Ready returns whether the view is ready to render.
func (v *View) Ready() bool {
	return v.ready
}

// Question returns the current question text.
func (v *View) Question() string {
	return v.input.Value()
}

// SetQuestion sets the question text.
func (v *View) SetQuestion(question string) {
	v.input.SetValue(question)
}

// Result returns the last answer, or nil.
func (v *View) Result() *domain.QueryResult {
	return v.result
}

// SelectedCitation returns the highlighted citation of the last answer.
func (v *View) SelectedCitation() *domain.SourceCitation {
	return v.citations.SelectedCitation()
}

// Thinking reports whether an answer request is in flight.
func (v *View) Thinking() bool {
	return v.thinking
}

// Err returns the current error, if any.
func (v *View) Err() error {
	return v.err
}

// InputFocused returns whether the input has focus.
func (v *View) InputFocused() bool {
	return v.focusInput
}

// Reset returns the view to an empty question.
func (v *View) Reset() {
	v.focusInput = true
	v.input.Focus()
	v.input.SetValue("")
	v.citations.SetCitations(nil)
	v.result = nil
	v.err = nil
	v.thinking = false
	v.statusbar.Clear()
}
