package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/sercha-kb/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/sercha-kb/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/sercha-kb/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/sercha-kb/internal/adapters/driving/tui/views/ask"
	"github.com/custodia-labs/sercha-kb/internal/adapters/driving/tui/views/doccontent"
	"github.com/custodia-labs/sercha-kb/internal/adapters/driving/tui/views/documents"
	"github.com/custodia-labs/sercha-kb/internal/adapters/driving/tui/views/menu"
	"github.com/custodia-labs/sercha-kb/internal/adapters/driving/tui/views/sources"
)

// App routes messages between the menu, ask, sources, documents and
// chunk views. Service results go to the view that asked for them even
// when another view is on screen.
type App struct {
	ports  *Ports
	ctx    context.Context
	styles *styles.Styles
	keys   *keymap.KeyMap

	menu      *menu.View
	ask       *ask.View
	sources   *sources.View
	documents *documents.View
	chunks    *doccontent.View

	current messages.ViewType
	err     error
	ready   bool
}

var _ tea.Model = (*App)(nil)

func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	return &App{
		ports:     ports,
		ctx:       context.Background(),
		styles:    s,
		keys:      keymap.DefaultKeyMap(),
		menu:      menu.NewView(s),
		ask:       ask.NewView(s, nil, ports.Answer),
		sources:   sources.NewView(s, ports.Source, ports.Document, ports.Ingestion),
		documents: documents.NewView(s, ports.Document),
		chunks:    doccontent.NewView(s, ports.Document),
		current:   messages.ViewMenu,
	}, nil
}

// WithContext sets the context every view passes to its services.
// Cancelling it also stops the program started by Run.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.ask.WithContext(ctx)
	a.sources.WithContext(ctx)
	a.documents.WithContext(ctx)
	a.chunks.WithContext(ctx)
	return a
}

// WithLanguage sets the answer language.
func (a *App) WithLanguage(lang string) *App {
	a.ask.WithLanguage(lang)
	return a
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(tea.EnterAltScreen, tea.SetWindowTitle("sercha-kb"))
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		return a, a.handleKey(msg)

	case messages.ViewChanged:
		return a, a.show(msg.View)

	case messages.Quit:
		return a, tea.Quit

	case messages.SourceSelected:
		a.current = messages.ViewDocuments
		return a, a.documents.SetSource(msg.Source)

	case messages.DocumentSelected:
		doc := msg.Document
		a.current = messages.ViewDocContent
		return a, a.chunks.SetDocument(&doc)

	case messages.AnswerCompleted:
		a.ask, cmd = a.ask.Update(msg)
		a.err = a.ask.Err()
	case messages.SourcesLoaded, messages.IngestCompleted:
		a.sources, cmd = a.sources.Update(msg)
	case messages.DocumentsLoaded:
		a.documents, cmd = a.documents.Update(msg)
	case messages.ChunksLoaded:
		a.chunks, cmd = a.chunks.Update(msg)

	case messages.ErrorOccurred:
		a.err = msg.Err
		cmd = a.forward(msg)

	default:
		cmd = a.forward(msg)
	}
	return a, cmd
}

// handleKey lets ctrl+c quit from anywhere. The help screen handles its own
// keys and every other view gets the key as is, so typing q into the
// question input does not quit.
func (a *App) handleKey(msg tea.KeyMsg) tea.Cmd {
	if msg.Type == tea.KeyCtrlC {
		return tea.Quit
	}
	if a.current != messages.ViewHelp {
		return a.forward(msg)
	}
	switch {
	case key.Matches(msg, a.keys.Quit):
		return tea.Quit
	case key.Matches(msg, a.keys.Back):
		a.current = messages.ViewMenu
	}
	return nil
}

// show switches to view and starts whatever it loads on entry.
func (a *App) show(view messages.ViewType) tea.Cmd {
	a.current = view
	switch view {
	case messages.ViewAsk:
		a.ask.Reset()
		return a.ask.Init()
	case messages.ViewSources:
		return a.sources.Init()
	}
	return nil
}

func (a *App) forward(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch a.current {
	case messages.ViewMenu:
		a.menu, cmd = a.menu.Update(msg)
	case messages.ViewAsk:
		a.ask, cmd = a.ask.Update(msg)
		a.err = a.ask.Err()
	case messages.ViewSources:
		a.sources, cmd = a.sources.Update(msg)
	case messages.ViewDocuments:
		a.documents, cmd = a.documents.Update(msg)
	case messages.ViewDocContent:
		a.chunks, cmd = a.chunks.Update(msg)
	}
	return cmd
}

func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}
	switch a.current {
	case messages.ViewAsk:
		return a.ask.View()
	case messages.ViewSources:
		return a.sources.View()
	case messages.ViewDocuments:
		return a.documents.View()
	case messages.ViewDocContent:
		return a.chunks.View()
	case messages.ViewHelp:
		return renderHelp(a.styles)
	}
	return a.menu.View()
}

// Run blocks until the user quits or the context set by WithContext ends.
func (a *App) Run() error {
	_, err := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx)).Run()
	return err
}

func (a *App) CurrentView() messages.ViewType { return a.current }
func (a *App) Err() error                     { return a.err }

// Ready is false until the first WindowSizeMsg.
func (a *App) Ready() bool { return a.ready }

func (a *App) SetDimensions(width, height int) {
	a.ready = true
	a.menu.SetDimensions(width, height)
	a.ask.SetDimensions(width, height)
	a.sources.SetDimensions(width, height)
	a.documents.SetDimensions(width, height)
	a.chunks.SetDimensions(width, height)
}
