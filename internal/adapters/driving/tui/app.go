package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/bookingest/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/bookingest/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/bookingest/internal/adapters/driving/tui/views/pages"
	"github.com/custodia-labs/bookingest/internal/adapters/driving/tui/views/pagetext"
	"github.com/custodia-labs/bookingest/internal/adapters/driving/tui/views/volumes"
)

// App is the browser's root model. It routes messages to the active view.
type App struct {
	keys   keyMap
	styles *styles.Styles

	volumesView  *volumes.View
	pagesView    *pages.View
	pageTextView *pagetext.View

	currentView messages.ViewType
	showHelp    bool
	width       int
	height      int
	ready       bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates the browser. ctx bounds every catalog and OCR call.
func NewApp(ctx context.Context, ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}
	s := styles.Default()
	return &App{
		keys:         defaultKeys(),
		styles:       s,
		volumesView:  volumes.NewView(ctx, s, ports.Catalog),
		pagesView:    pages.NewView(ctx, s, ports.Catalog, ports.OCR),
		pageTextView: pagetext.NewView(ctx, s, ports.Catalog, ports.OCR),
		currentView:  messages.ViewVolumes,
	}, nil
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.SetWindowTitle("bookingest catalog"),
		a.volumesView.Init(),
	)
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width, a.height, a.ready = msg.Width, msg.Height, true
		a.volumesView.SetDimensions(msg.Width, msg.Height)
		a.pagesView.SetDimensions(msg.Width, msg.Height)
		a.pageTextView.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		if key.Matches(msg, a.keys.Quit) {
			return a, tea.Quit
		}
		if key.Matches(msg, a.keys.Help) {
			a.showHelp = !a.showHelp
			return a, nil
		}
		if a.showHelp {
			a.showHelp = false
			return a, nil
		}

	case messages.Quit:
		return a, tea.Quit

	case messages.ViewChanged:
		a.currentView = msg.View
		return a, nil

	case messages.VolumeSelected:
		a.currentView = messages.ViewPages
		return a, a.pagesView.SetVolume(msg.Volume)

	case messages.PageSelected:
		a.currentView = messages.ViewPageText
		return a, a.pageTextView.SetPage(msg.Page)

	case messages.VolumesLoaded:
		a.volumesView, cmd = a.volumesView.Update(msg)
		return a, cmd

	case messages.PagesLoaded:
		a.pagesView, cmd = a.pagesView.Update(msg)
		return a, cmd

	case messages.WordsLoaded:
		a.pageTextView, cmd = a.pageTextView.Update(msg)
		return a, cmd

	case messages.OCRFinished:
		// Both views filter on the target pid.
		var c1, c2 tea.Cmd
		a.pagesView, c1 = a.pagesView.Update(msg)
		a.pageTextView, c2 = a.pageTextView.Update(msg)
		return a, tea.Batch(c1, c2)
	}

	switch a.currentView {
	case messages.ViewVolumes:
		a.volumesView, cmd = a.volumesView.Update(msg)
	case messages.ViewPages:
		a.pagesView, cmd = a.pagesView.Update(msg)
	case messages.ViewPageText:
		a.pageTextView, cmd = a.pageTextView.Update(msg)
	}
	return a, cmd
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}
	if a.showHelp {
		return a.viewHelp()
	}
	switch a.currentView {
	case messages.ViewPages:
		return a.pagesView.View()
	case messages.ViewPageText:
		return a.pageTextView.View()
	default:
		return a.volumesView.View()
	}
}

func (a *App) viewHelp() string {
	return a.styles.Title.Render("Help") + `

Volumes:
  j/k, ↑/↓    move
  enter       open pages
  r           reload
  q           quit

Pages:
  enter       show page text
  o           rebuild OCR for the volume
  esc         back to volumes

Page text:
  ↑/↓, PgUp   scroll
  g/G         top/bottom
  o           rebuild OCR for the page
  esc         back to pages

ctrl+c quits from anywhere. Press any key to close help.`
}

// Run starts the browser in the alternate screen.
func (a *App) Run(ctx context.Context) error {
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

// CurrentView returns the active view.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// Ready reports whether the window size is known.
func (a *App) Ready() bool {
	return a.ready
}
