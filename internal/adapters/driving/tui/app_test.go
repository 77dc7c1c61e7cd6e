package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/bookingest/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/bookingest/internal/core/domain"
	"github.com/custodia-labs/bookingest/internal/core/ports/driving"
)

type stubCatalog struct {
	volumes []domain.Volume
	pages   []domain.Page
	words   []domain.Word
}

func (s *stubCatalog) GetVolume(context.Context, string) (*domain.Volume, error) {
	return nil, domain.ErrNotFound
}

func (s *stubCatalog) ListVolumes(context.Context) ([]domain.Volume, error) {
	return s.volumes, nil
}

func (s *stubCatalog) ListPages(context.Context, string) ([]domain.Page, error) {
	return s.pages, nil
}

func (s *stubCatalog) ListWords(context.Context, string) ([]domain.Word, error) {
	return s.words, nil
}

func (s *stubCatalog) ListJobs(context.Context) ([]domain.IngestJob, error) {
	return nil, nil
}

type stubOCR struct{}

func (stubOCR) AddOCR(context.Context, string) (*driving.OCRReport, error) {
	return &driving.OCRReport{Pages: 1}, nil
}

func (stubOCR) AddOCRToPage(context.Context, string) (*driving.OCRReport, error) {
	return nil, errors.New("no source")
}

func newTestApp(t *testing.T) *App {
	t.Helper()
	app, err := NewApp(context.Background(), &Ports{
		Catalog: &stubCatalog{
			volumes: []domain.Volume{{PID: "sqn75", Label: "Atlas"}},
			pages:   []domain.Page{{PID: "p1", VolumePID: "sqn75", Position: 1}},
			words:   []domain.Word{{PagePID: "p1", Content: "Hello", Order: 1}},
		},
		OCR: stubOCR{},
	})
	require.NoError(t, err)
	app.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return app
}

// send delivers msg and feeds the resulting command's message back once.
func send(app *App, msg tea.Msg) tea.Msg {
	_, cmd := app.Update(msg)
	if cmd == nil {
		return nil
	}
	out := cmd()
	app.Update(out)
	return out
}

func TestNewApp_RequiresCatalog(t *testing.T) {
	_, err := NewApp(context.Background(), &Ports{})
	assert.ErrorIs(t, err, ErrMissingCatalogService)

	_, err = NewApp(context.Background(), nil)
	assert.ErrorIs(t, err, ErrMissingCatalogService)
}

func TestApp_NotReadyBeforeResize(t *testing.T) {
	app, err := NewApp(context.Background(), &Ports{Catalog: &stubCatalog{}})
	require.NoError(t, err)

	assert.False(t, app.Ready())
	assert.Equal(t, "Initialising...", app.View())
}

func TestApp_Navigation(t *testing.T) {
	app := newTestApp(t)
	app.Update(app.volumesView.Init()())
	assert.Contains(t, app.View(), "sqn75")

	msg := send(app, tea.KeyMsg{Type: tea.KeyEnter})
	assert.IsType(t, messages.VolumeSelected{}, msg)
	assert.Equal(t, messages.ViewPages, app.CurrentView())

	// The volume selection returned a load command; run it.
	_, cmd := app.Update(msg)
	app.Update(cmd())
	assert.Contains(t, app.View(), "p1")

	msg = send(app, tea.KeyMsg{Type: tea.KeyEnter})
	assert.IsType(t, messages.PageSelected{}, msg)
	_, cmd = app.Update(msg)
	app.Update(cmd())
	assert.Equal(t, messages.ViewPageText, app.CurrentView())
	assert.Contains(t, app.View(), "Hello")

	send(app, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, messages.ViewPages, app.CurrentView())
	send(app, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, messages.ViewVolumes, app.CurrentView())
}

func TestApp_HelpToggle(t *testing.T) {
	app := newTestApp(t)

	app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("?")})
	assert.Contains(t, app.View(), "rebuild OCR for the volume")

	app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
	assert.NotContains(t, app.View(), "rebuild OCR for the volume")
}

func TestApp_Quit(t *testing.T) {
	app := newTestApp(t)

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())

	_, cmd = app.Update(messages.Quit{})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}
