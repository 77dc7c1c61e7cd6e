// Package pagetext shows the OCR text of one page in a scrollable viewport.
package pagetext

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/bookingest/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/bookingest/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/bookingest/internal/core/domain"
	"github.com/custodia-labs/bookingest/internal/core/ports/driving"
)

// View renders a page's words as text.
type View struct {
	ctx     context.Context
	styles  *styles.Styles
	catalog driving.CatalogService
	ocr     driving.OCRService

	page     *domain.Page
	words    []domain.Word
	viewport viewport.Model
	width    int
	height   int
	loading  bool
	running  bool
	status   string
	err      error
}

// NewView creates a page text view. ocr may be nil.
func NewView(ctx context.Context, s *styles.Styles, catalog driving.CatalogService, ocr driving.OCRService) *View {
	return &View{ctx: ctx, styles: s, catalog: catalog, ocr: ocr, viewport: viewport.New(80, 20)}
}

// SetPage switches to page and loads its words.
func (v *View) SetPage(page domain.Page) tea.Cmd {
	v.page = &page
	v.words = nil
	v.status = ""
	v.err = nil
	v.loading = true
	v.viewport.SetContent("")
	v.viewport.GotoTop()
	return v.load()
}

func (v *View) load() tea.Cmd {
	pid := v.page.PID
	return func() tea.Msg {
		if v.catalog == nil {
			return messages.WordsLoaded{PagePID: pid, Err: errors.New("catalog service not available")}
		}
		words, err := v.catalog.ListWords(v.ctx, pid)
		return messages.WordsLoaded{PagePID: pid, Words: words, Err: err}
	}
}

func (v *View) rebuild() tea.Cmd {
	pid := v.page.PID
	return func() tea.Msg {
		report, err := v.ocr.AddOCRToPage(v.ctx, pid)
		return messages.OCRFinished{Target: pid, Report: report, Err: err}
	}
}

// Update handles messages for the view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case messages.WordsLoaded:
		if v.page == nil || msg.PagePID != v.page.PID {
			return v, nil
		}
		v.loading = false
		v.err = msg.Err
		if msg.Err == nil {
			v.words = msg.Words
			v.viewport.SetContent(Text(v.words))
		}
		return v, nil

	case messages.OCRFinished:
		if v.page == nil || msg.Target != v.page.PID {
			return v, nil
		}
		v.running = false
		if msg.Err != nil {
			v.status = "OCR failed: " + msg.Err.Error()
			return v, nil
		}
		v.status = "OCR rebuilt"
		if msg.Report != nil && len(msg.Report.Warnings) > 0 {
			v.status = msg.Report.Warnings[0]
		}
		v.loading = true
		return v, v.load()

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return v, func() tea.Msg { return messages.ViewChanged{View: messages.ViewPages} }
		case "o":
			if v.ocr != nil && v.page != nil && !v.running {
				v.running = true
				v.status = "Rebuilding OCR..."
				return v, v.rebuild()
			}
			return v, nil
		case "g", "home":
			v.viewport.GotoTop()
			return v, nil
		case "G", "end":
			v.viewport.GotoBottom()
			return v, nil
		}
	}

	var cmd tea.Cmd
	v.viewport, cmd = v.viewport.Update(msg)
	return v, cmd
}

// Text lays words out in reading order, starting a new line when a word
// sits below the previous one or when order restarts on the left.
func Text(words []domain.Word) string {
	if len(words) == 0 {
		return ""
	}
	sorted := append([]domain.Word(nil), words...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Order < sorted[j].Order })

	var b strings.Builder
	prev := sorted[0]
	b.WriteString(prev.Content)
	for _, w := range sorted[1:] {
		switch {
		case w.ResourceType == domain.ResourceLine:
			b.WriteString("\n")
		case w.Y > prev.Y+prev.H/2 || w.X+w.W < prev.X:
			b.WriteString("\n")
		default:
			b.WriteString(" ")
		}
		b.WriteString(w.Content)
		prev = w
	}
	return b.String()
}

// View renders the page text.
func (v *View) View() string {
	var b strings.Builder
	title := "Page"
	if v.page != nil {
		title = fmt.Sprintf("%s  (page %d, %d words)", v.page.PID, v.page.Position, len(v.words))
	}
	b.WriteString(v.styles.Title.Render(title))
	b.WriteString("\n")

	switch {
	case v.loading:
		b.WriteString("\n" + v.styles.Muted.Render("Loading text..."))
	case v.err != nil:
		b.WriteString("\n" + v.styles.Error.Render("Error: "+v.err.Error()))
	case len(v.words) == 0:
		b.WriteString("\n" + v.styles.Muted.Render("(No OCR for this page)"))
	default:
		b.WriteString(v.styles.Frame.Render(v.viewport.View()))
		b.WriteString("\n")
		b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  %3.f%%", v.viewport.ScrollPercent()*100)))
	}

	if v.status != "" {
		b.WriteString("\n")
		b.WriteString(v.styles.Muted.Render(v.status))
	}

	b.WriteString("\n")
	help := "[↑/↓/PgUp/PgDn] scroll  [g/G] top/bottom  [esc] pages"
	if v.ocr != nil {
		help = "[↑/↓/PgUp/PgDn] scroll  [g/G] top/bottom  [o] rebuild OCR  [esc] pages"
	}
	b.WriteString(v.styles.Help.Render(help))
	return b.String()
}

// SetDimensions sizes the viewport to the window, leaving room for the frame.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.viewport.Width = max(width-4, 20)
	v.viewport.Height = max(height-8, 3)
}

// Page returns the current page.
func (v *View) Page() *domain.Page {
	return v.page
}

// Words returns the loaded words.
func (v *View) Words() []domain.Word {
	return v.words
}

// Status returns the last OCR status line.
func (v *View) Status() string {
	return v.status
}

// Err returns the last load error.
func (v *View) Err() error {
	return v.err
}
