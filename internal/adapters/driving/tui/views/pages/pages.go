// Package pages provides the page list view of one volume.
package pages

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/bookingest/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/bookingest/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/bookingest/internal/core/domain"
	"github.com/custodia-labs/bookingest/internal/core/ports/driving"
)

// View lists a volume's pages and can rebuild the volume's OCR.
type View struct {
	ctx     context.Context
	styles  *styles.Styles
	catalog driving.CatalogService
	ocr     driving.OCRService

	volume       *domain.Volume
	pages        []domain.Page
	selected     int
	scrollOffset int
	width        int
	height       int
	loading      bool
	running      bool
	status       string
	err          error
}

// NewView creates a page list view. ocr may be nil.
func NewView(ctx context.Context, s *styles.Styles, catalog driving.CatalogService, ocr driving.OCRService) *View {
	return &View{ctx: ctx, styles: s, catalog: catalog, ocr: ocr}
}

// SetVolume switches to vol and loads its pages.
func (v *View) SetVolume(vol domain.Volume) tea.Cmd {
	v.volume = &vol
	v.pages = nil
	v.selected = 0
	v.scrollOffset = 0
	v.status = ""
	v.err = nil
	v.loading = true
	return v.load()
}

func (v *View) load() tea.Cmd {
	pid := v.volume.PID
	return func() tea.Msg {
		if v.catalog == nil {
			return messages.PagesLoaded{VolumePID: pid, Err: errors.New("catalog service not available")}
		}
		pages, err := v.catalog.ListPages(v.ctx, pid)
		return messages.PagesLoaded{VolumePID: pid, Pages: pages, Err: err}
	}
}

func (v *View) rebuild() tea.Cmd {
	pid := v.volume.PID
	return func() tea.Msg {
		report, err := v.ocr.AddOCR(v.ctx, pid)
		return messages.OCRFinished{Target: pid, Report: report, Err: err}
	}
}

// Update handles messages for the view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case messages.PagesLoaded:
		if v.volume == nil || msg.VolumePID != v.volume.PID {
			return v, nil
		}
		v.loading = false
		v.err = msg.Err
		if msg.Err == nil {
			v.pages = msg.Pages
		}
		return v, nil

	case messages.OCRFinished:
		if v.volume == nil || msg.Target != v.volume.PID {
			return v, nil
		}
		v.running = false
		v.status = summarize(msg)
		return v, nil

	case tea.KeyMsg:
		return v.handleKey(msg)
	}
	return v, nil
}

func (v *View) handleKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if v.selected > 0 {
			v.selected--
			v.adjustScroll()
		}
	case "down", "j":
		if v.selected < len(v.pages)-1 {
			v.selected++
			v.adjustScroll()
		}
	case "enter":
		if v.selected < len(v.pages) {
			page := v.pages[v.selected]
			return v, func() tea.Msg { return messages.PageSelected{Page: page} }
		}
	case "o":
		if v.ocr != nil && v.volume != nil && !v.running {
			v.running = true
			v.status = "Rebuilding OCR for " + v.volume.PID + "..."
			return v, v.rebuild()
		}
	case "r":
		if v.volume != nil {
			v.loading = true
			return v, v.load()
		}
	case "esc":
		return v, func() tea.Msg { return messages.ViewChanged{View: messages.ViewVolumes} }
	}
	return v, nil
}

// summarize renders an OCR report as one status line.
func summarize(msg messages.OCRFinished) string {
	if msg.Err != nil {
		return "OCR failed: " + msg.Err.Error()
	}
	r := msg.Report
	if r == nil {
		return "OCR finished"
	}
	s := fmt.Sprintf("OCR: %d pages, %d with words, %d skipped, %d words", r.Pages, r.Persisted, r.Skipped, r.Words)
	if len(r.Warnings) > 0 {
		s += fmt.Sprintf(" (%d warnings)", len(r.Warnings))
	}
	return s
}

func (v *View) adjustScroll() {
	visible := v.visibleItems()
	if v.selected < v.scrollOffset {
		v.scrollOffset = v.selected
	} else if v.selected >= v.scrollOffset+visible {
		v.scrollOffset = v.selected - visible + 1
	}
}

func (v *View) visibleItems() int {
	return max(v.height-9, 1)
}

// View renders the page list.
func (v *View) View() string {
	var b strings.Builder
	title := "Pages"
	if v.volume != nil {
		title = fmt.Sprintf("%s - %s (%d pages)", v.volume.PID, styles.Truncate(v.volume.Label, max(v.width-30, 10)), len(v.pages))
	}
	b.WriteString(v.styles.Title.Render(title))
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading pages..."))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
	case len(v.pages) == 0:
		b.WriteString(v.styles.Muted.Render("This volume has no pages."))
	default:
		v.renderList(&b)
	}

	if v.status != "" {
		b.WriteString("\n\n")
		if strings.HasPrefix(v.status, "OCR failed") {
			b.WriteString(v.styles.Error.Render(v.status))
		} else {
			b.WriteString(v.styles.Success.Render(v.status))
		}
	}

	b.WriteString("\n\n")
	help := "[↑/↓] navigate  [enter] text  [r] reload  [esc] volumes"
	if v.ocr != nil {
		help = "[↑/↓] navigate  [enter] text  [o] rebuild OCR  [r] reload  [esc] volumes"
	}
	b.WriteString(v.styles.Help.Render(help))
	return b.String()
}

func (v *View) renderList(b *strings.Builder) {
	visible := v.visibleItems()
	end := min(v.scrollOffset+visible, len(v.pages))
	for i := v.scrollOffset; i < end; i++ {
		p := &v.pages[i]
		ocr := "-"
		if p.HasSidecar() {
			ocr = "sidecar"
		} else if p.DefaultOCR != "" {
			ocr = string(p.DefaultOCR)
		}
		line := fmt.Sprintf("%4d  %-30s  %5dx%-5d  %s", p.Position, styles.Truncate(p.PID, 30), p.Width, p.Height, ocr)
		if i == v.selected {
			b.WriteString(v.styles.Selected.Render("> " + line))
		} else {
			b.WriteString(v.styles.Normal.Render("  " + line))
		}
		b.WriteString("\n")
	}
	if len(v.pages) > visible {
		b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  [%d-%d of %d]", v.scrollOffset+1, end, len(v.pages))))
	}
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.adjustScroll()
}

// Volume returns the current volume.
func (v *View) Volume() *domain.Volume {
	return v.volume
}

// Pages returns the loaded pages.
func (v *View) Pages() []domain.Page {
	return v.pages
}

// Status returns the last OCR status line.
func (v *View) Status() string {
	return v.status
}

// Err returns the last load error.
func (v *View) Err() error {
	return v.err
}
