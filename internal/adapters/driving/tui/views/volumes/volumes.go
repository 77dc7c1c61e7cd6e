// Package volumes provides the volume list view of the catalog browser.
package volumes

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

// View lists every volume in the catalog.
type View struct {
	ctx     context.Context
	styles  *styles.Styles
	catalog driving.CatalogService

	volumes      []domain.Volume
	selected     int
	scrollOffset int
	width        int
	height       int
	loading      bool
	err          error
}

// NewView creates a volume list view.
func NewView(ctx context.Context, s *styles.Styles, catalog driving.CatalogService) *View {
	return &View{ctx: ctx, styles: s, catalog: catalog}
}

// Init loads the volumes.
func (v *View) Init() tea.Cmd {
	v.loading = true
	return v.load()
}

func (v *View) load() tea.Cmd {
	return func() tea.Msg {
		if v.catalog == nil {
			return messages.VolumesLoaded{Err: errors.New("catalog service not available")}
		}
		vols, err := v.catalog.ListVolumes(v.ctx)
		return messages.VolumesLoaded{Volumes: vols, Err: err}
	}
}

// Update handles messages for the view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case messages.VolumesLoaded:
		v.loading = false
		v.err = msg.Err
		if msg.Err == nil {
			v.volumes = msg.Volumes
			v.selected = min(v.selected, max(len(v.volumes)-1, 0))
			v.adjustScroll()
		}
		return v, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if v.selected > 0 {
				v.selected--
				v.adjustScroll()
			}
		case "down", "j":
			if v.selected < len(v.volumes)-1 {
				v.selected++
				v.adjustScroll()
			}
		case "enter":
			if vol := v.SelectedVolume(); vol != nil {
				selected := *vol
				return v, func() tea.Msg { return messages.VolumeSelected{Volume: selected} }
			}
		case "r":
			return v, v.Init()
		case "q", "esc":
			return v, func() tea.Msg { return messages.Quit{} }
		}
	}
	return v, nil
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
	return max(v.height-7, 1)
}

// View renders the volume list.
func (v *View) View() string {
	var b strings.Builder
	b.WriteString(v.styles.Title.Render(fmt.Sprintf("Volumes (%d)", len(v.volumes))))
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading volumes..."))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
	case len(v.volumes) == 0:
		b.WriteString(v.styles.Muted.Render("No volumes ingested yet."))
	default:
		v.renderList(&b)
	}

	b.WriteString("\n\n")
	b.WriteString(v.styles.Help.Render("[↑/↓] navigate  [enter] pages  [r] reload  [q] quit"))
	return b.String()
}

func (v *View) renderList(b *strings.Builder) {
	visible := v.visibleItems()
	pidWidth := 0
	for i := range v.volumes {
		pidWidth = max(pidWidth, len(v.volumes[i].PID))
	}
	labelWidth := max(v.width-pidWidth-6, 10)

	end := min(v.scrollOffset+visible, len(v.volumes))
	for i := v.scrollOffset; i < end; i++ {
		vol := &v.volumes[i]
		line := fmt.Sprintf("%-*s  %s", pidWidth, vol.PID, styles.Truncate(vol.Label, labelWidth))
		if i == v.selected {
			b.WriteString(v.styles.Selected.Render("> " + line))
		} else {
			b.WriteString(v.styles.Normal.Render("  " + line))
		}
		b.WriteString("\n")
	}
	if len(v.volumes) > visible {
		b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  [%d-%d of %d]", v.scrollOffset+1, end, len(v.volumes))))
	}
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.adjustScroll()
}

// Volumes returns the loaded volumes.
func (v *View) Volumes() []domain.Volume {
	return v.volumes
}

// SelectedVolume returns the highlighted volume, or nil.
func (v *View) SelectedVolume() *domain.Volume {
	if v.selected < len(v.volumes) {
		return &v.volumes[v.selected]
	}
	return nil
}

// Err returns the last load error.
func (v *View) Err() error {
	return v.err
}
