// Package styles holds the lipgloss styles of the catalog browser.
package styles

import "github.com/charmbracelet/lipgloss"

// Palette colours.
var (
	accent  = lipgloss.AdaptiveColor{Light: "#8A4B08", Dark: "#E0A458"}
	muted   = lipgloss.AdaptiveColor{Light: "#7A7A7A", Dark: "#6C7086"}
	text    = lipgloss.AdaptiveColor{Light: "#1F1F1F", Dark: "#D9D4C7"}
	success = lipgloss.AdaptiveColor{Light: "#2E7D32", Dark: "#A6E3A1"}
	danger  = lipgloss.AdaptiveColor{Light: "#C62828", Dark: "#F38BA8"}
)

// Styles contains pre-configured lipgloss styles.
type Styles struct {
	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Normal   lipgloss.Style
	Muted    lipgloss.Style
	Selected lipgloss.Style
	Success  lipgloss.Style
	Error    lipgloss.Style
	Help     lipgloss.Style
	Frame    lipgloss.Style
}

// Default returns the browser styles.
func Default() *Styles {
	return &Styles{
		Title:    lipgloss.NewStyle().Bold(true).Foreground(accent),
		Subtitle: lipgloss.NewStyle().Bold(true).Foreground(text),
		Normal:   lipgloss.NewStyle().Foreground(text),
		Muted:    lipgloss.NewStyle().Foreground(muted),
		Selected: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#1E1E2E")).Background(accent),
		Success:  lipgloss.NewStyle().Foreground(success),
		Error:    lipgloss.NewStyle().Foreground(danger),
		Help:     lipgloss.NewStyle().Foreground(muted).Italic(true),
		Frame: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(muted).
			Padding(0, 1),
	}
}

// Truncate shortens s to width cells, marking the cut with an ellipsis.
func Truncate(s string, width int) string {
	if width < 4 || lipgloss.Width(s) <= width {
		return s
	}
	r := []rune(s)
	for len(r) > 0 && lipgloss.Width(string(r))+3 > width {
		r = r[:len(r)-1]
	}
	return string(r) + "..."
}
