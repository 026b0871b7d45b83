package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// styles is rebuilt from CurrentTheme on every frame so a theme switch
// takes effect immediately.
type styles struct {
	header   lipgloss.Style
	label    lipgloss.Style
	value    lipgloss.Style
	active   lipgloss.Style
	graph    lipgloss.Style
	help     lipgloss.Style
	stats    lipgloss.Style
	grid     lipgloss.Style
	running  lipgloss.Style
	paused   lipgloss.Style
	replay   lipgloss.Style
	sparkHi  lipgloss.Style
	sparkLow lipgloss.Style
}

func newStyles(t Theme) styles {
	return styles{
		header:   lipgloss.NewStyle().Foreground(t.Primary).Bold(true).MarginBottom(1),
		label:    lipgloss.NewStyle().Foreground(t.Muted).Width(16),
		value:    lipgloss.NewStyle().Foreground(t.Text),
		active:   lipgloss.NewStyle().Foreground(t.Accent).Bold(true),
		graph:    lipgloss.NewStyle().Padding(1, 0),
		help:     lipgloss.NewStyle().Foreground(t.Muted).MarginTop(1),
		stats:    lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(t.Muted).Padding(0, 2).Width(48),
		grid:     lipgloss.NewStyle().Padding(1, 2),
		running:  lipgloss.NewStyle().Foreground(t.Recovered).Bold(true),
		paused:   lipgloss.NewStyle().Foreground(t.Exposed).Bold(true),
		replay:   lipgloss.NewStyle().Foreground(t.Secondary).Bold(true),
		sparkHi:  lipgloss.NewStyle().Foreground(t.Infectious),
		sparkLow: lipgloss.NewStyle().Foreground(t.Secondary),
	}
}

// ProgressBar renders a fraction as a filled bar.
func ProgressBar(fraction float64, width int, st lipgloss.Style) string {
	filled := int(fraction * float64(width))
	filled = max(0, min(width, filled))
	return st.Render(strings.Repeat("█", filled)) + strings.Repeat("░", width-filled)
}

// SparklineChart renders a mini sparkline from the last width values.
func SparklineChart(values []float64, width int, hi, low lipgloss.Style) string {
	if len(values) == 0 {
		return strings.Repeat("─", width)
	}
	if len(values) > width {
		values = values[len(values)-width:]
	}

	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}
	peak := 0.0
	for _, v := range values {
		peak = max(peak, v)
	}
	if peak == 0 {
		peak = 1
	}

	var result strings.Builder
	for _, v := range values {
		norm := v / peak
		idx := max(0, min(len(chars)-1, int(norm*float64(len(chars)-1))))
		if norm > 0.5 {
			result.WriteString(hi.Render(string(chars[idx])))
		} else {
			result.WriteString(low.Render(string(chars[idx])))
		}
	}
	return result.String()
}
