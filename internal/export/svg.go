package export

import (
	"fmt"
	"strings"

	"github.com/san-kum/episim/internal/history"
	"github.com/san-kum/episim/internal/seird"
	"github.com/san-kum/episim/internal/viz"
)

const background = "#0a0a0a"

// GridToSVG draws snap on a cols x rows lattice, one square per agent in
// its compartment colour. On the six-neighbour lattice odd rows are shifted
// right by half a cell.
func GridToSVG(snap seird.Snapshot, cols, rows int, topo seird.Topology, theme viz.Theme, scale float64) string {
	if len(snap) == 0 || cols <= 0 || rows <= 0 {
		return ""
	}
	if scale <= 0 {
		scale = 1
	}

	width := float64(cols) * scale
	if topo == seird.SixNeighbor {
		width += scale / 2
	}
	height := float64(rows) * scale

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.1f %.1f">
<rect width="100%%" height="100%%" fill="%s"/>
`, width, height, width, height, background)

	size := scale * 0.9
	for i, st := range snap {
		color, ok := theme.AgentColor(st)
		if !ok {
			continue
		}
		col, row := i%cols, i/cols
		x := float64(col) * scale
		if topo == seird.SixNeighbor && row%2 != 0 {
			x += scale / 2
		}
		y := float64(row) * scale
		fmt.Fprintf(&sb, `<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="%s"/>
`, x, y, size, size, string(color))
	}

	sb.WriteString("</svg>")
	return sb.String()
}

// SeriesToSVG draws the S, E, I, R and D curves of a series as paths on a
// shared count axis.
func SeriesToSVG(rows []history.ExportRow, width, height int, theme viz.Theme) string {
	if len(rows) < 2 || width <= 0 || height <= 0 {
		return ""
	}

	maxT := rows[len(rows)-1].T
	minT := rows[0].T
	rangeT := maxT - minT
	if rangeT == 0 {
		rangeT = 1
	}
	maxY := 1
	for _, r := range rows {
		maxY = max(maxY, r.S, r.E, r.I, r.R, r.D)
	}

	curves := []struct {
		color string
		value func(history.ExportRow) int
	}{
		{string(theme.Susceptible), func(r history.ExportRow) int { return r.S }},
		{string(theme.Exposed), func(r history.ExportRow) int { return r.E }},
		{string(theme.Infectious), func(r history.ExportRow) int { return r.I }},
		{string(theme.Recovered), func(r history.ExportRow) int { return r.R }},
		{string(theme.Dead), func(r history.ExportRow) int { return r.D }},
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="%s"/>
`, width, height, width, height, background)

	for _, c := range curves {
		fmt.Fprintf(&sb, `<path fill="none" stroke="%s" stroke-width="1.5" d="`, c.color)
		for i, r := range rows {
			x := (r.T - minT) / rangeT * float64(width)
			y := float64(height) - float64(c.value(r))/float64(maxY)*float64(height)
			if i == 0 {
				fmt.Fprintf(&sb, "M%.1f,%.1f", x, y)
			} else {
				fmt.Fprintf(&sb, " L%.1f,%.1f", x, y)
			}
		}
		sb.WriteString("\"/>\n")
	}

	sb.WriteString("</svg>")
	return sb.String()
}
