package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/episim/internal/seird"
)

type cellKind int

const (
	cellEmpty cellKind = iota
	cellSusceptible
	cellImmune
	cellExposed
	cellInfectious
	cellRecovered
	cellDead
	numCellKinds
)

func kindOf(st seird.AgentState) cellKind {
	switch st.State {
	case seird.Susceptible:
		if st.Vaccinated && st.VaccineEffective {
			return cellImmune
		}
		return cellSusceptible
	case seird.Exposed:
		return cellExposed
	case seird.Infectious:
		return cellInfectious
	case seird.Recovered:
		return cellRecovered
	case seird.Dead:
		return cellDead
	}
	return cellEmpty
}

func (t Theme) cellColor(k cellKind) (lipgloss.Color, bool) {
	switch k {
	case cellSusceptible:
		return t.Susceptible, true
	case cellImmune:
		return t.Immune, true
	case cellExposed:
		return t.Exposed, true
	case cellInfectious:
		return t.Infectious, true
	case cellRecovered:
		return t.Recovered, true
	case cellDead:
		return t.Dead, true
	}
	return "", false
}

// RenderGrid draws snap on a cols x rows lattice. Each terminal cell holds
// two lattice rows: the upper agent as foreground of "▀", the lower one as
// background.
func RenderGrid(snap seird.Snapshot, cols, rows int, theme Theme) string {
	var cache [numCellKinds][numCellKinds]string
	cell := func(top, bottom cellKind) string {
		if s := cache[top][bottom]; s != "" {
			return s
		}
		s := renderCell(theme, top, bottom)
		cache[top][bottom] = s
		return s
	}
	at := func(col, row int) cellKind {
		if col < 0 || col >= cols || row >= rows {
			return cellEmpty
		}
		i := row*cols + col
		if i >= len(snap) {
			return cellEmpty
		}
		return kindOf(snap[i])
	}

	var b strings.Builder
	for r := 0; r < rows; r += 2 {
		for c := 0; c < cols; c++ {
			b.WriteString(cell(at(c, r), at(c, r+1)))
		}
		if r+2 < rows {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func renderCell(theme Theme, top, bottom cellKind) string {
	tc, topOK := theme.cellColor(top)
	bc, bottomOK := theme.cellColor(bottom)
	switch {
	case topOK && bottomOK:
		return lipgloss.NewStyle().Foreground(tc).Background(bc).Render("▀")
	case topOK:
		return lipgloss.NewStyle().Foreground(tc).Render("▀")
	case bottomOK:
		return lipgloss.NewStyle().Foreground(bc).Render("▄")
	default:
		return " "
	}
}

// AgentColor is the colour an agent is drawn in, false for none.
func (t Theme) AgentColor(st seird.AgentState) (lipgloss.Color, bool) {
	return t.cellColor(kindOf(st))
}
