package export

import (
	"strings"
	"testing"

	"github.com/san-kum/episim/internal/history"
	"github.com/san-kum/episim/internal/seird"
	"github.com/san-kum/episim/internal/viz"
)

func TestGridToSVG(t *testing.T) {
	snap := seird.Snapshot{
		{State: seird.Susceptible},
		{State: seird.Infectious},
		{State: seird.Dead},
	}

	svg := GridToSVG(snap, 2, 2, seird.FourNeighbor, viz.ThemeClinical, 10)
	if !strings.HasPrefix(svg, "<?xml") || !strings.HasSuffix(svg, "</svg>") {
		t.Fatalf("not an svg document: %q", svg)
	}
	if got := strings.Count(svg, "<rect"); got != 4 {
		t.Errorf("expected background plus 3 agents, got %d rects", got)
	}
	if !strings.Contains(svg, string(viz.ThemeClinical.Infectious)) {
		t.Error("infectious colour missing")
	}
	if !strings.Contains(svg, `x="0.0" y="10.0"`) {
		t.Error("third agent should start the second row")
	}
}

func TestGridToSVG_HexOffset(t *testing.T) {
	snap := make(seird.Snapshot, 4)
	svg := GridToSVG(snap, 2, 2, seird.SixNeighbor, viz.ThemeClinical, 10)
	if !strings.Contains(svg, `x="5.0" y="10.0"`) {
		t.Errorf("odd rows should be shifted half a cell:\n%s", svg)
	}
}

func TestGridToSVG_Empty(t *testing.T) {
	if svg := GridToSVG(nil, 0, 0, seird.FourNeighbor, viz.ThemeClinical, 1); svg != "" {
		t.Errorf("expected empty output, got %q", svg)
	}
}

func TestSeriesToSVG(t *testing.T) {
	rows := []history.ExportRow{
		{T: 1, S: 9, I: 1},
		{T: 2, S: 7, E: 1, I: 2},
		{T: 3, S: 5, I: 3, R: 1, D: 1},
	}

	svg := SeriesToSVG(rows, 200, 100, viz.ThemeClinical)
	if got := strings.Count(svg, "<path"); got != 5 {
		t.Errorf("expected 5 curves, got %d", got)
	}
	if !strings.Contains(svg, "M0.0,0.0") {
		t.Error("the largest count should touch the top edge at t=1")
	}
	if SeriesToSVG(rows[:1], 200, 100, viz.ThemeClinical) != "" {
		t.Error("a single row has no curve")
	}
}
