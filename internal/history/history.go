// Package history records one row and one full snapshot per completed step
// and supports viewing past steps and forking the timeline.
package history

import (
	"slices"

	"github.com/san-kum/episim/internal/seird"
)

// Row is the aggregate record of one completed step.
type Row struct {
	T float64

	S, E, I, R, D int

	// Incidence is the number of first-ever infections in the step.
	Incidence int
	// Onsets is the number of E->I transitions in the step.
	Onsets int
	// Prevalence is I/N.
	Prevalence float64
	// CumulativeIncidence is EverInfected over the agents at risk at t=0.
	CumulativeIncidence float64

	VaccinatedPct       float64
	VaccineEffectivePct float64
	EverInfected        int
}

// ExportRow is the projection of a Row handed to file exporters.
type ExportRow struct {
	T            float64 `json:"t"`
	S            int     `json:"S"`
	E            int     `json:"E"`
	I            int     `json:"I"`
	R            int     `json:"R"`
	D            int     `json:"D"`
	EverInfected int     `json:"everInf"`
}

// Live is the view index meaning "track the latest row".
const Live = -1

// History owns the series and the snapshots. Both always have the same
// length and are only ever appended to or truncated.
type History struct {
	rows  []Row
	snaps []seird.Snapshot
	view  int
}

func New() *History {
	return &History{view: Live}
}

// Append records a completed step.
func (h *History) Append(row Row, snap seird.Snapshot) {
	h.rows = append(h.rows, row)
	h.snaps = append(h.snaps, snap)
}

// Reset discards everything and returns to live view.
func (h *History) Reset() {
	h.rows = nil
	h.snaps = nil
	h.view = Live
}

func (h *History) Len() int { return len(h.rows) }

// Row returns the row at i.
func (h *History) Row(i int) (Row, bool) {
	if i < 0 || i >= len(h.rows) {
		return Row{}, false
	}
	return h.rows[i], true
}

// Last returns the most recent row.
func (h *History) Last() (Row, bool) {
	return h.Row(len(h.rows) - 1)
}

// Rows returns a copy of the series.
func (h *History) Rows() []Row {
	out := make([]Row, len(h.rows))
	copy(out, h.rows)
	return out
}

// Snapshot returns a copy of the snapshot at i.
func (h *History) Snapshot(i int) (seird.Snapshot, bool) {
	if i < 0 || i >= len(h.snaps) {
		return nil, false
	}
	return slices.Clone(h.snaps[i]), true
}

// SetView freezes the view at index i. A negative i returns to live view.
// Indexes past the end are kept as given; readers clamp them to the last
// recorded step.
func (h *History) SetView(i int) {
	if i < 0 {
		i = Live
	}
	h.view = i
}

// ViewLive clears the view index.
func (h *History) ViewLive() { h.view = Live }

// View returns the view index and whether one is set.
func (h *History) View() (int, bool) {
	return h.view, h.view != Live
}

// Viewed resolves the view to a concrete row index: the view index clamped
// into range, or the last row when live. It reports false with no history.
func (h *History) Viewed() (int, bool) {
	if len(h.rows) == 0 {
		return 0, false
	}
	if h.view == Live {
		return len(h.rows) - 1, true
	}
	return min(h.view, len(h.rows)-1), true
}

// ViewedSnapshot returns a copy of the snapshot at the view index, clamped
// like Viewed. It reports false in live view or with no history.
func (h *History) ViewedSnapshot() (seird.Snapshot, bool) {
	if h.view == Live {
		return nil, false
	}
	idx, ok := h.Viewed()
	if !ok {
		return nil, false
	}
	return h.Snapshot(idx)
}

// Truncate keeps entries 0..i and drops everything after. It reports false,
// changing nothing, if i has no recorded entry.
func (h *History) Truncate(i int) bool {
	if i < 0 || i >= len(h.rows) || i >= len(h.snaps) {
		return false
	}
	h.rows = h.rows[:i+1:i+1]
	h.snaps = h.snaps[:i+1:i+1]
	h.view = Live
	return true
}

// ExportRows projects the full series for file export.
func (h *History) ExportRows() []ExportRow {
	out := make([]ExportRow, len(h.rows))
	for i, r := range h.rows {
		out[i] = r.Export()
	}
	return out
}

// Export projects a single row.
func (r Row) Export() ExportRow {
	return ExportRow{T: r.T, S: r.S, E: r.E, I: r.I, R: r.R, D: r.D, EverInfected: r.EverInfected}
}

// FromExport rebuilds rows from a stored series. Columns the export does
// not carry are left zero.
func FromExport(rows []ExportRow) []Row {
	out := make([]Row, len(rows))
	for i, r := range rows {
		out[i] = Row{T: r.T, S: r.S, E: r.E, I: r.I, R: r.R, D: r.D, EverInfected: r.EverInfected}
	}
	return out
}

// Series extracts one numeric column from rows for plotting.
func Series(rows []Row, field func(Row) float64) []float64 {
	out := make([]float64, len(rows))
	for i, r := range rows {
		out[i] = field(r)
	}
	return out
}
