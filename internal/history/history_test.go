package history

import (
	"testing"

	"github.com/san-kum/episim/internal/seird"
)

func fill(h *History, n int) {
	for i := 0; i < n; i++ {
		snap := seird.Snapshot{{State: seird.State(i % 5)}}
		h.Append(Row{T: float64(i + 1), S: i, EverInfected: i}, snap)
	}
}

func TestHistoryAppend(t *testing.T) {
	h := New()
	if h.Len() != 0 {
		t.Fatal("new history should be empty")
	}
	if _, ok := h.Last(); ok {
		t.Error("Last on empty history should report false")
	}

	fill(h, 3)
	if h.Len() != 3 {
		t.Fatalf("expected 3 rows, got %d", h.Len())
	}
	last, ok := h.Last()
	if !ok || last.T != 3 {
		t.Errorf("unexpected last row %+v", last)
	}
	if _, ok := h.Snapshot(3); ok {
		t.Error("snapshot past the end should be missing")
	}
}

func TestHistoryView(t *testing.T) {
	h := New()
	fill(h, 5)

	if _, ok := h.View(); ok {
		t.Error("new history should be live")
	}
	if idx, ok := h.Viewed(); !ok || idx != 4 {
		t.Errorf("live view should resolve to last row, got %d", idx)
	}

	h.SetView(2)
	if idx, ok := h.View(); !ok || idx != 2 {
		t.Errorf("expected view 2, got %d %v", idx, ok)
	}
	snap, ok := h.ViewedSnapshot()
	if !ok || snap[0].State != seird.Infectious {
		t.Errorf("unexpected viewed snapshot %v", snap)
	}

	h.SetView(99)
	if idx, _ := h.Viewed(); idx != 4 {
		t.Errorf("out of range view should clamp for rows, got %d", idx)
	}
	if snap, ok := h.ViewedSnapshot(); !ok || snap[0].State != seird.Dead {
		t.Errorf("out of range view should clamp to the last snapshot, got %v", snap)
	}

	h.SetView(-7)
	if _, ok := h.View(); ok {
		t.Error("negative view should mean live")
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	h := New()
	fill(h, 5)
	h.SetView(2)

	viewed, _ := h.ViewedSnapshot()
	viewed[0].State = seird.Dead
	got, _ := h.Snapshot(2)
	if got[0].State != seird.Infectious {
		t.Errorf("editing a viewed snapshot changed step 2 to %v", got[0].State)
	}

	got[0].EverInfected = true
	if again, _ := h.Snapshot(2); again[0].EverInfected {
		t.Error("Snapshot should return a copy")
	}
}

func TestHistoryTruncate(t *testing.T) {
	h := New()
	fill(h, 6)
	h.SetView(3)

	if !h.Truncate(3) {
		t.Fatal("truncate failed")
	}
	if h.Len() != 4 {
		t.Errorf("expected 4 rows, got %d", h.Len())
	}
	if _, ok := h.View(); ok {
		t.Error("truncate should return to live view")
	}

	h.Append(Row{T: 10}, seird.Snapshot{})
	if h.Len() != 5 {
		t.Errorf("expected 5 rows after append, got %d", h.Len())
	}

	if h.Truncate(10) || h.Truncate(-1) {
		t.Error("truncate with a missing index should be a no-op")
	}
	if h.Len() != 5 {
		t.Errorf("no-op truncate changed length to %d", h.Len())
	}
}

func TestHistoryReset(t *testing.T) {
	h := New()
	fill(h, 4)
	h.SetView(1)
	h.Reset()

	if h.Len() != 0 {
		t.Error("reset should clear rows")
	}
	if _, ok := h.View(); ok {
		t.Error("reset should return to live view")
	}
	if _, ok := h.Viewed(); ok {
		t.Error("empty history has nothing to view")
	}
}

func TestExportRows(t *testing.T) {
	h := New()
	h.Append(Row{T: 1, S: 9, E: 1, I: 2, R: 3, D: 4, EverInfected: 5, Prevalence: 0.2}, nil)

	rows := h.ExportRows()
	want := ExportRow{T: 1, S: 9, E: 1, I: 2, R: 3, D: 4, EverInfected: 5}
	if len(rows) != 1 || rows[0] != want {
		t.Errorf("expected %+v, got %+v", want, rows)
	}
}

func TestFromExport(t *testing.T) {
	src := Row{T: 2, S: 9, E: 1, I: 2, R: 3, D: 4, EverInfected: 5}
	rows := FromExport([]ExportRow{src.Export()})
	if len(rows) != 1 || rows[0] != src {
		t.Errorf("expected %+v, got %+v", src, rows)
	}
}

func TestRowsIsCopy(t *testing.T) {
	h := New()
	fill(h, 2)
	rows := h.Rows()
	rows[0].S = 1000

	if r, _ := h.Row(0); r.S == 1000 {
		t.Error("Rows should return a copy")
	}
}

func TestSeries(t *testing.T) {
	rows := []Row{{I: 1}, {I: 4}, {I: 2}}
	got := Series(rows, func(r Row) float64 { return float64(r.I) })
	want := []float64{1, 4, 2}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("index %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}
