package seird

import (
	"errors"
	"testing"
)

func TestGridSize(t *testing.T) {
	tests := []struct {
		n          int
		cols, rows int
	}{
		{2, 2, 1},
		{50, 10, 5},
		{5000, 92, 55},
		{0, 0, 0},
	}

	for _, tt := range tests {
		cols, rows := GridSize(tt.n)
		if cols != tt.cols || rows != tt.rows {
			t.Errorf("GridSize(%d): expected %dx%d, got %dx%d", tt.n, tt.cols, tt.rows, cols, rows)
		}
		if tt.n > 0 && cols*rows < tt.n {
			t.Errorf("GridSize(%d) has too few cells", tt.n)
		}
	}
}

func TestNeighbors(t *testing.T) {
	tests := []struct {
		name     string
		col, row int
		topo     Topology
		want     []Coord
	}{
		{"four", 5, 5, FourNeighbor, []Coord{{6, 5}, {4, 5}, {5, 6}, {5, 4}}},
		{"hex even row", 3, 2, SixNeighbor, []Coord{{2, 2}, {4, 2}, {3, 1}, {2, 1}, {3, 3}, {2, 3}}},
		{"hex odd row", 3, 1, SixNeighbor, []Coord{{2, 1}, {4, 1}, {4, 0}, {3, 0}, {4, 2}, {3, 2}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Neighbors(tt.col, tt.row, tt.topo)
			if len(got) != len(tt.want) {
				t.Fatalf("expected %d neighbours, got %d", len(tt.want), len(got))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("neighbour %d: expected %v, got %v", i, tt.want[i], got[i])
				}
			}
		})
	}
}

func TestParseTopology(t *testing.T) {
	for _, n := range []int{4, 6} {
		topo, err := ParseTopology(n)
		if err != nil || int(topo) != n {
			t.Errorf("ParseTopology(%d) = %v, %v", n, topo, err)
		}
	}
	if _, err := ParseTopology(8); !errors.Is(err, ErrInvalidTopology) {
		t.Errorf("expected ErrInvalidTopology, got %v", err)
	}
}

func TestConfigClamped(t *testing.T) {
	tests := []struct {
		name string
		in   Config
		want func(Config) bool
	}{
		{"N floor", Config{N: 1}, func(c Config) bool { return c.N == MinAgents }},
		{"N ceiling", Config{N: 20000}, func(c Config) bool { return c.N == MaxAgents }},
		{"I0 capped by N", Config{N: 10, I0: 50}, func(c Config) bool { return c.I0 == 10 }},
		{"R0 capped by N-I0", Config{N: 10, I0: 4, R0Init: 9}, func(c Config) bool { return c.R0Init == 6 }},
		{"negative counts", Config{N: 10, I0: -3, R0Init: -1}, func(c Config) bool { return c.I0 == 0 && c.R0Init == 0 }},
		{"fractions", Config{N: 10, VaccineEfficacy: 1.5, VaxCoverage: -0.2}, func(c Config) bool {
			return c.VaccineEfficacy == 1 && c.VaxCoverage == 0
		}},
		{"topology default", Config{N: 10, Topology: 5}, func(c Config) bool { return c.Topology == FourNeighbor }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.in.Clamped(); !tt.want(got) {
				t.Errorf("unexpected clamp result: %+v", got)
			}
		})
	}
}

func TestNewPopulation(t *testing.T) {
	cfg := Config{N: 50, I0: 5, R0Init: 10, Topology: FourNeighbor, Seed: 42}
	p := NewPopulation(cfg, NewRNG(cfg.Seed))

	if p.Len() != 50 {
		t.Fatalf("expected 50 agents, got %d", p.Len())
	}
	c := p.Counts()
	if c.S != 35 || c.I != 5 || c.R != 10 || c.E != 0 || c.D != 0 {
		t.Errorf("unexpected initial counts: %+v", c)
	}
	if c.EverInfected != 0 {
		t.Errorf("no agent should start ever-infected, got %d", c.EverInfected)
	}

	for i, a := range p.Agents {
		if a.Col != i%p.Cols || a.Row != i/p.Cols {
			t.Fatalf("agent %d at (%d,%d), expected (%d,%d)", i, a.Col, a.Row, i%p.Cols, i/p.Cols)
		}
		idx, ok := p.Index(a.Col, a.Row)
		if !ok || idx != i {
			t.Fatalf("Index(%d,%d) = %d, %v", a.Col, a.Row, idx, ok)
		}
	}
}

func TestNewPopulation_AllInfectious(t *testing.T) {
	p := NewPopulation(Config{N: 20, I0: 20, R0Init: 5, Seed: 3}, NewRNG(3))
	c := p.Counts()
	if c.I != 20 || c.R != 0 {
		t.Errorf("expected all infectious, got %+v", c)
	}
}

func TestPopulationIndex_OffGrid(t *testing.T) {
	// 47 agents on 9x6 leave the last row partly empty.
	p := NewPopulation(Config{N: 47, Seed: 1}, NewRNG(1))
	cases := [][2]int{{-1, 0}, {0, -1}, {p.Cols, 0}, {0, p.Rows}, {p.Cols - 1, p.Rows - 1}}
	for _, c := range cases {
		if _, ok := p.Index(c[0], c[1]); ok {
			t.Errorf("Index(%d,%d) should be off-grid or empty", c[0], c[1])
		}
	}
}

func TestPositionSet(t *testing.T) {
	set := NewPositionSet(3, 3)
	set.Add(1, 1)
	set.Add(-1, 0)
	set.Add(3, 3)

	if !set.Has(1, 1) {
		t.Error("expected (1,1) present")
	}
	if set.Has(-1, 0) || set.Has(3, 3) || set.Has(0, 0) {
		t.Error("unexpected membership")
	}
}

func TestSnapshotRestore(t *testing.T) {
	p := NewPopulation(Config{N: 30, I0: 3, VaxCoverage: 0.5, VaccineEfficacy: 0.5, Seed: 11}, NewRNG(11))
	snap := p.Snapshot()

	for i := range p.Agents {
		p.Agents[i].State = Dead
		p.Agents[i].Vaccinated = false
	}
	if !p.Restore(snap) {
		t.Fatal("restore failed")
	}
	if got := p.Counts(); got != snap.Counts() {
		t.Errorf("restored counts %+v differ from snapshot %+v", got, snap.Counts())
	}

	if p.Restore(snap[:10]) {
		t.Error("restore of a short snapshot should fail")
	}
}
