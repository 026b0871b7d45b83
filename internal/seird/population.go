package seird

import "math"

// Coord is a lattice position.
type Coord struct {
	Col, Row int
}

var (
	fourOffsets    = [][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
	hexEvenOffsets = [][2]int{{-1, 0}, {1, 0}, {0, -1}, {-1, -1}, {0, 1}, {-1, 1}}
	hexOddOffsets  = [][2]int{{-1, 0}, {1, 0}, {1, -1}, {0, -1}, {1, 1}, {0, 1}}
)

func offsets(row int, topo Topology) [][2]int {
	if topo != SixNeighbor {
		return fourOffsets
	}
	if row%2 != 0 {
		return hexOddOffsets
	}
	return hexEvenOffsets
}

// Neighbors returns the adjacency set of (col,row). Coordinates may lie off
// the grid; they simply match no agent.
func Neighbors(col, row int, topo Topology) []Coord {
	offs := offsets(row, topo)
	out := make([]Coord, len(offs))
	for i, o := range offs {
		out[i] = Coord{Col: col + o[0], Row: row + o[1]}
	}
	return out
}

// GridSize returns the lattice dimensions for n agents.
func GridSize(n int) (cols, rows int) {
	if n <= 0 {
		return 0, 0
	}
	cols = int(math.Ceil(math.Sqrt(float64(n)) * 1.3))
	rows = (n + cols - 1) / cols
	return cols, rows
}

// Population is an ordered set of agents on a cols x rows grid. Agent i sits
// at (i mod cols, i div cols).
type Population struct {
	Agents []Agent
	Cols   int
	Rows   int
}

// NewPopulation builds a population from cfg: R0Init random agents start
// recovered, the next I0 susceptible agents of the same permutation start
// infectious, and initial vaccination is applied last.
func NewPopulation(cfg Config, src Source) *Population {
	cfg = cfg.Clamped()
	n := cfg.N
	cols, rows := GridSize(n)
	p := &Population{
		Agents: make([]Agent, n),
		Cols:   cols,
		Rows:   rows,
	}
	for i := range p.Agents {
		p.Agents[i] = Agent{Col: i % cols, Row: i / cols, State: Susceptible}
	}

	perm := Permutation(src, n)
	for i := 0; i < cfg.R0Init && i < len(perm); i++ {
		p.Agents[perm[i]].State = Recovered
	}
	used, assigned := cfg.R0Init, 0
	for assigned < cfg.I0 && used < len(perm) {
		a := &p.Agents[perm[used]]
		if a.State == Susceptible {
			a.State = Infectious
			assigned++
		}
		used++
	}

	AssignInitialVaccination(p, cfg.VaxCoverage, cfg.VaccineEfficacy, src)
	return p
}

// Len is the number of agents.
func (p *Population) Len() int {
	if p == nil {
		return 0
	}
	return len(p.Agents)
}

// Index maps a coordinate to an agent index.
func (p *Population) Index(col, row int) (int, bool) {
	if col < 0 || col >= p.Cols || row < 0 || row >= p.Rows {
		return 0, false
	}
	i := row*p.Cols + col
	if i >= len(p.Agents) {
		return 0, false
	}
	return i, true
}

// Counts aggregates the live population.
func (p *Population) Counts() Counts {
	var c Counts
	for _, a := range p.Agents {
		c.add(a.snapshot())
	}
	return c
}

// Snapshot copies the per-agent state.
func (p *Population) Snapshot() Snapshot {
	snap := make(Snapshot, len(p.Agents))
	for i, a := range p.Agents {
		snap[i] = a.snapshot()
	}
	return snap
}

// Restore overwrites per-agent state from snap. Positions are untouched.
// It reports false, changing nothing, if snap does not match the population.
func (p *Population) Restore(snap Snapshot) bool {
	if len(snap) != len(p.Agents) {
		return false
	}
	for i, st := range snap {
		a := &p.Agents[i]
		a.State = st.State
		a.Vaccinated = st.Vaccinated
		a.VaccineEffective = st.VaccineEffective && st.Vaccinated
		a.EverInfected = st.EverInfected
	}
	return true
}

func (a Agent) snapshot() AgentState {
	return AgentState{
		State:            a.State,
		Vaccinated:       a.Vaccinated,
		VaccineEffective: a.VaccineEffective,
		EverInfected:     a.EverInfected,
	}
}

// PositionSet marks occupied lattice cells.
type PositionSet struct {
	cols, rows int
	cells      []bool
}

// NewPositionSet returns an empty set over a cols x rows grid.
func NewPositionSet(cols, rows int) PositionSet {
	return PositionSet{cols: cols, rows: rows, cells: make([]bool, cols*rows)}
}

// Add marks (col,row). Off-grid coordinates are ignored.
func (s PositionSet) Add(col, row int) {
	if col < 0 || col >= s.cols || row < 0 || row >= s.rows {
		return
	}
	s.cells[row*s.cols+col] = true
}

// Has reports whether (col,row) is marked.
func (s PositionSet) Has(col, row int) bool {
	if col < 0 || col >= s.cols || row < 0 || row >= s.rows {
		return false
	}
	return s.cells[row*s.cols+col]
}

// InfectiousSet returns the positions of every agent whose state in states
// is Infectious. states is indexed like p.Agents.
func (p *Population) InfectiousSet(states []State) PositionSet {
	set := NewPositionSet(p.Cols, p.Rows)
	for i, st := range states {
		if st == Infectious {
			a := p.Agents[i]
			set.Add(a.Col, a.Row)
		}
	}
	return set
}

// InfectiousNeighborCount counts the neighbours of a that are in set.
func InfectiousNeighborCount(a Agent, set PositionSet, topo Topology) int {
	k := 0
	for _, o := range offsets(a.Row, topo) {
		if set.Has(a.Col+o[0], a.Row+o[1]) {
			k++
		}
	}
	return k
}
