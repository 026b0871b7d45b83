package sim

import (
	"context"
	"fmt"

	"github.com/san-kum/episim/internal/history"
	"github.com/san-kum/episim/internal/metrics"
	"github.com/san-kum/episim/internal/seird"
)

// Simulator owns everything one run needs: the configuration, the RNG, the
// population, the history and the clock. Callers drive it one Step at a
// time and may move the view, branch or update parameters between steps.
type Simulator struct {
	cfg       seird.Config
	rng       *seird.RNG
	pop       *seird.Population
	hist      *history.History
	t         float64
	stable    int
	metrics   []metrics.Metric
	observers []Observer
}

// New returns a simulator initialized from cfg.
func New(cfg seird.Config) *Simulator {
	s := &Simulator{
		hist:      history.New(),
		metrics:   make([]metrics.Metric, 0),
		observers: make([]Observer, 0),
	}
	s.Initialize(cfg)
	return s
}

func (s *Simulator) AddMetric(m metrics.Metric) { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer)     { s.observers = append(s.observers, o) }

// Initialize reseeds the RNG, rebuilds the population and discards all
// history.
func (s *Simulator) Initialize(cfg seird.Config) {
	s.cfg = cfg.Clamped()
	s.rng = seird.NewRNG(s.cfg.Seed)
	s.pop = seird.NewPopulation(s.cfg, s.rng)
	s.hist.Reset()
	s.t = 0
	s.stable = 0
	for _, m := range s.metrics {
		m.Reset()
	}
}

func (s *Simulator) Config() seird.Config           { return s.cfg }
func (s *Simulator) Population() *seird.Population { return s.pop }
func (s *Simulator) History() *history.History     { return s.hist }
func (s *Simulator) Time() float64                 { return s.t }
func (s *Simulator) StableCount() int              { return s.stable }

// Halted reports whether auto-stop has been reached.
func (s *Simulator) Halted() bool {
	return s.cfg.AutoStop && s.stable >= StableSteps
}

// Step advances one tick, records it and returns the new row. The second
// result is true when the caller should stop stepping.
func (s *Simulator) Step() (history.Row, bool) {
	if s.pop.Len() == 0 {
		return history.Row{}, false
	}
	res, err := seird.Step(s.pop, s.cfg, s.rng)
	if err != nil {
		return history.Row{}, false
	}

	s.t += s.cfg.Dt
	row := s.row(res)
	s.hist.Append(row, s.pop.Snapshot())

	for _, m := range s.metrics {
		m.Observe(row)
	}
	for _, o := range s.observers {
		o.OnStep(row)
	}

	if row.E == 0 && row.I == 0 {
		s.stable++
	} else {
		s.stable = 0
	}
	return row, s.Halted()
}

func (s *Simulator) row(res seird.StepResult) history.Row {
	c := res.Counts
	n := float64(max(1, len(s.pop.Agents)))
	return history.Row{
		T:                   s.t,
		S:                   c.S,
		E:                   c.E,
		I:                   c.I,
		R:                   c.R,
		D:                   c.D,
		Incidence:           res.NewInfections,
		Onsets:              res.Onsets,
		Prevalence:          float64(c.I) / n,
		CumulativeIncidence: float64(c.EverInfected) / float64(s.cfg.AtRisk0()),
		VaccinatedPct:       100 * float64(c.Vaccinated) / n,
		VaccineEffectivePct: 100 * float64(c.VaccineEffective) / n,
		EverInfected:        c.EverInfected,
	}
}

// SetView freezes the view at step index i; a negative i returns to live.
// The population and clock are unaffected.
func (s *Simulator) SetView(i int) { s.hist.SetView(i) }

// ViewLive returns the view to the latest step.
func (s *Simulator) ViewLive() { s.hist.ViewLive() }

// ViewedSnapshot returns the snapshot at the view index, or a copy of the
// live population in live view.
func (s *Simulator) ViewedSnapshot() seird.Snapshot {
	if snap, ok := s.hist.ViewedSnapshot(); ok {
		return snap
	}
	return s.pop.Snapshot()
}

// Branch forks the timeline at the viewed step (the last step when live):
// the population is restored from that step's snapshot, vaccination is
// optionally reassigned from the current config, and every later step is
// discarded. A view past the last step is clamped to it. With no history
// it only reassigns vaccination when asked.
// It reports whether anything changed.
func (s *Simulator) Branch(reassignVaccination bool) bool {
	if s.hist.Len() == 0 {
		if !reassignVaccination {
			return false
		}
		seird.AssignInitialVaccination(s.pop, s.cfg.VaxCoverage, s.cfg.VaccineEfficacy, s.rng)
		return true
	}

	idx, _ := s.hist.Viewed()
	return s.Fork(idx, reassignVaccination) == nil
}

// Fork restores the population from the snapshot at idx and drops every
// later step. The view returns to live.
func (s *Simulator) Fork(idx int, reassignVaccination bool) error {
	if s.hist.Len() == 0 {
		return seird.ErrNoHistory
	}
	snap, ok := s.hist.Snapshot(idx)
	if !ok {
		return fmt.Errorf("%w: %d of %d", seird.ErrIndexOutOfRange, idx, s.hist.Len())
	}
	row, _ := s.hist.Row(idx)
	if !s.pop.Restore(snap) {
		return fmt.Errorf("%w: snapshot has %d agents", seird.ErrIndexOutOfRange, len(snap))
	}
	if reassignVaccination {
		seird.AssignInitialVaccination(s.pop, s.cfg.VaxCoverage, s.cfg.VaccineEfficacy, s.rng)
	}
	s.hist.Truncate(idx)
	s.t = row.T
	s.stable = 0
	s.replayMetrics()
	return nil
}

func (s *Simulator) replayMetrics() {
	if len(s.metrics) == 0 {
		return
	}
	for _, m := range s.metrics {
		m.Reset()
	}
	for _, row := range s.hist.Rows() {
		for _, m := range s.metrics {
			m.Observe(row)
		}
	}
}

// Resume prepares to continue stepping: a frozen view is branched from
// first, without reassigning vaccination.
func (s *Simulator) Resume() bool {
	if _, ok := s.hist.View(); !ok {
		return false
	}
	return s.Branch(false)
}

// UpdateParams applies an edited configuration. Structural changes rebuild
// the run; vaccine coverage or efficacy changes fork with a new vaccine
// assignment; rate changes fork without one.
func (s *Simulator) UpdateParams(cfg seird.Config) Change {
	cfg = cfg.Clamped()
	old := s.cfg
	switch {
	case old == cfg:
		return NoChange
	case structural(old, cfg):
		s.Initialize(cfg)
		return Reinitialized
	case old.VaccineEfficacy != cfg.VaccineEfficacy || old.VaxCoverage != cfg.VaxCoverage:
		s.cfg = cfg
		if !s.Branch(true) {
			return Updated
		}
		return BranchedWithVaccination
	case old.Beta != cfg.Beta || old.Gamma != cfg.Gamma || old.Mu != cfg.Mu ||
		old.VaxRate != cfg.VaxRate || old.MutationRate != cfg.MutationRate:
		s.cfg = cfg
		if !s.Branch(false) {
			return Updated
		}
		return Branched
	default:
		s.cfg = cfg
		return Updated
	}
}

func structural(a, b seird.Config) bool {
	return a.N != b.N || a.I0 != b.I0 || a.R0Init != b.R0Init || a.Dt != b.Dt ||
		a.Topology != b.Topology || a.Stochastic != b.Stochastic || a.Seed != b.Seed
}

// ExportRows projects the full series.
func (s *Simulator) ExportRows() []history.ExportRow { return s.hist.ExportRows() }

func (s *Simulator) metricParams() metrics.Params { return metrics.ParamsFor(s.cfg) }

// Metrics computes the indicators at the viewed step. Before the first
// step only R0 and Rt (from the live population) are available.
func (s *Simulator) Metrics() metrics.Snapshot {
	idx, ok := s.hist.Viewed()
	if !ok {
		m := metrics.Empty(s.metricParams())
		c := s.pop.Counts()
		m.Rt = metrics.EffectiveReproduction(m.R0, c.S, s.cfg.N, c.D)
		return m
	}
	return s.MetricsAt(idx)
}

// MetricsAt computes the indicators at step index idx.
func (s *Simulator) MetricsAt(idx int) metrics.Snapshot {
	m, _ := metrics.Compute(s.hist.Rows(), idx, s.metricParams())
	return m
}

// Run steps until auto-stop, maxSteps or cancellation. On cancellation the
// partial result is returned with ctx.Err().
func (s *Simulator) Run(ctx context.Context, maxSteps int) (*Result, error) {
	if maxSteps <= 0 {
		return nil, fmt.Errorf("max steps must be positive, got %d", maxSteps)
	}
	result := &Result{
		Rows:    make([]history.Row, 0, maxSteps),
		Metrics: make(map[string]float64),
	}

	for i := 0; i < maxSteps; i++ {
		select {
		case <-ctx.Done():
			s.collect(result)
			return result, ctx.Err()
		default:
		}

		row, halt := s.Step()
		result.Rows = append(result.Rows, row)
		result.StepsTaken++
		if halt {
			result.Halted = true
			break
		}
	}

	s.collect(result)
	return result, nil
}

func (s *Simulator) collect(result *Result) {
	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
}
