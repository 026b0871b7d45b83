package metrics

import "github.com/san-kum/episim/internal/history"

// Metric accumulates a single value over the rows of a run.
type Metric interface {
	Name() string
	Observe(row history.Row)
	Value() float64
	Reset()
}

// Defaults returns a fresh set of the run summary metrics.
func Defaults() []Metric {
	return []Metric{NewPeakPrevalence(), NewPeakTime(), NewAttackRate(), NewDeaths()}
}

type PeakPrevalence struct {
	peak float64
}

func NewPeakPrevalence() *PeakPrevalence { return &PeakPrevalence{} }

func (m *PeakPrevalence) Name() string { return "peak_prevalence" }

func (m *PeakPrevalence) Observe(row history.Row) {
	m.peak = max(m.peak, row.Prevalence)
}

func (m *PeakPrevalence) Value() float64 { return m.peak }
func (m *PeakPrevalence) Reset()         { m.peak = 0 }

// PeakTime is the time at which the infectious count was highest.
type PeakTime struct {
	peakI   int
	peakT   float64
	samples int
}

func NewPeakTime() *PeakTime { return &PeakTime{} }

func (m *PeakTime) Name() string { return "peak_time" }

func (m *PeakTime) Observe(row history.Row) {
	if m.samples == 0 || row.I > m.peakI {
		m.peakI = row.I
		m.peakT = row.T
	}
	m.samples++
}

func (m *PeakTime) Value() float64 { return m.peakT }

func (m *PeakTime) Reset() {
	m.peakI = 0
	m.peakT = 0
	m.samples = 0
}

// AttackRate is the latest cumulative incidence.
type AttackRate struct {
	last float64
}

func NewAttackRate() *AttackRate { return &AttackRate{} }

func (m *AttackRate) Name() string            { return "attack_rate" }
func (m *AttackRate) Observe(row history.Row) { m.last = row.CumulativeIncidence }
func (m *AttackRate) Value() float64          { return m.last }
func (m *AttackRate) Reset()                  { m.last = 0 }

type Deaths struct {
	last int
}

func NewDeaths() *Deaths { return &Deaths{} }

func (m *Deaths) Name() string            { return "deaths" }
func (m *Deaths) Observe(row history.Row) { m.last = row.D }
func (m *Deaths) Value() float64          { return float64(m.last) }
func (m *Deaths) Reset()                  { m.last = 0 }
