package metrics

import (
	"fmt"
	"math"

	"github.com/san-kum/episim/internal/history"
	"github.com/san-kum/episim/internal/seird"
)

// Unavailable is what any undefined or non-finite indicator renders as.
const Unavailable = "–"

// Params are the configuration values the indicators depend on.
type Params struct {
	N      int
	I0     int
	R0Init int
	Dt     float64
	Beta   float64
	Gamma  float64
}

// ParamsFor extracts the indicator parameters from an engine config.
func ParamsFor(cfg seird.Config) Params {
	return Params{
		N:      cfg.N,
		I0:     cfg.I0,
		R0Init: cfg.R0Init,
		Dt:     cfg.Dt,
		Beta:   cfg.Beta,
		Gamma:  cfg.Gamma,
	}
}

// Snapshot holds the epidemiological indicators at one history index.
// Undefined values are NaN or ±Inf, never zero.
type Snapshot struct {
	Index        int
	T            float64
	N            int
	Alive        int
	EverInfected int

	CumulativeIncidenceRisk float64
	IncidenceRiskRate       float64
	IncidenceRate           float64
	PointPrevalence         float64
	CaseFatalityRatio       float64
	R0                      float64
	Rt                      float64
}

// Empty returns a snapshot with every indicator unavailable except R0.
func Empty(p Params) Snapshot {
	nan := math.NaN()
	return Snapshot{
		Index:                   -1,
		T:                       nan,
		N:                       p.N,
		CumulativeIncidenceRisk: nan,
		IncidenceRiskRate:       nan,
		IncidenceRate:           nan,
		PointPrevalence:         nan,
		CaseFatalityRatio:       nan,
		R0:                      ReproductionNumber(p.Beta, p.Gamma),
		Rt:                      nan,
	}
}

// Compute derives the indicators at idx, clamped into rows. It reports
// false, returning Empty, when rows is empty.
func Compute(rows []history.Row, idx int, p Params) (Snapshot, bool) {
	if len(rows) == 0 {
		return Empty(p), false
	}
	idx = max(0, min(idx, len(rows)-1))
	row := rows[idx]

	n := p.N
	if n <= 0 {
		n = max(1, row.S+row.E+row.I+row.R+row.D)
	}
	atRisk0 := max(1, n-p.I0-p.R0Init)
	ever := float64(row.EverInfected)

	cumRisk := ever / float64(atRisk0)
	riskRate := math.NaN()
	if row.T > 0 {
		riskRate = cumRisk / row.T
	}

	pt := PersonTimeAtRisk(rows[:idx+1], p.Dt)
	incRate := math.NaN()
	if pt > 0 {
		incRate = ever / pt
	}

	alive := max(1, n-row.D)
	cfr := math.NaN()
	if row.EverInfected > 0 {
		cfr = float64(row.D) / ever
	}

	r0 := ReproductionNumber(p.Beta, p.Gamma)
	return Snapshot{
		Index:                   idx,
		T:                       row.T,
		N:                       n,
		Alive:                   alive,
		EverInfected:            row.EverInfected,
		CumulativeIncidenceRisk: cumRisk,
		IncidenceRiskRate:       riskRate,
		IncidenceRate:           incRate,
		PointPrevalence:         float64(row.I) / float64(alive),
		CaseFatalityRatio:       cfr,
		R0:                      r0,
		Rt:                      EffectiveReproduction(r0, row.S, n, row.D),
	}, true
}

// PersonTimeAtRisk sums S[j]*Δt_j over rows. Δt_0 is the first row's time;
// any step whose width cannot be derived falls back to dt, then to 1.
func PersonTimeAtRisk(rows []history.Row, dt float64) float64 {
	pt := 0.0
	for j, r := range rows {
		width := r.T
		if j > 0 {
			width = r.T - rows[j-1].T
		}
		if width == 0 || math.IsNaN(width) {
			width = dt
		}
		if width == 0 || math.IsNaN(width) {
			width = 1
		}
		pt += float64(r.S) * width
	}
	return pt
}

// ReproductionNumber is beta/gamma, +Inf when gamma is zero.
func ReproductionNumber(beta, gamma float64) float64 {
	if gamma <= 0 {
		return math.Inf(1)
	}
	return beta / gamma
}

// EffectiveReproduction scales r0 by the susceptible share of the living.
func EffectiveReproduction(r0 float64, s, n, d int) float64 {
	return r0 * float64(s) / float64(max(1, n-d))
}

func finite(x float64) bool { return !math.IsNaN(x) && !math.IsInf(x, 0) }

// FormatPct renders a fraction as a percentage.
func FormatPct(x float64) string {
	if !finite(x) {
		return Unavailable
	}
	return fmt.Sprintf("%.1f%%", x*100)
}

// FormatRate renders a rate with its unit.
func FormatRate(x float64, unit string) string {
	if !finite(x) {
		return Unavailable
	}
	return fmt.Sprintf("%.4f %s", x, unit)
}

// FormatCount renders a rounded count.
func FormatCount(x float64) string {
	if !finite(x) {
		return Unavailable
	}
	return fmt.Sprintf("%d", int64(math.Round(x)))
}

// FormatTime renders a time in days.
func FormatTime(x float64) string {
	if !finite(x) {
		return Unavailable
	}
	return fmt.Sprintf("%.1f d", x)
}

// FormatRatio renders a plain ratio such as R0 or Rt.
func FormatRatio(x float64) string {
	if !finite(x) {
		return Unavailable
	}
	return fmt.Sprintf("%.2f", x)
}

// Field is one labelled, formatted indicator.
type Field struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Fields renders the snapshot for display, in a fixed order.
func (s Snapshot) Fields() []Field {
	alive := math.NaN()
	ever := math.NaN()
	if s.Index >= 0 {
		alive = float64(s.Alive)
		ever = float64(s.EverInfected)
	}
	return []Field{
		{"t", FormatTime(s.T)},
		{"N", FormatCount(float64(s.N))},
		{"alive", FormatCount(alive)},
		{"cum. incidence", FormatPct(s.CumulativeIncidenceRisk)},
		{"risk rate", FormatRate(s.IncidenceRiskRate, "/day")},
		{"incidence rate", FormatRate(s.IncidenceRate, "per person-day")},
		{"prevalence", FormatPct(s.PointPrevalence)},
		{"ever infected", FormatCount(ever)},
		{"CFR", FormatPct(s.CaseFatalityRatio)},
		{"R0", FormatRatio(s.R0)},
		{"Rt", FormatRatio(s.Rt)},
	}
}
