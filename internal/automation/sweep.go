package automation

import (
	"context"
	"fmt"
	"io"

	"github.com/san-kum/episim/internal/config"
	"github.com/san-kum/episim/internal/history"
	"github.com/san-kum/episim/internal/metrics"
	"github.com/san-kum/episim/internal/sim"
)

// SweepParams lists the parameters a sweep can vary.
var SweepParams = []string{
	"beta", "gamma", "mu", "vax_rate", "mutation_rate",
	"vaccine_efficacy", "vax_coverage", "days_infectious",
}

// SetParam sets one sweepable parameter by its config key.
func SetParam(cfg *config.Config, name string, v float64) error {
	switch name {
	case "beta":
		cfg.Beta = v
	case "gamma":
		cfg.Gamma = v
	case "mu":
		cfg.Mu = v
	case "vax_rate":
		cfg.VaxRate = v
	case "mutation_rate":
		cfg.MutationRate = v
	case "vaccine_efficacy":
		cfg.VaccineEfficacy = v
	case "vax_coverage":
		cfg.VaxCoverage = v
	case "days_infectious":
		cfg.SetDaysInfectious(v)
	default:
		return fmt.Errorf("unknown sweep parameter %q", name)
	}
	return nil
}

// ParameterSweep runs one simulation per evenly spaced parameter value.
type ParameterSweep struct {
	Base      *config.Config
	ParamName string
	ParamMin  float64
	ParamMax  float64
	NumSteps  int
}

// SweepResult holds the outcome for one parameter value.
type SweepResult struct {
	ParamValue float64
	Steps      int
	Halted     bool
	Final      history.Row
	Metrics    map[string]float64
}

// Values returns the parameter values the sweep visits.
func (p *ParameterSweep) Values() []float64 {
	if p.NumSteps <= 0 {
		return nil
	}
	if p.NumSteps == 1 {
		return []float64{p.ParamMin}
	}
	step := (p.ParamMax - p.ParamMin) / float64(p.NumSteps-1)
	out := make([]float64, p.NumSteps)
	for i := range out {
		out[i] = p.ParamMin + float64(i)*step
	}
	return out
}

// RunSweep executes a parameter sweep
func RunSweep(ctx context.Context, sweep *ParameterSweep, out io.Writer) ([]SweepResult, error) {
	if out == nil {
		out = io.Discard
	}
	if sweep.NumSteps <= 0 {
		return nil, fmt.Errorf("sweep needs at least one step, got %d", sweep.NumSteps)
	}
	base := sweep.Base
	if base == nil {
		base = config.DefaultConfig()
	}

	values := sweep.Values()
	results := make([]SweepResult, 0, len(values))
	for i, v := range values {
		cfg := *base
		if err := SetParam(&cfg, sweep.ParamName, v); err != nil {
			return nil, err
		}
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("%s=%v: %w", sweep.ParamName, v, err)
		}

		s := sim.New(cfg.Sim())
		for _, m := range metrics.Defaults() {
			s.AddMetric(m)
		}
		result, err := s.Run(ctx, cfg.MaxSteps)
		if err != nil {
			return nil, err
		}

		final, _ := s.History().Last()
		results = append(results, SweepResult{
			ParamValue: v,
			Steps:      result.StepsTaken,
			Halted:     result.Halted,
			Final:      final,
			Metrics:    result.Metrics,
		})

		fmt.Fprintf(out, "Sweep %d/%d: %s=%.4f\n", i+1, len(values), sweep.ParamName, v)
	}

	return results, nil
}
