package automation

import (
	"context"
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/san-kum/episim/internal/config"
	"github.com/san-kum/episim/internal/history"
	"github.com/san-kum/episim/internal/sim"
)

// MonteCarloConfig defines an ensemble over consecutive seeds.
type MonteCarloConfig struct {
	Base      *config.Config
	NumTrials int
	SeedStart uint32
	// Parallel caps concurrent trials; zero means unbounded.
	Parallel int
}

type MonteCarloResult struct {
	TrialID int
	Seed    uint32
	Steps   int
	Halted  bool
	Final   history.Row
	Metrics map[string]float64
}

// RunMonteCarlo executes the trials concurrently and returns them in seed
// order.
func RunMonteCarlo(ctx context.Context, cfg *MonteCarloConfig, out io.Writer) ([]MonteCarloResult, error) {
	if out == nil {
		out = io.Discard
	}
	if cfg.NumTrials <= 0 {
		return nil, fmt.Errorf("monte carlo needs at least one trial, got %d", cfg.NumTrials)
	}
	base := cfg.Base
	if base == nil {
		base = config.DefaultConfig()
	}
	if err := base.Validate(); err != nil {
		return nil, err
	}

	ens := sim.NewEnsemble(base.Sim(), cfg.NumTrials, cfg.SeedStart)
	ens.SetLimit(cfg.Parallel)
	runs, err := ens.Run(ctx, base.MaxSteps)
	if err != nil {
		return nil, err
	}

	results := make([]MonteCarloResult, len(runs))
	for i, r := range runs {
		var final history.Row
		if len(r.Rows) > 0 {
			final = r.Rows[len(r.Rows)-1]
		}
		results[i] = MonteCarloResult{
			TrialID: i,
			Seed:    cfg.SeedStart + uint32(i),
			Steps:   r.StepsTaken,
			Halted:  r.Halted,
			Final:   final,
			Metrics: r.Metrics,
		}
	}

	fmt.Fprintf(out, "Monte Carlo: %d/%d trials complete\n", len(results), cfg.NumTrials)
	return results, nil
}

// Summary describes one metric across trials.
type Summary struct {
	Mean   float64
	Std    float64
	Min    float64
	Median float64
	Max    float64
}

// MonteCarloStats summarises every metric present in the results.
func MonteCarloStats(results []MonteCarloResult) map[string]Summary {
	samples := make(map[string][]float64)
	for _, r := range results {
		for name, v := range r.Metrics {
			samples[name] = append(samples[name], v)
		}
	}

	out := make(map[string]Summary, len(samples))
	for name, xs := range samples {
		out[name] = summarize(xs)
	}
	return out
}

func summarize(xs []float64) Summary {
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)

	n := float64(len(sorted))
	mean := 0.0
	for _, x := range sorted {
		mean += x
	}
	mean /= n

	variance := 0.0
	for _, x := range sorted {
		variance += (x - mean) * (x - mean)
	}
	variance /= n

	mid := len(sorted) / 2
	median := sorted[mid]
	if len(sorted)%2 == 0 {
		median = (sorted[mid-1] + sorted[mid]) / 2
	}

	return Summary{
		Mean:   mean,
		Std:    math.Sqrt(variance),
		Min:    sorted[0],
		Median: median,
		Max:    sorted[len(sorted)-1],
	}
}

// OutbreakCount splits trials by final attack rate: outbreaks reach at
// least threshold, the rest fizzled out.
func OutbreakCount(results []MonteCarloResult, threshold float64) (outbreaks int, fizzles int) {
	for _, r := range results {
		if r.Final.CumulativeIncidence >= threshold {
			outbreaks++
		} else {
			fizzles++
		}
	}
	return
}
