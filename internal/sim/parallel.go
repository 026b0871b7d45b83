package sim

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/episim/internal/metrics"
	"github.com/san-kum/episim/internal/seird"
)

// Ensemble runs independent simulators over consecutive seeds.
type Ensemble struct {
	cfg       seird.Config
	numRuns   int
	seedStart uint32
	limit     int
}

func NewEnsemble(cfg seird.Config, numRuns int, seedStart uint32) *Ensemble {
	return &Ensemble{cfg: cfg, numRuns: numRuns, seedStart: seedStart, limit: -1}
}

// SetLimit caps the number of members running at once. n <= 0 means no cap.
func (e *Ensemble) SetLimit(n int) {
	if n <= 0 {
		n = -1
	}
	e.limit = n
}

// Run executes every member concurrently. Each member gets its own RNG, so
// results are identical to running them one after another. The first
// failure cancels the remaining members.
func (e *Ensemble) Run(ctx context.Context, maxSteps int) ([]*Result, error) {
	results := make([]*Result, e.numRuns)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.limit)
	for i := 0; i < e.numRuns; i++ {
		idx := i
		g.Go(func() error {
			cfgCopy := e.cfg
			cfgCopy.Seed = e.seedStart + uint32(idx)

			s := New(cfgCopy)
			for _, m := range metrics.Defaults() {
				s.AddMetric(m)
			}

			res, err := s.Run(ctx, maxSteps)
			if err != nil {
				return err
			}
			results[idx] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}
