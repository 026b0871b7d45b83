// Package seird provides the core agent model of the epidemic simulator.
//
// The package defines the population and the per-step transition rules of a
// stochastic compartmental (SEIRD) model on a 2D lattice:
//
//   - [Agent]: one individual with a fixed grid position and a [State]
//   - [Population]: exactly N agents laid out on a cols x rows grid
//   - [Config]: the per-run parameter snapshot, clamped rather than rejected
//   - [RNG]: the seeded linear congruential generator that drives every draw
//   - [Step]: advances the whole population by one tick of size dt
//
// # Example
//
//	rng := seird.NewRNG(cfg.Seed)
//	pop := seird.NewPopulation(cfg, rng)
//	res, err := seird.Step(pop, cfg, rng)
//
// # Determinism
//
// Every random decision (shuffles, Bernoulli draws, uniform samples) is taken
// from the [Source] passed in by the caller, in agent index order. Two runs
// with the same seed and configuration produce identical populations.
//
// # Thread Safety
//
// A Population is NOT thread-safe. Step reads the previous state from a
// private copy and commits the next state at the end, so a single writer is
// all that is ever required.
package seird
