package seird

import (
	"fmt"
	"math"
)

// State is an agent's compartment.
type State uint8

const (
	Susceptible State = iota
	Exposed
	Infectious
	Recovered
	Dead
)

func (s State) String() string {
	switch s {
	case Susceptible:
		return "S"
	case Exposed:
		return "E"
	case Infectious:
		return "I"
	case Recovered:
		return "R"
	case Dead:
		return "D"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

// Topology is the number of lattice neighbours each agent is in contact with.
type Topology int

const (
	FourNeighbor Topology = 4
	SixNeighbor  Topology = 6
)

// ParseTopology accepts 4 or 6.
func ParseTopology(n int) (Topology, error) {
	switch Topology(n) {
	case FourNeighbor, SixNeighbor:
		return Topology(n), nil
	}
	return 0, fmt.Errorf("%w: got %d", ErrInvalidTopology, n)
}

// Agent is one individual. Col and Row never change after placement.
type Agent struct {
	Col, Row         int
	State            State
	Vaccinated       bool
	VaccineEffective bool
	// EverInfected is set on the first S->E transition and never cleared.
	EverInfected bool
}

// Immune reports whether the agent is protected by an effective vaccine.
func (a Agent) Immune() bool { return a.Vaccinated && a.VaccineEffective }

// AgentState is the mutable part of an agent, as recorded in a Snapshot.
type AgentState struct {
	State            State
	Vaccinated       bool
	VaccineEffective bool
	EverInfected     bool
}

// Snapshot is a full per-agent copy of the population at one step.
type Snapshot []AgentState

// Counts aggregates a population or snapshot.
type Counts struct {
	S, E, I, R, D    int
	Vaccinated       int
	VaccineEffective int
	EverInfected     int
}

// Total is the number of agents counted.
func (c Counts) Total() int { return c.S + c.E + c.I + c.R + c.D }

func (c *Counts) add(st AgentState) {
	switch st.State {
	case Susceptible:
		c.S++
	case Exposed:
		c.E++
	case Infectious:
		c.I++
	case Recovered:
		c.R++
	case Dead:
		c.D++
	}
	if st.Vaccinated {
		c.Vaccinated++
		if st.VaccineEffective {
			c.VaccineEffective++
		}
	}
	if st.EverInfected {
		c.EverInfected++
	}
}

// Counts aggregates the snapshot.
func (s Snapshot) Counts() Counts {
	var c Counts
	for _, st := range s {
		c.add(st)
	}
	return c
}

const (
	MinAgents = 2
	MaxAgents = 10000

	// DeterministicThreshold replaces the random draw for S->E when the run
	// is not stochastic: the transition happens iff p exceeds it.
	DeterministicThreshold = 0.01

	// OnsetRate is the per-unit-time probability of E->I, scaled by dt.
	OnsetRate = 0.5
)

// Config is the per-run parameter snapshot.
type Config struct {
	N      int
	I0     int
	R0Init int

	Dt    float64
	Beta  float64
	Gamma float64
	Mu    float64

	// VaccineEfficacy and VaxCoverage are fractions in [0, 1].
	VaccineEfficacy float64
	VaxCoverage     float64
	// VaxRate is in percentage points of N per unit time.
	VaxRate      float64
	MutationRate float64

	Topology   Topology
	Stochastic bool
	AutoStop   bool
	Seed       uint32
}

// Clamped returns a copy with population sizes and fractions forced into
// their valid ranges. Nothing is rejected.
func (c Config) Clamped() Config {
	c.N = clampInt(c.N, MinAgents, MaxAgents)
	c.I0 = clampInt(c.I0, 0, c.N)
	c.R0Init = clampInt(c.R0Init, 0, c.N-c.I0)
	c.VaccineEfficacy = clampFloat(c.VaccineEfficacy, 0, 1)
	c.VaxCoverage = clampFloat(c.VaxCoverage, 0, 1)
	if c.Topology != SixNeighbor {
		c.Topology = FourNeighbor
	}
	return c
}

// AtRisk0 is the number of agents susceptible at t=0, never below 1.
func (c Config) AtRisk0() int {
	return max(1, c.N-c.I0-c.R0Init)
}

// StepProbability converts a hazard rate into a per-step probability.
func StepProbability(rate, dt float64) float64 {
	return 1 - math.Exp(-rate*dt)
}

func clampInt(x, lo, hi int) int {
	return max(lo, min(hi, x))
}

func clampFloat(x, lo, hi float64) float64 {
	if math.IsNaN(x) {
		return lo
	}
	return math.Max(lo, math.Min(hi, x))
}
