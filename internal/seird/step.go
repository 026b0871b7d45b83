package seird

// StepResult summarises one committed tick.
type StepResult struct {
	// NewInfections counts agents infected (S->E) for the first time.
	NewInfections int
	// Onsets counts E->I transitions.
	Onsets     int
	Recoveries int
	Deaths     int
	// Waned counts agents returned to S by immune waning or mutation.
	Waned      int
	Vaccinated int
	Counts     Counts
}

// Step advances p by one tick of cfg.Dt. Infection, progression and
// mortality are computed from the pre-step states only, so the order in
// which agents are visited never matters. Waning is applied to the
// post-transition states, the states are committed, and ongoing vaccination
// runs last. Step on an empty population changes nothing.
func Step(p *Population, cfg Config, src Source) (StepResult, error) {
	var res StepResult
	if p.Len() == 0 {
		return res, ErrEmptyPopulation
	}

	n := len(p.Agents)
	cur := make([]State, n)
	for i, a := range p.Agents {
		cur[i] = a.State
	}
	next := make([]State, n)
	copy(next, cur)
	infectious := p.InfectiousSet(cur)

	pDeath := StepProbability(cfg.Mu, cfg.Dt)
	pRecover := StepProbability(cfg.Gamma, cfg.Dt)
	pOnset := OnsetRate * cfg.Dt
	firstInfections := make([]int, 0)

	for i := range p.Agents {
		a := p.Agents[i]
		switch cur[i] {
		case Susceptible:
			if a.Immune() {
				continue
			}
			k := InfectiousNeighborCount(a, infectious, cfg.Topology)
			if k == 0 {
				continue
			}
			prob := StepProbability(cfg.Beta*float64(k), cfg.Dt)
			if !transmits(prob, cfg.Stochastic, src) {
				continue
			}
			next[i] = Exposed
			if !a.EverInfected {
				firstInfections = append(firstInfections, i)
			}
		case Exposed:
			if Bernoulli(src, pOnset) {
				next[i] = Infectious
				res.Onsets++
			}
		case Infectious:
			// death and recovery compete for a single draw
			u := src.Float64()
			switch {
			case u < pDeath:
				next[i] = Dead
				res.Deaths++
			case u < pDeath+pRecover:
				next[i] = Recovered
				res.Recoveries++
			}
		}
	}

	if cfg.MutationRate > 0 {
		res.Waned = wane(p, next, StepProbability(cfg.MutationRate, cfg.Dt), src)
	}

	for i := range p.Agents {
		p.Agents[i].State = next[i]
	}
	for _, i := range firstInfections {
		p.Agents[i].EverInfected = true
	}
	res.NewInfections = len(firstInfections)

	if cfg.VaxRate > 0 {
		res.Vaccinated = ApplyOngoingVaccination(p, cfg.VaxRate, cfg.Dt, cfg.VaccineEfficacy, src)
	}

	res.Counts = p.Counts()
	return res, nil
}

// transmits decides an S->E transition. Without stochasticity the draw is
// replaced by the fixed DeterministicThreshold.
func transmits(prob float64, stochastic bool, src Source) bool {
	if stochastic {
		return Bernoulli(src, prob)
	}
	return prob > DeterministicThreshold
}

// wane returns recovered and effectively vaccinated agents to S with
// probability pMut, clearing their vaccination. Dead agents stay dead.
func wane(p *Population, next []State, pMut float64, src Source) int {
	waned := 0
	for i := range p.Agents {
		a := &p.Agents[i]
		if next[i] == Dead {
			continue
		}
		if next[i] != Recovered && !a.Immune() {
			continue
		}
		if Bernoulli(src, pMut) {
			next[i] = Susceptible
			a.Vaccinated = false
			a.VaccineEffective = false
			waned++
		}
	}
	return waned
}
