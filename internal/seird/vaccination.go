package seird

import "math"

// AssignInitialVaccination clears every vaccination flag, then vaccinates
// round(N*coverage) agents chosen by a random permutation. Each vaccinated
// agent is effective with probability efficacy.
func AssignInitialVaccination(p *Population, coverage, efficacy float64, src Source) {
	for i := range p.Agents {
		p.Agents[i].Vaccinated = false
		p.Agents[i].VaccineEffective = false
	}
	n := len(p.Agents)
	k := int(math.Round(float64(n) * coverage))
	perm := Permutation(src, n)
	for i := 0; i < k && i < len(perm); i++ {
		vaccinate(&p.Agents[perm[i]], efficacy, src)
	}
}

// ApplyOngoingVaccination vaccinates round(rate*dt/100*N) living,
// unvaccinated agents picked uniformly without replacement, and returns how
// many were vaccinated.
func ApplyOngoingVaccination(p *Population, rate, dt, efficacy float64, src Source) int {
	n := len(p.Agents)
	target := int(math.Round(rate * dt / 100 * float64(n)))
	if target <= 0 {
		return 0
	}
	candidates := make([]int, 0, n)
	for i, a := range p.Agents {
		if a.State != Dead && !a.Vaccinated {
			candidates = append(candidates, i)
		}
	}
	target = min(target, len(candidates))
	Shuffle(src, candidates)
	for _, i := range candidates[:target] {
		vaccinate(&p.Agents[i], efficacy, src)
	}
	return target
}

func vaccinate(a *Agent, efficacy float64, src Source) {
	a.Vaccinated = true
	a.VaccineEffective = Bernoulli(src, efficacy)
}
