package config

import "sort"

// Preset is a named disease scenario. Only the listed fields are touched
// when it is applied.
type Preset struct {
	Description string
	N           int
	I0          int
	Beta        float64
	Gamma       float64
	Mu          float64
	// Vaccination, when set, replaces coverage and efficacy.
	Vaccination *Vaccination
}

// Vaccination holds coverage and efficacy in percent.
type Vaccination struct {
	Coverage float64
	Efficacy float64
}

var Presets = map[string]Preset{
	"rare": {
		Description: "sporadic cases that rarely take off",
		N:           5000, I0: 1, Beta: 0.12, Gamma: 0.2, Mu: 0.005,
	},
	"endemic": {
		Description: "slow burn near the threshold",
		N:           5000, I0: 10, Beta: 0.18, Gamma: 0.18, Mu: 0.002,
	},
	"outbreak": {
		Description: "fast, severe outbreak",
		N:           5000, I0: 5, Beta: 0.55, Gamma: 0.1, Mu: 0.01,
	},
	"flu": {
		Description: "seasonal influenza",
		N:           5000, I0: 3, Beta: 0.32, Gamma: 0.14, Mu: 0.004,
	},
	"covid": {
		Description: "SARS-CoV-2, pre-vaccine",
		N:           5000, I0: 5, Beta: 0.45, Gamma: 0.08, Mu: 0.006,
	},
	"measles": {
		Description: "measles with routine vaccination",
		N:           5000, I0: 3, Beta: 1.1, Gamma: 0.14, Mu: 0.0005,
		Vaccination: &Vaccination{Coverage: 70, Efficacy: 97},
	},
	"ebola": {
		Description: "Ebola, no vaccine",
		N:           5000, I0: 2, Beta: 0.25, Gamma: 0.14, Mu: 0.12,
		Vaccination: &Vaccination{},
	},
	"sars1": {
		Description: "SARS 2003",
		N:           5000, I0: 3, Beta: 0.3, Gamma: 0.14, Mu: 0.02,
	},
	"mers": {
		Description: "MERS, weak spread and high fatality",
		N:           5000, I0: 3, Beta: 0.14, Gamma: 0.14, Mu: 0.08,
	},
	"noro": {
		Description: "norovirus, explosive and mild",
		N:           5000, I0: 5, Beta: 0.7, Gamma: 0.4, Mu: 0.0001,
	},
}

// ApplyPreset overwrites the preset's fields on c and records the scenario
// name. It reports false for an unknown name.
func (c *Config) ApplyPreset(name string) bool {
	p, ok := Presets[name]
	if !ok {
		return false
	}
	c.Scenario = name
	c.N = p.N
	c.I0 = p.I0
	c.Beta = p.Beta
	c.Gamma = p.Gamma
	c.Mu = p.Mu
	if p.Vaccination != nil {
		c.VaxCoverage = p.Vaccination.Coverage
		c.VaccineEfficacy = p.Vaccination.Efficacy
	}
	return true
}

// GetPreset returns the defaults with the named preset applied, or nil.
func GetPreset(name string) *Config {
	cfg := DefaultConfig()
	if !cfg.ApplyPreset(name) {
		return nil
	}
	return cfg
}

// ListPresets returns the preset names in alphabetical order.
func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
