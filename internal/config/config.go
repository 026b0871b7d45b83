package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/episim/internal/seird"
)

const (
	DefaultN        = 5000
	DefaultI0       = 5
	DefaultDt       = 1.0
	DefaultBeta     = 0.35
	DefaultGamma    = 0.1
	DefaultMu       = 0.01
	DefaultContacts = 4
	DefaultSeed     = 42
	DefaultMaxSteps = 1000
)

// Config is the user-facing run configuration. Vaccine efficacy and
// coverage are percentages here and fractions in seird.Config.
type Config struct {
	Scenario        string  `yaml:"scenario,omitempty" env:"SCENARIO"`
	N               int     `yaml:"n" env:"N"`
	I0              int     `yaml:"i0" env:"I0"`
	R0Init          int     `yaml:"r0_init" env:"R0_INIT"`
	Dt              float64 `yaml:"dt" env:"DT"`
	Beta            float64 `yaml:"beta" env:"BETA"`
	Gamma           float64 `yaml:"gamma" env:"GAMMA"`
	Mu              float64 `yaml:"mu" env:"MU"`
	VaccineEfficacy float64 `yaml:"vaccine_efficacy" env:"VACCINE_EFFICACY"`
	VaxCoverage     float64 `yaml:"vax_coverage" env:"VAX_COVERAGE"`
	VaxRate         float64 `yaml:"vax_rate" env:"VAX_RATE"`
	MutationRate    float64 `yaml:"mutation_rate" env:"MUTATION_RATE"`
	Contacts        int     `yaml:"contacts" env:"CONTACTS"`
	Stochastic      bool    `yaml:"stochastic" env:"STOCHASTIC"`
	AutoStop        bool    `yaml:"auto_stop" env:"AUTO_STOP"`
	Seed            uint32  `yaml:"seed" env:"SEED"`
	MaxSteps        int     `yaml:"max_steps" env:"MAX_STEPS"`
}

func DefaultConfig() *Config {
	return &Config{
		N:          DefaultN,
		I0:         DefaultI0,
		Dt:         DefaultDt,
		Beta:       DefaultBeta,
		Gamma:      DefaultGamma,
		Mu:         DefaultMu,
		Contacts:   DefaultContacts,
		Stochastic: true,
		AutoStop:   true,
		Seed:       DefaultSeed,
		MaxSteps:   DefaultMaxSteps,
	}
}

// Load reads a YAML file over the defaults. A scenario named in the file
// is applied first, so explicit keys still win.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if err := cfg.MergeFile(path); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MergeFile overlays the keys set in a YAML file onto c.
func (c *Config) MergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	if err := c.Merge(&node); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// Merge overlays the keys present in node onto c. A scenario key applies
// that preset before the other keys.
func (c *Config) Merge(node *yaml.Node) error {
	if node == nil || node.Kind == 0 {
		return nil
	}

	var probe struct {
		Scenario string `yaml:"scenario"`
	}
	if err := node.Decode(&probe); err != nil {
		return err
	}
	if probe.Scenario != "" && !c.ApplyPreset(probe.Scenario) {
		return fmt.Errorf("%w: %q", ErrUnknownScenario, probe.Scenario)
	}
	return node.Decode(c)
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

var ErrUnknownScenario = errors.New("unknown scenario")

// Validate rejects values no run can use. Out-of-range population sizes
// and percentages are clamped later rather than rejected.
func (c *Config) Validate() error {
	if c.Dt <= 0 {
		return fmt.Errorf("dt must be positive, got %v", c.Dt)
	}
	if c.MaxSteps <= 0 {
		return fmt.Errorf("max_steps must be positive, got %d", c.MaxSteps)
	}
	if _, err := seird.ParseTopology(c.Contacts); err != nil {
		return err
	}
	rates := []struct {
		name string
		v    float64
	}{
		{"beta", c.Beta}, {"gamma", c.Gamma}, {"mu", c.Mu},
		{"vax_rate", c.VaxRate}, {"mutation_rate", c.MutationRate},
	}
	for _, r := range rates {
		if r.v < 0 {
			return fmt.Errorf("%s must not be negative, got %v", r.name, r.v)
		}
	}
	return nil
}

// DaysInfectious is the mean infectious period implied by gamma.
func (c *Config) DaysInfectious() float64 {
	if c.Gamma <= 0 {
		return 0
	}
	return 1 / c.Gamma
}

// SetDaysInfectious sets gamma to 1/d. Non-positive d is ignored.
func (c *Config) SetDaysInfectious(d float64) {
	if d > 0 {
		c.Gamma = 1 / d
	}
}

// Sim converts to the engine configuration, clamped.
func (c *Config) Sim() seird.Config {
	return seird.Config{
		N:               c.N,
		I0:              c.I0,
		R0Init:          c.R0Init,
		Dt:              c.Dt,
		Beta:            c.Beta,
		Gamma:           c.Gamma,
		Mu:              c.Mu,
		VaccineEfficacy: c.VaccineEfficacy / 100,
		VaxCoverage:     c.VaxCoverage / 100,
		VaxRate:         c.VaxRate,
		MutationRate:    c.MutationRate,
		Topology:        seird.Topology(c.Contacts),
		Stochastic:      c.Stochastic,
		AutoStop:        c.AutoStop,
		Seed:            c.Seed,
	}.Clamped()
}
