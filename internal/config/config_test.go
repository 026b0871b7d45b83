package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/episim/internal/seird"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.N != 5000 || cfg.I0 != 5 || cfg.Seed != 42 {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if !cfg.Stochastic || !cfg.AutoStop {
		t.Error("stochastic and auto-stop should default on")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero dt", func(c *Config) { c.Dt = 0 }},
		{"zero max steps", func(c *Config) { c.MaxSteps = 0 }},
		{"bad contacts", func(c *Config) { c.Contacts = 8 }},
		{"negative beta", func(c *Config) { c.Beta = -1 }},
		{"negative mutation", func(c *Config) { c.MutationRate = -0.1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}

	cfg := DefaultConfig()
	cfg.Contacts = 5
	if err := cfg.Validate(); !errors.Is(err, seird.ErrInvalidTopology) {
		t.Errorf("expected ErrInvalidTopology, got %v", err)
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")

	cfg := DefaultConfig()
	cfg.Beta = 0.5
	cfg.Contacts = 6
	cfg.VaxCoverage = 40
	if err := Save(path, cfg); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if *loaded != *cfg {
		t.Errorf("expected %+v, got %+v", cfg, loaded)
	}
}

func TestLoad_ScenarioThenOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "measles.yaml")
	data := "scenario: measles\nvax_coverage: 90\nseed: 7\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Beta != 1.1 || cfg.VaccineEfficacy != 97 {
		t.Errorf("preset not applied: %+v", cfg)
	}
	if cfg.VaxCoverage != 90 || cfg.Seed != 7 {
		t.Errorf("file keys should override the preset: %+v", cfg)
	}
}

func TestMergeFile_KeepsUnsetKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	if err := os.WriteFile(path, []byte("beta: 0.5\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := GetPreset("covid")
	if err := cfg.MergeFile(path); err != nil {
		t.Fatalf("merge failed: %v", err)
	}
	if cfg.Beta != 0.5 {
		t.Errorf("beta = %v, want 0.5", cfg.Beta)
	}
	if cfg.Gamma != Presets["covid"].Gamma || cfg.Scenario != "covid" {
		t.Errorf("keys absent from the file should keep the preset values: %+v", cfg)
	}
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()
	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for a missing file")
	}

	path := filepath.Join(dir, "bad.yaml")
	os.WriteFile(path, []byte("scenario: smallpox\n"), 0644)
	if _, err := Load(path); !errors.Is(err, ErrUnknownScenario) {
		t.Errorf("expected ErrUnknownScenario, got %v", err)
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("EPISIM_BETA", "0.8")
	t.Setenv("EPISIM_CONTACTS", "6")
	t.Setenv("EPISIM_STOCHASTIC", "false")
	t.Setenv("EPISIM_SEED", "99")

	cfg := DefaultConfig()
	if err := cfg.ApplyEnv(); err != nil {
		t.Fatalf("apply env failed: %v", err)
	}
	if cfg.Beta != 0.8 || cfg.Contacts != 6 || cfg.Stochastic || cfg.Seed != 99 {
		t.Errorf("env not applied: %+v", cfg)
	}
	if cfg.Gamma != DefaultGamma {
		t.Errorf("unset variables should keep their value, gamma=%v", cfg.Gamma)
	}
}

func TestApplyEnv_Invalid(t *testing.T) {
	t.Setenv("EPISIM_N", "lots")

	if err := DefaultConfig().ApplyEnv(); err == nil {
		t.Error("expected parse error")
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("ebola")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if cfg.Mu != 0.12 || cfg.I0 != 2 || cfg.Scenario != "ebola" {
		t.Errorf("unexpected preset values: %+v", cfg)
	}
	if cfg.Dt != DefaultDt || cfg.Seed != DefaultSeed {
		t.Error("preset should keep the other defaults")
	}

	if GetPreset("nonexistent") != nil {
		t.Error("expected nil for nonexistent preset")
	}
}

func TestApplyPreset_KeepsVaccination(t *testing.T) {
	cfg := DefaultConfig()
	cfg.VaxCoverage = 50
	cfg.VaccineEfficacy = 80

	cfg.ApplyPreset("flu")
	if cfg.VaxCoverage != 50 || cfg.VaccineEfficacy != 80 {
		t.Error("presets without vaccination should not touch it")
	}
	cfg.ApplyPreset("ebola")
	if cfg.VaxCoverage != 0 || cfg.VaccineEfficacy != 0 {
		t.Error("ebola should clear vaccination")
	}
}

func TestListPresets(t *testing.T) {
	names := ListPresets()
	if len(names) != len(Presets) {
		t.Fatalf("expected %d presets, got %d", len(Presets), len(names))
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] > names[i] {
			t.Errorf("presets not sorted: %v", names)
		}
	}
}

func TestDaysInfectious(t *testing.T) {
	cfg := DefaultConfig()
	if d := cfg.DaysInfectious(); d != 10 {
		t.Errorf("expected 10 days, got %v", d)
	}
	cfg.SetDaysInfectious(4)
	if cfg.Gamma != 0.25 {
		t.Errorf("expected gamma 0.25, got %v", cfg.Gamma)
	}
	cfg.SetDaysInfectious(0)
	if cfg.Gamma != 0.25 {
		t.Error("non-positive days should be ignored")
	}
}

func TestQueryRoundTrip(t *testing.T) {
	cfg := GetPreset("covid")
	cfg.Contacts = 6
	cfg.Stochastic = false
	cfg.VaxRate = 0.5
	cfg.Seed = 1234

	got, err := ParseQuery(cfg.EncodeQuery())
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if *got != *cfg {
		t.Errorf("expected %+v, got %+v", cfg, got)
	}
}

func TestParseQuery(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		check   func(*Config) bool
		wantErr bool
	}{
		{"empty", "", func(c *Config) bool { return *c == *DefaultConfig() }, false},
		{"days infectious", "daysInf=5", func(c *Config) bool { return c.Gamma == 0.2 }, false},
		{"gamma wins", "daysInf=5&gamma=0.5", func(c *Config) bool { return c.Gamma == 0.5 }, false},
		{"scenario", "scenario=noro&N=300", func(c *Config) bool { return c.Beta == 0.7 && c.N == 300 }, false},
		{"bool words", "stochastic=false&autoStop=true", func(c *Config) bool { return !c.Stochastic && c.AutoStop }, false},
		{"bad int", "N=abc", nil, true},
		{"bad seed", "seed=-1", nil, true},
		{"unknown scenario", "scenario=zika", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := ParseQuery(tt.query)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tt.check(cfg) {
				t.Errorf("unexpected config %+v", cfg)
			}
		})
	}
}

func TestSim(t *testing.T) {
	cfg := DefaultConfig()
	cfg.N = 50000
	cfg.VaccineEfficacy = 90
	cfg.VaxCoverage = 150
	cfg.Contacts = 6

	sc := cfg.Sim()
	if sc.N != seird.MaxAgents {
		t.Errorf("expected N clamped to %d, got %d", seird.MaxAgents, sc.N)
	}
	if sc.VaccineEfficacy != 0.9 || sc.VaxCoverage != 1 {
		t.Errorf("unexpected fractions: %v %v", sc.VaccineEfficacy, sc.VaxCoverage)
	}
	if sc.Topology != seird.SixNeighbor {
		t.Errorf("expected six-neighbour topology, got %v", sc.Topology)
	}
}
