package config

import (
	"fmt"
	"net/url"
	"strconv"
)

// Query keys shared with the browser front end.
const (
	keyScenario   = "scenario"
	keyN          = "N"
	keyI0         = "I0"
	keyR0         = "R0"
	keyDt         = "dt"
	keySeed       = "seed"
	keyStochastic = "stochastic"
	keyAutoStop   = "autoStop"
	keyContacts   = "contacts"
	keyBeta       = "beta"
	keyGamma      = "gamma"
	keyMu         = "mu"
	keyVE         = "ve"
	keyVaxCov     = "vaxCov"
	keyVaxRate    = "vaxRate"
	keyMutRate    = "mutRate"
	keyDaysInf    = "daysInf"
)

func formatFloat(x float64) string { return strconv.FormatFloat(x, 'g', -1, 64) }

func formatBool(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// EncodeQuery renders c as a shareable query string.
func (c *Config) EncodeQuery() string {
	v := url.Values{}
	if c.Scenario != "" {
		v.Set(keyScenario, c.Scenario)
	}
	v.Set(keyN, strconv.Itoa(c.N))
	v.Set(keyI0, strconv.Itoa(c.I0))
	v.Set(keyR0, strconv.Itoa(c.R0Init))
	v.Set(keyDt, formatFloat(c.Dt))
	v.Set(keySeed, strconv.FormatUint(uint64(c.Seed), 10))
	v.Set(keyStochastic, formatBool(c.Stochastic))
	v.Set(keyAutoStop, formatBool(c.AutoStop))
	v.Set(keyContacts, strconv.Itoa(c.Contacts))
	v.Set(keyBeta, formatFloat(c.Beta))
	v.Set(keyGamma, formatFloat(c.Gamma))
	v.Set(keyMu, formatFloat(c.Mu))
	v.Set(keyVE, formatFloat(c.VaccineEfficacy))
	v.Set(keyVaxCov, formatFloat(c.VaxCoverage))
	v.Set(keyVaxRate, formatFloat(c.VaxRate))
	v.Set(keyMutRate, formatFloat(c.MutationRate))
	if d := c.DaysInfectious(); d > 0 {
		v.Set(keyDaysInf, formatFloat(d))
	}
	return v.Encode()
}

// ParseQuery decodes a query string produced by EncodeQuery. Missing keys
// keep their defaults; a scenario is applied before the explicit keys.
func ParseQuery(query string) (*Config, error) {
	v, err := url.ParseQuery(query)
	if err != nil {
		return nil, fmt.Errorf("parse query: %w", err)
	}
	return FromQuery(v)
}

// FromQuery builds a Config from decoded query values.
func FromQuery(v url.Values) (*Config, error) {
	cfg := DefaultConfig()
	if name := v.Get(keyScenario); name != "" {
		if !cfg.ApplyPreset(name) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownScenario, name)
		}
	}

	ints := map[string]*int{keyN: &cfg.N, keyI0: &cfg.I0, keyR0: &cfg.R0Init, keyContacts: &cfg.Contacts}
	for key, dst := range ints {
		if s := v.Get(key); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil {
				return nil, fmt.Errorf("parse %s: %w", key, err)
			}
			*dst = n
		}
	}

	floats := map[string]*float64{
		keyDt: &cfg.Dt, keyBeta: &cfg.Beta, keyMu: &cfg.Mu,
		keyVE: &cfg.VaccineEfficacy, keyVaxCov: &cfg.VaxCoverage,
		keyVaxRate: &cfg.VaxRate, keyMutRate: &cfg.MutationRate,
	}
	for key, dst := range floats {
		if s := v.Get(key); s != "" {
			x, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, fmt.Errorf("parse %s: %w", key, err)
			}
			*dst = x
		}
	}

	// gamma wins over daysInf when both are present
	if s := v.Get(keyDaysInf); s != "" {
		d, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", keyDaysInf, err)
		}
		cfg.SetDaysInfectious(d)
	}
	if s := v.Get(keyGamma); s != "" {
		g, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", keyGamma, err)
		}
		cfg.Gamma = g
	}

	bools := map[string]*bool{keyStochastic: &cfg.Stochastic, keyAutoStop: &cfg.AutoStop}
	for key, dst := range bools {
		if s := v.Get(key); s != "" {
			b, err := strconv.ParseBool(s)
			if err != nil {
				return nil, fmt.Errorf("parse %s: %w", key, err)
			}
			*dst = b
		}
	}

	if s := v.Get(keySeed); s != "" {
		seed, err := strconv.ParseUint(s, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", keySeed, err)
		}
		cfg.Seed = uint32(seed)
	}
	return cfg, nil
}
