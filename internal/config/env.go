package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// EnvPrefix namespaces the environment overlay, e.g. EPISIM_BETA.
const EnvPrefix = "EPISIM_"

// ApplyEnv overlays EPISIM_* variables onto c. Unset variables leave the
// current values alone.
func (c *Config) ApplyEnv() error {
	if err := env.ParseWithOptions(c, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
