package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// ParseEnv fills target from the environment variables named by its `env`
// struct tags. Commands call it before flag parsing so flags win over env.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
