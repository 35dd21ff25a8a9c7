package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// EnvConfig holds overrides read from the environment.
type EnvConfig struct {
	ClearMode string `env:"PAPERLIST_CLEAR_MODE"`
	DB        string `env:"PAPERLIST_DB"`
	LogLevel  string `env:"PAPERLIST_LOG"`
}

// LoadEnv reads PAPERLIST_* variables.
func LoadEnv() (EnvConfig, error) {
	var cfg EnvConfig
	if err := env.Parse(&cfg); err != nil {
		return EnvConfig{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
