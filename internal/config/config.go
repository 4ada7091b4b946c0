// Package config loads process configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds the server and CLI settings that are not part of a simulation profile.
type Config struct {
	HTTPAddr      string        `env:"GACHA_HTTP_ADDR" envDefault:":8080"`
	GRPCAddr      string        `env:"GACHA_GRPC_ADDR" envDefault:":9090"`
	ProfileDir    string        `env:"GACHA_PROFILE_DIR" envDefault:"./config"`
	LogLevel      string        `env:"GACHA_LOG_LEVEL" envDefault:"info"`
	WatchInterval time.Duration `env:"GACHA_WATCH_INTERVAL" envDefault:"2s"`
	MaxTrials     int           `env:"GACHA_MAX_TRIALS" envDefault:"1000000"`
	BatchWorkers  int           `env:"GACHA_BATCH_WORKERS" envDefault:"4"`
}

// Load parses Config from environment variables.
func Load() (Config, error) {
	var c Config
	if err := env.Parse(&c); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if c.MaxTrials < 1 {
		return Config{}, fmt.Errorf("GACHA_MAX_TRIALS must be >= 1, got %d", c.MaxTrials)
	}
	if c.BatchWorkers < 1 {
		return Config{}, fmt.Errorf("GACHA_BATCH_WORKERS must be >= 1, got %d", c.BatchWorkers)
	}
	if c.WatchInterval < 0 {
		return Config{}, fmt.Errorf("GACHA_WATCH_INTERVAL must not be negative, got %s", c.WatchInterval)
	}
	return c, nil
}
