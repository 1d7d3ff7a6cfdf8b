package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v6"
)

// Config carries all process-level settings. Values come from the
// environment, with a .env file loaded first when present.
type Config struct {
	Port        string `env:"PORT" envDefault:"8080"`
	DatabaseURL string `env:"DATABASE_URL,required"`
	RedisURL    string `env:"REDIS_URL"`

	BatchSize   int           `env:"BATCH_SIZE" envDefault:"25"`
	PageSize    int           `env:"PAGE_SIZE" envDefault:"250"`
	HTTPTimeout time.Duration `env:"HTTP_TIMEOUT" envDefault:"60s"`

	SchedulerTick time.Duration `env:"SCHEDULER_TICK" envDefault:"1m"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config from environment: %w", err)
	}
	if cfg.PageSize < 1 || cfg.PageSize > 250 {
		return nil, fmt.Errorf("PAGE_SIZE must be between 1 and 250, got %d", cfg.PageSize)
	}
	if cfg.BatchSize < 1 {
		return nil, fmt.Errorf("BATCH_SIZE must be positive, got %d", cfg.BatchSize)
	}
	return cfg, nil
}
