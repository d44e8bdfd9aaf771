// Package config loads harness configuration from the environment.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds the environment-driven settings of the evaluation harness.
type Config struct {
	AppEnv     string `env:"APP_ENV" envDefault:"local"`
	DBPath     string `env:"TAGCAT_DB" envDefault:"tagcat.db"`
	ResultsDir string `env:"TAGCAT_RESULTS_DIR" envDefault:"results"`
	PoolSize   int    `env:"TAGCAT_POOL_SIZE" envDefault:"0"`
	MaxSeqLen  int    `env:"TAGCAT_MAX_SEQ_LEN" envDefault:"512"`
	LogLevel   string `env:"TAGCAT_LOG_LEVEL" envDefault:"info"`
}

// Load reads configuration from the environment, honoring a local .env file
// when present.
func Load() (Config, error) {
	_ = godotenv.Load() // .env is optional

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parsing environment: %w", err)
	}
	return cfg, nil
}
