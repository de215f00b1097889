// Package config loads runtime settings from the environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config holds every setting the server and the settlement job read
type Config struct {
	Env      string `env:"APP_ENV" env-default:"development"`
	Port     string `env:"PORT" env-default:"5000"`
	LogLevel string `env:"LOG_LEVEL" env-default:"info"`

	// DatabaseURL selects the PostgreSQL ledger; empty keeps everything in memory
	DatabaseURL string `env:"DATABASE_URL"`

	JWTSecret string        `env:"JWT_SECRET" env-default:"dev-secret"`
	TokenTTL  time.Duration `env:"TOKEN_TTL" env-default:"24h"`

	Settlement      Settlement
	BidRateLimit    float64       `env:"BID_RATE_LIMIT" env-default:"50"`
	BidRateBurst    int           `env:"BID_RATE_BURST" env-default:"100"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" env-default:"10s"`
}

// Settlement configures the background sweep
type Settlement struct {
	Interval  time.Duration `env:"SETTLEMENT_INTERVAL" env-default:"1m"`
	BatchSize int           `env:"SETTLEMENT_BATCH_SIZE" env-default:"500"`
	Workers   int           `env:"SETTLEMENT_WORKERS" env-default:"4"`
}

// Load reads envFiles (missing files are ignored) and then the process environment
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: load %s: %w", f, err)
		}
	}

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config: read environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.JWTSecret == "":
		return errors.New("config: JWT_SECRET must not be empty")
	case c.TokenTTL <= 0:
		return errors.New("config: TOKEN_TTL must be positive")
	case c.Settlement.Interval <= 0:
		return errors.New("config: SETTLEMENT_INTERVAL must be positive")
	case c.Settlement.BatchSize <= 0:
		return errors.New("config: SETTLEMENT_BATCH_SIZE must be positive")
	case c.Settlement.Workers <= 0:
		return errors.New("config: SETTLEMENT_WORKERS must be positive")
	case c.BidRateLimit <= 0 || c.BidRateBurst <= 0:
		return errors.New("config: BID_RATE_LIMIT and BID_RATE_BURST must be positive")
	}
	return nil
}

// Addr is the listen address for the HTTP server
func (c *Config) Addr() string {
	return ":" + c.Port
}

// UsesDatabase reports whether the PostgreSQL ledger is configured
func (c *Config) UsesDatabase() bool {
	return c.DatabaseURL != ""
}
