package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Environment string `env:"ENV" envDefault:"development"`
	HTTP        struct {
		Port            int           `env:"HTTP_PORT" envDefault:"8080"`
		ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"30s"`
		WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"30s"`
		IdleTimeout     time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"120s"`
		ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"30s"`
	}
	Logging struct {
		// Level defaults to debug in development and info elsewhere.
		Level  string `env:"LOG_LEVEL"`
		Format string `env:"LOG_FORMAT" envDefault:"json"`
		Output string `env:"LOG_OUTPUT" envDefault:"stderr"`
	}
	Database struct {
		// Type is one of sqlite, postgres or none.
		Type     string `env:"DB_TYPE" envDefault:"sqlite"`
		DSN      string `env:"DB_DSN"`
		MaxConns int    `env:"DB_MAX_CONNS" envDefault:"10"`
	}
	Search struct {
		DefaultIterations int `env:"SEARCH_DEFAULT_ITERATIONS" envDefault:"50"`
		MaxIterations     int `env:"SEARCH_MAX_ITERATIONS" envDefault:"1000000"`
		MaxPoints         int `env:"SEARCH_MAX_POINTS" envDefault:"5000"`
		// ReservedTail is the number of trailing open-tour positions never
		// chosen as mutation endpoints.
		ReservedTail int `env:"SEARCH_RESERVED_TAIL" envDefault:"1"`
		// JobRetention is how long a finished job stays in memory before it
		// is answered from the result store.
		JobRetention time.Duration `env:"SEARCH_JOB_RETENTION" envDefault:"15m"`
	}
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return Parse()
}

// Parse builds a Config from the process environment only.
func Parse() (*Config, error) {
	cfg := &Config{}

	// Parse environment variables
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	// Set default logging level based on environment
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
		if cfg.Environment == "development" {
			cfg.Logging.Level = "debug"
		}
	}

	// Set default database DSN based on environment
	if cfg.Database.DSN == "" {
		switch cfg.Database.Type {
		case "sqlite":
			// Ensure the data directory exists
			if err := os.MkdirAll("data", 0755); err != nil {
				return nil, err
			}
			cfg.Database.DSN = "file:data/hillclimb.db?_pragma=busy_timeout(5000)"
		case "postgres":
			cfg.Database.DSN = "host=localhost port=5432 user=postgres password=postgres dbname=hillclimb sslmode=disable"
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges env tags cannot express.
func (c *Config) Validate() error {
	switch c.Database.Type {
	case "sqlite", "postgres", "none":
	default:
		return fmt.Errorf("config: unknown DB_TYPE %q", c.Database.Type)
	}
	if c.Search.DefaultIterations <= 0 {
		return fmt.Errorf("config: SEARCH_DEFAULT_ITERATIONS must be positive, got %d", c.Search.DefaultIterations)
	}
	if c.Search.MaxIterations < c.Search.DefaultIterations {
		return fmt.Errorf("config: SEARCH_MAX_ITERATIONS (%d) below default (%d)", c.Search.MaxIterations, c.Search.DefaultIterations)
	}
	if c.Search.MaxPoints < 2 {
		return fmt.Errorf("config: SEARCH_MAX_POINTS must be at least 2, got %d", c.Search.MaxPoints)
	}
	if c.Search.ReservedTail < 0 {
		return fmt.Errorf("config: SEARCH_RESERVED_TAIL must not be negative, got %d", c.Search.ReservedTail)
	}
	if c.Search.JobRetention < 0 {
		return fmt.Errorf("config: SEARCH_JOB_RETENTION must not be negative, got %s", c.Search.JobRetention)
	}
	return nil
}

// GetEnv returns the value of the environment variable or the default value
func GetEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// GetEnvAsInt returns the value of the environment variable as int or the default value
func GetEnvAsInt(key string, defaultValue int) int {
	valueStr := GetEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}
