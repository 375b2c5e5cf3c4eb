package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	t.Setenv("DB_TYPE", "none")

	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, 30*time.Second, cfg.HTTP.ReadTimeout)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, 50, cfg.Search.DefaultIterations)
	assert.Equal(t, 1000000, cfg.Search.MaxIterations)
	assert.Equal(t, 1, cfg.Search.ReservedTail)
	assert.Equal(t, 15*time.Minute, cfg.Search.JobRetention)
	assert.Empty(t, cfg.Database.DSN)
}

func TestParseLogLevelFollowsEnvironment(t *testing.T) {
	t.Setenv("DB_TYPE", "none")

	t.Setenv("ENV", "production")
	cfg, err := Parse()
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.Logging.Level)

	t.Setenv("LOG_LEVEL", "warn")
	cfg, err = Parse()
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Logging.Level)

	t.Setenv("ENV", "development")
	cfg, err = Parse()
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestParseOverrides(t *testing.T) {
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("DB_TYPE", "postgres")
	t.Setenv("SEARCH_DEFAULT_ITERATIONS", "200")
	t.Setenv("SEARCH_RESERVED_TAIL", "2")
	t.Setenv("SEARCH_JOB_RETENTION", "30s")

	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 200, cfg.Search.DefaultIterations)
	assert.Equal(t, 2, cfg.Search.ReservedTail)
	assert.Equal(t, 30*time.Second, cfg.Search.JobRetention)
	assert.Contains(t, cfg.Database.DSN, "dbname=hillclimb")
}

func TestParseRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown database", map[string]string{"DB_TYPE": "mysql"}},
		{"zero iterations", map[string]string{"DB_TYPE": "none", "SEARCH_DEFAULT_ITERATIONS": "0"}},
		{"cap below default", map[string]string{"DB_TYPE": "none", "SEARCH_MAX_ITERATIONS": "10"}},
		{"too few points", map[string]string{"DB_TYPE": "none", "SEARCH_MAX_POINTS": "1"}},
		{"negative reserved tail", map[string]string{"DB_TYPE": "none", "SEARCH_RESERVED_TAIL": "-1"}},
		{"malformed port", map[string]string{"DB_TYPE": "none", "HTTP_PORT": "eighty"}},
		{"negative retention", map[string]string{"DB_TYPE": "none", "SEARCH_JOB_RETENTION": "-1s"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Parse()
			assert.Error(t, err)
		})
	}
}

func TestGetEnv(t *testing.T) {
	t.Setenv("HILLCLIMB_TEST_VALUE", "17")
	assert.Equal(t, "17", GetEnv("HILLCLIMB_TEST_VALUE", "x"))
	assert.Equal(t, 17, GetEnvAsInt("HILLCLIMB_TEST_VALUE", 3))
	assert.Equal(t, "x", GetEnv("HILLCLIMB_TEST_MISSING", "x"))
	assert.Equal(t, 3, GetEnvAsInt("HILLCLIMB_TEST_MISSING", 3))
}
