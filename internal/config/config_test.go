package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finance-tracker/internal/pricing/yahoo"
)

var envKeys = []string{
	"PORT", "STORE_DRIVER", "DATA_DIR", "DATABASE_URL", "REDIS_URL", "QUOTE_CACHE_TTL", "PRICE_TIMEOUT",
	"YAHOO_CHART_URL", "YAHOO_SEARCH_URL", "PRICE_REFRESH_SCHEDULE", "ENRICH_CONCURRENCY", "LOG_LEVEL", "LOG_PRETTY",
}

// chdir moves the test into an empty directory so no stray .env is picked
// up, and blanks every setting in the environment. Blank variables count as
// unset.
func chdir(t *testing.T) string {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	chdir(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "json", cfg.StoreDriver)
	assert.Equal(t, "data", cfg.DataDir)
	assert.Empty(t, cfg.RedisURL)
	assert.Equal(t, time.Minute, cfg.QuoteCacheTTL)
	assert.Equal(t, 10*time.Second, cfg.PriceTimeout)
	assert.Equal(t, yahoo.DefaultChartURL, cfg.YahooChartURL)
	assert.Equal(t, yahoo.DefaultSearchURL, cfg.YahooSearchURL)
	assert.Empty(t, cfg.RefreshSchedule)
	assert.Equal(t, 8, cfg.EnrichConcurrency)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.LogPretty)
}

func TestLoad_Environment(t *testing.T) {
	chdir(t)
	t.Setenv("PORT", "9090")
	t.Setenv("STORE_DRIVER", "Postgres")
	t.Setenv("DATABASE_URL", "postgres://u:p@db/finance")
	t.Setenv("REDIS_URL", "redis:6379")
	t.Setenv("PRICE_TIMEOUT", "3s")
	t.Setenv("QUOTE_CACHE_TTL", "5m")
	t.Setenv("PRICE_REFRESH_SCHEDULE", "@every 5m")
	t.Setenv("ENRICH_CONCURRENCY", "4")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("LOG_PRETTY", "true")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "postgres", cfg.StoreDriver)
	assert.Equal(t, "postgres://u:p@db/finance", cfg.DatabaseURL)
	assert.Equal(t, "redis:6379", cfg.RedisURL)
	assert.Equal(t, 3*time.Second, cfg.PriceTimeout)
	assert.Equal(t, 5*time.Minute, cfg.QuoteCacheTTL)
	assert.Equal(t, "@every 5m", cfg.RefreshSchedule)
	assert.Equal(t, 4, cfg.EnrichConcurrency)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.LogPretty)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := chdir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("DATA_DIR=/var/lib/finance\n"), 0o600))
	require.NoError(t, os.Unsetenv("DATA_DIR"))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/finance", cfg.DataDir)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := chdir(t)
	path := filepath.Join(dir, "finance.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: \"7070\"\nprice_timeout: 2s\nlog_level: warn\n"), 0o600))
	t.Setenv("LOG_LEVEL", "error")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "7070", cfg.Port)
	assert.Equal(t, 2*time.Second, cfg.PriceTimeout)
	assert.Equal(t, "error", cfg.LogLevel, "environment wins over the file")
}

func TestLoad_MissingConfigFile(t *testing.T) {
	chdir(t)
	_, err := Load("/does/not/exist.yaml")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Port:              "8080",
			StoreDriver:       "json",
			DataDir:           "data",
			PriceTimeout:      time.Second,
			EnrichConcurrency: 1,
			LogLevel:          "info",
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"valid", func(*Config) {}, ""},
		{"unknown driver", func(c *Config) { c.StoreDriver = "sqlite" }, "STORE_DRIVER"},
		{"postgres without url", func(c *Config) { c.StoreDriver = "postgres" }, "DATABASE_URL"},
		{"zero timeout", func(c *Config) { c.PriceTimeout = 0 }, "PRICE_TIMEOUT"},
		{"negative ttl", func(c *Config) { c.QuoteCacheTTL = -time.Second }, "QUOTE_CACHE_TTL"},
		{"no concurrency", func(c *Config) { c.EnrichConcurrency = 0 }, "ENRICH_CONCURRENCY"},
		{"bad level", func(c *Config) { c.LogLevel = "verbose" }, "LOG_LEVEL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.errMsg)
		})
	}
}
