// Package config loads service settings from the environment, an optional
// .env file and an optional config file.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"finance-tracker/internal/pricing/yahoo"
)

// Config holds application configuration
type Config struct {
	Port        string
	StoreDriver string
	DataDir     string
	DatabaseURL string
	RedisURL    string

	QuoteCacheTTL     time.Duration
	PriceTimeout      time.Duration
	YahooChartURL     string
	YahooSearchURL    string
	RefreshSchedule   string
	EnrichConcurrency int

	LogLevel  string
	LogPretty bool
}

// Keys, in config files and (upper-cased) in the environment.
const (
	keyPort              = "port"
	keyStoreDriver       = "store_driver"
	keyDataDir           = "data_dir"
	keyDatabaseURL       = "database_url"
	keyRedisURL          = "redis_url"
	keyQuoteCacheTTL     = "quote_cache_ttl"
	keyPriceTimeout      = "price_timeout"
	keyYahooChartURL     = "yahoo_chart_url"
	keyYahooSearchURL    = "yahoo_search_url"
	keyRefreshSchedule   = "price_refresh_schedule"
	keyEnrichConcurrency = "enrich_concurrency"
	keyLogLevel          = "log_level"
	keyLogPretty         = "log_pretty"
)

func defaults(v *viper.Viper) {
	v.SetDefault(keyPort, "8080")
	v.SetDefault(keyStoreDriver, "json")
	v.SetDefault(keyDataDir, "data")
	v.SetDefault(keyDatabaseURL, "")
	v.SetDefault(keyRedisURL, "")
	v.SetDefault(keyQuoteCacheTTL, time.Minute)
	v.SetDefault(keyPriceTimeout, 10*time.Second)
	v.SetDefault(keyYahooChartURL, yahoo.DefaultChartURL)
	v.SetDefault(keyYahooSearchURL, yahoo.DefaultSearchURL)
	v.SetDefault(keyRefreshSchedule, "")
	v.SetDefault(keyEnrichConcurrency, 8)
	v.SetDefault(keyLogLevel, "info")
	v.SetDefault(keyLogPretty, false)
}

// Load reads configuration. Environment variables override the config file,
// which overrides the defaults. A .env file in the working directory, if
// present, is loaded into the environment first.
func Load(configFile string) (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	v := viper.New()
	defaults(v)
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &Config{
		Port:              v.GetString(keyPort),
		StoreDriver:       strings.ToLower(strings.TrimSpace(v.GetString(keyStoreDriver))),
		DataDir:           v.GetString(keyDataDir),
		DatabaseURL:       v.GetString(keyDatabaseURL),
		RedisURL:          v.GetString(keyRedisURL),
		QuoteCacheTTL:     v.GetDuration(keyQuoteCacheTTL),
		PriceTimeout:      v.GetDuration(keyPriceTimeout),
		YahooChartURL:     v.GetString(keyYahooChartURL),
		YahooSearchURL:    v.GetString(keyYahooSearchURL),
		RefreshSchedule:   strings.TrimSpace(v.GetString(keyRefreshSchedule)),
		EnrichConcurrency: v.GetInt(keyEnrichConcurrency),
		LogLevel:          strings.ToLower(v.GetString(keyLogLevel)),
		LogPretty:         v.GetBool(keyLogPretty),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	var errs []error
	if c.Port == "" {
		errs = append(errs, errors.New("PORT is required"))
	}
	switch c.StoreDriver {
	case "json":
		if c.DataDir == "" {
			errs = append(errs, errors.New("DATA_DIR is required for the json store"))
		}
	case "postgres":
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres store"))
		}
	default:
		errs = append(errs, fmt.Errorf("STORE_DRIVER must be json or postgres, got %q", c.StoreDriver))
	}
	if c.PriceTimeout <= 0 {
		errs = append(errs, fmt.Errorf("PRICE_TIMEOUT must be positive, got %s", c.PriceTimeout))
	}
	if c.QuoteCacheTTL < 0 {
		errs = append(errs, fmt.Errorf("QUOTE_CACHE_TTL must not be negative, got %s", c.QuoteCacheTTL))
	}
	if c.EnrichConcurrency <= 0 {
		errs = append(errs, fmt.Errorf("ENRICH_CONCURRENCY must be positive, got %d", c.EnrichConcurrency))
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("LOG_LEVEL must be debug, info, warn or error, got %q", c.LogLevel))
	}
	return errors.Join(errs...)
}
