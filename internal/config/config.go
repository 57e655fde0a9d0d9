// Package config handles configuration loading for fairprice.
// It supports YAML config files, a .env file and environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/seenimoa/fairprice/internal/resolve"
	"github.com/seenimoa/fairprice/internal/valuation"
)

// Config represents the complete application configuration.
type Config struct {
	Valuation ValuationConfig     `mapstructure:"valuation" yaml:"valuation"`
	Data      DataConfig          `mapstructure:"data"      yaml:"data"`
	Sources   map[string][]string `mapstructure:"sources"   yaml:"sources"` // field → ordered payload paths
	Provider  ProviderConfig      `mapstructure:"provider"  yaml:"provider"`
	API       APIConfig           `mapstructure:"api"       yaml:"api"`
	Logging   LoggingConfig       `mapstructure:"logging"   yaml:"logging"`
}

// ValuationConfig holds the default valuation parameters.
type ValuationConfig struct {
	Metric          string  `mapstructure:"metric"            yaml:"metric"`            // "PER", "PSR", "PBR"
	Multiple        float64 `mapstructure:"multiple"          yaml:"multiple"`
	SafetyMarginPct float64 `mapstructure:"safety_margin_pct" yaml:"safety_margin_pct"` // 0-100
	DefaultMultiple float64 `mapstructure:"default_multiple"  yaml:"default_multiple"`  // used when history is unusable
}

// DataConfig holds the fact source settings.
type DataConfig struct {
	Dir         string `mapstructure:"dir"         yaml:"dir"`
	CacheTTL    int    `mapstructure:"cache_ttl"   yaml:"cache_ttl"` // seconds; 0 disables caching
	Concurrency int    `mapstructure:"concurrency" yaml:"concurrency"`
}

// ProviderConfig holds the opaque credential handed to data providers.
type ProviderConfig struct {
	DARTKey string `mapstructure:"dart_key" yaml:"dart_key"`
}

// APIConfig holds HTTP API server settings.
type APIConfig struct {
	Host        string   `mapstructure:"host"         yaml:"host"`
	Port        int      `mapstructure:"port"         yaml:"port"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`
	RateLimit   float64  `mapstructure:"rate_limit"   yaml:"rate_limit"` // requests/second per client; 0 disables
	RateBurst   int      `mapstructure:"rate_burst"   yaml:"rate_burst"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `mapstructure:"format" yaml:"format"` // "text" or "json"
}

// Params converts the configured defaults into validated valuation parameters.
func (c ValuationConfig) Params() (valuation.Params, error) {
	m, err := valuation.ParseMetric(c.Metric)
	if err != nil {
		return valuation.Params{}, err
	}
	p := valuation.Params{Metric: m, Multiple: c.Multiple, SafetyMarginPercent: c.SafetyMarginPct}
	if err := p.Validate(); err != nil {
		return valuation.Params{}, err
	}
	return p, nil
}

// HistoryFallback returns the multiple used when history yields nothing.
// Unset, non-positive or non-finite values mean valuation.DefaultHistoricalMultiple.
func (c ValuationConfig) HistoryFallback() float64 {
	m := c.DefaultMultiple
	if m <= 0 || math.IsNaN(m) || math.IsInf(m, 0) {
		return valuation.DefaultHistoricalMultiple
	}
	return m
}

// CacheDuration returns the fact cache TTL.
func (c DataConfig) CacheDuration() time.Duration {
	return time.Duration(c.CacheTTL) * time.Second
}

// Policy returns the default resolution policy with configured overrides applied.
func (c *Config) Policy() (resolve.Policy, error) {
	overrides, err := resolve.FromStrings(c.Sources)
	if err != nil {
		return nil, fmt.Errorf("sources: %w", err)
	}
	return resolve.DefaultPolicy().With(overrides), nil
}

// Addr returns the API listen address.
func (c APIConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.fairprice/config.yaml (home directory)
//  3. /etc/fairprice/config.yaml (system)
//
// A ./.env file, when present, is loaded into the environment first.
// Environment variables override config file values.
// Format: FAIRPRICE_<SECTION>_<KEY>, e.g., FAIRPRICE_PROVIDER_DART_KEY
func Load() (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".fairprice"))
	v.AddConfigPath("/etc/fairprice")

	// Read config file (not required to exist)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	return unmarshal(v)
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	return unmarshal(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("FAIRPRICE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Override sensitive values from environment
	overrideFromEnv(&cfg)

	if _, err := cfg.Policy(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	// Valuation defaults
	v.SetDefault("valuation.metric", "PER")
	v.SetDefault("valuation.multiple", 10.0)
	v.SetDefault("valuation.safety_margin_pct", 20.0)
	v.SetDefault("valuation.default_multiple", valuation.DefaultHistoricalMultiple)

	// Data defaults
	v.SetDefault("data.dir", "./data")
	v.SetDefault("data.cache_ttl", 300) // 5 minutes
	v.SetDefault("data.concurrency", 4)

	// API defaults
	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.cors_origins", []string{"http://localhost:3000"})
	v.SetDefault("api.rate_limit", 10.0)
	v.SetDefault("api.rate_burst", 20)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// overrideFromEnv explicitly reads sensitive keys from environment variables.
func overrideFromEnv(cfg *Config) {
	if key := os.Getenv("FAIRPRICE_PROVIDER_DART_KEY"); key != "" {
		cfg.Provider.DARTKey = key
	} else if key := os.Getenv("DART_API_KEY"); key != "" {
		cfg.Provider.DARTKey = key
	}
}

// loadDotEnv loads path into the environment without overriding variables
// that are already set. A missing file is not an error.
func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("error loading %s: %w", path, err)
	}
	return nil
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
