package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for binnaculum
type Config struct {
	DefaultCurrency string          `toml:"default_currency"` // home currency of brokers and banks without movements
	Storage         StorageConfig   `toml:"storage"`
	Logging         LoggingConfig   `toml:"logging"`
	Quotes          QuotesConfig    `toml:"quotes"`
	Snapshots       SnapshotsConfig `toml:"snapshots"`
}

// StorageConfig selects the storage driver: "sqlite" or "memory".
type StorageConfig struct {
	Driver string `toml:"driver"`
	Path   string `toml:"path"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "console" or "json"
}

// QuotesConfig configures the latest price source.
// URL contains a {symbol} placeholder, Path is a jsonpath to the price in the response.
type QuotesConfig struct {
	URL      string `toml:"url"`
	Path     string `toml:"path"`
	Timeout  string `toml:"timeout"`
	CacheTTL string `toml:"cache_ttl"`
}

// GetTimeout parses and returns the timeout duration
func (c *QuotesConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// GetCacheTTL parses and returns the cache duration
func (c *QuotesConfig) GetCacheTTL() time.Duration {
	d, err := time.ParseDuration(c.CacheTTL)
	if err != nil {
		return 15 * time.Minute
	}
	return d
}

type SnapshotsConfig struct {
	Workers int `toml:"workers"` // concurrent entity recalculations
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		DefaultCurrency: "USD",
		Storage: StorageConfig{
			Driver: "sqlite",
			Path:   "binnaculum.db",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Quotes: QuotesConfig{
			URL:      "https://www.tradegate.de/refresh.php?isin={symbol}",
			Path:     "$.last",
			Timeout:  "30s",
			CacheTTL: "15m",
		},
		Snapshots: SnapshotsConfig{
			Workers: 4,
		},
	}
}

// LoadConfig loads configuration from files with environment overrides.
// Missing files are skipped. A .env file in the working directory is loaded first.
func LoadConfig(paths ...string) (*Config, error) {
	// a missing .env is not an error.
	_ = godotenv.Load()

	config := NewDefaultConfig()

	// Load and merge each config file in order (later files override earlier)
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if path := os.Getenv("BNC_DB_PATH"); path != "" {
		config.Storage.Path = path
	}
	if level := os.Getenv("BNC_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if format := os.Getenv("BNC_LOG_FORMAT"); format != "" {
		config.Logging.Format = format
	}
	if cur := os.Getenv("BNC_DEFAULT_CURRENCY"); cur != "" {
		config.DefaultCurrency = strings.ToUpper(cur)
	}
	if url := os.Getenv("BNC_QUOTE_URL"); url != "" {
		config.Quotes.URL = url
	}
	if w := os.Getenv("BNC_WORKERS"); w != "" {
		if n, err := strconv.Atoi(w); err == nil {
			config.Snapshots.Workers = n
		}
	}
}

// Validate checks the values that have no usable fallback.
func (c *Config) Validate() error {
	if len(c.DefaultCurrency) != 3 {
		return fmt.Errorf("invalid default currency %q: want a 3 letter ISO code", c.DefaultCurrency)
	}
	switch c.Storage.Driver {
	case "sqlite", "memory":
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.Snapshots.Workers < 1 {
		c.Snapshots.Workers = 1
	}
	return nil
}
