// Package config loads and validates crawler configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/crawlkit/crawlkit/internal/crawler"
)

// Config captures all configuration knobs loaded via Viper.
type Config struct {
	Crawler CrawlerConfig `mapstructure:"crawler"`
	HTTP    HTTPConfig    `mapstructure:"http"`
	DB      DBConfig      `mapstructure:"db"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// CrawlerConfig governs the crawl loop.
type CrawlerConfig struct {
	StartURL     string `mapstructure:"start_url"`
	MaxPages     int    `mapstructure:"max_pages"`
	MaxWorkers   int    `mapstructure:"max_workers"`
	DelaySeconds int    `mapstructure:"delay_seconds"`
	UserAgent    string `mapstructure:"user_agent"`
}

// HTTPConfig configures the HTTP client.
type HTTPConfig struct {
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

// DBConfig controls access to the result store. A postgres:// DSN
// selects the pgx store; anything else is treated as a SQLite file path.
type DBConfig struct {
	DSN string `mapstructure:"dsn"`
}

// MetricsConfig toggles the optional /metrics listener.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a validated Config from disk/environment.
func Load(path string) (Config, error) {
	cfg, err := Read(path)
	if err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Read builds a Config from disk/environment without validating it.
// Callers layering flag overrides on top validate afterwards.
func Read(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("CRAWLKIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("crawler.max_pages", 10)
	v.SetDefault("crawler.max_workers", 5)
	v.SetDefault("crawler.delay_seconds", 1)
	v.SetDefault("crawler.user_agent", "crawlkit/1.0 (+https://github.com/crawlkit/crawlkit)")
	v.SetDefault("http.timeout_seconds", 15)
	v.SetDefault("db.dsn", "crawler.db")
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.port", 9090)
	v.SetDefault("logging.development", true)
}

// Validate enforces required values. Failures here are configuration
// errors: they abort startup before any fetch begins.
func (c Config) Validate() error {
	if c.Crawler.StartURL == "" {
		return fmt.Errorf("crawler.start_url is required")
	}
	if _, err := crawler.NormalizeURL(c.Crawler.StartURL); err != nil {
		return fmt.Errorf("crawler.start_url is invalid: %w", err)
	}
	if c.Crawler.MaxPages <= 0 {
		return fmt.Errorf("crawler.max_pages must be > 0")
	}
	if c.Crawler.MaxWorkers <= 0 {
		return fmt.Errorf("crawler.max_workers must be > 0")
	}
	if c.Crawler.DelaySeconds < 0 {
		return fmt.Errorf("crawler.delay_seconds must be >= 0")
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	if c.DB.DSN == "" {
		return fmt.Errorf("db.dsn is required")
	}
	if c.Metrics.Enabled && c.Metrics.Port <= 0 {
		return fmt.Errorf("metrics.port must be > 0 when metrics are enabled")
	}
	return nil
}

// Delay returns the inter-batch pacing delay.
func (c Config) Delay() time.Duration {
	return time.Duration(c.Crawler.DelaySeconds) * time.Second
}

// HTTPTimeout returns the per-fetch timeout.
func (c Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

// UsesPostgres reports whether the DSN selects the Postgres store.
func (c Config) UsesPostgres() bool {
	return strings.HasPrefix(c.DB.DSN, "postgres://") || strings.HasPrefix(c.DB.DSN, "postgresql://")
}
