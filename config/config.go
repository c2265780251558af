// Package config loads the service configuration from YAML with
// environment overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Config represents the top-level cashflow.yaml configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Log      LogConfig      `yaml:"log"`
	SMTP     SMTPConfig     `yaml:"smtp"`
	Jobs     JobsConfig     `yaml:"jobs"`
	Forecast ForecastConfig `yaml:"forecast"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// DatabaseConfig selects the store. Driver is "sqlite3" or "postgres".
type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// LogConfig controls logrus output.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "text" or "json"
}

// SMTPConfig is where digests and alerts are sent from. An empty Host
// disables delivery (messages are logged instead).
type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

// JobsConfig schedules the batch jobs. Schedules use cron syntax.
type JobsConfig struct {
	Enabled          bool   `yaml:"enabled"`
	AlertSchedule    string `yaml:"alert_schedule"`
	DigestSchedule   string `yaml:"digest_schedule"`
	Concurrency      int    `yaml:"concurrency"`
	AlertHorizonDays int    `yaml:"alert_horizon_days"`
}

// ForecastConfig holds defaults applied to profiles and the tier policy.
type ForecastConfig struct {
	DefaultTimezone     string `yaml:"default_timezone"`
	DefaultSafetyBuffer string `yaml:"default_safety_buffer"`
	DefaultTier         string `yaml:"default_tier"`
	Tiers               Tiers  `yaml:"tiers"`
}

// Tiers maps a subscription tier to its maximum horizon in days.
type Tiers map[string]int

// HorizonFor clamps requested to the tier's maximum. A requested value of
// zero or less asks for the maximum. Unknown tiers get the "free" limit.
func (t Tiers) HorizonFor(tier string, requested int) int {
	limit, ok := t[strings.ToLower(tier)]
	if !ok {
		limit = t["free"]
	}
	if limit <= 0 {
		limit = DefaultFreeHorizon
	}
	if requested <= 0 || requested > limit {
		return limit
	}
	return requested
}

const (
	DefaultFreeHorizon = 60
	DefaultProHorizon  = 365
)

// SafetyBuffer parses DefaultSafetyBuffer, zero if unset or invalid.
func (f ForecastConfig) SafetyBuffer() decimal.Decimal {
	d, err := decimal.NewFromString(f.DefaultSafetyBuffer)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// Default returns a Config that works out of the box against a local
// SQLite file.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           8080,
			AllowedOrigins: []string{"http://localhost:5173", "http://localhost:8080"},
		},
		Database: DatabaseConfig{
			Driver: "sqlite3",
			DSN:    "cashflow.db",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		SMTP: SMTPConfig{
			Port: 587,
			From: "Cash Flow Forecaster <alerts@cashflowforecaster.io>",
		},
		Jobs: JobsConfig{
			Enabled:          true,
			AlertSchedule:    "0 7 * * *",
			DigestSchedule:   "0 8 * * MON",
			Concurrency:      5,
			AlertHorizonDays: 7,
		},
		Forecast: ForecastConfig{
			DefaultTimezone:     "UTC",
			DefaultSafetyBuffer: "0",
			DefaultTier:         "free",
			Tiers: Tiers{
				"free": DefaultFreeHorizon,
				"pro":  DefaultProHorizon,
			},
		},
	}
}

// Load reads a YAML file over the defaults, then applies environment
// overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	c.Database.Driver = getEnv("CASHFLOW_DB_DRIVER", c.Database.Driver)
	c.Database.DSN = getEnv("CASHFLOW_DB_DSN", c.Database.DSN)
	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("LOG_FORMAT", c.Log.Format)
	c.SMTP.Host = getEnv("SMTP_HOST", c.SMTP.Host)
	c.SMTP.Username = getEnv("SMTP_USERNAME", c.SMTP.Username)
	c.SMTP.Password = getEnv("SMTP_PASSWORD", c.SMTP.Password)
	c.SMTP.From = getEnv("SMTP_FROM", c.SMTP.From)

	for key, dst := range map[string]*int{
		"PORT":             &c.Server.Port,
		"SMTP_PORT":        &c.SMTP.Port,
		"CASHFLOW_WORKERS": &c.Jobs.Concurrency,
	} {
		if v, ok := os.LookupEnv(key); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = n
		}
	}
	return nil
}

// Validate rejects configurations the service can't run with.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	switch c.Database.Driver {
	case "sqlite3", "postgres":
	default:
		return fmt.Errorf("database.driver %q: want sqlite3 or postgres", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required")
	}
	if c.Jobs.Concurrency <= 0 {
		return fmt.Errorf("jobs.concurrency must be positive")
	}
	if c.Jobs.AlertHorizonDays <= 0 {
		return fmt.Errorf("jobs.alert_horizon_days must be positive")
	}
	if _, err := decimal.NewFromString(c.Forecast.DefaultSafetyBuffer); err != nil {
		return fmt.Errorf("forecast.default_safety_buffer: %w", err)
	}
	for tier, days := range c.Forecast.Tiers {
		if days <= 0 {
			return fmt.Errorf("forecast.tiers.%s must be positive", tier)
		}
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}
