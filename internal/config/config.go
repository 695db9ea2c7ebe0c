package config

import (
	"errors"
	"fmt"
	"time"
)

// Config represents the complete application configuration, loaded once at
// startup and passed into constructors. Nothing reads viper after this.
type Config struct {
	API     APIConfig     `mapstructure:"api"`
	Store   StoreConfig   `mapstructure:"store"`
	Advisor AdvisorConfig `mapstructure:"advisor"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// APIConfig configures the Torn API client and its protection layers.
type APIConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Key     string `mapstructure:"key"`
	UserID  string `mapstructure:"user_id"`

	// Rate budget: capacity equals the per-minute rate, no extra burst.
	MaxRequestsPerMinute int           `mapstructure:"max_requests_per_minute"`
	MinSpacing           time.Duration `mapstructure:"min_spacing"`

	Timeout     time.Duration `mapstructure:"timeout"`
	MaxAttempts int           `mapstructure:"max_attempts"`
	BackoffBase time.Duration `mapstructure:"backoff_base"`
	BackoffCap  time.Duration `mapstructure:"backoff_cap"`

	// AuthFailureThreshold is the number of consecutive auth failures after
	// which a credential is disabled.
	AuthFailureThreshold int `mapstructure:"auth_failure_threshold"`
}

// StoreConfig contains database configuration for the local libsql store.
type StoreConfig struct {
	Driver string `mapstructure:"driver"`
	Path   string `mapstructure:"path"`
	URL    string `mapstructure:"url"`
}

// AdvisorConfig contains the decision thresholds and polling cadence.
type AdvisorConfig struct {
	EnergyThreshold int           `mapstructure:"energy_threshold"`
	NerveThreshold  int           `mapstructure:"nerve_threshold"`
	Interval        time.Duration `mapstructure:"interval"`
}

// LoggingConfig contains console log level and rotating audit log settings.
type LoggingConfig struct {
	// Level controls the minimum log level.
	// Valid values: debug, info, warn, error
	Level string `mapstructure:"level"`

	Dir        string `mapstructure:"dir"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

const (
	maxRequestsPerMinuteCeiling = 100
	defaultMaxAttempts          = 5
)

// Validate normalizes and bounds-checks the configuration. It is called once
// after decoding; constructors can rely on the invariants it establishes.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.API.BaseURL == "" {
		return errors.New("api.base_url is required")
	}

	if c.API.MaxRequestsPerMinute < 1 {
		c.API.MaxRequestsPerMinute = 1
	}
	if c.API.MaxRequestsPerMinute > maxRequestsPerMinuteCeiling {
		c.API.MaxRequestsPerMinute = maxRequestsPerMinuteCeiling
	}
	if c.API.MinSpacing < 0 {
		c.API.MinSpacing = 0
	}
	if c.API.MaxAttempts < 1 {
		c.API.MaxAttempts = defaultMaxAttempts
	}
	if c.API.BackoffBase <= 0 {
		c.API.BackoffBase = time.Second
	}
	if c.API.BackoffCap < c.API.BackoffBase {
		c.API.BackoffCap = c.API.BackoffBase
	}
	if c.API.AuthFailureThreshold < 1 {
		c.API.AuthFailureThreshold = 3
	}
	if c.API.Timeout <= 0 {
		c.API.Timeout = 15 * time.Second
	}

	if c.Advisor.EnergyThreshold < 0 || c.Advisor.NerveThreshold < 0 {
		return fmt.Errorf("advisor thresholds must be non-negative (energy=%d nerve=%d)",
			c.Advisor.EnergyThreshold, c.Advisor.NerveThreshold)
	}
	if c.Advisor.Interval <= 0 {
		c.Advisor.Interval = 30 * time.Second
	}

	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unsupported logging level: %s", c.Logging.Level)
	}

	return nil
}
