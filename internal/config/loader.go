// Package config provides centralized configuration management for tornwatch.
// Values come from three layers: built-in defaults, an optional YAML config
// file, and TORNWATCH_* environment variables. The merged result is decoded
// once into a typed Config at startup.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// FromViper decodes the merged viper state into a validated Config.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return nil, fmt.Errorf("create config decoder: %w", err)
	}

	if err := decoder.Decode(v.AllSettings()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.Store.URL == "" && cfg.Store.Path == "" {
		cfg.Store.Path = DefaultStorePath()
	}
	if cfg.Logging.Dir == "" {
		cfg.Logging.Dir = DefaultLogDir()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// DefaultStorePath returns the default location of the database file.
func DefaultStorePath() string {
	return filepath.Join(dataDir(), "tornwatch.db")
}

// DefaultLogDir returns the default directory for rotating log files.
func DefaultLogDir() string {
	return filepath.Join(dataDir(), "logs")
}

func dataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "tornwatch")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".local", "share", "tornwatch")
}
