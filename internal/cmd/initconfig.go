package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/tornwatch/tornwatch/internal/config"
	"github.com/tornwatch/tornwatch/internal/core/torn"
)

var initForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter config file",
	Long: `Writes a commented starter config to the default location. The API key
is deliberately absent; supply it via TORNWATCH_API_KEY or a .env file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := defaultConfigPath()
		if _, err := os.Stat(path); err == nil && !initForce {
			return fmt.Errorf("config already exists at %s (use --force to overwrite)", path)
		}

		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}

		starter := map[string]any{
			"api": map[string]any{
				"base_url":                torn.DefaultBaseURL,
				"user_id":                 "",
				"max_requests_per_minute": 75,
				"min_spacing":             "1s",
				"timeout":                 "15s",
				"max_attempts":            5,
				"backoff_base":            "500ms",
				"backoff_cap":             "30s",
				"auth_failure_threshold":  3,
			},
			"store": map[string]any{
				"driver": "libsql",
				"path":   config.DefaultStorePath(),
			},
			"advisor": map[string]any{
				"energy_threshold": 90,
				"nerve_threshold":  30,
				"interval":         (30 * time.Second).String(),
			},
			"logging": map[string]any{
				"level":        "info",
				"dir":          config.DefaultLogDir(),
				"max_size_mb":  10,
				"max_backups":  5,
				"max_age_days": 30,
			},
		}

		data, err := yaml.Marshal(starter)
		if err != nil {
			return fmt.Errorf("encode starter config: %w", err)
		}
		if err := os.WriteFile(path, data, 0o600); err != nil {
			return fmt.Errorf("write config: %w", err)
		}

		fmt.Printf("Wrote %s\n", path)
		return nil
	},
}

func defaultConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appName, "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(home, ".config", appName, "config.yaml")
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configInitCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing config file")
}
