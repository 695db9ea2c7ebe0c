package cmd

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/tornwatch/tornwatch/internal/config"
	"github.com/tornwatch/tornwatch/internal/core/torn"
	"github.com/tornwatch/tornwatch/internal/observability"
)

const appName = "tornwatch"

var (
	cfgFile string
	verbose bool

	// Version info set by main package
	versionInfo struct {
		Version   string
		Commit    string
		BuildDate string
	}
)

// SetVersionInfo is called by main package to set version information
func SetVersionInfo(version, commit, buildDate string) {
	versionInfo.Version = version
	versionInfo.Commit = commit
	versionInfo.BuildDate = buildDate
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   appName,
	Short: "Rate-limited Torn API poller and advisor",
	Long: `tornwatch polls the Torn City API within its rate limits, audits every
call to a local store, and derives read-only training, crime and market
recommendations.

Use the subcommands to perform specific operations.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $XDG_CONFIG_HOME/tornwatch/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (sets log level to debug)")

	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	observability.InitCLILogger(appName, verbose)

	// A .env in the working directory can carry TORNWATCH_API_KEY so the
	// secret stays out of config files and shell history.
	if err := godotenv.Load(); err == nil && verbose {
		observability.CLILogger.Debug("Loaded environment from .env")
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		for _, dir := range configSearchPaths() {
			viper.AddConfigPath(dir)
		}
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("TORNWATCH")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Secrets have no SetDefault entry, so without an explicit binding their
	// env values never reach AllSettings and the decoded config.
	_ = viper.BindEnv("api.key")
	_ = viper.BindEnv("api.user_id")

	if err := viper.ReadInConfig(); err == nil {
		if verbose {
			observability.CLILogger.Debug("Using config file", zap.String("path", viper.ConfigFileUsed()))
		}
	} else {
		// It's OK if config file doesn't exist, we have defaults
		if verbose {
			if _, ok := err.(viper.ConfigFileNotFoundError); ok {
				observability.CLILogger.Debug("No config file found, using defaults and environment variables")
			} else {
				observability.CLILogger.Warn("Error reading config file", zap.Error(err))
			}
		}
	}

	setDefaults()
}

// configSearchPaths lists config file locations in precedence order.
func configSearchPaths() []string {
	paths := []string{"."}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		paths = append(paths, filepath.Join(xdg, appName))
	} else if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", appName))
	}
	return paths
}

// setDefaults sets default configuration values
func setDefaults() {
	// API defaults
	viper.SetDefault("api.base_url", torn.DefaultBaseURL)
	viper.SetDefault("api.max_requests_per_minute", 75)
	viper.SetDefault("api.min_spacing", "1s")
	viper.SetDefault("api.timeout", "15s")
	viper.SetDefault("api.max_attempts", 5)
	viper.SetDefault("api.backoff_base", "500ms")
	viper.SetDefault("api.backoff_cap", "30s")
	viper.SetDefault("api.auth_failure_threshold", 3)

	// Store defaults
	viper.SetDefault("store.driver", "libsql")
	viper.SetDefault("store.path", config.DefaultStorePath())
	viper.SetDefault("store.url", "")

	// Advisor defaults
	viper.SetDefault("advisor.energy_threshold", 90)
	viper.SetDefault("advisor.nerve_threshold", 30)
	viper.SetDefault("advisor.interval", "30s")

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.dir", config.DefaultLogDir())
	viper.SetDefault("logging.max_size_mb", 10)
	viper.SetDefault("logging.max_backups", 5)
	viper.SetDefault("logging.max_age_days", 30)
}
