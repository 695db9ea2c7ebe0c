package cmd

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"github.com/tornwatch/tornwatch/internal/config"
	"github.com/tornwatch/tornwatch/internal/core/torn"
)

func TestEnvOverridesReachConfig(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	t.Setenv("TORNWATCH_API_KEY", "env-secret")
	t.Setenv("TORNWATCH_API_USER_ID", "12345")
	t.Setenv("TORNWATCH_API_MAX_REQUESTS_PER_MINUTE", "40")

	initConfig()

	cfg, err := config.FromViper(viper.GetViper())
	require.NoError(t, err)
	require.Equal(t, "env-secret", cfg.API.Key)
	require.Equal(t, "12345", cfg.API.UserID)
	require.Equal(t, 40, cfg.API.MaxRequestsPerMinute)
}

func TestSetDefaultsBaseURL(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	setDefaults()
	require.Equal(t, torn.DefaultBaseURL, viper.GetString("api.base_url"))
}
