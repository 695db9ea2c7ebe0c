package cmd

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseWatchSpec(t *testing.T) {
	watch, err := parseWatchSpec("206:800:1200")
	require.NoError(t, err)
	require.Equal(t, int64(206), watch.ItemID)
	require.Equal(t, 800.0, *watch.BuyThreshold)
	require.Equal(t, 1200.0, *watch.SellThreshold)

	watch, err = parseWatchSpec("206:800")
	require.NoError(t, err)
	require.Equal(t, 800.0, *watch.BuyThreshold)
	require.Nil(t, watch.SellThreshold)

	watch, err = parseWatchSpec("206::1200")
	require.NoError(t, err)
	require.Nil(t, watch.BuyThreshold)
	require.Equal(t, 1200.0, *watch.SellThreshold)
}

func TestParseWatchSpecRejectsInvalid(t *testing.T) {
	cases := []string{
		"",
		"abc:800",
		"-5:800",
		"206",
		"206::",
		"206:0",
		"206:-10",
		"206:800:1200:extra",
	}
	for _, spec := range cases {
		_, err := parseWatchSpec(spec)
		require.Error(t, err, "spec %q", spec)
	}
}
