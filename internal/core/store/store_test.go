package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tornwatch/tornwatch/internal/config"
)

func TestBuildDSN(t *testing.T) {
	t.Run("URLTakesPrecedence", func(t *testing.T) {
		cfg := config.StoreConfig{URL: "libsql://example.turso.io", Path: "/tmp/ignored.db"}

		dsn, err := buildDSN(cfg)
		require.NoError(t, err)
		require.Equal(t, "libsql://example.turso.io", dsn)
	})

	t.Run("MemoryPath", func(t *testing.T) {
		dsn, err := buildDSN(config.StoreConfig{Path: ":memory:"})
		require.NoError(t, err)
		require.Equal(t, ":memory:", dsn)
	})

	t.Run("PathWithFilePrefix", func(t *testing.T) {
		dsn, err := buildDSN(config.StoreConfig{Path: "file:./tornwatch.db"})
		require.NoError(t, err)
		require.Equal(t, "file:./tornwatch.db", dsn)
	})

	t.Run("BarePathGetsFilePrefix", func(t *testing.T) {
		dir := t.TempDir()
		dsn, err := buildDSN(config.StoreConfig{Path: dir + "/tornwatch.db"})
		require.NoError(t, err)
		require.Equal(t, "file:"+dir+"/tornwatch.db", dsn)
	})

	t.Run("PathMissing", func(t *testing.T) {
		_, err := buildDSN(config.StoreConfig{})
		require.Error(t, err)
	})
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), config.StoreConfig{Driver: "postgres", Path: ":memory:"})
	require.Error(t, err)
}
