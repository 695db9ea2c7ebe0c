//go:build cgo

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tornwatch/tornwatch/internal/config"
	"github.com/tornwatch/tornwatch/internal/core"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	ctx := context.Background()
	store, err := Open(ctx, config.StoreConfig{Driver: "libsql", Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.Migrate(ctx))
	// Migrations are idempotent.
	require.NoError(t, store.Migrate(ctx))
	return store
}

func TestRecordCallOutcome(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	ts := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	rec := &core.CallRecord{
		CallID:     "call-1",
		Timestamp:  ts,
		ActionType: "api_request",
		Payload:    map[string]any{"section": "user", "path": "/user/12345"},
		Result: core.CallResult{
			Status:     core.CallSucceeded,
			StatusCode: 200,
			Attempts:   2,
			LatencyMS:  120,
		},
	}
	require.NoError(t, store.RecordCallOutcome(ctx, rec, nil))

	records, err := store.RecentActions(ctx, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "call-1", records[0].CallID)
	require.Equal(t, ts, records[0].Timestamp)
	require.Equal(t, core.CallSucceeded, records[0].Result.Status)
	require.Equal(t, 2, records[0].Result.Attempts)
}

func TestRecordCallOutcomeWithDisable(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	require.NoError(t, store.EnsureCredential(ctx, "primary", "secret"))

	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	rec := &core.CallRecord{
		CallID:     "call-2",
		Timestamp:  at,
		ActionType: "api_request",
		Result:     core.CallResult{Status: core.CallFailed, StatusCode: 200, Attempts: 1, Detail: "api error 2: Incorrect key"},
	}
	disable := &core.CredentialDisable{CredentialID: "primary", At: at}
	require.NoError(t, store.RecordCallOutcome(ctx, rec, disable))

	disabledAt, err := store.CredentialDisabledAt(ctx, "primary")
	require.NoError(t, err)
	require.NotNil(t, disabledAt)
	require.Equal(t, at, *disabledAt)

	// The first disable timestamp wins.
	later := &core.CredentialDisable{CredentialID: "primary", At: at.Add(time.Hour)}
	require.NoError(t, store.RecordCallOutcome(ctx, rec, later))
	disabledAt, err = store.CredentialDisabledAt(ctx, "primary")
	require.NoError(t, err)
	require.Equal(t, at, *disabledAt)
}

func TestWithTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	boom := errors.New("boom")
	err := store.withTx(ctx, func(tx *sql.Tx) error {
		_, execErr := tx.ExecContext(ctx, `
			INSERT INTO actions (timestamp, call_id, action_type, payload, result_json)
			VALUES (0, 'rollback-me', 'api_request', '', '')
		`)
		require.NoError(t, execErr)
		return boom
	})
	require.ErrorIs(t, err, boom)

	records, err := store.RecentActions(ctx, 10)
	require.NoError(t, err)
	require.Empty(t, records)
}

func TestCredentialLifecycle(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	require.NoError(t, store.EnsureCredential(ctx, "primary", "secret"))

	disabledAt, err := store.CredentialDisabledAt(ctx, "primary")
	require.NoError(t, err)
	require.Nil(t, disabledAt)

	at := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	require.NoError(t, store.DisableCredential(ctx, "primary", at))

	disabledAt, err = store.CredentialDisabledAt(ctx, "primary")
	require.NoError(t, err)
	require.Equal(t, at, *disabledAt)

	// Re-registering the same key does not clear the disable.
	require.NoError(t, store.EnsureCredential(ctx, "primary", "secret"))
	disabledAt, err = store.CredentialDisabledAt(ctx, "primary")
	require.NoError(t, err)
	require.NotNil(t, disabledAt)

	creds, err := store.ListCredentials(ctx)
	require.NoError(t, err)
	require.Len(t, creds, 1)
	require.True(t, creds[0].Disabled())
	require.Empty(t, creds[0].Key)
}

func TestCredentialStoresHashNotKey(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	require.NoError(t, store.EnsureCredential(ctx, "primary", "super-secret-key"))

	var hash string
	require.NoError(t, store.DB.QueryRowContext(ctx, `SELECT key_hash FROM keys WHERE id = 'primary'`).Scan(&hash))
	require.NotEmpty(t, hash)
	require.NotContains(t, hash, "super-secret-key")
	require.Len(t, hash, 64)
}

func TestSnapshots(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	last, err := store.GetLastSnapshot(ctx)
	require.NoError(t, err)
	require.Nil(t, last)

	t1 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(30 * time.Second)
	require.NoError(t, store.RecordSnapshot(ctx, t1, json.RawMessage(`{"cycle":1}`)))
	require.NoError(t, store.RecordSnapshot(ctx, t2, json.RawMessage(`{"cycle":2}`)))

	last, err = store.GetLastSnapshot(ctx)
	require.NoError(t, err)
	require.NotNil(t, last)
	require.Equal(t, t2, last.TS)
	require.JSONEq(t, `{"cycle":2}`, string(last.Data))
}

func TestMarketWatchLifecycle(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	buy := 800.0
	require.NoError(t, store.UpsertMarketWatch(ctx, core.MarketWatch{ItemID: 206, BuyThreshold: &buy}))
	require.NoError(t, store.UpdateMarketPrice(ctx, 206, 950))

	// Re-upserting thresholds keeps the last observed price.
	sell := 1200.0
	require.NoError(t, store.UpsertMarketWatch(ctx, core.MarketWatch{ItemID: 206, BuyThreshold: &buy, SellThreshold: &sell}))

	watches, err := store.ListMarketWatch(ctx)
	require.NoError(t, err)
	require.Len(t, watches, 1)
	require.Equal(t, int64(206), watches[0].ItemID)
	require.Equal(t, buy, *watches[0].BuyThreshold)
	require.Equal(t, sell, *watches[0].SellThreshold)
	require.NotNil(t, watches[0].LastSeenPrice)
	require.Equal(t, 950.0, *watches[0].LastSeenPrice)
}

func TestLogAction(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, store.LogAction(ctx, at, "plan_train",
		map[string]any{"slot": 1, "points": 100},
		map[string]any{"planned": true}))

	records, err := store.RecentActions(ctx, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "plan_train", records[0].ActionType)
	require.Equal(t, at, records[0].Timestamp)
}
