package store

import (
	"context"
	"errors"
	"fmt"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS actions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp INTEGER NOT NULL,
		call_id TEXT,
		action_type TEXT NOT NULL,
		payload TEXT,
		result_json TEXT
	);`,
	`CREATE INDEX IF NOT EXISTS idx_actions_timestamp ON actions(timestamp);`,
	`CREATE TABLE IF NOT EXISTS snapshots (
		ts INTEGER PRIMARY KEY,
		json TEXT NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS keys (
		id TEXT PRIMARY KEY,
		key_hash TEXT NOT NULL,
		disabled_at INTEGER
	);`,
	`CREATE TABLE IF NOT EXISTS market_watch (
		item_id INTEGER PRIMARY KEY,
		buy_threshold REAL,
		sell_threshold REAL,
		last_seen_price REAL
	);`,
}

// Migrate ensures the required database tables exist. It is idempotent and
// runs on every startup.
func (s *Store) Migrate(ctx context.Context) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	for _, stmt := range schemaStatements {
		if _, err := s.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("store migration failed: %w", err)
		}
	}

	return nil
}
