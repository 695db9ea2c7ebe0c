package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/tornwatch/tornwatch/internal/core"
)

// RecordSnapshot stores one captured domain state, keyed by timestamp.
func (s *Store) RecordSnapshot(ctx context.Context, ts time.Time, data json.RawMessage) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}
	if len(data) == 0 {
		return errors.New("snapshot data is required")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO snapshots (ts, json)
		VALUES (?, ?)
		ON CONFLICT(ts) DO UPDATE SET json = excluded.json
	`, ts.UTC().UnixNano(), string(data))
	if err != nil {
		return fmt.Errorf("store snapshot: %w", err)
	}

	return nil
}

// GetLastSnapshot returns the snapshot with the highest timestamp, or nil
// when the store has none.
func (s *Store) GetLastSnapshot(ctx context.Context) (*core.Snapshot, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	var (
		ts   int64
		blob string
	)
	row := s.DB.QueryRowContext(ctx, `SELECT ts, json FROM snapshots ORDER BY ts DESC LIMIT 1`)
	if err := row.Scan(&ts, &blob); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch last snapshot: %w", err)
	}

	return &core.Snapshot{
		TS:   time.Unix(0, ts).UTC(),
		Data: json.RawMessage(blob),
	}, nil
}
