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

// RecordCallOutcome persists the terminal outcome of one call attempt
// sequence. When disable is non-nil the credential's disabled_at is set in
// the same transaction, so a crash can never leave one applied without the
// other.
func (s *Store) RecordCallOutcome(ctx context.Context, rec *core.CallRecord, disable *core.CredentialDisable) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}
	if rec == nil {
		return errors.New("call record is required")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	payload, err := marshalField(rec.Payload)
	if err != nil {
		return fmt.Errorf("marshal call payload: %w", err)
	}
	result, err := json.Marshal(rec.Result)
	if err != nil {
		return fmt.Errorf("marshal call result: %w", err)
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO actions (timestamp, call_id, action_type, payload, result_json)
			VALUES (?, ?, ?, ?, ?)
		`, rec.Timestamp.UTC().Unix(), rec.CallID, rec.ActionType, payload, string(result))
		if err != nil {
			return fmt.Errorf("store call record: %w", err)
		}

		if disable != nil {
			_, err := tx.ExecContext(ctx, `
				UPDATE keys SET disabled_at = ?
				WHERE id = ? AND disabled_at IS NULL
			`, disable.At.UTC().Unix(), disable.CredentialID)
			if err != nil {
				return fmt.Errorf("disable credential: %w", err)
			}
		}

		return nil
	})
}

// LogAction appends a non-call audit event such as a derived recommendation
// or market alert.
func (s *Store) LogAction(ctx context.Context, at time.Time, actionType string, payload, result map[string]any) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}
	if actionType == "" {
		return errors.New("action type is required")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	payloadJSON, err := marshalField(payload)
	if err != nil {
		return fmt.Errorf("marshal action payload: %w", err)
	}
	resultJSON, err := marshalField(result)
	if err != nil {
		return fmt.Errorf("marshal action result: %w", err)
	}

	_, err = s.DB.ExecContext(ctx, `
		INSERT INTO actions (timestamp, call_id, action_type, payload, result_json)
		VALUES (?, '', ?, ?, ?)
	`, at.UTC().Unix(), actionType, payloadJSON, resultJSON)
	if err != nil {
		return fmt.Errorf("store action: %w", err)
	}

	return nil
}

// RecentActions returns the latest audit rows, newest first.
func (s *Store) RecentActions(ctx context.Context, limit int) ([]core.CallRecord, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}
	if limit < 1 {
		limit = 10
	}

	if ctx == nil {
		ctx = context.Background()
	}

	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, timestamp, call_id, action_type, result_json
		FROM actions
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch recent actions: %w", err)
	}
	defer rows.Close() // nolint:errcheck // best-effort cleanup on SQL rows

	var records []core.CallRecord
	for rows.Next() {
		var (
			rec        core.CallRecord
			ts         int64
			resultJSON sql.NullString
		)
		if err := rows.Scan(&rec.ID, &ts, &rec.CallID, &rec.ActionType, &resultJSON); err != nil {
			return nil, fmt.Errorf("scan action row: %w", err)
		}
		rec.Timestamp = time.Unix(ts, 0).UTC()
		if resultJSON.Valid && resultJSON.String != "" {
			// Non-call actions carry free-form result maps; ignore those.
			_ = json.Unmarshal([]byte(resultJSON.String), &rec.Result)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate action rows: %w", err)
	}

	return records, nil
}

func marshalField(value map[string]any) (string, error) {
	if len(value) == 0 {
		return "", nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
