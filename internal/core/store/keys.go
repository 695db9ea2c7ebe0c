package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tornwatch/tornwatch/internal/core"
)

// EnsureCredential registers a credential row if it does not exist yet. Only
// a hash of the secret is stored; disabled_at is preserved across restarts.
func (s *Store) EnsureCredential(ctx context.Context, id, key string) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}

	id = strings.TrimSpace(id)
	if id == "" {
		return errors.New("credential id is required")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO keys (id, key_hash, disabled_at)
		VALUES (?, ?, NULL)
		ON CONFLICT(id) DO UPDATE SET key_hash = excluded.key_hash
	`, id, hashKey(key))
	if err != nil {
		return fmt.Errorf("store credential: %w", err)
	}

	return nil
}

// DisableCredential marks a credential disabled. Once set, disabled_at is
// never cleared.
func (s *Store) DisableCredential(ctx context.Context, id string, at time.Time) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}

	id = strings.TrimSpace(id)
	if id == "" {
		return errors.New("credential id is required")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	_, err := s.DB.ExecContext(ctx, `
		UPDATE keys SET disabled_at = ?
		WHERE id = ? AND disabled_at IS NULL
	`, at.UTC().Unix(), id)
	if err != nil {
		return fmt.Errorf("disable credential: %w", err)
	}

	return nil
}

// CredentialDisabledAt returns when the credential was disabled, or nil when
// it is active or unknown.
func (s *Store) CredentialDisabledAt(ctx context.Context, id string) (*time.Time, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	var disabledAt sql.NullInt64
	row := s.DB.QueryRowContext(ctx, `SELECT disabled_at FROM keys WHERE id = ?`, strings.TrimSpace(id))
	if err := row.Scan(&disabledAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch credential state: %w", err)
	}

	if !disabledAt.Valid {
		return nil, nil
	}
	at := time.Unix(disabledAt.Int64, 0).UTC()
	return &at, nil
}

// ListCredentials returns every known credential with its disabled state.
// Secrets are not recoverable from the store.
func (s *Store) ListCredentials(ctx context.Context) ([]core.Credential, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	rows, err := s.DB.QueryContext(ctx, `SELECT id, disabled_at FROM keys ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("fetch credentials: %w", err)
	}
	defer rows.Close() // nolint:errcheck // best-effort cleanup on SQL rows

	var credentials []core.Credential
	for rows.Next() {
		var (
			cred       core.Credential
			disabledAt sql.NullInt64
		)
		if err := rows.Scan(&cred.ID, &disabledAt); err != nil {
			return nil, fmt.Errorf("scan credential row: %w", err)
		}
		if disabledAt.Valid {
			at := time.Unix(disabledAt.Int64, 0).UTC()
			cred.DisabledAt = &at
		}
		credentials = append(credentials, cred)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate credential rows: %w", err)
	}

	return credentials, nil
}

func hashKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}
