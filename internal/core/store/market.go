package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/tornwatch/tornwatch/internal/core"
)

// UpsertMarketWatch creates or updates the thresholds for a watched item.
// last_seen_price is left untouched so an updated threshold does not erase
// the price history.
func (s *Store) UpsertMarketWatch(ctx context.Context, watch core.MarketWatch) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}
	if watch.ItemID <= 0 {
		return errors.New("market watch item id is required")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO market_watch (item_id, buy_threshold, sell_threshold, last_seen_price)
		VALUES (?, ?, ?, NULL)
		ON CONFLICT(item_id) DO UPDATE SET
			buy_threshold = excluded.buy_threshold,
			sell_threshold = excluded.sell_threshold
	`, watch.ItemID, nullFloat(watch.BuyThreshold), nullFloat(watch.SellThreshold))
	if err != nil {
		return fmt.Errorf("store market watch: %w", err)
	}

	return nil
}

// UpdateMarketPrice records the most recent observed price for an item.
func (s *Store) UpdateMarketPrice(ctx context.Context, itemID int64, price float64) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	_, err := s.DB.ExecContext(ctx, `
		UPDATE market_watch SET last_seen_price = ? WHERE item_id = ?
	`, price, itemID)
	if err != nil {
		return fmt.Errorf("update market price: %w", err)
	}

	return nil
}

// ListMarketWatch returns every watched item.
func (s *Store) ListMarketWatch(ctx context.Context) ([]core.MarketWatch, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	rows, err := s.DB.QueryContext(ctx, `
		SELECT item_id, buy_threshold, sell_threshold, last_seen_price
		FROM market_watch
		ORDER BY item_id
	`)
	if err != nil {
		return nil, fmt.Errorf("fetch market watches: %w", err)
	}
	defer rows.Close() // nolint:errcheck // best-effort cleanup on SQL rows

	var watches []core.MarketWatch
	for rows.Next() {
		var (
			watch core.MarketWatch
			buy   sql.NullFloat64
			sell  sql.NullFloat64
			last  sql.NullFloat64
		)
		if err := rows.Scan(&watch.ItemID, &buy, &sell, &last); err != nil {
			return nil, fmt.Errorf("scan market watch row: %w", err)
		}
		watch.BuyThreshold = floatPtr(buy)
		watch.SellThreshold = floatPtr(sell)
		watch.LastSeenPrice = floatPtr(last)
		watches = append(watches, watch)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate market watch rows: %w", err)
	}

	return watches, nil
}

func nullFloat(value *float64) sql.NullFloat64 {
	if value == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *value, Valid: true}
}

func floatPtr(value sql.NullFloat64) *float64 {
	if !value.Valid {
		return nil
	}
	v := value.Float64
	return &v
}
