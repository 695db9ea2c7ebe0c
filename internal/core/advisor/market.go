package advisor

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/tornwatch/tornwatch/internal/core"
	"github.com/tornwatch/tornwatch/internal/core/torn"
)

// WatchMarket fetches the lowest bazaar listing for every watched item,
// records the observed price, and raises alerts for crossed thresholds. A
// fetch failure on one item skips it; the rest of the list still runs.
func (a *Advisor) WatchMarket(ctx context.Context) ([]core.MarketAlert, error) {
	watches, err := a.Store.ListMarketWatch(ctx)
	if err != nil {
		return nil, fmt.Errorf("list market watches: %w", err)
	}

	var alerts []core.MarketAlert
	for _, w := range watches {
		if err := ctx.Err(); err != nil {
			return alerts, err
		}

		raw, err := a.Client.Call(ctx, torn.Market(w.ItemID))
		if err != nil {
			a.logger().Warn("market fetch failed", zap.Int64("item_id", w.ItemID), zap.Error(err))
			continue
		}
		var payload torn.MarketPayload
		if err := json.Unmarshal(raw, &payload); err != nil {
			a.logger().Warn("market payload malformed", zap.Int64("item_id", w.ItemID), zap.Error(err))
			continue
		}
		price, ok := payload.LowestPrice()
		if !ok {
			continue
		}

		if err := a.Store.UpdateMarketPrice(ctx, w.ItemID, price); err != nil {
			return alerts, fmt.Errorf("update market price: %w", err)
		}

		if w.BuyThreshold != nil && price <= *w.BuyThreshold {
			alerts = append(alerts, core.MarketAlert{
				Kind:      core.AlertBuy,
				ItemID:    w.ItemID,
				Price:     price,
				Threshold: *w.BuyThreshold,
				Message:   fmt.Sprintf("item %d at %.0f, at or below buy threshold %.0f", w.ItemID, price, *w.BuyThreshold),
			})
		}
		if w.SellThreshold != nil && price >= *w.SellThreshold {
			alerts = append(alerts, core.MarketAlert{
				Kind:      core.AlertSell,
				ItemID:    w.ItemID,
				Price:     price,
				Threshold: *w.SellThreshold,
				Message:   fmt.Sprintf("item %d at %.0f, at or above sell threshold %.0f", w.ItemID, price, *w.SellThreshold),
			})
		}
	}

	for _, alert := range alerts {
		payload := map[string]any{
			"kind":      string(alert.Kind),
			"item_id":   alert.ItemID,
			"price":     alert.Price,
			"threshold": alert.Threshold,
			"message":   alert.Message,
		}
		if err := a.Store.LogAction(ctx, a.now(), "market_alert", payload, map[string]any{"notified": true}); err != nil {
			return alerts, fmt.Errorf("record market alert: %w", err)
		}
	}

	return alerts, nil
}
