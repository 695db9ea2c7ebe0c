// Package advisor derives read-only recommendations from polled Torn state:
// train when energy is high, pick the best crime by cash-per-nerve, and flag
// watched market items crossing their thresholds. It never touches the
// network or the audit trail directly; both go through the engine client and
// the store.
package advisor

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/tornwatch/tornwatch/internal/core"
	"github.com/tornwatch/tornwatch/internal/core/torn"
)

// Default decision thresholds, matching the bars the game refills daily.
const (
	DefaultEnergyThreshold = 90
	DefaultNerveThreshold  = 30

	maxTrainPoints = 150

	simulatedMoneyOnHand = 1_000_000
)

// Caller issues one logical read-only API call.
type Caller interface {
	Call(ctx context.Context, req torn.Request) (json.RawMessage, error)
}

// Store is the slice of the audit store the advisor writes through.
type Store interface {
	RecordSnapshot(ctx context.Context, ts time.Time, data json.RawMessage) error
	LogAction(ctx context.Context, at time.Time, actionType string, payload, result map[string]any) error
	ListMarketWatch(ctx context.Context) ([]core.MarketWatch, error)
	UpdateMarketPrice(ctx context.Context, itemID int64, price float64) error
}

// Advisor computes recommendations from fetched snapshots.
type Advisor struct {
	Client Caller
	Store  Store
	UserID string

	EnergyThreshold int
	NerveThreshold  int

	// SimulateMoney overlays a synthetic cash balance onto snapshots for
	// offline what-if runs.
	SimulateMoney bool
	// DryRun is recorded on every training plan; plans are never sent to the
	// game either way.
	DryRun bool

	Log   *zap.Logger
	Clock func() time.Time
}

// DecideAndRecommend fetches bars and cooldowns, derives recommendations,
// and captures one snapshot for the cycle.
func (a *Advisor) DecideAndRecommend(ctx context.Context) ([]core.Recommendation, error) {
	userRaw, err := a.Client.Call(ctx, torn.User(a.UserID))
	if err != nil {
		return nil, err
	}
	cooldownsRaw, err := a.Client.Call(ctx, torn.Cooldowns(a.UserID))
	if err != nil {
		return nil, err
	}

	var user torn.UserProfile
	if err := json.Unmarshal(userRaw, &user); err != nil {
		return nil, fmt.Errorf("decode user payload: %w", err)
	}
	var cooldowns torn.CooldownSet
	if err := json.Unmarshal(cooldownsRaw, &cooldowns); err != nil {
		return nil, fmt.Errorf("decode cooldowns payload: %w", err)
	}

	energy := user.Bars.Energy.Current
	nerve := user.Bars.Nerve.Current

	var recs []core.Recommendation

	if energy >= a.energyThreshold() {
		points := energy
		if points > maxTrainPoints {
			points = maxTrainPoints
		}
		rec := core.Recommendation{
			Type:    core.RecommendGym,
			Message: fmt.Sprintf("Energy %d >= %d: train at gym slot 1", energy, a.energyThreshold()),
			Slot:    1,
			Points:  points,
		}
		recs = append(recs, rec)

		plan := map[string]any{"action": "train", "slot": rec.Slot, "points": rec.Points, "dry_run": a.DryRun}
		if err := a.Store.LogAction(ctx, a.now(), "plan_train", plan, map[string]any{"planned": true}); err != nil {
			return nil, fmt.Errorf("record training plan: %w", err)
		}
	}

	if nerve >= a.nerveThreshold() && cooldowns.CrimesAllowed() {
		crimesRaw, err := a.Client.Call(ctx, torn.CrimeCatalog())
		if err != nil {
			return nil, err
		}
		var catalog torn.CrimeCatalogPayload
		if err := json.Unmarshal(crimesRaw, &catalog); err != nil {
			return nil, fmt.Errorf("decode crime catalog: %w", err)
		}
		if best := bestCrime(catalog); best != nil {
			recs = append(recs, core.Recommendation{
				Type: core.RecommendCrime,
				Message: fmt.Sprintf("Nerve %d >= %d: best crime %s (%.2f cash/nerve)",
					nerve, a.nerveThreshold(), best.Name, best.CashPerNerve),
				Crime: best,
			})
		}
	}

	snapshot := map[string]any{
		"user":            json.RawMessage(userRaw),
		"cooldowns":       json.RawMessage(cooldownsRaw),
		"recommendations": recs,
	}
	if a.SimulateMoney {
		snapshot["simulated_money_onhand"] = simulatedMoneyOnHand
	}
	data, err := json.Marshal(snapshot)
	if err != nil {
		return recs, fmt.Errorf("encode snapshot: %w", err)
	}
	if err := a.Store.RecordSnapshot(ctx, a.now(), data); err != nil {
		return recs, fmt.Errorf("record snapshot: %w", err)
	}

	return recs, nil
}

// bestCrime ranks the catalog by expected cash per nerve. Ties break on the
// lower crime id so results are stable across map iteration order.
func bestCrime(catalog torn.CrimeCatalogPayload) *core.CrimePick {
	var best *core.CrimePick
	for id, crime := range catalog.Crimes {
		nerve := crime.NerveCost()
		if nerve <= 0 {
			continue
		}

		name := crime.Name
		if name == "" {
			name = "crime_" + id
		}
		pick := core.CrimePick{
			ID:           id,
			Name:         name,
			Nerve:        nerve,
			CashPerNerve: crime.ExpectedCash() / float64(nerve),
		}

		if best == nil || pick.CashPerNerve > best.CashPerNerve ||
			(pick.CashPerNerve == best.CashPerNerve && pick.ID < best.ID) {
			best = &pick
		}
	}
	return best
}

func (a *Advisor) energyThreshold() int {
	if a.EnergyThreshold > 0 {
		return a.EnergyThreshold
	}
	return DefaultEnergyThreshold
}

func (a *Advisor) nerveThreshold() int {
	if a.NerveThreshold > 0 {
		return a.NerveThreshold
	}
	return DefaultNerveThreshold
}

func (a *Advisor) now() time.Time {
	if a.Clock != nil {
		return a.Clock()
	}
	return time.Now().UTC()
}

func (a *Advisor) logger() *zap.Logger {
	if a.Log != nil {
		return a.Log
	}
	return zap.NewNop()
}
