package advisor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tornwatch/tornwatch/internal/core"
	"github.com/tornwatch/tornwatch/internal/core/torn"
)

// fakeCaller serves canned payloads keyed by path and selections.
type fakeCaller struct {
	payloads map[string]string
	errs     map[string]error
	calls    []torn.Request
}

func (f *fakeCaller) Call(ctx context.Context, req torn.Request) (json.RawMessage, error) {
	f.calls = append(f.calls, req)
	key := req.Path() + "?" + req.Selections
	if err, ok := f.errs[key]; ok {
		return nil, err
	}
	payload, ok := f.payloads[key]
	if !ok {
		return nil, fmt.Errorf("no canned payload for %s", key)
	}
	return json.RawMessage(payload), nil
}

type fakeStore struct {
	snapshots []core.Snapshot
	actions   []string
	watches   []core.MarketWatch
	prices    map[int64]float64

	snapshotErr error
	actionErr   error
}

func (f *fakeStore) RecordSnapshot(ctx context.Context, ts time.Time, data json.RawMessage) error {
	if f.snapshotErr != nil {
		return f.snapshotErr
	}
	f.snapshots = append(f.snapshots, core.Snapshot{TS: ts, Data: data})
	return nil
}

func (f *fakeStore) LogAction(ctx context.Context, at time.Time, actionType string, payload, result map[string]any) error {
	if f.actionErr != nil {
		return f.actionErr
	}
	f.actions = append(f.actions, actionType)
	return nil
}

func (f *fakeStore) ListMarketWatch(ctx context.Context) ([]core.MarketWatch, error) {
	return f.watches, nil
}

func (f *fakeStore) UpdateMarketPrice(ctx context.Context, itemID int64, price float64) error {
	if f.prices == nil {
		f.prices = make(map[int64]float64)
	}
	f.prices[itemID] = price
	return nil
}

func userPayload(energy, nerve int) string {
	return fmt.Sprintf(`{"bars":{"energy":{"current":%d,"maximum":150},"nerve":{"current":%d,"maximum":75}}}`, energy, nerve)
}

func cooldownsPayload(crimes int) string {
	return fmt.Sprintf(`{"cooldowns":{"crimes":%d}}`, crimes)
}

func newTestAdvisor(caller *fakeCaller, store *fakeStore) *Advisor {
	return &Advisor{
		Client: caller,
		Store:  store,
		UserID: "12345",
		Clock:  func() time.Time { return time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC) },
	}
}

func TestDecideRecommendsGym(t *testing.T) {
	caller := &fakeCaller{payloads: map[string]string{
		"/user/12345?bars,profile": userPayload(120, 5),
		"/user/12345?cooldowns":    cooldownsPayload(0),
	}}
	store := &fakeStore{}

	recs, err := newTestAdvisor(caller, store).DecideAndRecommend(context.Background())
	require.NoError(t, err)
	require.Len(t, recs, 1)
	require.Equal(t, core.RecommendGym, recs[0].Type)
	require.Equal(t, 1, recs[0].Slot)
	require.Equal(t, 120, recs[0].Points)

	require.Equal(t, []string{"plan_train"}, store.actions)
	require.Len(t, store.snapshots, 1)
}

func TestDecideCapsTrainingPoints(t *testing.T) {
	caller := &fakeCaller{payloads: map[string]string{
		"/user/12345?bars,profile": userPayload(400, 5),
		"/user/12345?cooldowns":    cooldownsPayload(0),
	}}
	store := &fakeStore{}

	recs, err := newTestAdvisor(caller, store).DecideAndRecommend(context.Background())
	require.NoError(t, err)
	require.Len(t, recs, 1)
	require.Equal(t, 150, recs[0].Points)
}

func TestDecideRecommendsBestCrime(t *testing.T) {
	caller := &fakeCaller{payloads: map[string]string{
		"/user/12345?bars,profile": userPayload(10, 50),
		"/user/12345?cooldowns":    cooldownsPayload(0),
		"/torn?crimes": `{"crimes":{
			"3":{"name":"Shoplift","nerve":3,"money_min":60,"money_max":120},
			"7":{"name":"Mug someone","nerve":5,"money_min":400,"money_max":600}
		}}`,
	}}
	store := &fakeStore{}

	recs, err := newTestAdvisor(caller, store).DecideAndRecommend(context.Background())
	require.NoError(t, err)
	require.Len(t, recs, 1)
	require.Equal(t, core.RecommendCrime, recs[0].Type)
	require.NotNil(t, recs[0].Crime)
	require.Equal(t, "Mug someone", recs[0].Crime.Name)
	require.Equal(t, 100.0, recs[0].Crime.CashPerNerve)
}

func TestDecideSkipsCrimeOnCooldown(t *testing.T) {
	caller := &fakeCaller{payloads: map[string]string{
		"/user/12345?bars,profile": userPayload(10, 50),
		"/user/12345?cooldowns":    cooldownsPayload(300),
	}}
	store := &fakeStore{}

	recs, err := newTestAdvisor(caller, store).DecideAndRecommend(context.Background())
	require.NoError(t, err)
	require.Empty(t, recs)

	// No crime catalog fetch when crimes are on cooldown.
	for _, call := range caller.calls {
		require.NotEqual(t, "torn", call.Section)
	}
}

func TestDecideBelowThresholdsStillSnapshots(t *testing.T) {
	caller := &fakeCaller{payloads: map[string]string{
		"/user/12345?bars,profile": userPayload(10, 5),
		"/user/12345?cooldowns":    cooldownsPayload(0),
	}}
	store := &fakeStore{}

	recs, err := newTestAdvisor(caller, store).DecideAndRecommend(context.Background())
	require.NoError(t, err)
	require.Empty(t, recs)
	require.Empty(t, store.actions)
	require.Len(t, store.snapshots, 1)
}

func TestDecideSnapshotWriteFailure(t *testing.T) {
	caller := &fakeCaller{payloads: map[string]string{
		"/user/12345?bars,profile": userPayload(10, 5),
		"/user/12345?cooldowns":    cooldownsPayload(0),
	}}
	store := &fakeStore{snapshotErr: errors.New("disk full")}

	_, err := newTestAdvisor(caller, store).DecideAndRecommend(context.Background())
	require.ErrorContains(t, err, "record snapshot")
}

func TestSimulateMoneyOverlay(t *testing.T) {
	caller := &fakeCaller{payloads: map[string]string{
		"/user/12345?bars,profile": userPayload(10, 5),
		"/user/12345?cooldowns":    cooldownsPayload(0),
	}}
	store := &fakeStore{}
	adv := newTestAdvisor(caller, store)
	adv.SimulateMoney = true

	_, err := adv.DecideAndRecommend(context.Background())
	require.NoError(t, err)
	require.Len(t, store.snapshots, 1)

	var snapshot map[string]any
	require.NoError(t, json.Unmarshal(store.snapshots[0].Data, &snapshot))
	require.Contains(t, snapshot, "simulated_money_onhand")
}

func TestWatchMarketAlerts(t *testing.T) {
	buy, sell := 800.0, 1200.0
	caller := &fakeCaller{payloads: map[string]string{
		"/market/206?bazaar": `{"bazaar":[{"price":750,"quantity":1},{"price":900,"quantity":3}]}`,
		"/market/310?bazaar": `{"bazaar":[{"price":1500,"quantity":2}]}`,
	}}
	store := &fakeStore{watches: []core.MarketWatch{
		{ItemID: 206, BuyThreshold: &buy},
		{ItemID: 310, SellThreshold: &sell},
	}}

	alerts, err := newTestAdvisor(caller, store).WatchMarket(context.Background())
	require.NoError(t, err)
	require.Len(t, alerts, 2)
	require.Equal(t, core.AlertBuy, alerts[0].Kind)
	require.Equal(t, 750.0, alerts[0].Price)
	require.Equal(t, core.AlertSell, alerts[1].Kind)
	require.Equal(t, 1500.0, alerts[1].Price)

	require.Equal(t, 750.0, store.prices[206])
	require.Equal(t, 1500.0, store.prices[310])
	require.Equal(t, []string{"market_alert", "market_alert"}, store.actions)
}

func TestWatchMarketSkipsFailedItems(t *testing.T) {
	buy := 800.0
	caller := &fakeCaller{
		payloads: map[string]string{
			"/market/310?bazaar": `{"bazaar":[{"price":700,"quantity":1}]}`,
		},
		errs: map[string]error{
			"/market/206?bazaar": errors.New("transient failure"),
		},
	}
	store := &fakeStore{watches: []core.MarketWatch{
		{ItemID: 206, BuyThreshold: &buy},
		{ItemID: 310, BuyThreshold: &buy},
	}}

	alerts, err := newTestAdvisor(caller, store).WatchMarket(context.Background())
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	require.Equal(t, int64(310), alerts[0].ItemID)
}

func TestWatchMarketNoThresholdCrossing(t *testing.T) {
	buy := 500.0
	caller := &fakeCaller{payloads: map[string]string{
		"/market/206?bazaar": `{"bazaar":[{"price":900,"quantity":1}]}`,
	}}
	store := &fakeStore{watches: []core.MarketWatch{{ItemID: 206, BuyThreshold: &buy}}}

	alerts, err := newTestAdvisor(caller, store).WatchMarket(context.Background())
	require.NoError(t, err)
	require.Empty(t, alerts)
	require.Equal(t, 900.0, store.prices[206])
	require.Empty(t, store.actions)
}

func TestBestCrimeDeterministicTieBreak(t *testing.T) {
	catalog := torn.CrimeCatalogPayload{Crimes: map[string]torn.Crime{
		"9": {Name: "B", Nerve: 2, Value: 100},
		"4": {Name: "A", Nerve: 2, Value: 100},
	}}

	best := bestCrime(catalog)
	require.NotNil(t, best)
	require.Equal(t, "4", best.ID)
}

func TestBestCrimeIgnoresZeroNerve(t *testing.T) {
	catalog := torn.CrimeCatalogPayload{Crimes: map[string]torn.Crime{
		"1": {Name: "Free", Value: 1000},
	}}
	require.Nil(t, bestCrime(catalog))
}
