package core

import (
	"encoding/json"
	"time"
)

// Outcome classifies the terminal result of a call for credential tracking.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeFailure
	OutcomeAuthFailure
)

// CallStatus tags a persisted call record.
type CallStatus string

const (
	CallSucceeded CallStatus = "success"
	CallFailed    CallStatus = "failure"
)

// Credential identifies an API key. The secret itself never leaves the
// process; only a hash is persisted.
type Credential struct {
	ID         string
	Key        string
	DisabledAt *time.Time
}

// Disabled reports whether the credential has been marked disabled.
func (c *Credential) Disabled() bool {
	return c != nil && c.DisabledAt != nil
}

// CallResult captures the terminal outcome of a call attempt sequence.
type CallResult struct {
	Status     CallStatus `json:"status"`
	StatusCode int        `json:"status_code,omitempty"`
	Attempts   int        `json:"attempts"`
	Detail     string     `json:"detail,omitempty"`
	LatencyMS  int64      `json:"latency_ms,omitempty"`
}

// CallRecord is one audited API interaction: a single row per completed
// attempt sequence, never one per retry.
type CallRecord struct {
	ID         int64
	CallID     string
	Timestamp  time.Time
	ActionType string
	Payload    map[string]any
	Result     CallResult
}

// CredentialDisable instructs the store to mark a credential disabled in the
// same transaction as the call record it accompanies.
type CredentialDisable struct {
	CredentialID string
	At           time.Time
}

// Snapshot is a timestamped copy of fetched domain state.
type Snapshot struct {
	TS   time.Time
	Data json.RawMessage
}

// MarketWatch tracks price thresholds for one item.
type MarketWatch struct {
	ItemID        int64
	BuyThreshold  *float64
	SellThreshold *float64
	LastSeenPrice *float64
}

// RecommendationType identifies what a recommendation suggests.
type RecommendationType string

const (
	RecommendGym   RecommendationType = "gym"
	RecommendCrime RecommendationType = "crime"
)

// CrimePick describes the crime chosen by the cash-per-nerve ranking.
type CrimePick struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Nerve        int     `json:"nerve"`
	CashPerNerve float64 `json:"cash_per_nerve"`
}

// Recommendation is a derived, read-only suggestion for the player.
type Recommendation struct {
	Type    RecommendationType `json:"type"`
	Message string             `json:"message"`
	Slot    int                `json:"slot,omitempty"`
	Points  int                `json:"points,omitempty"`
	Crime   *CrimePick         `json:"crime,omitempty"`
}

// AlertKind distinguishes buy and sell market alerts.
type AlertKind string

const (
	AlertBuy  AlertKind = "buy"
	AlertSell AlertKind = "sell"
)

// MarketAlert reports a watched item crossing one of its thresholds.
type MarketAlert struct {
	ItemID    int64     `json:"item_id"`
	Kind      AlertKind `json:"kind"`
	Price     float64   `json:"price"`
	Threshold float64   `json:"threshold"`
	Message   string    `json:"message"`
}

// CredentialStatus is the persistence-safe view of a credential: id and
// disable state only, never the secret.
type CredentialStatus struct {
	ID         string     `json:"id"`
	Disabled   bool       `json:"disabled"`
	DisabledAt *time.Time `json:"disabled_at,omitempty"`
}

// StatusReport is the read-only view assembled for the status command.
type StatusReport struct {
	Credentials    []CredentialStatus `json:"credentials"`
	Watches        []MarketWatch      `json:"watches"`
	RecentActions  []CallRecord       `json:"recent_actions"`
	LastSnapshotAt *time.Time         `json:"last_snapshot_at,omitempty"`
}

// CycleReport aggregates the output of one decision cycle.
type CycleReport struct {
	Recommendations []Recommendation `json:"recommendations"`
	Alerts          []MarketAlert    `json:"alerts"`
}
