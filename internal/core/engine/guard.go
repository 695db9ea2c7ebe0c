package engine

import (
	"sync"
	"time"

	"github.com/tornwatch/tornwatch/internal/core"
)

// CredentialGuard tracks consecutive authentication failures per credential
// and decides when a credential must be disabled. The durable disabled_at
// write happens in the same store transaction as the call record that
// triggered it; the guard only holds the in-memory view.
type CredentialGuard struct {
	mu        sync.Mutex
	threshold int
	failures  map[string]int
	disabled  map[string]time.Time

	Clock func() time.Time
}

// NewCredentialGuard builds a guard that disables a credential after
// threshold consecutive auth failures.
func NewCredentialGuard(threshold int) *CredentialGuard {
	if threshold < 1 {
		threshold = 3
	}
	return &CredentialGuard{
		threshold: threshold,
		failures:  make(map[string]int),
		disabled:  make(map[string]time.Time),
	}
}

// Seed loads persisted credential state at startup so restarts honour
// earlier disables.
func (g *CredentialGuard) Seed(credentialID string, disabledAt *time.Time) {
	if g == nil || credentialID == "" || disabledAt == nil {
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.disabled[credentialID] = *disabledAt
}

// IsDisabled reports whether the credential has been disabled. Disabled
// credentials are never re-enabled automatically.
func (g *CredentialGuard) IsDisabled(credentialID string) bool {
	if g == nil {
		return false
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.disabled[credentialID]
	return ok
}

// DisabledAt returns when the credential was disabled, or nil.
func (g *CredentialGuard) DisabledAt(credentialID string) *time.Time {
	if g == nil {
		return nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if at, ok := g.disabled[credentialID]; ok {
		return &at
	}
	return nil
}

// RecordOutcome updates the consecutive-failure counter. Any non-auth outcome
// resets it. When an auth failure crosses the threshold the credential is
// marked disabled and the disable timestamp is returned exactly once, so the
// caller can persist it together with the call record.
func (g *CredentialGuard) RecordOutcome(credentialID string, outcome core.Outcome) *time.Time {
	if g == nil || credentialID == "" {
		return nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if outcome != core.OutcomeAuthFailure {
		g.failures[credentialID] = 0
		return nil
	}

	g.failures[credentialID]++
	if g.failures[credentialID] < g.threshold {
		return nil
	}
	if _, already := g.disabled[credentialID]; already {
		return nil
	}

	at := g.now()
	g.disabled[credentialID] = at
	return &at
}

func (g *CredentialGuard) now() time.Time {
	if g.Clock != nil {
		return g.Clock()
	}
	return time.Now().UTC()
}
