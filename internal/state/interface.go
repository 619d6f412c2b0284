// Package state owns the engine's only shared mutable data: per-rule
// evaluation state and per-configuration/channel frequency counters. Stores
// expose atomic read-modify-write so rule transitions and counter bumps stay
// consistent under 1,000+ concurrent evaluations. In-memory striped stores
// are the default; a Redis-backed implementation provides optional
// cross-process durability.
package state

import (
	"context"
	"time"
)

// RuleState tracks one rule's trigger history. It is engine-owned, created
// on first trigger and never exposed to the collaborator.
type RuleState struct {
	LastTriggeredAt time.Time `json:"last_triggered_at"`
	CooldownUntil   time.Time `json:"cooldown_until"`
	LastSignature   string    `json:"last_signature"`
	EscalationLevel int       `json:"escalation_level"`
	// ConditionHeld records whether the rule's combined condition was true
	// on the previous evaluation; re-triggers while it held escalate.
	ConditionHeld bool `json:"condition_held"`
}

// FrequencyCounterState is the rolling notification counter for one
// (configuration, channel) pair. Windows are fixed: the count resets when
// the window boundary elapses.
type FrequencyCounterState struct {
	HourWindowStart time.Time `json:"hour_window_start"`
	HourCount       int       `json:"hour_count"`
	DayWindowStart  time.Time `json:"day_window_start"`
	DayCount        int       `json:"day_count"`
	// LastSimilar maps alert signature to the last successful send, backing
	// the cooldown_between_similar gate.
	LastSimilar map[string]time.Time `json:"last_similar,omitempty"`
}

// RuleStateStore provides atomic access to per-rule state.
type RuleStateStore interface {
	// Mutate runs fn against the state for ruleID under the store's lock
	// for that key. Returning an error from fn aborts the write.
	Mutate(ctx context.Context, ruleID string, fn func(*RuleState) error) error
	// Get returns a snapshot of the state for ruleID.
	Get(ctx context.Context, ruleID string) (RuleState, bool, error)
	// Clear drops all state. Test isolation.
	Clear(ctx context.Context) error
}

// FrequencyStore provides atomic access to per-(configuration, channel)
// counters. Keys are built by the caller (configuration id + channel type).
type FrequencyStore interface {
	Mutate(ctx context.Context, key string, fn func(*FrequencyCounterState) error) error
	Get(ctx context.Context, key string) (FrequencyCounterState, bool, error)
	Clear(ctx context.Context) error
}
