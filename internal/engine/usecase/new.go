package usecase

import (
	"alert-engine/internal/aggregate"
	"alert-engine/internal/engine"
	"alert-engine/internal/state"
	"alert-engine/pkg/clock"
	"alert-engine/pkg/log"
)

// Config tunes the engine.
type Config struct {
	// Parallelism caps concurrent configuration evaluations.
	Parallelism int
	// MaxEscalationLevel caps the per-rule escalation counter.
	MaxEscalationLevel int
	// CooldownFailOpen keeps alerts flowing when the rule state store is
	// unavailable: the trigger is emitted without the cooldown bookkeeping.
	// This is the deliberate counterpart to the frequency limiter failing
	// closed.
	CooldownFailOpen bool
}

const (
	defaultParallelism        = 16
	defaultMaxEscalationLevel = 5
)

type implUseCase struct {
	logger     log.Logger
	clock      clock.Clock
	aggregator *aggregate.Aggregator
	ruleStates state.RuleStateStore
	cfg        Config
}

// New wires an alert rule evaluation engine.
func New(logger log.Logger, clk clock.Clock, aggregator *aggregate.Aggregator, ruleStates state.RuleStateStore, cfg Config) engine.UseCase {
	if cfg.Parallelism <= 0 {
		cfg.Parallelism = defaultParallelism
	}
	if cfg.MaxEscalationLevel <= 0 {
		cfg.MaxEscalationLevel = defaultMaxEscalationLevel
	}
	return &implUseCase{
		logger:     logger,
		clock:      clk,
		aggregator: aggregator,
		ruleStates: ruleStates,
		cfg:        cfg,
	}
}
