package usecase

import (
	"sync"

	"alert-engine/internal/notify"
	"alert-engine/internal/state"
	"alert-engine/pkg/clock"
	"alert-engine/pkg/log"
)

// Config tunes the delivery service.
type Config struct {
	// DispatchConcurrency bounds concurrent channel dispatches per alert so
	// downstream senders are not overwhelmed.
	DispatchConcurrency int
	// BurstPercent is the grace margin over the hourly frequency limit,
	// expressed as a percentage of that limit. The standard tier allowance
	// is 10% (free tier: 100/h + 10 burst). Nil selects the default;
	// pointing at zero disables the allowance entirely.
	BurstPercent *int
	// FrequencyFailOpen flips the limiter's behavior when its backing store
	// is unavailable. The default (false) fails closed: treat as limit
	// reached and suppress, avoiding notification storms.
	FrequencyFailOpen bool
}

const (
	defaultDispatchConcurrency = 8
	defaultBurstPercent        = 10
)

type implUseCase struct {
	logger  log.Logger
	clock   clock.Clock
	freq    state.FrequencyStore
	senders notify.SenderRegistry
	cfg     Config

	// burstPercent is Config.BurstPercent resolved against the default.
	burstPercent int

	// logMu guards appends to instance notification logs; escalation
	// goroutines append after the originating call has returned.
	logMu sync.Mutex

	// pendingMu/pending dedupe escalation timers per instance.
	pendingMu sync.Mutex
	pending   map[string]bool
}

// New wires a notification delivery service.
func New(logger log.Logger, clk clock.Clock, freq state.FrequencyStore, senders notify.SenderRegistry, cfg Config) notify.UseCase {
	if cfg.DispatchConcurrency <= 0 {
		cfg.DispatchConcurrency = defaultDispatchConcurrency
	}
	burst := defaultBurstPercent
	if cfg.BurstPercent != nil {
		burst = *cfg.BurstPercent
	}
	return &implUseCase{
		logger:       logger,
		clock:        clk,
		freq:         freq,
		senders:      senders,
		cfg:          cfg,
		burstPercent: burst,
		pending:      make(map[string]bool),
	}
}
