package usecase

import (
	"context"
	"time"

	"alert-engine/internal/model"
)

// scheduleEscalation arms the timer for the next escalation level after a
// failed delivery. The delay list is consumed in order: level N waits
// escalation_delays[N]. At fire time the alert is re-routed through the
// router — quiet hours and frequency limits are re-checked at that instant —
// rather than blindly resending the identical job; the statistical rule
// condition is not re-evaluated (that stays the engine's concern), but an
// instance the collaborator has acknowledged or resolved in the meantime is
// dropped.
//
// A cancelled context never starts a new timer, and cancellation while a
// timer is pending abandons it; already-dispatched attempts still finish
// logging through dispatch's own join.
func (uc *implUseCase) scheduleEscalation(ctx context.Context, settings model.NotificationSettings, inst *model.AlertInstance, level int) {
	if level >= len(settings.EscalationDelays) {
		return
	}
	if ctx.Err() != nil {
		return
	}

	// One pending timer per instance is enough; several failed channels in
	// the same pass escalate together.
	uc.pendingMu.Lock()
	if uc.pending[inst.ID] {
		uc.pendingMu.Unlock()
		return
	}
	uc.pending[inst.ID] = true
	uc.pendingMu.Unlock()

	delay := time.Duration(settings.EscalationDelays[level]) * time.Minute
	nextLevel := level + 1

	go func() {
		defer func() {
			uc.pendingMu.Lock()
			delete(uc.pending, inst.ID)
			uc.pendingMu.Unlock()
		}()

		select {
		case <-ctx.Done():
			return
		case <-uc.clock.After(delay):
		}

		if !inst.Open() {
			uc.logger.Debugf(ctx, "alert %s closed before escalation level %d, dropping", inst.ID, nextLevel)
			return
		}

		now := uc.clock.Now()
		jobs, entries := uc.route(ctx, settings, inst, nextLevel, now)
		entries = append(entries, uc.dispatch(ctx, settings, inst, jobs, nextLevel)...)
		uc.appendLog(inst, entries)
	}()
}
