package usecase

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"alert-engine/internal/model"
	"alert-engine/internal/notify"
)

// SendAlertNotifications routes the instance, dispatches each eligible
// channel job concurrently to its registered sender and records one log
// entry per attempt. A failure on one channel never blocks the others; the
// call returns once every channel job has resolved. Transient failures
// schedule escalation rather than retrying immediately.
func (uc *implUseCase) SendAlertNotifications(ctx context.Context, settings model.NotificationSettings, inst *model.AlertInstance) ([]model.NotificationLogEntry, error) {
	if inst == nil {
		return nil, notify.ErrNilInstance
	}

	now := uc.clock.Now()
	jobs, entries := uc.route(ctx, settings, inst, inst.EscalationLevel, now)
	dispatched := uc.dispatch(ctx, settings, inst, jobs, inst.EscalationLevel)
	entries = append(entries, dispatched...)

	uc.appendLog(inst, entries)
	return entries, nil
}

// dispatch fans the jobs out under bounded concurrency and returns one log
// entry per job. Failed sends schedule the next escalation level.
func (uc *implUseCase) dispatch(ctx context.Context, settings model.NotificationSettings, inst *model.AlertInstance, jobs []model.ChannelConfig, escalationLevel int) []model.NotificationLogEntry {
	if len(jobs) == 0 {
		return nil
	}

	var (
		mu      sync.Mutex
		entries = make([]model.NotificationLogEntry, 0, len(jobs))
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uc.cfg.DispatchConcurrency)

	for _, job := range jobs {
		job := job
		g.Go(func() error {
			entry := uc.send(gctx, job, inst, escalationLevel)
			mu.Lock()
			entries = append(entries, entry)
			mu.Unlock()

			if entry.Outcome == model.OutcomeFailure {
				uc.scheduleEscalation(ctx, settings, inst, escalationLevel)
			}
			return nil
		})
	}
	g.Wait() //nolint:errcheck // workers never return errors; outcomes live in entries

	return entries
}

func (uc *implUseCase) send(ctx context.Context, channel model.ChannelConfig, inst *model.AlertInstance, escalationLevel int) model.NotificationLogEntry {
	entry := model.NotificationLogEntry{
		Channel:         channel.Type,
		AttemptedAt:     uc.clock.Now(),
		EscalationLevel: escalationLevel,
	}

	sender, ok := uc.senders[channel.Type]
	if !ok {
		entry.Outcome = model.OutcomeSkipped
		entry.Error = notify.ErrNoSender.Error()
		uc.logger.Warnf(ctx, "alert %s: %v: %s", inst.ID, notify.ErrNoSender, channel.Type)
		return entry
	}

	if err := sender.Send(ctx, channel, inst); err != nil {
		entry.Outcome = model.OutcomeFailure
		entry.Error = err.Error()
		uc.logger.Warnf(ctx, "alert %s: delivery via %s failed: %v", inst.ID, channel.Type, err)
		return entry
	}

	entry.Outcome = model.OutcomeSuccess
	return entry
}

// appendLog appends entries to the instance's append-only notification log.
// Escalation goroutines call this after the originating request returned,
// hence the service-level lock.
func (uc *implUseCase) appendLog(inst *model.AlertInstance, entries []model.NotificationLogEntry) {
	if len(entries) == 0 {
		return
	}
	uc.logMu.Lock()
	inst.NotificationLog = append(inst.NotificationLog, entries...)
	uc.logMu.Unlock()
}
