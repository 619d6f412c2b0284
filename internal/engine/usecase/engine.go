package usecase

import (
	"context"
	"sync"
	"time"

	"go.uber.org/multierr"
	"golang.org/x/sync/semaphore"

	"alert-engine/internal/engine"
	"alert-engine/internal/model"
)

// EvaluateAlerts evaluates every active configuration against the context.
// Configurations fan out concurrently under a bounded semaphore; the
// evaluation context is read-only and shared. A malformed configuration is
// logged, counted as failed and skipped; it never aborts the batch.
func (uc *implUseCase) EvaluateAlerts(ctx context.Context, configs []model.AlertConfiguration, ectx model.EvaluationContext) (engine.EvaluationResult, error) {
	now := ectx.CurrentTime
	if now.IsZero() {
		now = uc.clock.Now()
	}
	deadline, hasDeadline := ctx.Deadline()

	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		result engine.EvaluationResult
		errs   error
	)
	sem := semaphore.NewWeighted(int64(uc.cfg.Parallelism))

	for i := range configs {
		cfg := &configs[i]

		if cfg.Status != model.ConfigurationStatusActive {
			result.Skipped++
			continue
		}

		// Soft deadline: stop starting new configuration evaluations but
		// let in-flight ones finish, so RuleState transitions stay whole.
		if hasDeadline && !uc.clock.Now().Before(deadline) {
			result.DeadlineExceeded = true
			break
		}
		if err := sem.Acquire(ctx, 1); err != nil {
			result.DeadlineExceeded = true
			break
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer sem.Release(1)

			instances, err := uc.evaluateConfiguration(ctx, cfg, ectx, now)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Failed++
				errs = multierr.Append(errs, err)
			} else {
				result.Evaluated++
			}
			// Healthy rules may have triggered (and committed their cooldown
			// bookkeeping) even when a sibling rule was malformed; dropping
			// their instances here would lose those alerts for a full
			// cooldown window.
			result.Alerts = append(result.Alerts, instances...)
		}()
	}

	wg.Wait()
	return result, errs
}

// evaluateConfiguration runs every enabled rule of one configuration.
// Rule-level errors are aggregated; the remaining rules still evaluate.
func (uc *implUseCase) evaluateConfiguration(ctx context.Context, cfg *model.AlertConfiguration, ectx model.EvaluationContext, now time.Time) ([]*model.AlertInstance, error) {
	var (
		instances []*model.AlertInstance
		errs      error
	)
	for i := range cfg.Rules {
		rule := &cfg.Rules[i]
		if !rule.Enabled {
			continue
		}
		inst, err := uc.evaluateRule(ctx, cfg, rule, ectx, now)
		if err != nil {
			uc.logger.Warnf(ctx, "rule %s in configuration %s skipped: %v", rule.ID, cfg.ID, err)
			errs = multierr.Append(errs, err)
			continue
		}
		if inst != nil {
			instances = append(instances, inst)
		}
	}
	return instances, errs
}
