package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"alert-engine/internal/engine"
	"alert-engine/internal/model"
	"alert-engine/internal/state"
)

// evaluateRule runs one rule through aggregation, comparison and the
// cooldown/suppression state machine. It returns at most one AlertInstance.
//
// State transitions (idle -> triggered -> cooling_down -> idle) happen
// atomically inside the state store's per-key mutation; suppression is a
// signature-based flag layered on top of the cooldown timer.
func (uc *implUseCase) evaluateRule(ctx context.Context, cfg *model.AlertConfiguration, rule *model.AlertRule, ectx model.EvaluationContext, now time.Time) (*model.AlertInstance, error) {
	if len(rule.Conditions) == 0 {
		return nil, fmt.Errorf("rule %s: %w", rule.ID, engine.ErrNoConditions)
	}

	prior, _, err := uc.ruleStates.Get(ctx, rule.ID)
	if err != nil {
		// Fail open for cooldown: losing bookkeeping must not lose alerts.
		uc.logger.Warnf(ctx, "rule state read failed for %s, assuming idle: %v", rule.ID, err)
		prior = state.RuleState{}
	}
	retrigger := !prior.LastTriggeredAt.IsZero()

	outcomes, err := uc.evaluateConditions(ctx, rule, ectx, now, retrigger)
	if err != nil {
		return nil, fmt.Errorf("rule %s: %w", rule.ID, err)
	}
	satisfied := combine(rule.LogicalOperator, outcomes)

	cooldown := time.Duration(rule.CooldownPeriod) * time.Minute
	signature := alertSignature(rule, outcomes)

	var inst *model.AlertInstance
	mutErr := uc.ruleStates.Mutate(ctx, rule.ID, func(st *state.RuleState) error {
		held := st.ConditionHeld
		st.ConditionHeld = satisfied

		if !satisfied {
			return nil
		}
		// Cooldown gate: a satisfied rule inside its cooldown stays in
		// cooling_down and emits nothing.
		if now.Before(st.CooldownUntil) {
			return nil
		}
		// Signature suppression: stricter than the timer, it also catches
		// clock skew where the cooldown technically elapsed.
		if rule.SuppressDuplicates && st.LastSignature == signature &&
			!st.LastTriggeredAt.IsZero() && now.Sub(st.LastTriggeredAt) < cooldown {
			return nil
		}

		if held && !st.LastTriggeredAt.IsZero() {
			// Re-trigger after cooldown while the condition kept holding.
			if st.EscalationLevel < uc.cfg.MaxEscalationLevel {
				st.EscalationLevel++
			}
		} else {
			st.EscalationLevel = 0
		}

		st.LastTriggeredAt = now
		st.CooldownUntil = now.Add(cooldown)
		st.LastSignature = signature

		inst = uc.buildInstance(cfg, rule, outcomes, ectx, now, signature, st.EscalationLevel)
		return nil
	})
	if mutErr != nil {
		if satisfied && uc.cfg.CooldownFailOpen && inst == nil {
			uc.logger.Warnf(ctx, "rule state store unavailable for %s, emitting without cooldown bookkeeping: %v", rule.ID, mutErr)
			return uc.buildInstance(cfg, rule, outcomes, ectx, now, signature, prior.EscalationLevel), nil
		}
		return nil, fmt.Errorf("rule %s: %w: %v", rule.ID, engine.ErrStateUnavailable, mutErr)
	}
	return inst, nil
}

// alertSignature identifies "the same alert" for duplicate suppression:
// rule id, the sorted contributing sensor ids of the met conditions, and
// the rule's severity.
func alertSignature(rule *model.AlertRule, outcomes []conditionOutcome) string {
	seen := make(map[string]struct{})
	var sensors []string
	for _, o := range outcomes {
		if !o.met {
			continue
		}
		for _, s := range o.result.Sensors {
			if _, ok := seen[s]; ok {
				continue
			}
			seen[s] = struct{}{}
			sensors = append(sensors, s)
		}
	}
	sort.Strings(sensors)
	return fmt.Sprintf("%s|%s|%s", rule.ID, strings.Join(sensors, ","), rule.Priority)
}

func (uc *implUseCase) buildInstance(cfg *model.AlertConfiguration, rule *model.AlertRule, outcomes []conditionOutcome, ectx model.EvaluationContext, now time.Time, signature string, escalation int) *model.AlertInstance {
	metrics := make([]model.MetricValue, 0, len(outcomes))
	var parts []string
	for i, o := range outcomes {
		cond := rule.Conditions[i]
		metrics = append(metrics, model.MetricValue{
			MetricType:          cond.Metric.Type,
			SensorID:            cond.Metric.SensorID,
			Observed:            o.result.Value,
			Threshold:           cond.Threshold.Value,
			WindowMinutes:       cond.Aggregation.PeriodMinutes,
			SampleCount:         o.result.Count,
			ContributingFactors: o.result.Sensors,
		})
		if o.met {
			parts = append(parts, fmt.Sprintf("%s(%s) = %.4g %s %.4g over %dm",
				cond.Aggregation.Function, cond.Metric.Type, o.result.Value,
				cond.Operator, cond.Threshold.Value, cond.Aggregation.PeriodMinutes))
		}
	}

	title := rule.Name
	if title == "" {
		title = cfg.Name
	}

	context := map[string]any{
		"configuration_name": cfg.Name,
		"rule_name":          rule.Name,
	}
	if len(ectx.SystemStatus) > 0 {
		context["system_status"] = ectx.SystemStatus
	}
	if len(ectx.WeatherStatus) > 0 {
		context["weather_status"] = ectx.WeatherStatus
	}

	return &model.AlertInstance{
		ID:              uuid.NewString(),
		ConfigurationID: cfg.ID,
		RuleID:          rule.ID,
		Status:          model.AlertStatusTriggered,
		// OR-combined conditions with diverging detail still inherit the
		// rule's configured priority; per-condition detail lives in the
		// metric values.
		Severity:        rule.Priority,
		Title:           title,
		Description:     strings.Join(parts, "; "),
		Metrics:         metrics,
		TriggeredAt:     now,
		EscalationLevel: escalation,
		Signature:       signature,
		Context:         context,
	}
}
