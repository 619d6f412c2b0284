package usecase

import (
	"context"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"alert-engine/internal/aggregate"
	"alert-engine/internal/engine"
	"alert-engine/internal/model"
)

// equalityEpsilon absorbs float noise in equals/not_equals comparisons.
const equalityEpsilon = 1e-9

// conditionOutcome is one condition's evaluation result within a rule.
type conditionOutcome struct {
	met    bool
	result aggregate.Result
}

// evaluateConditions aggregates and compares every condition of a rule.
// With more than one condition they run concurrently; outcomes are indexed
// by condition position so the combination is deterministic regardless of
// completion order.
func (uc *implUseCase) evaluateConditions(ctx context.Context, rule *model.AlertRule, ectx model.EvaluationContext, now time.Time, retrigger bool) ([]conditionOutcome, error) {
	outcomes := make([]conditionOutcome, len(rule.Conditions))

	if len(rule.Conditions) == 1 {
		outcome, err := uc.evaluateCondition(&rule.Conditions[0], ectx, now, retrigger)
		if err != nil {
			return nil, err
		}
		outcomes[0] = outcome
		return outcomes, nil
	}

	g, _ := errgroup.WithContext(ctx)
	for i := range rule.Conditions {
		i := i
		g.Go(func() error {
			outcome, err := uc.evaluateCondition(&rule.Conditions[i], ectx, now, retrigger)
			if err != nil {
				return err
			}
			outcomes[i] = outcome
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

func (uc *implUseCase) evaluateCondition(cond *model.AlertCondition, ectx model.EvaluationContext, now time.Time, retrigger bool) (conditionOutcome, error) {
	result, err := uc.aggregator.Aggregate(ectx.Readings, *cond, now)
	if err != nil {
		return conditionOutcome{}, err
	}
	// Insufficient data is not an error: the condition is simply not met.
	if !result.Sufficient {
		return conditionOutcome{met: false, result: result}, nil
	}

	threshold := effectiveThreshold(cond, retrigger)
	met, err := compare(cond.Operator, result.Value, threshold)
	if err != nil {
		return conditionOutcome{}, err
	}
	return conditionOutcome{met: met, result: result}, nil
}

// effectiveThreshold applies hysteresis on re-triggers: once a rule has
// fired, the value must clear the threshold by the hysteresis margin before
// it can fire again, damping oscillation around the boundary.
func effectiveThreshold(cond *model.AlertCondition, retrigger bool) float64 {
	t := cond.Threshold.Value
	if !retrigger || cond.Threshold.Hysteresis <= 0 {
		return t
	}
	switch cond.Operator {
	case model.OperatorGreaterThan, model.OperatorGreaterThanOrEqual:
		return t + cond.Threshold.Hysteresis
	case model.OperatorLessThan, model.OperatorLessThanOrEqual:
		return t - cond.Threshold.Hysteresis
	default:
		return t
	}
}

func compare(op model.ComparisonOperator, value, threshold float64) (bool, error) {
	switch op {
	case model.OperatorGreaterThan:
		return value > threshold, nil
	case model.OperatorLessThan:
		return value < threshold, nil
	case model.OperatorGreaterThanOrEqual:
		return value >= threshold, nil
	case model.OperatorLessThanOrEqual:
		return value <= threshold, nil
	case model.OperatorEquals:
		return math.Abs(value-threshold) <= equalityEpsilon, nil
	case model.OperatorNotEquals:
		return math.Abs(value-threshold) > equalityEpsilon, nil
	default:
		return false, engine.ErrInvalidOperator
	}
}

// combine folds condition outcomes with the rule's logical operator.
func combine(op model.LogicalOperator, outcomes []conditionOutcome) bool {
	if len(outcomes) == 0 {
		return false
	}
	if op == model.LogicalOr {
		for _, o := range outcomes {
			if o.met {
				return true
			}
		}
		return false
	}
	for _, o := range outcomes {
		if !o.met {
			return false
		}
	}
	return true
}
