package engine

import (
	"context"

	"alert-engine/internal/model"
)

// UseCase is the alert rule evaluation engine. One call evaluates a batch of
// configurations against a single read-only evaluation context and returns
// the alert instances that triggered.
type UseCase interface {
	EvaluateAlerts(ctx context.Context, configs []model.AlertConfiguration, ectx model.EvaluationContext) (EvaluationResult, error)
}
