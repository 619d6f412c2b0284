package usecase

import (
	"context"
	"time"

	"alert-engine/internal/aggregate"
	"alert-engine/internal/engine"
	"alert-engine/internal/model"
	"alert-engine/internal/state"
	"alert-engine/pkg/clock"
)

// testLogger implements log.Logger for testing
type testLogger struct{}

func (m *testLogger) Debug(ctx context.Context, arg ...any)                   {}
func (m *testLogger) Debugf(ctx context.Context, template string, arg ...any) {}
func (m *testLogger) Info(ctx context.Context, arg ...any)                    {}
func (m *testLogger) Infof(ctx context.Context, template string, arg ...any)  {}
func (m *testLogger) Warn(ctx context.Context, arg ...any)                    {}
func (m *testLogger) Warnf(ctx context.Context, template string, arg ...any)  {}
func (m *testLogger) Error(ctx context.Context, arg ...any)                   {}
func (m *testLogger) Errorf(ctx context.Context, template string, arg ...any) {}
func (m *testLogger) Fatal(ctx context.Context, arg ...any)                   {}
func (m *testLogger) Fatalf(ctx context.Context, template string, arg ...any) {}

var baseTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestEngine(ruleStates state.RuleStateStore, cfg Config) engine.UseCase {
	clk := clock.NewMock(baseTime)
	return New(&testLogger{}, clk, aggregate.New(nil), ruleStates, cfg)
}

// simpleConfiguration triggers when the average temperature over 15 minutes
// exceeds the threshold.
func simpleConfiguration(id string, threshold float64) model.AlertConfiguration {
	return model.AlertConfiguration{
		ID:     id,
		Name:   "config " + id,
		Status: model.ConfigurationStatusActive,
		Rules: []model.AlertRule{
			{
				ID:               id + "-rule",
				Name:             "high temperature",
				Enabled:          true,
				Priority:         model.PriorityHigh,
				LogicalOperator:  model.LogicalAnd,
				EvaluationWindow: 15,
				CooldownPeriod:   30,
				Conditions: []model.AlertCondition{
					{
						Metric:    model.Metric{Type: "temperature"},
						Operator:  model.OperatorGreaterThan,
						Threshold: model.Threshold{Value: threshold},
						Aggregation: model.TimeAggregation{
							Function:          model.AggregateAverage,
							PeriodMinutes:     15,
							MinimumDataPoints: 1,
						},
					},
				},
			},
		},
	}
}

func readingsAt(now time.Time, sensorID string, values ...float64) []model.SensorReading {
	out := make([]model.SensorReading, len(values))
	for i, v := range values {
		out[i] = model.SensorReading{
			SensorID:  sensorID,
			Timestamp: now.Add(-time.Duration(i) * time.Minute),
			Value:     v,
			Unit:      "C",
			Quality:   model.QualityGood,
		}
	}
	return out
}

func contextAt(now time.Time, readings []model.SensorReading) model.EvaluationContext {
	return model.EvaluationContext{CurrentTime: now, Readings: readings}
}
