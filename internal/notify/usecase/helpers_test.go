package usecase

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"alert-engine/internal/model"
	"alert-engine/internal/notify"
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

// Monday, so weekend-related quiet hours stay out of the way by default.
var baseTime = time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)

func clockAt(now time.Time) *clock.Mock {
	return clock.NewMock(now)
}

func newService(senders notify.SenderRegistry, cfg Config) (notify.UseCase, *clock.Mock) {
	clk := clockAt(baseTime)
	return New(&testLogger{}, clk, state.NewMemoryFrequencyStore(), senders, cfg), clk
}

// countingSender succeeds always and counts calls.
type countingSender struct {
	calls atomic.Int64
}

func (s *countingSender) Send(context.Context, model.ChannelConfig, *model.AlertInstance) error {
	s.calls.Add(1)
	return nil
}

// flakySender fails the first failures calls, then succeeds.
type flakySender struct {
	calls    atomic.Int64
	failures int64
}

func (s *flakySender) Send(context.Context, model.ChannelConfig, *model.AlertInstance) error {
	if s.calls.Add(1) <= s.failures {
		return fmt.Errorf("gateway unavailable")
	}
	return nil
}

func emailSettings(limits model.FrequencyLimits) model.NotificationSettings {
	return model.NotificationSettings{
		Channels:        []model.ChannelConfig{{Type: model.ChannelEmail, Enabled: true}},
		FrequencyLimits: limits,
	}
}

func makeInstance(id, signature string, severity model.Priority) *model.AlertInstance {
	return &model.AlertInstance{
		ID:              id,
		ConfigurationID: "cfg-1",
		RuleID:          "rule-1",
		Status:          model.AlertStatusTriggered,
		Severity:        severity,
		Title:           "test alert",
		TriggeredAt:     baseTime,
		Signature:       signature,
	}
}

// logLen reads the instance log length under the service's append lock so
// racing escalation goroutines stay visible to the race detector.
func logLen(svc notify.UseCase, inst *model.AlertInstance) int {
	uc := svc.(*implUseCase)
	uc.logMu.Lock()
	defer uc.logMu.Unlock()
	return len(inst.NotificationLog)
}

func logCopy(svc notify.UseCase, inst *model.AlertInstance) []model.NotificationLogEntry {
	uc := svc.(*implUseCase)
	uc.logMu.Lock()
	defer uc.logMu.Unlock()
	out := make([]model.NotificationLogEntry, len(inst.NotificationLog))
	copy(out, inst.NotificationLog)
	return out
}
