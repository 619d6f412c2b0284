package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"alert-engine/internal/model"
	"alert-engine/internal/notify"
)

func TestNilInstanceRejected(t *testing.T) {
	svc, _ := newService(notify.SenderRegistry{}, Config{})
	_, err := svc.SendAlertNotifications(context.Background(), emailSettings(model.FrequencyLimits{}), nil)
	if !errors.Is(err, notify.ErrNilInstance) {
		t.Fatalf("err = %v, want ErrNilInstance", err)
	}
}

func TestPartialFailureDoesNotBlockOtherChannels(t *testing.T) {
	emailSender := notify.SenderFunc(func(context.Context, model.ChannelConfig, *model.AlertInstance) error {
		return fmt.Errorf("smtp timeout")
	})
	webhookSender := &countingSender{}
	svc, _ := newService(notify.SenderRegistry{
		model.ChannelEmail:   emailSender,
		model.ChannelWebhook: webhookSender,
	}, Config{})

	settings := model.NotificationSettings{
		Channels: []model.ChannelConfig{
			{Type: model.ChannelEmail, Enabled: true},
			{Type: model.ChannelWebhook, Enabled: true},
		},
	}
	inst := makeInstance("a", "s", model.PriorityHigh)

	entries, err := svc.SendAlertNotifications(context.Background(), settings, inst)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	outcomes := map[model.ChannelType]model.DeliveryOutcome{}
	for _, e := range entries {
		outcomes[e.Channel] = e.Outcome
	}
	if outcomes[model.ChannelEmail] != model.OutcomeFailure {
		t.Errorf("email outcome = %s, want failure", outcomes[model.ChannelEmail])
	}
	if outcomes[model.ChannelWebhook] != model.OutcomeSuccess {
		t.Errorf("webhook outcome = %s, want success", outcomes[model.ChannelWebhook])
	}
	if got := logLen(svc, inst); got != 2 {
		t.Errorf("instance log length = %d, want 2", got)
	}
}

func TestMissingSenderIsSkipped(t *testing.T) {
	svc, _ := newService(notify.SenderRegistry{}, Config{})
	settings := emailSettings(model.FrequencyLimits{})

	entries, err := svc.SendAlertNotifications(context.Background(), settings, makeInstance("a", "s", model.PriorityHigh))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 1 || entries[0].Outcome != model.OutcomeSkipped {
		t.Fatalf("entries = %+v, want one skipped entry", entries)
	}
}

func TestConcurrentDispatchLogsEveryAttempt(t *testing.T) {
	emailSender := &countingSender{}
	webhookSender := &countingSender{}
	svc, _ := newService(notify.SenderRegistry{
		model.ChannelEmail:   emailSender,
		model.ChannelWebhook: webhookSender,
	}, Config{DispatchConcurrency: 4})

	settings := model.NotificationSettings{
		Channels: []model.ChannelConfig{
			{Type: model.ChannelEmail, Enabled: true},
			{Type: model.ChannelWebhook, Enabled: true},
		},
	}

	const n = 100
	instances := make([]*model.AlertInstance, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		instances[i] = makeInstance(fmt.Sprintf("inst-%d", i), fmt.Sprintf("sig-%d", i), model.PriorityHigh)
		wg.Add(1)
		go func(inst *model.AlertInstance) {
			defer wg.Done()
			if _, err := svc.SendAlertNotifications(context.Background(), settings, inst); err != nil {
				t.Errorf("send %s: %v", inst.ID, err)
			}
		}(instances[i])
	}
	wg.Wait()

	for _, inst := range instances {
		if got := logLen(svc, inst); got != 2 {
			t.Fatalf("instance %s: log length = %d, want 2", inst.ID, got)
		}
	}
	if total := emailSender.calls.Load() + webhookSender.calls.Load(); total != 2*n {
		t.Errorf("total deliveries = %d, want %d", total, 2*n)
	}
}

// advanceUntil pumps the mock clock in small steps until cond holds or a
// few real seconds pass. Escalation timers arm on a goroutine, so the first
// advances may land before the timer exists.
func advanceUntil(t *testing.T, clk interface{ Advance(time.Duration) }, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		clk.Advance(time.Minute)
		time.Sleep(5 * time.Millisecond)
	}
	if !cond() {
		t.Fatal("condition not reached before timeout")
	}
}

func TestEscalationRetriesAfterDelay(t *testing.T) {
	sender := &flakySender{failures: 1}
	svc, clk := newService(notify.SenderRegistry{model.ChannelEmail: sender}, Config{})
	settings := emailSettings(model.FrequencyLimits{})
	settings.EscalationDelays = []int{1}

	inst := makeInstance("a", "s", model.PriorityHigh)
	entries, err := svc.SendAlertNotifications(context.Background(), settings, inst)
	if err != nil || len(entries) != 1 || entries[0].Outcome != model.OutcomeFailure {
		t.Fatalf("initial send: entries=%+v err=%v, want one failure", entries, err)
	}

	advanceUntil(t, clk, func() bool { return logLen(svc, inst) >= 2 })

	log := logCopy(svc, inst)
	last := log[len(log)-1]
	if last.Outcome != model.OutcomeSuccess || last.EscalationLevel != 1 {
		t.Fatalf("escalated attempt = %+v, want success at level 1", last)
	}
}

func TestEscalationStopsAfterAcknowledge(t *testing.T) {
	sender := &flakySender{failures: 10}
	svc, clk := newService(notify.SenderRegistry{model.ChannelEmail: sender}, Config{})
	settings := emailSettings(model.FrequencyLimits{})
	settings.EscalationDelays = []int{1, 1}

	inst := makeInstance("a", "s", model.PriorityHigh)
	if _, err := svc.SendAlertNotifications(context.Background(), settings, inst); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	inst.Acknowledge(baseTime.Add(time.Second))

	// Give the pending timer ample opportunity to fire; an acknowledged
	// instance must be dropped without a new attempt.
	for i := 0; i < 20; i++ {
		clk.Advance(time.Minute)
		time.Sleep(5 * time.Millisecond)
	}
	if got := logLen(svc, inst); got != 1 {
		t.Fatalf("log length = %d, want 1 (no escalation after acknowledge)", got)
	}
}

func TestEscalationExhaustsDelaySchedule(t *testing.T) {
	sender := &flakySender{failures: 10}
	svc, clk := newService(notify.SenderRegistry{model.ChannelEmail: sender}, Config{})
	settings := emailSettings(model.FrequencyLimits{})
	settings.EscalationDelays = []int{1} // one escalation only

	inst := makeInstance("a", "s", model.PriorityHigh)
	if _, err := svc.SendAlertNotifications(context.Background(), settings, inst); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	advanceUntil(t, clk, func() bool { return logLen(svc, inst) >= 2 })

	// Level 1 failed too, but there is no delay entry for level 1: the
	// schedule is exhausted and no further attempts happen.
	for i := 0; i < 20; i++ {
		clk.Advance(time.Minute)
		time.Sleep(5 * time.Millisecond)
	}
	if got := logLen(svc, inst); got != 2 {
		t.Fatalf("log length = %d, want 2 (schedule exhausted)", got)
	}
}

func TestCancelledContextStartsNoEscalation(t *testing.T) {
	sender := &flakySender{failures: 10}
	svc, clk := newService(notify.SenderRegistry{model.ChannelEmail: sender}, Config{})
	settings := emailSettings(model.FrequencyLimits{})
	settings.EscalationDelays = []int{1}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	inst := makeInstance("a", "s", model.PriorityHigh)
	entries, err := svc.SendAlertNotifications(ctx, settings, inst)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 1 || entries[0].Outcome != model.OutcomeFailure {
		t.Fatalf("entries = %+v, want one failure", entries)
	}

	for i := 0; i < 20; i++ {
		clk.Advance(time.Minute)
		time.Sleep(5 * time.Millisecond)
	}
	if got := logLen(svc, inst); got != 1 {
		t.Fatalf("log length = %d, want 1 (cancelled context arms no timer)", got)
	}
}

func TestEscalationReroutesThroughQuietHours(t *testing.T) {
	sender := &flakySender{failures: 1}
	svc, clk := newService(notify.SenderRegistry{model.ChannelEmail: sender}, Config{})
	settings := emailSettings(model.FrequencyLimits{})
	settings.EscalationDelays = []int{1}
	// Quiet hours start shortly after the initial attempt; by the time the
	// escalation fires the channel must be muted, not retried blindly.
	settings.QuietHours = model.QuietHours{Enabled: true, Start: "12:01", End: "14:00"}

	inst := makeInstance("a", "s", model.PriorityHigh)
	entries, err := svc.SendAlertNotifications(context.Background(), settings, inst)
	if err != nil || len(entries) != 1 || entries[0].Outcome != model.OutcomeFailure {
		t.Fatalf("initial send: entries=%+v err=%v, want one failure", entries, err)
	}

	advanceUntil(t, clk, func() bool { return logLen(svc, inst) >= 2 })

	log := logCopy(svc, inst)
	last := log[len(log)-1]
	if last.Outcome != model.OutcomeSkipped || last.Error != "quiet hours" || last.EscalationLevel != 1 {
		t.Fatalf("escalated attempt = %+v, want quiet-hours skip at level 1", last)
	}
}
