package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"alert-engine/internal/model"
	"alert-engine/internal/notify"
	"alert-engine/internal/state"
)

func TestHourlyLimitWithBurstAllowance(t *testing.T) {
	sender := &countingSender{}
	svc, _ := newService(notify.SenderRegistry{model.ChannelEmail: sender}, Config{})
	settings := emailSettings(model.FrequencyLimits{MaxPerHour: 100})

	// Free tier: 100/hour plus a 10% burst makes 110 deliverable; the
	// 111th is rate limited. Distinct signatures keep the similarity
	// cooldown out of the picture.
	var last []model.NotificationLogEntry
	for i := 0; i < 111; i++ {
		inst := makeInstance(fmt.Sprintf("inst-%d", i), fmt.Sprintf("sig-%d", i), model.PriorityHigh)
		entries, err := svc.SendAlertNotifications(context.Background(), settings, inst)
		if err != nil {
			t.Fatalf("send %d: %v", i, err)
		}
		last = entries
	}

	if got := sender.calls.Load(); got != 110 {
		t.Errorf("deliveries = %d, want 110", got)
	}
	if len(last) != 1 || last[0].Outcome != model.OutcomeRateLimited {
		t.Fatalf("111th send: entries = %+v, want one rate_limited entry", last)
	}
}

func TestExplicitZeroBurstDisablesAllowance(t *testing.T) {
	sender := &countingSender{}
	zero := 0
	svc, _ := newService(notify.SenderRegistry{model.ChannelEmail: sender}, Config{BurstPercent: &zero})
	settings := emailSettings(model.FrequencyLimits{MaxPerHour: 10})

	// A configured zero keeps the hourly cap hard: exactly MaxPerHour
	// deliveries, no grace slots.
	var last []model.NotificationLogEntry
	for i := 0; i < 11; i++ {
		inst := makeInstance(fmt.Sprintf("inst-%d", i), fmt.Sprintf("sig-%d", i), model.PriorityHigh)
		entries, err := svc.SendAlertNotifications(context.Background(), settings, inst)
		if err != nil {
			t.Fatalf("send %d: %v", i, err)
		}
		last = entries
	}

	if got := sender.calls.Load(); got != 10 {
		t.Errorf("deliveries = %d, want 10", got)
	}
	if len(last) != 1 || last[0].Outcome != model.OutcomeRateLimited {
		t.Fatalf("11th send: entries = %+v, want one rate_limited entry", last)
	}
}

func TestHourWindowResets(t *testing.T) {
	sender := &countingSender{}
	svc, clk := newService(notify.SenderRegistry{model.ChannelEmail: sender}, Config{})
	// MaxPerHour 1 earns no burst slot (10% of 1 rounds to 0).
	settings := emailSettings(model.FrequencyLimits{MaxPerHour: 1})

	send := func(id string) model.DeliveryOutcome {
		inst := makeInstance(id, "sig-"+id, model.PriorityHigh)
		entries, err := svc.SendAlertNotifications(context.Background(), settings, inst)
		if err != nil || len(entries) != 1 {
			t.Fatalf("send %s: entries=%d err=%v", id, len(entries), err)
		}
		return entries[0].Outcome
	}

	if got := send("a"); got != model.OutcomeSuccess {
		t.Fatalf("first send: %s, want success", got)
	}
	if got := send("b"); got != model.OutcomeRateLimited {
		t.Fatalf("second send in window: %s, want rate_limited", got)
	}

	clk.Advance(61 * time.Minute)
	if got := send("c"); got != model.OutcomeSuccess {
		t.Fatalf("send after window reset: %s, want success", got)
	}
}

func TestDailyLimit(t *testing.T) {
	sender := &countingSender{}
	svc, clk := newService(notify.SenderRegistry{model.ChannelEmail: sender}, Config{})
	settings := emailSettings(model.FrequencyLimits{MaxPerDay: 2})

	outcomes := make([]model.DeliveryOutcome, 0, 3)
	for i := 0; i < 3; i++ {
		inst := makeInstance(fmt.Sprintf("inst-%d", i), fmt.Sprintf("sig-%d", i), model.PriorityHigh)
		entries, err := svc.SendAlertNotifications(context.Background(), settings, inst)
		if err != nil || len(entries) != 1 {
			t.Fatalf("send %d: entries=%d err=%v", i, len(entries), err)
		}
		outcomes = append(outcomes, entries[0].Outcome)
		clk.Advance(2 * time.Hour) // hourly window irrelevant, day window persists
	}

	want := []model.DeliveryOutcome{model.OutcomeSuccess, model.OutcomeSuccess, model.OutcomeRateLimited}
	for i := range want {
		if outcomes[i] != want[i] {
			t.Errorf("send %d: %s, want %s", i, outcomes[i], want[i])
		}
	}
}

func TestSimilarAlertCooldown(t *testing.T) {
	sender := &countingSender{}
	svc, clk := newService(notify.SenderRegistry{model.ChannelEmail: sender}, Config{})
	settings := emailSettings(model.FrequencyLimits{CooldownBetweenSimilar: 10})

	send := func(id, sig string) model.DeliveryOutcome {
		inst := makeInstance(id, sig, model.PriorityHigh)
		entries, err := svc.SendAlertNotifications(context.Background(), settings, inst)
		if err != nil || len(entries) != 1 {
			t.Fatalf("send %s: entries=%d err=%v", id, len(entries), err)
		}
		return entries[0].Outcome
	}

	if got := send("a", "sig-x"); got != model.OutcomeSuccess {
		t.Fatalf("first similar: %s", got)
	}
	if got := send("b", "sig-x"); got != model.OutcomeRateLimited {
		t.Fatalf("repeat inside cooldown: %s, want rate_limited", got)
	}
	if got := send("c", "sig-y"); got != model.OutcomeSuccess {
		t.Fatalf("different signature: %s, want success", got)
	}

	clk.Advance(11 * time.Minute)
	if got := send("d", "sig-x"); got != model.OutcomeSuccess {
		t.Fatalf("repeat after cooldown: %s, want success", got)
	}
}

// failingFrequencyStore simulates a counter store outage.
type failingFrequencyStore struct{}

func (failingFrequencyStore) Mutate(context.Context, string, func(*state.FrequencyCounterState) error) error {
	return errors.New("store down")
}
func (failingFrequencyStore) Get(context.Context, string) (state.FrequencyCounterState, bool, error) {
	return state.FrequencyCounterState{}, false, errors.New("store down")
}
func (failingFrequencyStore) Clear(context.Context) error { return nil }

func TestFrequencyFailsClosedOnStoreOutage(t *testing.T) {
	sender := &countingSender{}
	svc := New(&testLogger{}, clockAt(baseTime), failingFrequencyStore{},
		notify.SenderRegistry{model.ChannelEmail: sender}, Config{})
	settings := emailSettings(model.FrequencyLimits{MaxPerHour: 100})

	entries, err := svc.SendAlertNotifications(context.Background(), settings, makeInstance("a", "sig", model.PriorityHigh))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 1 || entries[0].Outcome != model.OutcomeRateLimited {
		t.Fatalf("entries = %+v, want one rate_limited entry", entries)
	}
	if sender.calls.Load() != 0 {
		t.Error("fail-closed limiter must not deliver")
	}
}

func TestFrequencyFailsOpenWhenConfigured(t *testing.T) {
	sender := &countingSender{}
	svc := New(&testLogger{}, clockAt(baseTime), failingFrequencyStore{},
		notify.SenderRegistry{model.ChannelEmail: sender}, Config{FrequencyFailOpen: true})
	settings := emailSettings(model.FrequencyLimits{MaxPerHour: 100})

	entries, err := svc.SendAlertNotifications(context.Background(), settings, makeInstance("a", "sig", model.PriorityHigh))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 1 || entries[0].Outcome != model.OutcomeSuccess {
		t.Fatalf("entries = %+v, want one success entry", entries)
	}
}
