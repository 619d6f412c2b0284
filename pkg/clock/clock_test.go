package clock

import (
	"testing"
	"time"
)

func TestMockAdvanceFiresExpiredTimers(t *testing.T) {
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	m := NewMock(start)

	short := m.After(time.Minute)
	long := m.After(time.Hour)

	m.Advance(2 * time.Minute)
	select {
	case at := <-short:
		if want := start.Add(2 * time.Minute); !at.Equal(want) {
			t.Errorf("fired at %v, want %v", at, want)
		}
	default:
		t.Fatal("expired timer did not fire")
	}
	select {
	case <-long:
		t.Fatal("unexpired timer fired")
	default:
	}

	m.Advance(time.Hour)
	select {
	case <-long:
	default:
		t.Fatal("long timer did not fire after advance past deadline")
	}
}

func TestMockAfterNonPositiveFiresImmediately(t *testing.T) {
	m := NewMock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	select {
	case <-m.After(0):
	default:
		t.Fatal("zero-duration timer should be ready")
	}
}

func TestMockSet(t *testing.T) {
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	m := NewMock(start)
	ch := m.After(30 * time.Minute)

	m.Set(start.Add(time.Hour))
	if got := m.Now(); !got.Equal(start.Add(time.Hour)) {
		t.Fatalf("now = %v", got)
	}
	select {
	case <-ch:
	default:
		t.Fatal("forward set should fire pending timers")
	}

	m.Set(start)
	if got := m.Now(); !got.Equal(start) {
		t.Fatalf("backward set: now = %v", got)
	}
}
