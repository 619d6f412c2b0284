package clock

import (
	"sync"
	"time"
)

type realClock struct{}

func (realClock) Now() time.Time                         { return time.Now() }
func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// Mock is a manually advanced Clock for tests.
type Mock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*mockTimer
}

type mockTimer struct {
	deadline time.Time
	ch       chan time.Time
}

// NewMock returns a Mock pinned at the given instant.
func NewMock(now time.Time) *Mock {
	return &Mock{now: now}
}

func (m *Mock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *Mock) After(d time.Duration) <-chan time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := &mockTimer{deadline: m.now.Add(d), ch: make(chan time.Time, 1)}
	if d <= 0 {
		t.ch <- m.now
		return t.ch
	}
	m.timers = append(m.timers, t)
	return t.ch
}

// Advance moves the mock clock forward and fires any timers whose
// deadline has passed.
func (m *Mock) Advance(d time.Duration) {
	m.mu.Lock()
	m.now = m.now.Add(d)
	remaining := m.timers[:0]
	var fired []*mockTimer
	for _, t := range m.timers {
		if !t.deadline.After(m.now) {
			fired = append(fired, t)
		} else {
			remaining = append(remaining, t)
		}
	}
	m.timers = remaining
	now := m.now
	m.mu.Unlock()

	for _, t := range fired {
		t.ch <- now
	}
}

// Set jumps the mock clock to an absolute instant.
func (m *Mock) Set(now time.Time) {
	m.mu.Lock()
	d := now.Sub(m.now)
	m.mu.Unlock()
	if d > 0 {
		m.Advance(d)
		return
	}
	m.mu.Lock()
	m.now = now
	m.mu.Unlock()
}
