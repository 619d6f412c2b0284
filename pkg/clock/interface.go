package clock

import "time"

// Clock abstracts wall-clock access so cooldown, quiet-hours and
// frequency-window logic can be tested deterministically. All engine
// components read time exclusively through this interface.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

// New returns a Clock backed by the system clock.
func New() Clock {
	return &realClock{}
}
