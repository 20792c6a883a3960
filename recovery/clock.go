package recovery

import "time"

// Clock abstracts wall-clock waiting so Retry and CircuitBreaker tests can
// run on simulated time instead of sleeping real durations. Timeout uses
// context.WithTimeout and takes no Clock.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

// systemClock delegates to the time package.
type systemClock struct{}

func (systemClock) Now() time.Time                  { return time.Now() }
func (systemClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// SystemClock is the default Clock used when none is configured.
var SystemClock Clock = systemClock{}
