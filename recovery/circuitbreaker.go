package recovery

import (
	"context"
	"sync"
	"time"

	"github.com/tta-dev/workflowcore/core"
	"github.com/tta-dev/workflowcore/observability"
)

// CircuitState is one of closed, open, or half-open.
type CircuitState string

const (
	CircuitClosed   CircuitState = "closed"
	CircuitOpen     CircuitState = "open"
	CircuitHalfOpen CircuitState = "half_open"
)

// CircuitBreakerConfig parameterizes CircuitBreaker.
type CircuitBreakerConfig struct {
	FailureThreshold   int // failures within the rolling window before tripping
	WindowSize         int // rolling window size, in calls
	OpenDuration       time.Duration
	HalfOpenProbeCount int
	Observer           string
}

// DefaultCircuitBreakerConfig trips after 5 failures in a 10-call window,
// stays open 30s, and admits 2 half-open probes.
func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		FailureThreshold:   5,
		WindowSize:         10,
		OpenDuration:       30 * time.Second,
		HalfOpenProbeCount: 2,
	}
}

// circuitBreaker holds mutable, process-local, instance-scoped state guarded
// by mu. window is a ring buffer of the last WindowSize call outcomes
// (true = failure).
type circuitBreaker[TIn, TOut any] struct {
	name   string
	target core.Primitive[TIn, TOut]
	cfg    CircuitBreakerConfig
	clock  Clock

	observer observability.Observer

	mu             sync.Mutex
	state          CircuitState
	window         []bool
	windowPos      int
	openedAt       time.Time
	halfOpenProbes int
	halfOpenFails  int
}

// CircuitBreaker wraps target with closed/open/half-open failure isolation.
// State is per-instance; constructing a new
// CircuitBreaker produces independent state.
func CircuitBreaker[TIn, TOut any](name string, target core.Primitive[TIn, TOut], cfg CircuitBreakerConfig) core.Primitive[TIn, TOut] {
	return newCircuitBreaker(name, target, cfg, SystemClock)
}

// CircuitBreakerWithClock is CircuitBreaker with an injectable Clock.
func CircuitBreakerWithClock[TIn, TOut any](name string, target core.Primitive[TIn, TOut], cfg CircuitBreakerConfig, clock Clock) core.Primitive[TIn, TOut] {
	return newCircuitBreaker(name, target, cfg, clock)
}

func newCircuitBreaker[TIn, TOut any](name string, target core.Primitive[TIn, TOut], cfg CircuitBreakerConfig, clock Clock) *circuitBreaker[TIn, TOut] {
	if cfg.WindowSize <= 0 {
		cfg.WindowSize = cfg.FailureThreshold
	}
	return &circuitBreaker[TIn, TOut]{
		name:     name,
		target:   target,
		cfg:      cfg,
		clock:    clock,
		observer: resolveObserver(cfg.Observer),
		state:    CircuitClosed,
		window:   make([]bool, 0, cfg.WindowSize),
	}
}

func (c *circuitBreaker[TIn, TOut]) Name() string { return c.name }

// State returns the breaker's current state. Exposed for tests and health
// reporting.
func (c *circuitBreaker[TIn, TOut]) State() CircuitState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *circuitBreaker[TIn, TOut]) Execute(ctx context.Context, in TIn, wctx *core.WorkflowContext) (TOut, error) {
	var zero TOut
	if err := ctx.Err(); err != nil {
		return zero, &core.CancelledError{Primitive: c.name, Err: err}
	}

	if blocked, openSince := c.admit(); blocked {
		return zero, &CircuitOpenError{Primitive: c.name, OpenSince: openSince.UnixMilli()}
	}

	out, err := c.target.Execute(ctx, in, wctx)
	c.record(err == nil)
	return out, err
}

// admit checks whether a call may proceed, transitioning open -> half-open
// once OpenDuration has elapsed.
func (c *circuitBreaker[TIn, TOut]) admit() (blocked bool, openSince time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case CircuitOpen:
		if c.clock.Now().Sub(c.openedAt) >= c.cfg.OpenDuration {
			c.transition(CircuitHalfOpen)
			// The call that triggers the transition is the first probe.
			c.halfOpenProbes = 1
			c.halfOpenFails = 0
		} else {
			return true, c.openedAt
		}
	case CircuitHalfOpen:
		if c.halfOpenProbes >= c.cfg.HalfOpenProbeCount {
			return true, c.openedAt
		}
		c.halfOpenProbes++
	}
	return false, time.Time{}
}

func (c *circuitBreaker[TIn, TOut]) record(success bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case CircuitHalfOpen:
		if !success {
			c.halfOpenFails++
			c.openedAt = c.clock.Now()
			c.transition(CircuitOpen)
			return
		}
		if c.halfOpenProbes >= c.cfg.HalfOpenProbeCount && c.halfOpenFails == 0 {
			c.window = c.window[:0]
			c.transition(CircuitClosed)
		}
	case CircuitClosed:
		if len(c.window) >= c.cfg.WindowSize {
			c.window = c.window[1:]
		}
		c.window = append(c.window, !success)

		failures := 0
		for _, failed := range c.window {
			if failed {
				failures++
			}
		}
		if failures >= c.cfg.FailureThreshold {
			c.openedAt = c.clock.Now()
			c.transition(CircuitOpen)
		}
	}
}

func (c *circuitBreaker[TIn, TOut]) transition(to CircuitState) {
	from := c.state
	c.state = to
	if from == to {
		return
	}
	c.observer.OnEvent(context.Background(), observability.Event{
		Type:      EventCircuitStateChange,
		Level:     observability.LevelWarning,
		Timestamp: c.clock.Now(),
		Source:    "recovery.CircuitBreaker",
		Data: map[string]any{
			"primitive": c.name,
			"from":      string(from),
			"to":        string(to),
		},
	})
}
