package observability

import (
	"sync"
	"time"
)

// AdaptiveController closes the loop between observed telemetry overhead
// and a Sampler's head rate. Callers feed it overhead measurements (the
// fraction of process time attributable to telemetry, measured or
// estimated from recent export durations); the controller nudges the rate
// toward AdaptiveTargetOverhead, clamped by the Sampler to
// [AdaptiveMinRate, AdaptiveMaxRate], and never adjusts more often than
// AdjustmentIntervalSeconds.
//
// The update rule is deliberately asymmetric: when observed overhead
// exceeds the target the rate drops proportionally in a single step, but
// recovery back up is a gentle fixed-percentage climb. Shedding load fast
// and re-earning it slowly keeps a production incident from oscillating
// the sampler.
type AdaptiveController struct {
	mu         sync.Mutex
	cfg        SamplingConfig
	sampler    *Sampler
	lastAdjust time.Time
	now        func() time.Time
}

// increaseStep is the fractional rate growth applied per adjustment while
// observed overhead sits below target.
const increaseStep = 0.1

// NewAdaptiveController builds a controller driving sampler's rate from
// overhead observations, per cfg.
func NewAdaptiveController(cfg SamplingConfig, sampler *Sampler) *AdaptiveController {
	return &AdaptiveController{cfg: cfg, sampler: sampler, now: time.Now}
}

// NewAdaptiveControllerWithClock is NewAdaptiveController with an
// injectable time source, for deterministic tests of the adjustment gate.
func NewAdaptiveControllerWithClock(cfg SamplingConfig, sampler *Sampler, now func() time.Time) *AdaptiveController {
	c := NewAdaptiveController(cfg, sampler)
	c.now = now
	return c
}

// ObserveOverhead records one overhead measurement and, if the adjustment
// interval has elapsed, moves the sampler's rate toward the configured
// target. Returns true when a rate adjustment was applied this call.
// Measurements arriving inside the interval are dropped rather than
// averaged; the next admitted measurement speaks for the interval.
func (c *AdaptiveController) ObserveOverhead(observed float64) bool {
	if !c.cfg.AdaptiveEnabled || observed < 0 {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	interval := time.Duration(c.cfg.AdjustmentIntervalSeconds) * time.Second
	now := c.now()
	if !c.lastAdjust.IsZero() && now.Sub(c.lastAdjust) < interval {
		return false
	}

	rate := c.sampler.Rate()
	target := c.cfg.AdaptiveTargetOverhead

	var next float64
	switch {
	case target <= 0:
		return false
	case observed > target:
		next = rate * (target / observed)
	default:
		next = rate * (1 + increaseStep)
	}

	c.sampler.AdjustRate(next)
	c.lastAdjust = now
	return true
}

// LastAdjustedAt returns when the controller last applied an adjustment,
// zero if it never has.
func (c *AdaptiveController) LastAdjustedAt() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastAdjust
}
