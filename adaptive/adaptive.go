// Package adaptive selects among competing configuration strategies for a
// wrapped target, learning from outcomes and promoting new strategies only
// once they outperform the baseline.
package adaptive

import (
	"context"
	"time"

	"github.com/tta-dev/workflowcore/core"
	"github.com/tta-dev/workflowcore/observability"
)

// Hook supplies the domain-specific half of an adaptive primitive: how to
// run the work under a chosen strategy, and how to propose a new one from
// recent outcomes.
type Hook[TIn, TOut any] interface {
	// ExecuteWithStrategy runs the work using strategy's parameters.
	ExecuteWithStrategy(ctx context.Context, in TIn, strategy *LearningStrategy, wctx *core.WorkflowContext) (TOut, error)

	// ProposeStrategy inspects recent outcomes and optionally returns a new
	// candidate strategy derived from baseline. Returning nil means no
	// proposal this round.
	ProposeStrategy(baseline *LearningStrategy, recent []Outcome) *LearningStrategy
}

const recentOutcomeHistory = 50

type adaptive[TIn, TOut any] struct {
	name      string
	hook      Hook[TIn, TOut]
	baseline  *LearningStrategy
	cfg       Config
	store     *StrategyStore
	persister Persister
	observer  observability.Observer
	now       func() time.Time
}

// Option configures optional Adaptive behavior not carried by Config.
type Option func(*adaptiveOptions)

type adaptiveOptions struct {
	store     *StrategyStore
	persister Persister
	now       func() time.Time
}

// WithStore attaches a shared StrategyStore, letting multiple Adaptive
// instances (or test code) observe the same learned state. Without one, a
// private store is created.
func WithStore(store *StrategyStore) Option {
	return func(o *adaptiveOptions) { o.store = store }
}

// WithPersister attaches a best-effort external persistence sink.
func WithPersister(p Persister) Option {
	return func(o *adaptiveOptions) { o.persister = p }
}

// WithClockFunc overrides the time source used for latency measurement,
// for deterministic tests.
func WithClockFunc(now func() time.Time) Option {
	return func(o *adaptiveOptions) { o.now = now }
}

// Adaptive wraps target's domain-specific execution (via hook) with
// strategy selection, outcome recording, validation, and circuit-breaker
// fallback to baseline.
func Adaptive[TIn, TOut any](name string, hook Hook[TIn, TOut], baseline *LearningStrategy, cfg Config, opts ...Option) core.Primitive[TIn, TOut] {
	o := adaptiveOptions{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if o.store == nil {
		o.store = NewStrategyStore()
	}

	return &adaptive[TIn, TOut]{
		name:      name,
		hook:      hook,
		baseline:  baseline,
		cfg:       cfg,
		store:     o.store,
		persister: o.persister,
		observer:  resolveObserver(cfg.Observer),
		now:       o.now,
	}
}

func (a *adaptive[TIn, TOut]) Name() string { return a.name }

// Store exposes the underlying StrategyStore, e.g. for health reporting.
func (a *adaptive[TIn, TOut]) Store() *StrategyStore { return a.store }

func (a *adaptive[TIn, TOut]) scopeOf(wctx *core.WorkflowContext) string {
	if a.cfg.ScopeKey == "" {
		return "default"
	}
	v, ok := wctx.Get(a.cfg.ScopeKey)
	if !ok {
		return "default"
	}
	if s, ok := v.(string); ok {
		return s
	}
	return "default"
}

func (a *adaptive[TIn, TOut]) Execute(ctx context.Context, in TIn, wctx *core.WorkflowContext) (TOut, error) {
	var zero TOut
	if err := ctx.Err(); err != nil {
		return zero, &core.CancelledError{Primitive: a.name, Err: err}
	}

	scope := a.scopeOf(wctx)
	state := a.store.stateFor(scope, a.baseline)

	strategy, runningCandidate := a.selectStrategy(state)

	start := a.now()
	out, err := a.hook.ExecuteWithStrategy(ctx, in, strategy, wctx)
	latencyMS := float64(a.now().Sub(start).Microseconds()) / 1000.0
	success := err == nil

	strategy.record(success, latencyMS)

	state.mu.Lock()
	state.recentOutcomes = append(state.recentOutcomes, Outcome{Success: success, LatencyMS: latencyMS})
	if len(state.recentOutcomes) > recentOutcomeHistory {
		state.recentOutcomes = state.recentOutcomes[len(state.recentOutcomes)-recentOutcomeHistory:]
	}
	recent := append([]Outcome(nil), state.recentOutcomes...)
	state.mu.Unlock()

	if a.cfg.Mode != ModeDisabled {
		if runningCandidate {
			a.recordValidationOutcome(ctx, scope, state, success)
		} else if state.baseline.Observations() >= int64(a.cfg.MinObservationsBeforeLearning) {
			a.considerProposal(ctx, scope, state, recent)
		}
	}

	if runningCandidate {
		a.checkCircuitBreaker(ctx, scope, state, success)
	}

	return out, err
}

// selectStrategy chooses baseline, a candidate under validation, or an
// already-adopted active strategy, per the current mode and circuit state.
func (a *adaptive[TIn, TOut]) selectStrategy(state *scopedState) (strategy *LearningStrategy, runningCandidate bool) {
	state.mu.Lock()
	defer state.mu.Unlock()

	if a.cfg.Mode == ModeDisabled || a.cfg.Mode == ModeObserve {
		return state.baseline, false
	}

	if state.active != nil && state.validated {
		return state.active, true
	}

	if state.candidate != nil {
		return state.candidate, true
	}

	return state.baseline, false
}

// considerProposal asks the hook for a new candidate strategy once enough
// baseline observations exist, and files it according to mode. A strategy
// is never proposed from fewer than MinObservationsBeforeLearning
// outcomes.
func (a *adaptive[TIn, TOut]) considerProposal(ctx context.Context, scope string, state *scopedState, recent []Outcome) {
	state.mu.Lock()
	hasCandidate := state.candidate != nil
	hasActive := state.active != nil && state.validated
	state.mu.Unlock()
	if hasCandidate || hasActive {
		return
	}

	proposal := a.hook.ProposeStrategy(state.baseline, recent)
	if proposal == nil {
		return
	}

	state.mu.Lock()
	switch a.cfg.Mode {
	case ModeActive:
		state.active = proposal
		state.validated = true
	default: // ModeValidate, ModeObserve
		state.candidate = proposal
		state.validationWindow = state.validationWindow[:0]
	}
	state.circuitWindow = state.circuitWindow[:0]
	state.mu.Unlock()

	a.observer.OnEvent(ctx, observability.Event{
		Type:      EventStrategyProposed,
		Level:     observability.LevelInfo,
		Timestamp: a.now(),
		Source:    "adaptive.Adaptive",
		Data:      map[string]any{"primitive": a.name, "scope": scope, "strategy": proposal.ID, "mode": string(a.cfg.Mode)},
	})
}

// recordValidationOutcome appends success to the candidate's validation
// window and graduates or rejects it once the window is full.
func (a *adaptive[TIn, TOut]) recordValidationOutcome(ctx context.Context, scope string, state *scopedState, success bool) {
	if a.cfg.Mode != ModeValidate {
		return
	}

	state.mu.Lock()
	if state.candidate == nil {
		state.mu.Unlock()
		return
	}
	state.validationWindow = append(state.validationWindow, success)
	if len(state.validationWindow) < a.cfg.ValidationWindowSize {
		state.mu.Unlock()
		return
	}

	passes := 0
	for _, ok := range state.validationWindow {
		if ok {
			passes++
		}
	}
	rate := float64(passes) / float64(len(state.validationWindow))
	candidate := state.candidate
	graduated := rate >= a.cfg.ValidationThreshold
	if graduated {
		state.active = candidate
		state.validated = true
		state.candidate = nil
	} else {
		state.candidate = nil
	}
	state.validationWindow = state.validationWindow[:0]
	state.mu.Unlock()

	eventType := EventStrategyRejected
	if graduated {
		eventType = EventStrategyValidated
		if a.persister != nil {
			go a.persister.Persist(scope, candidate)
		}
	}
	a.observer.OnEvent(ctx, observability.Event{
		Type:      eventType,
		Level:     observability.LevelInfo,
		Timestamp: a.now(),
		Source:    "adaptive.Adaptive",
		Data:      map[string]any{"primitive": a.name, "scope": scope, "strategy": candidate.ID, "success_rate": rate},
	})
}

// checkCircuitBreaker falls an active strategy back to baseline, without
// removing it, if its rolling failure rate exceeds the configured
// threshold.
func (a *adaptive[TIn, TOut]) checkCircuitBreaker(ctx context.Context, scope string, state *scopedState, success bool) {
	state.mu.Lock()
	if state.active == nil || !state.validated {
		state.mu.Unlock()
		return
	}
	state.circuitWindow = append(state.circuitWindow, success)
	if len(state.circuitWindow) > a.cfg.CircuitBreakerWindow {
		state.circuitWindow = state.circuitWindow[len(state.circuitWindow)-a.cfg.CircuitBreakerWindow:]
	}

	failures := 0
	for _, ok := range state.circuitWindow {
		if !ok {
			failures++
		}
	}
	tripped := len(state.circuitWindow) == a.cfg.CircuitBreakerWindow &&
		float64(failures)/float64(len(state.circuitWindow)) > a.cfg.CircuitBreakerThreshold
	if tripped {
		state.validated = false
	}
	state.mu.Unlock()

	if tripped {
		a.observer.OnEvent(ctx, observability.Event{
			Type:      EventCircuitFallback,
			Level:     observability.LevelWarning,
			Timestamp: a.now(),
			Source:    "adaptive.Adaptive",
			Data:      map[string]any{"primitive": a.name, "scope": scope},
		})
	}
}
