package adaptive

import "sync"

// Outcome is a single recorded execution result, passed to the
// implementation hook's ProposeStrategy so it can reason about recent
// performance without reaching into the store's internals.
type Outcome struct {
	Success   bool
	LatencyMS float64
}

// Persister optionally persists a learned strategy to an external knowledge
// base. Persist is called in its own goroutine and must be best-effort: it
// must never block execution and is never retried synchronously.
type Persister interface {
	Persist(scope string, strategy *LearningStrategy)
}

// scopedState is the per-scope mutable state an Adaptive primitive
// maintains: the baseline strategy, a strategy under validation (if any),
// the currently active learned strategy (if any), and rolling windows used
// for validation graduation and circuit-breaker fallback.
type scopedState struct {
	mu sync.Mutex

	baseline  *LearningStrategy
	candidate *LearningStrategy
	active    *LearningStrategy
	validated bool

	validationWindow []bool
	recentOutcomes   []Outcome // bounded history fed to ProposeStrategy
	circuitWindow    []bool
}

// StrategyStore holds the per-scope state for all scopes an Adaptive
// primitive has seen, guarded by its own mutex. This is mutable,
// process-local, instance-scoped state; nothing is shared across process
// boundaries.
type StrategyStore struct {
	mu     sync.Mutex
	scopes map[string]*scopedState
}

// NewStrategyStore creates an empty store.
func NewStrategyStore() *StrategyStore {
	return &StrategyStore{scopes: make(map[string]*scopedState)}
}

func (s *StrategyStore) stateFor(scope string, baseline *LearningStrategy) *scopedState {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.scopes[scope]
	if !ok {
		state = &scopedState{baseline: baseline}
		s.scopes[scope] = state
	}
	return state
}

// ActiveStrategy returns the strategy currently in effect for scope: the
// active learned strategy if one is validated and not circuit-tripped,
// otherwise the baseline. Exposed for tests and health reporting.
func (s *StrategyStore) ActiveStrategy(scope string) *LearningStrategy {
	s.mu.Lock()
	state, ok := s.scopes[scope]
	s.mu.Unlock()
	if !ok {
		return nil
	}

	state.mu.Lock()
	defer state.mu.Unlock()
	if state.active != nil && state.validated {
		return state.active
	}
	return state.baseline
}

// IsValidated reports whether scope's active strategy has graduated out of
// its validation window.
func (s *StrategyStore) IsValidated(scope string) bool {
	s.mu.Lock()
	state, ok := s.scopes[scope]
	s.mu.Unlock()
	if !ok {
		return false
	}
	state.mu.Lock()
	defer state.mu.Unlock()
	return state.validated
}
