package adaptive

import "github.com/tta-dev/workflowcore/observability"

const (
	EventStrategyProposed  observability.EventType = "strategy.proposed"
	EventStrategyValidated observability.EventType = "strategy.validated"
	EventStrategyRejected  observability.EventType = "strategy.rejected"
	EventCircuitFallback   observability.EventType = "strategy.circuit_fallback"
)

// resolveObserver returns the named observer, falling back to NoOpObserver
// for an empty or unresolvable name so Adaptive works with zero configuration.
func resolveObserver(name string) observability.Observer {
	if name == "" {
		return observability.NoOpObserver{}
	}
	obs, err := observability.GetObserver(name)
	if err != nil {
		return observability.NoOpObserver{}
	}
	return obs
}
