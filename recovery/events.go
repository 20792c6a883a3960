package recovery

import "github.com/tta-dev/workflowcore/observability"

const (
	EventRetryAttempt       observability.EventType = "retry.attempt"
	EventFallbackBranch     observability.EventType = "fallback.branch"
	EventTimeoutFired       observability.EventType = "timeout.fired"
	EventCircuitStateChange observability.EventType = "circuit.state_change"
	EventSagaCompensate     observability.EventType = "saga.compensate"
	EventBulkheadReject     observability.EventType = "bulkhead.reject"
)

// resolveObserver returns the named observer, falling back to NoOpObserver
// for an empty name so recovery primitives work with zero configuration.
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
