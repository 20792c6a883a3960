package recovery

import "fmt"

// TimeoutError fires when a Timeout primitive's target does not complete
// within the configured duration.
type TimeoutError struct {
	Primitive string
	TimeoutMS int64
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("recovery: %s timed out after %dms", e.Primitive, e.TimeoutMS)
}

// RetriesExhaustedError surfaces when a Retry primitive gives up after its
// last attempt, carrying the final attempt's failure.
type RetriesExhaustedError struct {
	Primitive string
	Attempts  int
	Err       error
}

func (e *RetriesExhaustedError) Error() string {
	return fmt.Sprintf("recovery: %s exhausted %d attempts: %v", e.Primitive, e.Attempts, e.Err)
}

func (e *RetriesExhaustedError) Unwrap() error { return e.Err }

// AllFallbacksFailedError surfaces when a Fallback primitive's primary and
// every fallback branch failed.
type AllFallbacksFailedError struct {
	Primitive string
	Errors    []error // index 0 is the primary, 1..N are fallbacks in order
}

func (e *AllFallbacksFailedError) Error() string {
	return fmt.Sprintf("recovery: %s: all %d branches failed", e.Primitive, len(e.Errors))
}

func (e *AllFallbacksFailedError) Unwrap() []error { return e.Errors }

// CircuitOpenError is raised when a CircuitBreaker rejects a call fast
// without invoking its target because the breaker is open.
type CircuitOpenError struct {
	Primitive string
	OpenSince int64 // unix millis the breaker tripped
}

func (e *CircuitOpenError) Error() string {
	return fmt.Sprintf("recovery: %s circuit is open", e.Primitive)
}

// BulkheadRejectedError is raised when a Bulkhead configured to reject
// overflow cannot admit a new execution.
type BulkheadRejectedError struct {
	Primitive     string
	MaxConcurrent int
}

func (e *BulkheadRejectedError) Error() string {
	return fmt.Sprintf("recovery: %s rejected: %d concurrent executions already admitted", e.Primitive, e.MaxConcurrent)
}

// CompensatorOutcome records the result of running a single compensator
// during saga rollback.
type CompensatorOutcome struct {
	Index   int
	Err     error // nil if the compensator succeeded
}

// SagaFailedError surfaces when a Compensation primitive's action sequence
// failed, carrying a report of every compensator that ran in response.
type SagaFailedError struct {
	Primitive    string
	FailedAction int
	Err          error
	Compensators []CompensatorOutcome
}

func (e *SagaFailedError) Error() string {
	return fmt.Sprintf("recovery: %s failed at action %d: %v (%d compensators ran)", e.Primitive, e.FailedAction, e.Err, len(e.Compensators))
}

func (e *SagaFailedError) Unwrap() error { return e.Err }
