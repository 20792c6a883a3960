package instrument

import (
	"errors"

	"github.com/tta-dev/workflowcore/core"
	"github.com/tta-dev/workflowcore/recovery"
)

// errorKind classifies err into a short, stable label suitable for a metric
// label or span attribute. Unrecognized errors fall back to "unknown".
// TargetError is checked last: recovery wrappers carry their target's
// failure as a cause, and the outermost kind is the one the caller saw.
func errorKind(err error) string {
	if err == nil {
		return ""
	}

	var invalidContext *core.InvalidContextError
	var typeMismatch *core.TypeMismatchError
	var predicate *core.PredicateError
	var noMatch *core.NoMatchingBranchError
	var allFailed *core.AllBranchesFailedError
	var cancelled *core.CancelledError
	var timedOut *recovery.TimeoutError
	var exhausted *recovery.RetriesExhaustedError
	var fallbacksFailed *recovery.AllFallbacksFailedError
	var circuitOpen *recovery.CircuitOpenError
	var bulkheadRejected *recovery.BulkheadRejectedError
	var sagaFailed *recovery.SagaFailedError
	var target *core.TargetError

	switch {
	case errors.As(err, &invalidContext):
		return "invalid_context"
	case errors.As(err, &typeMismatch):
		return "type_mismatch"
	case errors.As(err, &predicate):
		return "predicate_error"
	case errors.As(err, &noMatch):
		return "no_matching_branch"
	case errors.As(err, &allFailed):
		return "all_branches_failed"
	case errors.As(err, &cancelled):
		return "cancelled"
	case errors.As(err, &timedOut):
		return "timeout"
	case errors.As(err, &exhausted):
		return "retries_exhausted"
	case errors.As(err, &fallbacksFailed):
		return "all_fallbacks_failed"
	case errors.As(err, &circuitOpen):
		return "circuit_open"
	case errors.As(err, &bulkheadRejected):
		return "bulkhead_rejected"
	case errors.As(err, &sagaFailed):
		return "saga_failed"
	case errors.As(err, &target):
		return "target_error"
	default:
		return "unknown"
	}
}
