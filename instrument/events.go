package instrument

import "github.com/tta-dev/workflowcore/observability"

// Re-exported so callers asserting on instrumentation output need not
// import observability directly.
const (
	EventPrimitiveStart    = observability.EventPrimitiveStart
	EventPrimitiveComplete = observability.EventPrimitiveComplete
)

const sourceName = "instrument.Wrap"
