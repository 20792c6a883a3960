package adaptive

// Mode controls how aggressively an Adaptive primitive acts on proposed
// strategies.
type Mode string

const (
	// ModeDisabled always runs the baseline strategy; no learning occurs.
	ModeDisabled Mode = "disabled"

	// ModeObserve runs the baseline and files the learning hook's proposal
	// as a candidate, but never runs the candidate, records no metrics for
	// it, and never adopts it.
	ModeObserve Mode = "observe"

	// ModeValidate may run a proposed strategy during a rolling validation
	// window, adopting it only once its window success rate meets the
	// configured threshold.
	ModeValidate Mode = "validate"

	// ModeActive adopts validated strategies immediately, retaining the
	// baseline for circuit-breaker fallback.
	ModeActive Mode = "active"
)
