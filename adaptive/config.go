package adaptive

// Config parameterizes the base Adaptive primitive.
type Config struct {
	Mode Mode

	// ScopeKey names the WorkflowContext metadata field used to select
	// among per-scope strategies (e.g. "environment"). Empty means every
	// execution shares a single default scope.
	ScopeKey string

	MinObservationsBeforeLearning int
	ValidationWindowSize          int
	ValidationThreshold           float64 // success rate in [0,1] required to graduate

	CircuitBreakerThreshold float64 // failure rate that trips fallback to baseline
	CircuitBreakerWindow    int

	Observer string
}

// DefaultConfig returns conservative defaults: VALIDATE mode, a single
// default scope, 10 validation observations required at an 80% success
// threshold, circuit-breaker fallback at a 50% failure rate over 20 calls.
func DefaultConfig() Config {
	return Config{
		Mode:                          ModeValidate,
		MinObservationsBeforeLearning: 10,
		ValidationWindowSize:          10,
		ValidationThreshold:           0.8,
		CircuitBreakerThreshold:       0.5,
		CircuitBreakerWindow:          20,
	}
}
