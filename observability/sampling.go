package observability

import (
	"hash/maphash"
	"sync"
	"time"
)

// Decision records the outcome of a sampling choice and why it was made,
// so an observer can distinguish "dropped for volume" from "dropped, no
// reason to keep" in a post-mortem.
type Decision string

const (
	DecisionSample      Decision = "SAMPLE"
	DecisionDrop        Decision = "DROP"
	DecisionRecordOnly  Decision = "RECORD_ONLY"
)

// SamplingDecision is the result attached to a trace the first time it is
// evaluated. RateAtDecision records the rate in effect so replay and
// debugging can reconstruct why a trace landed where it did.
type SamplingDecision struct {
	Decision       Decision
	Reason         string
	RateAtDecision float64
}

func (d SamplingDecision) Sampled() bool {
	return d.Decision == DecisionSample
}

// Sampler makes head and tail sampling decisions against a Config. A head
// decision is deterministic per correlation ID: hashing the ID against the
// configured rate means the same trace always draws the same outcome, and
// the decision is cached so every span in the trace consults the identical
// answer instead of independently rolling dice: sampling a parent implies
// sampling every child span.
type Sampler struct {
	mu          sync.Mutex
	cfg         SamplingConfig
	seed        maphash.Seed
	decided     map[string]SamplingDecision
	rate        float64 // current adaptive rate, defaults to cfg.DefaultRate
	adjustments []RateAdjustment
	now         func() time.Time
}

// RateAdjustment records one call to AdjustRate, for health reporting.
type RateAdjustment struct {
	At   time.Time
	Rate float64
}

const maxRateAdjustmentHistory = 20

// NewSampler builds a Sampler from cfg.
func NewSampler(cfg SamplingConfig) *Sampler {
	return &Sampler{
		cfg:     cfg,
		seed:    maphash.MakeSeed(),
		decided: make(map[string]SamplingDecision),
		rate:    cfg.DefaultRate,
		now:     time.Now,
	}
}

// NewSamplerWithClock builds a Sampler using now as its time source, for
// deterministic tests of adjustment history.
func NewSamplerWithClock(cfg SamplingConfig, now func() time.Time) *Sampler {
	s := NewSampler(cfg)
	s.now = now
	return s
}

// Head returns the cached head-sampling decision for correlationID,
// computing and caching it on first call. The draw is a deterministic hash
// of the correlation ID scaled into [0,1) and compared against the current
// rate, so repeated calls for the same trace never disagree.
func (s *Sampler) Head(correlationID string) SamplingDecision {
	s.mu.Lock()
	defer s.mu.Unlock()

	if d, ok := s.decided[correlationID]; ok {
		return d
	}

	var h maphash.Hash
	h.SetSeed(s.seed)
	h.WriteString(correlationID)
	draw := float64(h.Sum64()%1_000_000) / 1_000_000

	d := SamplingDecision{RateAtDecision: s.rate}
	if draw < s.rate {
		d.Decision = DecisionSample
		d.Reason = "head sampling draw within rate"
	} else {
		d.Decision = DecisionDrop
		d.Reason = "head sampling draw outside rate"
	}

	s.decided[correlationID] = d
	return d
}

// Tail re-evaluates a trace once its outcome is known, promoting a head-drop
// decision to RECORD_ONLY when the trace failed or ran slow and the
// corresponding AlwaysSample* flag is set. Tail never demotes a decision
// already at SAMPLE; promotion is monotonic.
func (s *Sampler) Tail(correlationID string, failed bool, durationMS int64) SamplingDecision {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.decided[correlationID]
	if !ok {
		d = SamplingDecision{Decision: DecisionDrop, Reason: "no head decision recorded", RateAtDecision: s.rate}
	}

	if d.Decision == DecisionSample {
		return d
	}

	if failed && s.cfg.AlwaysSampleErrors {
		d.Decision = DecisionRecordOnly
		d.Reason = "tail promotion: trace contained an error"
	} else if s.cfg.AlwaysSampleSlow && durationMS > s.cfg.SlowThresholdMS {
		d.Decision = DecisionRecordOnly
		d.Reason = "tail promotion: trace exceeded slow threshold"
	}

	s.decided[correlationID] = d
	return d
}

// Forget releases the cached decision for correlationID. Callers invoke this
// once a trace finishes to bound the decision cache's memory footprint.
func (s *Sampler) Forget(correlationID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.decided, correlationID)
}

// AdjustRate overrides the current sampling rate, clamped to
// [AdaptiveMinRate, AdaptiveMaxRate]. Intended to be called periodically by
// an adaptive controller reacting to measured instrumentation overhead.
func (s *Sampler) AdjustRate(rate float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rate < s.cfg.AdaptiveMinRate {
		rate = s.cfg.AdaptiveMinRate
	}
	if rate > s.cfg.AdaptiveMaxRate {
		rate = s.cfg.AdaptiveMaxRate
	}
	s.rate = rate

	s.adjustments = append(s.adjustments, RateAdjustment{At: s.now(), Rate: rate})
	if len(s.adjustments) > maxRateAdjustmentHistory {
		s.adjustments = s.adjustments[len(s.adjustments)-maxRateAdjustmentHistory:]
	}
}

// Rate returns the sampler's current effective rate.
func (s *Sampler) Rate() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rate
}

// RecentAdjustments returns a copy of the most recent adaptive rate changes,
// oldest first.
func (s *Sampler) RecentAdjustments() []RateAdjustment {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]RateAdjustment, len(s.adjustments))
	copy(out, s.adjustments)
	return out
}
