package workflowtest

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/tta-dev/workflowcore/instrument"
	"github.com/tta-dev/workflowcore/observability"
)

var fixtureSeq atomic.Int64

// Fixture bundles everything a workflow test needs: an observability
// Config scoped to the test (sampling rate 1.0 by default, so every
// execution is observed), a disposable SpanCollector registered under a
// name unique to this fixture, and a deterministic Clock.
type Fixture struct {
	Config         observability.Config
	Spans          *SpanCollector
	Clock          *Clock
	ObserverName   string
	InstrumentOpts instrument.Config
}

// NewFixture builds a Fixture with sampling disabled (rate 1.0, i.e.
// always sample) so tests observe every event deterministically, and
// registers its SpanCollector under a process-unique observer name to
// avoid collisions between parallel tests sharing the global registry.
func NewFixture() *Fixture {
	cfg := observability.DefaultConfig()
	cfg.Sampling.DefaultRate = 1.0
	cfg.Sampling.AdaptiveEnabled = false

	name := fmt.Sprintf("workflowtest-%d", fixtureSeq.Add(1))
	collector := NewSpanCollector()
	observability.RegisterObserver(name, collector)

	return &Fixture{
		Config:       cfg,
		Spans:        collector,
		Clock:        NewClock(time.Unix(0, 0).UTC()),
		ObserverName: name,
		InstrumentOpts: instrument.Config{
			Observer: name,
		},
	}
}

// Sampler builds an observability.Sampler from the fixture's Config,
// convenient for tests that want to attach one via instrument.WithSampler.
func (f *Fixture) Sampler() *observability.Sampler {
	return observability.NewSampler(f.Config.Sampling)
}
