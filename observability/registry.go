package observability

import (
	"fmt"
	"log/slog"
	"sync"
)

// The registry maps the observer names carried in config structs
// (instrument.Config.Observer, recovery's RetryConfig.Observer, and so on)
// to live Observer instances, so JSON-friendly configuration can reference
// observers without holding them.
var (
	observers = map[string]Observer{
		"noop": NoOpObserver{},
		"slog": NewSlogObserver(slog.Default()),
	}
	mutex sync.RWMutex
)

// GetObserver returns a registered observer by name. "noop" and "slog"
// (the default logger) are pre-registered.
func GetObserver(name string) (Observer, error) {
	mutex.RLock()
	defer mutex.RUnlock()

	obs, exists := observers[name]
	if !exists {
		return nil, fmt.Errorf("observability: unknown observer %q", name)
	}
	return obs, nil
}

// RegisterObserver adds or replaces a named observer in the global
// registry. Call before constructing the primitives whose config names it;
// a primitive resolves its observer once at construction time.
func RegisterObserver(name string, observer Observer) {
	mutex.Lock()
	defer mutex.Unlock()

	observers[name] = observer
}
