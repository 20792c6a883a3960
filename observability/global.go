package observability

import "sync"

var (
	globalMu  sync.RWMutex
	globalCfg = DefaultConfig()
)

// SetConfig installs cfg as the process-global observability configuration,
// consulted by components that are not handed an explicit Config.
func SetConfig(cfg Config) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalCfg = cfg
}

// GetConfig returns the process-global observability configuration.
// Defaults to DefaultConfig until SetConfig is called.
func GetConfig() Config {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalCfg
}
