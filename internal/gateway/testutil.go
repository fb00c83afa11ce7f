package gateway

import "time"

// NewSingleDriver wires a Gateway around one already-constructed Driver,
// bypassing New's config-driven provider setup. Intended for tests in
// dependent packages (analyzer, intent, regenerator, suggest) that need a
// Gateway backed by a scripted fake rather than a real provider SDK.
func NewSingleDriver(name, model string, d Driver) *Gateway {
	return &Gateway{
		providers:  []providerEntry{{name: name, model: model, weight: 10, driver: d}},
		health:     NewHealthStore(5, time.Minute),
		maxRetries: 0,
		retryDelay: time.Millisecond,
	}
}
