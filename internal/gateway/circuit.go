package gateway

import (
	"sync"
	"time"

	"github.com/promadgenius/qacanvas/control-plane/pkg/models"
	"github.com/rs/zerolog/log"
)

// HealthStore owns the provider health map behind one mutex: callers never
// read or write the map directly, only through its methods.
type HealthStore struct {
	mu        sync.RWMutex
	health    map[string]*models.ProviderHealth
	threshold int
	resetWait time.Duration
}

func NewHealthStore(threshold int, resetWait time.Duration) *HealthStore {
	return &HealthStore{
		health:    make(map[string]*models.ProviderHealth),
		threshold: threshold,
		resetWait: resetWait,
	}
}

func (hs *HealthStore) entry(name string) *models.ProviderHealth {
	h, ok := hs.health[name]
	if !ok {
		h = &models.ProviderHealth{Name: name, Available: true}
		hs.health[name] = h
	}
	return h
}

// Available reports whether the provider's circuit is closed, eagerly
// transitioning an open circuit to closed once reset_timeout has elapsed:
// there is no half-open state, the first call after reset is simply
// treated as a trial.
func (hs *HealthStore) Available(name string) bool {
	hs.mu.Lock()
	defer hs.mu.Unlock()
	h := hs.entry(name)
	if !h.CircuitOpen {
		return true
	}
	if h.CircuitOpenTime != nil && time.Since(*h.CircuitOpenTime) >= hs.resetWait {
		h.CircuitOpen = false
		h.CircuitOpenTime = nil
		h.Available = true
		log.Info().Str("provider", name).Msg("circuit breaker reset after timeout, trial call allowed")
		return true
	}
	return false
}

// RecordSuccess resets failure_count to 0 and closes the circuit.
func (hs *HealthStore) RecordSuccess(name string) {
	hs.mu.Lock()
	defer hs.mu.Unlock()
	h := hs.entry(name)
	h.FailureCount = 0
	h.Available = true
	h.CircuitOpen = false
	h.CircuitOpenTime = nil
	now := time.Now().UTC()
	h.LastSuccess = &now
}

// RecordFailure increments failure_count and opens the circuit once the
// threshold is crossed. Failures that don't count against the circuit
// (auth, content_filter) must be filtered by the caller before calling this.
func (hs *HealthStore) RecordFailure(name string) {
	hs.mu.Lock()
	defer hs.mu.Unlock()
	h := hs.entry(name)
	h.FailureCount++
	now := time.Now().UTC()
	h.LastFailure = &now
	if h.FailureCount >= hs.threshold && !h.CircuitOpen {
		h.CircuitOpen = true
		h.CircuitOpenTime = &now
		h.Available = false
		log.Warn().Str("provider", name).Int("failure_count", h.FailureCount).Msg("circuit breaker opened")
	}
}

// Reset forces a single provider closed with zero failures.
func (hs *HealthStore) Reset(name string) {
	hs.mu.Lock()
	defer hs.mu.Unlock()
	h := hs.entry(name)
	h.FailureCount = 0
	h.CircuitOpen = false
	h.CircuitOpenTime = nil
	h.Available = true
	log.Info().Str("provider", name).Msg("circuit breaker manually reset")
}

// ResetAll iterates all known providers and resets each.
func (hs *HealthStore) ResetAll() {
	hs.mu.Lock()
	defer hs.mu.Unlock()
	for name, h := range hs.health {
		h.FailureCount = 0
		h.CircuitOpen = false
		h.CircuitOpenTime = nil
		h.Available = true
		_ = name
	}
}

// Snapshot returns a copy of every tracked provider's health, for the
// read-only /api/provider-health endpoint.
func (hs *HealthStore) Snapshot() []models.ProviderHealth {
	hs.mu.RLock()
	defer hs.mu.RUnlock()
	out := make([]models.ProviderHealth, 0, len(hs.health))
	for _, h := range hs.health {
		out = append(out, *h)
	}
	return out
}
