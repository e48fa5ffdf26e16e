package llm

import (
	"fmt"
	"sync"
)

// Registry maps role model identifiers to the Provider that should serve
// them. A deliberation typically registers one provider per distinct
// gateway (most commonly a single OpenRouter provider backing every
// role), but the registry supports per-model overrides (e.g. a local
// mock provider substituted for one role in a test).
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
	breakers  *CircuitBreakerManager
	circuit   CircuitBreakerConfig
}

// NewRegistry creates an empty registry. Every registered provider gets
// its own circuit breaker under breakerConfig.
func NewRegistry(breakerConfig CircuitBreakerConfig) *Registry {
	return &Registry{
		providers: make(map[string]Provider),
		breakers:  NewCircuitBreakerManager(breakerConfig),
		circuit:   breakerConfig,
	}
}

// NewDefaultRegistry creates a registry with default circuit breaker
// settings.
func NewDefaultRegistry() *Registry {
	return NewRegistry(DefaultCircuitBreakerConfig())
}

// Register binds name (typically a model id, or "default") to provider
// and wraps it in a circuit breaker so a misbehaving role doesn't keep
// hammering the gateway for the rest of the run.
func (r *Registry) Register(name string, provider Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[name] = r.breakers.Register(name, provider)
}

// Get returns the provider registered under name, falling back to
// "default" if name has no specific registration.
func (r *Registry) Get(name string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if p, ok := r.providers[name]; ok {
		return p, nil
	}
	if p, ok := r.providers["default"]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("no provider registered for %q and no default provider configured", name)
}

// List returns the names currently registered.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	return names
}

// CircuitBreakerStats returns the circuit breaker stats for every
// registered provider, keyed by registration name.
func (r *Registry) CircuitBreakerStats() map[string]CircuitBreakerStats {
	return r.breakers.GetAllStats()
}

// Close releases every registered provider's resources.
func (r *Registry) Close() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var firstErr error
	seen := make(map[Provider]bool)
	for _, p := range r.providers {
		// Each registration gets its own breaker, so dedupe on the
		// provider the breaker wraps.
		if cb, ok := p.(*CircuitBreaker); ok {
			p = cb.provider
		}
		if seen[p] {
			continue
		}
		seen[p] = true
		if err := p.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
