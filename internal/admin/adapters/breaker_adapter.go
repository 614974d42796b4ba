package adapters

import (
	"context"

	"compliance/pkg/platform/circuit"
)

// GuardedCache is the interface that the guarded result cache implements.
type GuardedCache interface {
	State() circuit.State
	Reset(ctx context.Context)
}

// BreakerAdapter adapts a guarded cache to admin's CacheBreaker interface.
type BreakerAdapter struct {
	name  string
	cache GuardedCache
}

// NewBreakerAdapter creates a new adapter wrapping a guarded cache.
func NewBreakerAdapter(name string, cache GuardedCache) *BreakerAdapter {
	return &BreakerAdapter{name: name, cache: cache}
}

func (a *BreakerAdapter) Name() string {
	return a.name
}

// State returns "open" or "closed".
func (a *BreakerAdapter) State() string {
	return a.cache.State().String()
}

// Reset closes the breaker so Redis is tried again on the next lookup.
func (a *BreakerAdapter) Reset(ctx context.Context) {
	a.cache.Reset(ctx)
}
