package ops

import (
	"math/rand/v2"
	"sync"

	audit "compliance/pkg/platform/audit"
)

// Sampler keeps a fraction of ops events per action. Verification reads are
// the high-volume case.
type Sampler struct {
	mu          sync.RWMutex
	defaultRate float64
	rates       map[audit.AuditEvent]float64
	draw        func() float64
}

// NewSampler keeps events at defaultRate, clamped to [0,1].
func NewSampler(defaultRate float64) *Sampler {
	return &Sampler{
		defaultRate: clampRate(defaultRate),
		rates:       make(map[audit.AuditEvent]float64),
		draw:        rand.Float64,
	}
}

// SetRate overrides the rate for one action.
func (s *Sampler) SetRate(action audit.AuditEvent, rate float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rates[action] = clampRate(rate)
}

// ShouldSample reports whether an event with this action is kept.
func (s *Sampler) ShouldSample(action string) bool {
	s.mu.RLock()
	rate, ok := s.rates[audit.AuditEvent(action)]
	if !ok {
		rate = s.defaultRate
	}
	s.mu.RUnlock()

	switch rate {
	case 0:
		return false
	case 1:
		return true
	}
	return s.draw() < rate
}

func clampRate(rate float64) float64 {
	return min(max(rate, 0), 1)
}
