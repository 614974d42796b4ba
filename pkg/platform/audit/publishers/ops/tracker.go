// Package ops records operational audit events (batch summaries, verification
// reads, issued tokens) on a best-effort basis. Events may be sampled, and a
// breaker stops writes while the store is failing. Track never fails the caller.
package ops

import (
	"context"
	"log/slog"
	"time"

	audit "compliance/pkg/platform/audit"
	"compliance/pkg/platform/circuit"
)

// Tracker records operational events.
type Tracker struct {
	store   audit.Store
	sampler *Sampler
	gate    *storeGate
	metrics *Metrics
	logger  *slog.Logger
}

// Option configures the Tracker.
type Option func(*Tracker)

func WithLogger(logger *slog.Logger) Option {
	return func(t *Tracker) {
		t.logger = logger
	}
}

func WithMetrics(m *Metrics) Option {
	return func(t *Tracker) {
		t.metrics = m
	}
}

func WithSampler(s *Sampler) Option {
	return func(t *Tracker) {
		t.sampler = s
	}
}

// WithBreaker sets the breaker guarding the store and how often a probe
// write is attempted while it is open.
func WithBreaker(b *circuit.Breaker, probeInterval time.Duration) Option {
	return func(t *Tracker) {
		t.gate = newStoreGate(b, probeInterval)
	}
}

// New builds a tracker that keeps every event and stops writing for a minute
// after 5 consecutive store failures.
func New(store audit.Store, opts ...Option) *Tracker {
	breaker := circuit.New("ops-audit", circuit.WithSuccessThreshold(1))
	t := &Tracker{
		store:   store,
		sampler: NewSampler(1),
		gate:    newStoreGate(breaker, defaultProbeInterval),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Track persists the event unless it is sampled out or the breaker is open.
func (t *Tracker) Track(ctx context.Context, event audit.OpsEvent) {
	if !t.sampler.ShouldSample(event.Action) {
		t.metrics.count(outcomeSampledOut)
		return
	}
	if !t.gate.allow() {
		t.metrics.count(outcomeGated)
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	if err := t.store.Append(ctx, event.ToEvent()); err != nil {
		t.gate.failure()
		t.metrics.count(outcomeFailed)
		t.metrics.gateState(t.gate.open())
		t.logger.WarnContext(ctx, "ops audit persist failed",
			"action", event.Action,
			"error", err,
		)
		return
	}
	t.gate.success()
	t.metrics.gateState(t.gate.open())
	t.metrics.count(outcomeTracked)
}
