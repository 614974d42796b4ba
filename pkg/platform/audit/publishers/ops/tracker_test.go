package ops

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	audit "compliance/pkg/platform/audit"
	"compliance/pkg/platform/audit/store/memory"
	"compliance/pkg/platform/circuit"
)

type countingFailStore struct {
	calls int
}

func (s *countingFailStore) Append(context.Context, audit.Event) error {
	s.calls++
	return errors.New("unavailable")
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func TestTrackPersists(t *testing.T) {
	store := memory.NewInMemoryStore()
	metrics := NewMetrics(prometheus.NewRegistry())
	tracker := New(store, WithMetrics(metrics))

	tracker.Track(context.Background(), audit.OpsEvent{Action: string(audit.EventIdentityBatchVerified), Subject: "3"})

	events, err := store.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, audit.CategoryOperations, events[0].Category)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Events.WithLabelValues(outcomeTracked)))
}

func TestTrackSamplesOut(t *testing.T) {
	store := memory.NewInMemoryStore()
	metrics := NewMetrics(prometheus.NewRegistry())
	sampler := NewSampler(1)
	sampler.SetRate(audit.EventVerificationAccessed, 0)
	tracker := New(store, WithMetrics(metrics), WithSampler(sampler))

	tracker.Track(context.Background(), audit.OpsEvent{Action: string(audit.EventVerificationAccessed)})
	tracker.Track(context.Background(), audit.OpsEvent{Action: string(audit.EventTokenIssued)})

	events, err := store.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, string(audit.EventTokenIssued), events[0].Action)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Events.WithLabelValues(outcomeSampledOut)))
}

func TestTrackOpensBreakerAfterFailures(t *testing.T) {
	store := &countingFailStore{}
	metrics := NewMetrics(prometheus.NewRegistry())
	tracker := New(store,
		WithMetrics(metrics),
		WithLogger(quietLogger()),
		WithBreaker(circuit.New("ops-audit", circuit.WithFailureThreshold(2)), time.Hour),
	)

	for range 5 {
		tracker.Track(context.Background(), audit.OpsEvent{Action: "x"})
	}

	assert.Equal(t, 2, store.calls, "breaker stops persistence attempts once open")
	assert.Equal(t, 3.0, testutil.ToFloat64(metrics.Events.WithLabelValues(outcomeGated)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.GateOpen))
}

func TestStoreGateProbesAfterInterval(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	g := newStoreGate(circuit.New("ops-audit", circuit.WithFailureThreshold(1), circuit.WithSuccessThreshold(1)), time.Minute)
	g.now = func() time.Time { return now }

	g.failure()
	require.True(t, g.open())
	assert.False(t, g.allow(), "no probe before the interval elapses")

	now = now.Add(time.Minute)
	assert.True(t, g.allow(), "one probe per interval")
	assert.False(t, g.allow())

	g.success()
	assert.False(t, g.open())
	assert.True(t, g.allow())
}

func TestSampler(t *testing.T) {
	t.Run("rates are clamped", func(t *testing.T) {
		s := NewSampler(2)
		assert.True(t, s.ShouldSample("anything"))
		s.SetRate(audit.EventTokenIssued, -1)
		assert.False(t, s.ShouldSample(string(audit.EventTokenIssued)))
	})

	t.Run("fractional rates use the draw", func(t *testing.T) {
		s := NewSampler(0.25)
		s.draw = func() float64 { return 0.2 }
		assert.True(t, s.ShouldSample("anything"))
		s.draw = func() float64 { return 0.3 }
		assert.False(t, s.ShouldSample("anything"))
	})
}
