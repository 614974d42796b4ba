package compliance

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
)

type failingStore struct{}

func (failingStore) Append(context.Context, audit.Event) error {
	return errors.New("outbox unavailable")
}

func verified() audit.ComplianceEvent {
	return audit.ComplianceEvent{
		Action:        string(audit.EventIdentityVerified),
		SubjectIDHash: "hash-1",
		Subject:       "800101*******",
		Decision:      "valid",
	}
}

func TestEmitRecordsEvent(t *testing.T) {
	store := memory.NewInMemoryStore()
	metrics := NewMetrics(prometheus.NewRegistry())
	pub := New(store, WithMetrics(metrics))
	fixed := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	pub.now = func() time.Time { return fixed }

	require.NoError(t, pub.Emit(context.Background(), verified()))

	events, err := store.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, audit.CategoryCompliance, events[0].Category)
	assert.Equal(t, fixed, events[0].Timestamp)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Events.WithLabelValues(outcomeRecorded)))
}

func TestEmitKeepsCallerTimestamp(t *testing.T) {
	store := memory.NewInMemoryStore()
	event := verified()
	event.Timestamp = time.Date(2025, 12, 31, 23, 59, 0, 0, time.UTC)

	require.NoError(t, New(store).Emit(context.Background(), event))
	events, err := store.ListAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, event.Timestamp, events[0].Timestamp)
}

func TestEmitRejectsIncompleteEvents(t *testing.T) {
	store := memory.NewInMemoryStore()
	metrics := NewMetrics(prometheus.NewRegistry())
	pub := New(store, WithMetrics(metrics))

	err := pub.Emit(context.Background(), audit.ComplianceEvent{SubjectIDHash: "h"})
	assert.ErrorContains(t, err, "Action")

	err = pub.Emit(context.Background(), audit.ComplianceEvent{Action: string(audit.EventIdentityVerified)})
	assert.ErrorContains(t, err, "SubjectIDHash")

	events, err := store.ListAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, events)
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.Events.WithLabelValues(outcomeRejected)))
}

func TestEmitFailsClosed(t *testing.T) {
	var buf bytes.Buffer
	metrics := NewMetrics(prometheus.NewRegistry())
	pub := New(failingStore{},
		WithMetrics(metrics),
		WithLogger(slog.New(slog.NewTextHandler(&buf, nil))),
	)

	err := pub.Emit(context.Background(), verified())
	require.ErrorIs(t, err, ErrNotRecorded)
	assert.Contains(t, err.Error(), "outbox unavailable")
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Events.WithLabelValues(outcomeFailed)))
	assert.Contains(t, buf.String(), "compliance audit write failed")
	assert.NoError(t, pub.Close())
}
