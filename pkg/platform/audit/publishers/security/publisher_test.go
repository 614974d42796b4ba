package security

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	audit "compliance/pkg/platform/audit"
	"compliance/pkg/platform/audit/store/memory"
	"compliance/pkg/requestcontext"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestCloseDrainsBuffer(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := New(store, WithFlushInterval(time.Hour))

	for range 10 {
		pub.Emit(context.Background(), audit.SecurityEvent{Action: string(audit.EventAuthFailed)})
	}
	require.NoError(t, pub.Close())
	require.NoError(t, pub.Close(), "close is idempotent")

	events, err := store.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 10)
	assert.Equal(t, audit.CategorySecurity, events[0].Category)
	assert.Equal(t, audit.SeverityInfo, events[0].Severity)
	assert.False(t, events[0].Timestamp.IsZero())
}

func TestPeriodicFlush(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := New(store, WithFlushInterval(10*time.Millisecond))
	defer pub.Close()

	pub.Emit(context.Background(), audit.SecurityEvent{Action: string(audit.EventAdminTokenDenied)})

	assert.Eventually(t, func() bool {
		events, _ := store.ListAll(context.Background())
		return len(events) == 1
	}, time.Second, 10*time.Millisecond)
}

func TestOverflowDropsOldest(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := New(store, WithFlushInterval(time.Hour), WithCapacity(3))

	for _, reason := range []string{"a", "b", "c", "d", "e"} {
		pub.Emit(context.Background(), audit.SecurityEvent{Action: "auth_failed", Reason: reason})
	}
	assert.Equal(t, int64(2), pub.Dropped())
	require.NoError(t, pub.Close())

	events, err := store.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, "c", events[0].Reason)
}

func TestReportAuthFailureUsesRequestContext(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := New(store, WithFlushInterval(time.Hour))

	ctx := requestcontext.WithClientMetadata(context.Background(), "198.51.100.4", "curl/8")
	ctx = requestcontext.WithRequestID(ctx, "req-9")
	pub.ReportAuthFailure(ctx, "invalid_token")
	require.NoError(t, pub.Close())

	events, err := store.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "invalid_token", events[0].Reason)
	assert.Equal(t, "198.51.100.4", events[0].IP)
	assert.Equal(t, "req-9", events[0].RequestID)
	assert.Equal(t, audit.SeverityWarning, events[0].Severity)
}

func TestReportAdminDeniedIsCritical(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := New(store, WithFlushInterval(time.Hour))

	ctx := requestcontext.WithClientMetadata(context.Background(), "203.0.113.7", "curl/8")
	pub.ReportAdminDenied(ctx)
	require.NoError(t, pub.Close())

	events, err := store.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, string(audit.EventAdminTokenDenied), events[0].Action)
	assert.Equal(t, audit.SeverityCritical, events[0].Severity)
	assert.Equal(t, "203.0.113.7", events[0].Subject)
}

type flakyStore struct {
	calls atomic.Int32
}

func (s *flakyStore) Append(context.Context, audit.Event) error {
	s.calls.Add(1)
	return errors.New("down")
}

func TestPersistFailuresAreCounted(t *testing.T) {
	metrics := NewMetrics(prometheus.NewRegistry())
	store := &flakyStore{}
	pub := New(store, WithFlushInterval(time.Hour), WithMetrics(metrics))

	pub.Emit(context.Background(), audit.SecurityEvent{Action: "auth_failed"})
	require.NoError(t, pub.Close())

	assert.Equal(t, int32(1), store.calls.Load())
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.PersistFailures))
}

func TestPendingShedsInfoBeforeWarnings(t *testing.T) {
	q := newPending(3)
	q.push(audit.SecurityEvent{Reason: "critical", Severity: audit.SeverityCritical})
	q.push(audit.SecurityEvent{Reason: "info-1", Severity: audit.SeverityInfo})
	q.push(audit.SecurityEvent{Reason: "warning", Severity: audit.SeverityWarning})
	q.push(audit.SecurityEvent{Reason: "info-2", Severity: audit.SeverityInfo})
	assert.Equal(t, int64(1), q.dropped())

	batch := q.take(10)
	require.Len(t, batch, 3)
	assert.Equal(t, []string{"critical", "warning", "info-2"}, []string{batch[0].Reason, batch[1].Reason, batch[2].Reason})
	assert.Nil(t, q.take(1))
	assert.Zero(t, q.len())
}

func TestPendingEvictsOldestWithoutInfo(t *testing.T) {
	q := newPending(2)
	q.push(audit.SecurityEvent{Reason: "a", Severity: audit.SeverityWarning})
	q.push(audit.SecurityEvent{Reason: "b", Severity: audit.SeverityWarning})
	q.push(audit.SecurityEvent{Reason: "c", Severity: audit.SeverityCritical})

	batch := q.take(1)
	require.Len(t, batch, 1)
	assert.Equal(t, "b", batch[0].Reason)
	assert.Equal(t, 1, q.len())
}
