package outbox

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	audit "compliance/pkg/platform/audit"
	"compliance/pkg/platform/audit/store/postgres"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeStore struct {
	mu        sync.Mutex
	entries   []postgres.OutboxEntry
	published map[uuid.UUID]time.Time
	fetchErr  error
}

func (s *fakeStore) FetchUnpublished(_ context.Context, limit int) ([]postgres.OutboxEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	var out []postgres.OutboxEntry
	for _, e := range s.entries {
		if _, done := s.published[e.ID]; done {
			continue
		}
		out = append(out, e)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *fakeStore) MarkPublished(_ context.Context, ids []uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		s.published[id] = at
	}
	return nil
}

type fakePublisher struct {
	mu      sync.Mutex
	records []publishedRecord
	failOn  int
}

type publishedRecord struct {
	topic   string
	key     string
	headers map[string]string
}

func (p *fakePublisher) Publish(_ context.Context, topic string, key, _ []byte, headers map[string]string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failOn > 0 && len(p.records)+1 == p.failOn {
		return errors.New("broker unavailable")
	}
	p.records = append(p.records, publishedRecord{topic: topic, key: string(key), headers: headers})
	return nil
}

func (p *fakePublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.records)
}

func passthroughTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func seed(n int, action audit.AuditEvent) *fakeStore {
	s := &fakeStore{published: map[uuid.UUID]time.Time{}}
	for i := 0; i < n; i++ {
		s.entries = append(s.entries, postgres.OutboxEntry{
			ID:        uuid.New(),
			EventType: string(action),
			Payload:   []byte(`{}`),
		})
	}
	return s
}

func TestRelayOncePublishesAndMarks(t *testing.T) {
	store := seed(3, audit.EventIdentityVerified)
	pub := &fakePublisher{}
	metrics := NewMetrics(prometheus.NewRegistry())
	relay := NewRelay(store, pub, passthroughTx, "compliance.audit", WithMetrics(metrics))

	n, err := relay.RelayOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Len(t, store.published, 3)
	assert.Equal(t, float64(3), testutil.ToFloat64(metrics.Published))

	rec := pub.records[0]
	assert.Equal(t, "compliance.audit", rec.topic)
	assert.Equal(t, store.entries[0].ID.String(), rec.key)
	assert.Equal(t, "compliance", rec.headers["category"])
	assert.Equal(t, "identity_verified", rec.headers["event_type"])
}

func TestRelayOnceRespectsBatchSize(t *testing.T) {
	store := seed(5, audit.EventTokenIssued)
	relay := NewRelay(store, &fakePublisher{}, passthroughTx, "t", WithBatchSize(2))

	n, err := relay.RelayOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestRelayOnceMarksRowsBeforeFailure(t *testing.T) {
	store := seed(3, audit.EventAuthFailed)
	pub := &fakePublisher{failOn: 2}
	relay := NewRelay(store, pub, passthroughTx, "t")

	n, err := relay.RelayOnce(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, n)
	assert.Contains(t, store.published, store.entries[0].ID)
	assert.NotContains(t, store.published, store.entries[1].ID)
}

func TestRelayOnceFetchError(t *testing.T) {
	store := seed(1, audit.EventAuthFailed)
	store.fetchErr = errors.New("db down")
	n, err := NewRelay(store, &fakePublisher{}, passthroughTx, "t").RelayOnce(context.Background())
	assert.Error(t, err)
	assert.Zero(t, n)
}

func TestRelayRunDrainsAndStops(t *testing.T) {
	store := seed(5, audit.EventIdentityVerified)
	pub := &fakePublisher{}
	relay := NewRelay(store, pub, passthroughTx, "t", WithBatchSize(2), WithInterval(10*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- relay.Run(ctx) }()

	require.Eventually(t, func() bool { return pub.count() == 5 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("relay did not stop")
	}
}
