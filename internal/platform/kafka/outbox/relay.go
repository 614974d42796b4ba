// Package outbox relays audit events committed to the Postgres outbox table
// onto Kafka.
package outbox

import (
	"context"
	"log/slog"
	"time"

	audit "compliance/pkg/platform/audit"
	auditconsumer "compliance/pkg/platform/audit/consumer"
	"compliance/pkg/platform/audit/store/postgres"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	defaultInterval  = time.Second
	defaultBatchSize = 100
)

// Store reads and acknowledges outbox rows.
type Store interface {
	FetchUnpublished(ctx context.Context, limit int) ([]postgres.OutboxEntry, error)
	MarkPublished(ctx context.Context, ids []uuid.UUID, at time.Time) error
}

// Publisher produces one record synchronously.
type Publisher interface {
	Publish(ctx context.Context, topic string, key, value []byte, headers map[string]string) error
}

// TxRunner runs fn inside a transaction carried by the context.
type TxRunner func(ctx context.Context, fn func(ctx context.Context) error) error

// Metrics counts relay throughput.
type Metrics struct {
	Published prometheus.Counter
	Failures  prometheus.Counter
}

// NewMetrics registers relay metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Published: f.NewCounter(prometheus.CounterOpts{
			Name: "compliance_outbox_published_total",
			Help: "Outbox rows produced to Kafka",
		}),
		Failures: f.NewCounter(prometheus.CounterOpts{
			Name: "compliance_outbox_failures_total",
			Help: "Outbox relay batches that failed to publish",
		}),
	}
}

func (m *Metrics) published(n int) {
	if m != nil {
		m.Published.Add(float64(n))
	}
}

func (m *Metrics) failed() {
	if m != nil {
		m.Failures.Inc()
	}
}

// Relay polls the outbox and produces each row keyed by its event id.
type Relay struct {
	store     Store
	publisher Publisher
	inTx      TxRunner
	topic     string
	interval  time.Duration
	batchSize int
	logger    *slog.Logger
	metrics   *Metrics
	now       func() time.Time
}

// Option configures a Relay.
type Option func(*Relay)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Relay) {
		if logger != nil {
			r.logger = logger
		}
	}
}

func WithInterval(d time.Duration) Option {
	return func(r *Relay) {
		if d > 0 {
			r.interval = d
		}
	}
}

func WithBatchSize(n int) Option {
	return func(r *Relay) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

func WithMetrics(m *Metrics) Option {
	return func(r *Relay) { r.metrics = m }
}

// NewRelay builds a relay producing to topic.
func NewRelay(store Store, publisher Publisher, inTx TxRunner, topic string, opts ...Option) *Relay {
	r := &Relay{
		store:     store,
		publisher: publisher,
		inTx:      inTx,
		topic:     topic,
		interval:  defaultInterval,
		batchSize: defaultBatchSize,
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run relays until ctx is cancelled. Batch failures are logged and retried
// on the next tick.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.InfoContext(ctx, "outbox relay started", "topic", r.topic, "interval", r.interval.String())
	for {
		// Drain full batches before sleeping.
		for {
			n, err := r.RelayOnce(ctx)
			if err != nil {
				if ctx.Err() != nil {
					break
				}
				r.metrics.failed()
				r.logger.ErrorContext(ctx, "outbox relay batch failed", "error", err)
				break
			}
			if n < r.batchSize {
				break
			}
		}

		select {
		case <-ctx.Done():
			r.logger.InfoContext(context.WithoutCancel(ctx), "outbox relay stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// RelayOnce publishes one batch. Rows produced before a failure are still
// marked published so they are not produced twice.
func (r *Relay) RelayOnce(ctx context.Context) (int, error) {
	published := 0
	var publishErr error
	err := r.inTx(ctx, func(ctx context.Context) error {
		entries, err := r.store.FetchUnpublished(ctx, r.batchSize)
		if err != nil {
			return err
		}
		ids := make([]uuid.UUID, 0, len(entries))
		for _, entry := range entries {
			headers := map[string]string{
				auditconsumer.CategoryHeader: string(audit.AuditEvent(entry.EventType).Category()),
				"event_type":                 entry.EventType,
			}
			if publishErr = r.publisher.Publish(ctx, r.topic, []byte(entry.ID.String()), entry.Payload, headers); publishErr != nil {
				break
			}
			ids = append(ids, entry.ID)
		}
		if err := r.store.MarkPublished(ctx, ids, r.now()); err != nil {
			return err
		}
		published = len(ids)
		return nil
	})
	if err != nil {
		return 0, err
	}
	r.metrics.published(published)
	return published, publishErr
}
