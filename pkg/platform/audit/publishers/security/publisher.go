// Package security provides a buffered, asynchronous audit publisher for
// security events. Emission never blocks the request path: events land in a
// bounded queue and a background loop flushes them to the store. Under
// sustained overload info events are shed first and every drop is counted.
package security

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	audit "compliance/pkg/platform/audit"
	"compliance/pkg/requestcontext"
)

const (
	defaultFlushInterval = 500 * time.Millisecond
	defaultBatchSize     = 100
)

// Metrics tracks the security publisher.
type Metrics struct {
	Emitted         prometheus.Counter
	PersistFailures prometheus.Counter
	Buffered        prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Emitted: factory.NewCounter(prometheus.CounterOpts{
			Name: "compliance_audit_security_emitted_total",
			Help: "Total number of security audit events persisted",
		}),
		PersistFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "compliance_audit_security_persist_failures_total",
			Help: "Total number of security audit events that failed to persist",
		}),
		Buffered: factory.NewGauge(prometheus.GaugeOpts{
			Name: "compliance_audit_security_buffered",
			Help: "Security audit events waiting to be flushed",
		}),
	}
}

// Publisher buffers security events and flushes them in the background.
type Publisher struct {
	store         audit.Store
	buffer        *pending
	logger        *slog.Logger
	metrics       *Metrics
	flushInterval time.Duration
	batchSize     int

	stop chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

// Option configures the Publisher.
type Option func(*Publisher)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func WithMetrics(m *Metrics) Option {
	return func(p *Publisher) {
		p.metrics = m
	}
}

func WithFlushInterval(d time.Duration) Option {
	return func(p *Publisher) {
		p.flushInterval = d
	}
}

func WithCapacity(capacity int) Option {
	return func(p *Publisher) {
		p.buffer = newPending(capacity)
	}
}

// New starts the flush loop. Call Close to drain and stop it.
func New(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{
		store:         store,
		buffer:        newPending(0),
		logger:        slog.Default(),
		flushInterval: defaultFlushInterval,
		batchSize:     defaultBatchSize,
		stop:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.wg.Add(1)
	go p.loop()
	return p
}

// Emit enqueues the event. A full buffer sheds info events before warnings.
func (p *Publisher) Emit(_ context.Context, event audit.SecurityEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.Severity == "" {
		event.Severity = audit.SeverityInfo
	}
	p.buffer.push(event)
	if p.metrics != nil {
		p.metrics.Buffered.Set(float64(p.buffer.len()))
	}
}

// ReportAuthFailure implements the auth middleware's FailureReporter.
func (p *Publisher) ReportAuthFailure(ctx context.Context, reason string) {
	p.Emit(ctx, audit.SecurityEvent{
		Timestamp: requestcontext.Now(ctx),
		Subject:   requestcontext.ClientIP(ctx),
		Action:    string(audit.EventAuthFailed),
		Reason:    reason,
		IP:        requestcontext.ClientIP(ctx),
		RequestID: requestcontext.RequestID(ctx),
		Severity:  audit.SeverityWarning,
	})
}

// ReportAdminDenied implements the admin middleware's DenialReporter.
func (p *Publisher) ReportAdminDenied(ctx context.Context) {
	p.Emit(ctx, audit.SecurityEvent{
		Timestamp: requestcontext.Now(ctx),
		Subject:   requestcontext.ClientIP(ctx),
		Action:    string(audit.EventAdminTokenDenied),
		Reason:    "admin_token_mismatch",
		IP:        requestcontext.ClientIP(ctx),
		RequestID: requestcontext.RequestID(ctx),
		Severity:  audit.SeverityCritical,
	})
}

// Dropped reports how many events were discarded because the buffer was full.
func (p *Publisher) Dropped() int64 {
	return p.buffer.dropped()
}

func (p *Publisher) loop() {
	defer p.wg.Done()
	ticker := time.NewTicker(p.flushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			p.flush()
		case <-p.stop:
			p.flush()
			return
		}
	}
}

func (p *Publisher) flush() {
	for {
		batch := p.buffer.take(p.batchSize)
		if len(batch) == 0 {
			break
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		for _, event := range batch {
			if err := p.store.Append(ctx, event.ToEvent()); err != nil {
				if p.metrics != nil {
					p.metrics.PersistFailures.Inc()
				}
				p.logger.Error("security audit persist failed",
					"action", event.Action,
					"error", err,
				)
				continue
			}
			if p.metrics != nil {
				p.metrics.Emitted.Inc()
			}
		}
		cancel()
	}
	if p.metrics != nil {
		p.metrics.Buffered.Set(float64(p.buffer.len()))
	}
}

// Close drains the buffer and stops the flush loop.
func (p *Publisher) Close() error {
	p.once.Do(func() {
		close(p.stop)
		p.wg.Wait()
	})
	return nil
}
