// Package compliance records regulatory audit events synchronously. A
// verification is only reported to the caller once its event is in the audit
// store; when the write fails the verification fails with it.
package compliance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"

	audit "compliance/pkg/platform/audit"
)

// ErrNotRecorded wraps every store failure returned by Emit.
var ErrNotRecorded = errors.New("compliance event not recorded")

var validate = validator.New(validator.WithRequiredStructEnabled())

type Publisher struct {
	store   audit.Store
	logger  *slog.Logger
	metrics *Metrics
	now     func() time.Time
}

type Option func(*Publisher)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) { p.logger = logger }
}

func WithMetrics(m *Metrics) Option {
	return func(p *Publisher) { p.metrics = m }
}

// New wraps store, which should be the outbox store in production so that the
// event commits with the verification row.
func New(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{store: store, logger: slog.Default(), now: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Emit validates and appends event, blocking until the store answers.
func (p *Publisher) Emit(ctx context.Context, event audit.ComplianceEvent) error {
	if err := validate.Struct(event); err != nil {
		p.metrics.observe(outcomeRejected, 0)
		return fmt.Errorf("invalid compliance event: %w", err)
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = p.now()
	}

	start := p.now()
	err := p.store.Append(ctx, event.ToEvent())
	elapsed := p.now().Sub(start)
	if err != nil {
		p.metrics.observe(outcomeFailed, elapsed)
		p.logger.ErrorContext(ctx, "compliance audit write failed; verification will be rejected",
			"action", event.Action,
			"subject_id_hash", event.SubjectIDHash,
			"request_id", event.RequestID,
			"error", err,
		)
		return fmt.Errorf("%w: %w", ErrNotRecorded, err)
	}
	p.metrics.observe(outcomeRecorded, elapsed)
	return nil
}

// Close satisfies the shutdown hook signature; nothing is buffered.
func (p *Publisher) Close() error {
	return nil
}
