package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"compliance/internal/identity/metrics"
	"compliance/internal/identity/models"
	"compliance/internal/identity/saidnumber"
	"compliance/pkg/attrs"
	dErrors "compliance/pkg/domain-errors"
	audit "compliance/pkg/platform/audit"
	"compliance/pkg/platform/sentinel"
	"compliance/pkg/requestcontext"
)

const (
	defaultBatchLimit       = 100
	defaultBatchConcurrency = 8
	maxListLimit            = 100
)

// Service orchestrates identity number verification: validation, result
// caching, persistence and the compliance audit trail.
type Service struct {
	validator        *saidnumber.Validator
	hasher           models.SubjectHasher
	store            VerificationStore
	auditor          AuditPublisher
	cache            ResultCache
	cacheTTL         time.Duration
	ops              OpsTracker
	inTx             TxRunner
	logger           *slog.Logger
	metrics          *metrics.Metrics
	batchLimit       int
	batchConcurrency int
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithValidator replaces the default validator (pivot 50, range-only dates).
func WithValidator(v *saidnumber.Validator) Option {
	return func(s *Service) {
		if v != nil {
			s.validator = v
		}
	}
}

// WithResultCache enables result caching. A non-positive ttl disables it.
func WithResultCache(cache ResultCache, ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.cache = cache
			s.cacheTTL = ttl
		}
	}
}

func WithOpsTracker(t OpsTracker) Option {
	return func(s *Service) {
		s.ops = t
	}
}

// WithTxRunner makes Verify save and audit inside one transaction.
func WithTxRunner(run TxRunner) Option {
	return func(s *Service) {
		if run != nil {
			s.inTx = run
		}
	}
}

// WithBatchLimits bounds batch size and the number of concurrent verifications.
func WithBatchLimits(limit, concurrency int) Option {
	return func(s *Service) {
		if limit > 0 {
			s.batchLimit = limit
		}
		if concurrency > 0 {
			s.batchConcurrency = concurrency
		}
	}
}

// New constructs a Service.
func New(store VerificationStore, auditor AuditPublisher, hasher models.SubjectHasher, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("verification store is required")
	}
	if auditor == nil {
		return nil, errors.New("audit publisher is required")
	}
	s := &Service{
		validator:        saidnumber.New(),
		hasher:           hasher,
		store:            store,
		auditor:          auditor,
		inTx:             noTx,
		logger:           slog.Default(),
		batchLimit:       defaultBatchLimit,
		batchConcurrency: defaultBatchConcurrency,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func noTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// BatchLimit is the largest batch VerifyBatch accepts.
func (s *Service) BatchLimit() int {
	return s.batchLimit
}

func clampLimit(limit int) int {
	return max(1, min(limit, maxListLimit))
}

func translateStoreError(err error, notFoundMsg, internalMsg string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, notFoundMsg)
	}
	if errors.Is(err, sentinel.ErrUnavailable) {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, internalMsg)
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, internalMsg)
}

// logAudit writes a structured audit log line and forwards it to the ops
// tracker. Compliance events go through the publisher instead.
func (s *Service) logAudit(ctx context.Context, event string, attributes ...any) {
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	args := append(attributes, "event", event, "log_type", "audit")
	if s.logger != nil {
		s.logger.InfoContext(ctx, event, args...)
	}
	if s.ops == nil {
		return
	}
	s.ops.Track(ctx, audit.OpsEvent{
		Timestamp: requestcontext.Now(ctx),
		Subject:   attrs.String(attributes, "subject"),
		Action:    event,
		RequestID: requestcontext.RequestID(ctx),
	})
}
