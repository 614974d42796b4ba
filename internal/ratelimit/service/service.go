// Package service applies per-IP and per-operator sliding window limits to
// identity endpoints.
package service

import (
	"context"
	"errors"
	"log/slog"
	"net/netip"
	"time"

	"compliance/internal/ratelimit/metrics"
	"compliance/internal/ratelimit/models"
	"compliance/internal/ratelimit/observability"
	dErrors "compliance/pkg/domain-errors"
	"compliance/pkg/platform/audit"
	"compliance/pkg/requestcontext"
)

// configMissingRetryAfter is returned when a class has no configured limit.
const configMissingRetryAfter = 60

// BucketStore counts requests per key within a sliding window.
type BucketStore interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*models.RateLimitResult, error)
	Reset(ctx context.Context, key string) error
}

type Service struct {
	buckets        BucketStore
	limits         models.Limits
	auditPublisher observability.SecurityEmitter
	logger         *slog.Logger
	metrics        *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher observability.SecurityEmitter) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func New(buckets BucketStore, limits models.Limits, opts ...Option) (*Service, error) {
	if buckets == nil {
		return nil, errors.New("buckets store is required")
	}
	svc := &Service{
		buckets: buckets,
		limits:  limits,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// CheckBoth enforces the IP limit and, when operatorID is set, the operator
// limit for class. The first exhausted budget denies the request; otherwise
// the more restrictive of the two results is returned.
func (s *Service) CheckBoth(ctx context.Context, ip, operatorID string, class models.EndpointClass) (*models.RateLimitResult, error) {
	now := requestcontext.Now(ctx)

	ipLimit, ok := s.limits.PerIP[class]
	if !ok {
		return s.denyMissingConfig(ctx, now, class, models.KeyPrefixIP, "identifier", AnonymizeIP(ip)), nil
	}
	var opLimit models.Limit
	if operatorID != "" {
		opLimit, ok = s.limits.PerOperator[class]
		if !ok {
			return s.denyMissingConfig(ctx, now, class, models.KeyPrefixOperator, "operator_id", operatorID), nil
		}
	}

	ipKey := models.NewRateLimitKey(models.KeyPrefixIP, ip, class)
	ipRes, err := s.buckets.Allow(ctx, ipKey.String(), ipLimit.RequestsPerWindow, ipLimit.Window)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check IP rate limit")
	}
	if !ipRes.Allowed {
		s.metrics.RecordDecision(string(class), false)
		observability.LogAudit(ctx, s.logger, s.auditPublisher, string(audit.EventIPRateLimitExceeded),
			"identifier", AnonymizeIP(ip),
			"endpoint_class", string(class),
			"limit", ipLimit.RequestsPerWindow,
			"window_seconds", int(ipLimit.Window.Seconds()),
		)
		return ipRes, nil
	}

	if operatorID == "" {
		s.metrics.RecordDecision(string(class), true)
		return ipRes, nil
	}

	opKey := models.NewRateLimitKey(models.KeyPrefixOperator, operatorID, class)
	opRes, err := s.buckets.Allow(ctx, opKey.String(), opLimit.RequestsPerWindow, opLimit.Window)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check operator rate limit")
	}
	if !opRes.Allowed {
		s.metrics.RecordDecision(string(class), false)
		observability.LogAudit(ctx, s.logger, s.auditPublisher, string(audit.EventOperatorRateLimitExceeded),
			"operator_id", operatorID,
			"endpoint_class", string(class),
			"limit", opLimit.RequestsPerWindow,
			"window_seconds", int(opLimit.Window.Seconds()),
		)
		return opRes, nil
	}

	s.metrics.RecordDecision(string(class), true)
	return moreRestrictiveResult(ipRes, opRes), nil
}

func (s *Service) denyMissingConfig(ctx context.Context, now time.Time, class models.EndpointClass, prefix models.KeyPrefix, subjectKey, subject string) *models.RateLimitResult {
	observability.LogAudit(ctx, s.logger, s.auditPublisher, string(audit.EventRateLimitConfigMissing),
		subjectKey, subject,
		"endpoint_class", string(class),
		"limit_type", string(prefix),
	)
	s.metrics.RecordDecision(string(class), false)
	return &models.RateLimitResult{
		Allowed:    false,
		ResetAt:    now,
		RetryAfter: configMissingRetryAfter,
	}
}

// moreRestrictiveResult returns the result with fewer remaining requests,
// or the earlier reset time if remaining counts are equal.
func moreRestrictiveResult(a, b *models.RateLimitResult) *models.RateLimitResult {
	if a.Remaining < b.Remaining {
		return a
	}
	if b.Remaining < a.Remaining {
		return b
	}
	if a.ResetAt.Before(b.ResetAt) {
		return a
	}
	return b
}

// AnonymizeIP zeroes the host part of an address for logging: the last octet
// of IPv4 and the last 80 bits of IPv6. Unparseable input is returned as "invalid".
func AnonymizeIP(ip string) string {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return "invalid"
	}
	bits := 48
	if addr.Is4() || addr.Is4In6() {
		addr = addr.Unmap()
		bits = 24
	}
	prefix, err := addr.Prefix(bits)
	if err != nil {
		return "invalid"
	}
	return prefix.Addr().String()
}
