package e2e

import (
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	identityhandler "compliance/internal/identity/handler"
	"compliance/internal/identity/models"
	"compliance/internal/identity/service"
	"compliance/internal/identity/store/resultcache"
	"compliance/internal/identity/store/verification"
	"compliance/internal/platform/auth"
	"compliance/internal/platform/metrics"
	ratelimitmw "compliance/internal/ratelimit/middleware"
	rlmodels "compliance/internal/ratelimit/models"
	ratelimitservice "compliance/internal/ratelimit/service"
	"compliance/internal/ratelimit/store/bucket"
	httptransport "compliance/internal/transport/http"
	id "compliance/pkg/domain"
	"compliance/pkg/platform/audit/publishers/compliance"
	"compliance/pkg/platform/audit/publishers/security"
	auditmemory "compliance/pkg/platform/audit/store/memory"
)

const (
	stackSigningKey = "e2e-signing-key-at-least-32-bytes-long"
	stackIssuer     = "compliance-portal"
	stackAudience   = "compliance-api"

	// BatchBudget is the per-operator batch allowance of the in-process stack.
	BatchBudget = 10
)

// Stack is an in-memory deployment of the HTTP surface.
type Stack struct {
	Handler http.Handler
	jwt     *auth.JWTService
	closers []func() error
}

// NewStack wires the identity API the way serve does without Postgres,
// Redis or Kafka.
func NewStack() (*Stack, error) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := prometheus.NewRegistry()
	auditSink := auditmemory.NewInMemoryStore()

	securityPublisher := security.New(auditSink, security.WithLogger(logger))
	compliancePublisher := compliance.New(auditSink, compliance.WithLogger(logger))

	svc, err := service.New(
		verification.NewInMemoryStore(),
		compliancePublisher,
		models.NewSubjectHasher("e2e-subject-hash-key"),
		service.WithLogger(logger),
		service.WithResultCache(resultcache.NewInMemoryCache(), time.Minute),
	)
	if err != nil {
		return nil, err
	}

	window := rlmodels.Limit{RequestsPerWindow: 1000, Window: time.Minute}
	limits := rlmodels.Limits{
		PerIP: map[rlmodels.EndpointClass]rlmodels.Limit{
			rlmodels.ClassValidate: window,
			rlmodels.ClassBatch:    window,
			rlmodels.ClassRead:     window,
		},
		PerOperator: map[rlmodels.EndpointClass]rlmodels.Limit{
			rlmodels.ClassValidate: window,
			rlmodels.ClassBatch:    {RequestsPerWindow: BatchBudget, Window: time.Minute},
			rlmodels.ClassRead:     window,
		},
	}
	limiter, err := ratelimitservice.New(bucket.NewInMemoryBucketStore(), limits,
		ratelimitservice.WithLogger(logger),
		ratelimitservice.WithAuditPublisher(securityPublisher),
	)
	if err != nil {
		return nil, err
	}

	jwt := auth.NewJWTService(stackSigningKey, stackIssuer, stackAudience)
	handler := httptransport.NewRouter(httptransport.Deps{
		Logger:         logger,
		API:            []httptransport.Registrar{identityhandler.New(svc, logger)},
		AuthValidator:  auth.NewMiddlewareAdapter(jwt),
		AuthFailures:   securityPublisher,
		RateLimit:      ratelimitmw.New(limiter, logger).RateLimitAuthenticated(nil),
		Latency:        metrics.NewWithRegisterer(reg),
		MetricsHandler: metrics.HandlerFor(reg),
	})

	return &Stack{
		Handler: handler,
		jwt:     jwt,
		closers: []func() error{securityPublisher.Close, compliancePublisher.Close},
	}, nil
}

// IssueToken mints a token for a new operator, so every scenario starts with
// untouched operator budgets.
func (s *Stack) IssueToken() (string, error) {
	return s.jwt.GenerateAccessToken(id.OperatorID(uuid.New()), id.APIVersionV1, time.Hour)
}

func (s *Stack) Close() {
	for _, c := range s.closers {
		_ = c()
	}
}
