package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"compliance/internal/ratelimit/metrics"
	"compliance/internal/ratelimit/models"
	"compliance/internal/ratelimit/service"
	"compliance/pkg/platform/circuit"
	"compliance/pkg/platform/httputil"
	"compliance/pkg/requestcontext"
)

// Limiter decides whether a request fits the IP and operator budgets.
type Limiter interface {
	CheckBoth(ctx context.Context, ip, operatorID string, class models.EndpointClass) (*models.RateLimitResult, error)
}

// Classifier maps a request to its endpoint class.
type Classifier func(r *http.Request) models.EndpointClass

type Middleware struct {
	limiter  Limiter
	fallback Limiter
	breaker  *circuit.Breaker
	metrics  *metrics.Metrics
	logger   *slog.Logger
	disabled bool
}

type Option func(*Middleware)

// WithDisabled turns the middleware into a pass-through.
func WithDisabled(disabled bool) Option {
	return func(m *Middleware) {
		m.disabled = disabled
	}
}

// WithFallback serves checks from fallback while breaker is open.
func WithFallback(fallback Limiter, breaker *circuit.Breaker) Option {
	return func(m *Middleware) {
		m.fallback = fallback
		m.breaker = breaker
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(mw *Middleware) {
		mw.metrics = m
	}
}

func New(limiter Limiter, logger *slog.Logger, opts ...Option) *Middleware {
	m := &Middleware{
		limiter: limiter,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.fallback != nil && m.breaker == nil {
		m.breaker = circuit.New("ratelimit")
	}
	if m.disabled {
		logger.Info("rate limiting disabled")
	}
	return m
}

// ClassOf is the default Classifier: batch submissions, reads, and
// everything else as single validations.
func ClassOf(r *http.Request) models.EndpointClass {
	switch {
	case strings.HasSuffix(r.URL.Path, "/batch"):
		return models.ClassBatch
	case r.Method == http.MethodGet:
		return models.ClassRead
	default:
		return models.ClassValidate
	}
}

// RateLimitAuthenticated enforces both the client IP and the operator budget.
// Must run after authentication so the operator is in the context. Limiter
// errors fail open.
func (m *Middleware) RateLimitAuthenticated(classify Classifier) func(http.Handler) http.Handler {
	if classify == nil {
		classify = ClassOf
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if m.disabled {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			ip := requestcontext.ClientIP(ctx)
			operatorID := ""
			if op := requestcontext.OperatorID(ctx); !op.IsNil() {
				operatorID = op.String()
			}
			class := classify(r)

			result, degraded, err := m.check(ctx, ip, operatorID, class)
			if err != nil {
				m.logger.ErrorContext(ctx, "failed to check rate limit",
					"error", err,
					"ip_prefix", service.AnonymizeIP(ip),
					"operator_id", operatorID,
					"request_id", requestcontext.RequestID(ctx),
				)
				next.ServeHTTP(w, r)
				return
			}

			if degraded {
				w.Header().Set("X-RateLimit-Status", "degraded")
			}
			addRateLimitHeaders(w, result)

			if !result.Allowed {
				writeRateLimitExceeded(w, class, result)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func addRateLimitHeaders(w http.ResponseWriter, result *models.RateLimitResult) {
	if result == nil {
		return
	}
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}

func writeRateLimitExceeded(w http.ResponseWriter, class models.EndpointClass, result *models.RateLimitResult) {
	w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfter))
	httputil.WriteJSON(w, http.StatusTooManyRequests, &models.RateLimitExceededResponse{
		Error:            "rate_limit_exceeded",
		ErrorDescription: "Too many identity requests. Please try again later.",
		Class:            class,
		RetryAfter:       result.RetryAfter,
		QuotaLimit:       result.Limit,
		QuotaRemaining:   result.Remaining,
		QuotaReset:       result.ResetAt,
	})
}
