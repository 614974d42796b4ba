package admin

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"

	request "compliance/pkg/platform/middleware/request"
)

// TokenHeader carries the operational admin token.
const TokenHeader = "X-Admin-Token"

// Verifier reports whether a presented admin token is acceptable.
type Verifier func(token string) bool

// DenialReporter receives rejected admin requests, typically the security audit publisher.
type DenialReporter interface {
	ReportAdminDenied(ctx context.Context)
}

type Option func(*options)

type options struct {
	reporter DenialReporter
}

// WithDenialReporter forwards rejected requests to the reporter.
func WithDenialReporter(r DenialReporter) Option {
	return func(o *options) { o.reporter = r }
}

// EqualTo accepts exactly expected using a constant-time comparison. An empty
// expected token accepts nothing.
func EqualTo(expected string) Verifier {
	return func(token string) bool {
		if expected == "" {
			return false
		}
		return subtle.ConstantTimeCompare([]byte(token), []byte(expected)) == 1
	}
}

// RequireAdminToken guards operational endpoints with a shared secret sent in
// X-Admin-Token. An empty expected token disables the routes entirely.
func RequireAdminToken(expectedToken string, logger *slog.Logger, opts ...Option) func(http.Handler) http.Handler {
	return RequireAdmin(EqualTo(expectedToken), logger, opts...)
}

// RequireAdmin guards operational endpoints with a token checked by verify.
func RequireAdmin(verify Verifier, logger *slog.Logger, opts ...Option) func(http.Handler) http.Handler {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.Header.Get(TokenHeader)
			if token == "" || verify == nil || !verify(token) {
				ctx := r.Context()
				logger.WarnContext(ctx, "admin token mismatch",
					"request_id", request.GetRequestID(ctx),
				)
				if o.reporter != nil {
					o.reporter.ReportAdminDenied(ctx)
				}
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				_, _ = w.Write([]byte(`{"error":"forbidden","error_description":"admin token required"}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
