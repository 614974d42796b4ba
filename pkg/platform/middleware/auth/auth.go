package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	id "compliance/pkg/domain"
	request "compliance/pkg/platform/middleware/request"
	"compliance/pkg/requestcontext"
)

// JWTValidator defines the interface for validating operator bearer tokens.
type JWTValidator interface {
	ValidateToken(tokenString string) (*JWTClaims, error)
}

// JWTClaims represents the claims we expect from the JWT validator.
type JWTClaims struct {
	OperatorID string
	APIVersion string
	JTI        string
}

// FailureReporter receives authentication failures, typically a security audit publisher.
type FailureReporter interface {
	ReportAuthFailure(ctx context.Context, reason string)
}

// Option configures RequireAuth.
type Option func(*config)

type config struct {
	reporter FailureReporter
}

// WithFailureReporter forwards rejected requests to the reporter.
func WithFailureReporter(r FailureReporter) Option {
	return func(c *config) {
		c.reporter = r
	}
}

// writeJSONError writes a JSON error response with the given status code and error details.
func writeJSONError(w http.ResponseWriter, status int, errCode, errDesc string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(fmt.Appendf(nil, `{"error":"%s","error_description":"%s"}`, errCode, errDesc))
}

// RequireAuth rejects requests without a valid operator bearer token and
// stores the operator ID and token API version in the request context.
func RequireAuth(validator JWTValidator, logger *slog.Logger, opts ...Option) func(http.Handler) http.Handler {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}

	reject := func(w http.ResponseWriter, r *http.Request, reason, description string, err error) {
		ctx := r.Context()
		args := []any{"reason", reason, "request_id", request.GetRequestID(ctx)}
		if err != nil {
			args = append(args, "error", err)
		}
		logger.WarnContext(ctx, "unauthorized access", args...)
		if cfg.reporter != nil {
			cfg.reporter.ReportAuthFailure(ctx, reason)
		}
		writeJSONError(w, http.StatusUnauthorized, "unauthorized", description)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || strings.TrimSpace(token) == "" {
				reject(w, r, "missing_token", "Missing or invalid Authorization header", nil)
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				reject(w, r, "invalid_token", "Invalid or expired token", err)
				return
			}

			operatorID, err := id.ParseOperatorID(claims.OperatorID)
			if err != nil {
				reject(w, r, "invalid_subject", "Invalid or expired token", err)
				return
			}

			ctx := requestcontext.WithOperatorID(r.Context(), operatorID)
			if claims.APIVersion != "" {
				version, err := id.ParseAPIVersion(claims.APIVersion)
				if err != nil {
					reject(w, r, "invalid_api_version", "Invalid or expired token", err)
					return
				}
				ctx = requestcontext.WithTokenAPIVersion(ctx, version)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
