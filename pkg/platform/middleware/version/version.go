// Package version pins the API version of a route group and rejects tokens
// minted for a newer version than the route serves.
package version

import (
	"log/slog"
	"net/http"

	id "compliance/pkg/domain"
	"compliance/pkg/platform/httputil"
	"compliance/pkg/requestcontext"
)

// ExtractVersion records the version served by the enclosing route group,
// e.g. v1.Use(version.ExtractVersion(id.APIVersionV1)).
func ExtractVersion(version id.APIVersion) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(requestcontext.WithAPIVersion(r.Context(), version)))
		})
	}
}

// ValidateTokenVersion admits a request when the route version is at least the
// token's version claim. Tokens without a claim count as v1. It runs after
// ExtractVersion and the auth middleware.
func ValidateTokenVersion(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			route := requestcontext.APIVersion(ctx)
			if route.IsNil() {
				logger.ErrorContext(ctx, "route version not set; ExtractVersion missing from chain",
					"request_id", requestcontext.RequestID(ctx),
				)
				writeVersionError(w, http.StatusInternalServerError, "server_error", "route version not configured")
				return
			}

			token := requestcontext.TokenAPIVersion(ctx)
			if token.IsNil() {
				token = id.APIVersionV1
			}
			if !route.IsAtLeast(token) {
				logger.WarnContext(ctx, "token version newer than route",
					"token_version", token.String(),
					"route_version", route.String(),
					"request_id", requestcontext.RequestID(ctx),
					"operator_id", requestcontext.OperatorID(ctx).String(),
				)
				writeVersionError(w, http.StatusForbidden, "invalid_token",
					"token API version not compatible with this endpoint version")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeVersionError(w http.ResponseWriter, status int, code, description string) {
	httputil.WriteJSON(w, status, httputil.ErrorResponse{Error: code, ErrorDescription: description})
}
