// Package requesttime pins one UTC "now" per request so audit records,
// verification timestamps and rate limit windows agree with each other.
package requesttime

import (
	"net/http"
	"time"

	"compliance/pkg/requestcontext"
)

// Middleware stamps each request with the wall clock.
var Middleware = New(time.Now)

// New stamps each request with clock(), normalised to UTC.
func New(clock func() time.Time) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := requestcontext.WithTime(r.Context(), clock().UTC())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
