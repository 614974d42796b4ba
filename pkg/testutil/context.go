package testutil

import (
	"net/http"

	"compliance/pkg/requestcontext"
)

// WithRequestID stamps req the way the request ID middleware would.
func WithRequestID(req *http.Request, requestID string) *http.Request {
	return req.WithContext(requestcontext.WithRequestID(req.Context(), requestID))
}

// FromClient attaches the client address the client metadata middleware would
// have resolved. The user agent is taken from the request header.
func FromClient(req *http.Request, ip string) *http.Request {
	ctx := requestcontext.WithClientMetadata(req.Context(), ip, req.UserAgent())
	return req.WithContext(ctx)
}
