// Package metadata resolves who is calling: client address and agent.
package metadata

import (
	"net"
	"net/http"
	"net/netip"
	"strings"

	"github.com/mssola/useragent"

	"compliance/pkg/requestcontext"
)

// ClientMetadata stores the client address, raw User-Agent and a short client
// label in the request context. It runs before auth and rate limiting, which
// both read the address.
func ClientMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := ClientIPFromRequest(r)
		userAgent := r.Header.Get("User-Agent")

		ctx := requestcontext.WithClientMetadata(r.Context(), ip, userAgent)
		ctx = requestcontext.WithClientKind(ctx, DescribeClient(userAgent))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// DescribeClient reduces a User-Agent to a short "browser/os" label for logs
// and audit records. Bots are reported as "bot" and empty agents as "unknown".
func DescribeClient(userAgent string) string {
	if strings.TrimSpace(userAgent) == "" {
		return "unknown"
	}
	ua := useragent.New(userAgent)
	if ua.Bot() {
		return "bot"
	}
	browser, _ := ua.Browser()
	if browser == "" {
		browser = "other"
	}
	os := ua.OSInfo().Name
	if os == "" {
		return browser
	}
	return browser + "/" + os
}

// ClientIPFromRequest resolves the caller's address: the first hop of
// X-Forwarded-For, then X-Real-IP, then the host part of RemoteAddr. Values
// that do not parse as an IP are skipped, and IPv4-mapped IPv6 is unmapped.
// It returns "unknown" when nothing usable is present.
func ClientIPFromRequest(r *http.Request) string {
	firstHop, _, _ := strings.Cut(r.Header.Get("X-Forwarded-For"), ",")
	candidates := []string{firstHop, r.Header.Get("X-Real-IP"), remoteHost(r.RemoteAddr)}
	for _, c := range candidates {
		if addr, err := netip.ParseAddr(strings.TrimSpace(c)); err == nil {
			return addr.Unmap().String()
		}
	}
	return "unknown"
}

func remoteHost(remoteAddr string) string {
	if host, _, err := net.SplitHostPort(remoteAddr); err == nil {
		return host
	}
	return remoteAddr
}
