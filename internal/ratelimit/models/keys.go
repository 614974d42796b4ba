package models

import "strings"

// KeyPrefix names the identifier type a bucket counts.
type KeyPrefix string

const (
	KeyPrefixIP       KeyPrefix = "ip"
	KeyPrefixOperator KeyPrefix = "operator"
)

// RateLimitKey identifies one bucket: prefix, identifier and endpoint class.
type RateLimitKey struct {
	Prefix     KeyPrefix
	Identifier string
	Class      EndpointClass
}

func NewRateLimitKey(prefix KeyPrefix, identifier string, class EndpointClass) RateLimitKey {
	return RateLimitKey{Prefix: prefix, Identifier: identifier, Class: class}
}

// String renders "ratelimit:<prefix>:<identifier>:<class>".
func (k RateLimitKey) String() string {
	return "ratelimit:" + string(k.Prefix) + ":" + SanitizeKeySegment(k.Identifier) + ":" + string(k.Class)
}

// SanitizeKeySegment escapes delimiter characters in rate limit key segments
// so an identifier containing ':' cannot address a neighbouring bucket.
//
// Example: "2001:db8::1" becomes "2001_db8__1".
func SanitizeKeySegment(s string) string {
	return strings.ReplaceAll(s, ":", "_")
}
