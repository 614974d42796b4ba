package models

import "time"

// RateLimitExceededResponse is the 429 body. It extends the usual error
// envelope with the quota that was exhausted.
type RateLimitExceededResponse struct {
	Error            string        `json:"error"`
	ErrorDescription string        `json:"error_description"`
	Class            EndpointClass `json:"endpoint_class"`
	RetryAfter       int           `json:"retry_after"`
	QuotaLimit       int           `json:"quota_limit"`
	QuotaRemaining   int           `json:"quota_remaining"`
	QuotaReset       time.Time     `json:"quota_reset"`
}
