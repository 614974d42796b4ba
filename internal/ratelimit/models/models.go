// Package models holds the rate limiting value types shared by stores,
// the service and the middleware.
package models

import (
	"time"
)

// EndpointClass groups endpoints that share a limit.
type EndpointClass string

const (
	// ClassValidate: single identity number checks, POST /identity/validate and /identity/history
	ClassValidate EndpointClass = "validate"
	// ClassBatch: POST /identity/validate/batch. Each request may carry many numbers.
	ClassBatch EndpointClass = "batch"
	// ClassRead: verification lookups and stats
	ClassRead EndpointClass = "read"
)

// IsValid checks if the endpoint class is one of the supported enum values.
func (c EndpointClass) IsValid() bool {
	switch c {
	case ClassValidate, ClassBatch, ClassRead:
		return true
	}
	return false
}

// Limit is a request budget over a sliding window.
type Limit struct {
	RequestsPerWindow int
	Window            time.Duration
}

// Limits holds the per-class budgets for each identifier type. A class
// missing from a map is denied.
type Limits struct {
	PerIP       map[EndpointClass]Limit
	PerOperator map[EndpointClass]Limit
}

// RateLimitResult represents the outcome of a rate limit check.
type RateLimitResult struct {
	Allowed    bool      `json:"allowed"`
	Limit      int       `json:"limit"`
	Remaining  int       `json:"remaining"`
	ResetAt    time.Time `json:"reset_at"`
	RetryAfter int       `json:"retry_after,omitempty"` // seconds, only set when not allowed
}
