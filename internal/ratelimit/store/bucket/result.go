package bucket

import (
	"math"
	"time"

	"compliance/internal/ratelimit/models"
)

// newResult builds the result for a window that now holds count entries and
// frees up at resetAt.
func newResult(allowed bool, limit, count int, resetAt, now time.Time) *models.RateLimitResult {
	res := &models.RateLimitResult{
		Allowed: allowed,
		Limit:   limit,
		ResetAt: resetAt,
	}
	if allowed {
		res.Remaining = max(limit-count, 0)
		return res
	}
	res.RetryAfter = max(int(math.Ceil(resetAt.Sub(now).Seconds())), 1)
	return res
}
