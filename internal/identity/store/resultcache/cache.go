// Package resultcache caches validation results by subject hash.
package resultcache

import (
	"context"
	"time"

	"compliance/internal/identity/saidnumber"
)

// Cache stores validation results keyed by subject hash. A miss is
// (Result{}, false, nil); errors are reserved for backend failures.
type Cache interface {
	Get(ctx context.Context, subjectHash string) (saidnumber.Result, bool, error)
	Set(ctx context.Context, subjectHash string, result saidnumber.Result, ttl time.Duration) error
}
