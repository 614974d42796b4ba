package resultcache

import (
	"context"
	"sync"
	"time"

	"compliance/internal/identity/saidnumber"
)

type entry struct {
	result    saidnumber.Result
	expiresAt time.Time
}

// InMemoryCache is a TTL map. Expired entries are dropped lazily on read and
// swept on write once the map grows past sweepThreshold.
type InMemoryCache struct {
	mu      sync.Mutex
	entries map[string]entry
	now     func() time.Time
}

const sweepThreshold = 10_000

func NewInMemoryCache() *InMemoryCache {
	return &InMemoryCache{entries: make(map[string]entry), now: time.Now}
}

func (c *InMemoryCache) Get(_ context.Context, subjectHash string) (saidnumber.Result, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[subjectHash]
	if !ok {
		return saidnumber.Result{}, false, nil
	}
	if !c.now().Before(e.expiresAt) {
		delete(c.entries, subjectHash)
		return saidnumber.Result{}, false, nil
	}
	return copyResult(e.result), true, nil
}

func (c *InMemoryCache) Set(_ context.Context, subjectHash string, result saidnumber.Result, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	if len(c.entries) >= sweepThreshold {
		for k, e := range c.entries {
			if !now.Before(e.expiresAt) {
				delete(c.entries, k)
			}
		}
	}
	c.entries[subjectHash] = entry{result: copyResult(result), expiresAt: now.Add(ttl)}
	return nil
}

// Len reports the number of stored entries, expired or not.
func (c *InMemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// copyResult detaches the DateOfBirth pointer so callers cannot mutate cached state.
func copyResult(r saidnumber.Result) saidnumber.Result {
	if r.DateOfBirth != nil {
		dob := *r.DateOfBirth
		r.DateOfBirth = &dob
	}
	return r
}
