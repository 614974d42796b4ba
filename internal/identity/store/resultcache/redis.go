package resultcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"compliance/internal/identity/saidnumber"
	platformredis "compliance/internal/platform/redis"

	"github.com/redis/go-redis/v9"
)

const keyNamespace = "result"

// RedisCache stores results as JSON strings with a TTL.
type RedisCache struct {
	client redis.Cmdable
}

func NewRedisCache(client redis.Cmdable) *RedisCache {
	return &RedisCache{client: client}
}

func key(subjectHash string) string {
	return platformredis.Key(keyNamespace, subjectHash)
}

func (c *RedisCache) Get(ctx context.Context, subjectHash string) (saidnumber.Result, bool, error) {
	raw, err := c.client.Get(ctx, key(subjectHash)).Bytes()
	if errors.Is(err, redis.Nil) {
		return saidnumber.Result{}, false, nil
	}
	if err != nil {
		return saidnumber.Result{}, false, fmt.Errorf("redis get result: %w", err)
	}
	var result saidnumber.Result
	if err := json.Unmarshal(raw, &result); err != nil {
		// A corrupt entry is treated as a miss and overwritten on the next Set.
		return saidnumber.Result{}, false, nil
	}
	return result, true, nil
}

func (c *RedisCache) Set(ctx context.Context, subjectHash string, result saidnumber.Result, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	if err := c.client.Set(ctx, key(subjectHash), raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis set result: %w", err)
	}
	return nil
}
