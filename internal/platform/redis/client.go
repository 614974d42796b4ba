// Package redis connects the Redis instance shared by the result cache and
// the rate limit buckets.
package redis

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"compliance/internal/platform/config"
)

// KeyPrefix namespaces every key written by this service.
const KeyPrefix = "compliance:"

const scanBatch = 500

// Client is the service's Redis handle.
type Client struct {
	*redis.Client
}

// New dials cfg.URL and pings it. An empty URL yields a nil client and no
// error; callers then keep their state in process.
func New(ctx context.Context, cfg config.RedisConfig) (*Client, error) {
	if cfg.URL == "" {
		return nil, nil
	}
	opts, err := options(cfg)
	if err != nil {
		return nil, err
	}

	c := &Client{Client: redis.NewClient(opts)}
	if err := c.Health(ctx); err != nil {
		_ = c.Client.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", opts.Addr, err)
	}
	return c, nil
}

func options(cfg config.RedisConfig) (*redis.Options, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	opts.MinIdleConns = cfg.MinIdleConns
	if cfg.DialTimeout > 0 {
		opts.DialTimeout = cfg.DialTimeout
	}
	if cfg.ReadTimeout > 0 {
		opts.ReadTimeout = cfg.ReadTimeout
	}
	if cfg.WriteTimeout > 0 {
		opts.WriteTimeout = cfg.WriteTimeout
	}
	return opts, nil
}

// Health is the readiness probe.
func (c *Client) Health(ctx context.Context) error {
	return c.Ping(ctx).Err()
}

// PurgeNamespace unlinks every key under KeyPrefix and reports how many went.
// Keys outside the namespace are left alone.
func (c *Client) PurgeNamespace(ctx context.Context) (int64, error) {
	var removed int64
	batch := make([]string, 0, scanBatch)
	unlink := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := c.Unlink(ctx, batch...).Result()
		removed += n
		batch = batch[:0]
		return err
	}

	iter := c.Scan(ctx, 0, KeyPrefix+"*", scanBatch).Iterator()
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == scanBatch {
			if err := unlink(); err != nil {
				return removed, fmt.Errorf("unlink keys: %w", err)
			}
		}
	}
	if err := iter.Err(); err != nil {
		return removed, fmt.Errorf("scan keys: %w", err)
	}
	if err := unlink(); err != nil {
		return removed, fmt.Errorf("unlink keys: %w", err)
	}
	return removed, nil
}

// Key joins parts under KeyPrefix, e.g. Key("result", hash) = "compliance:result:<hash>".
func Key(parts ...string) string {
	return KeyPrefix + strings.Join(parts, ":")
}
