//go:build integration

package resultcache

import (
	"context"
	"testing"
	"time"

	"compliance/internal/identity/saidnumber"
	"compliance/pkg/testutil/containers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisCache(t *testing.T) {
	rc := containers.GetManager().GetRedis(t)
	ctx := context.Background()
	require.NoError(t, rc.Reset(ctx))

	c := NewRedisCache(rc.Client)
	result := saidnumber.Validate("9307210120085")

	_, ok, err := c.Get(ctx, "subject")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "subject", result, time.Minute))
	got, ok, err := c.Get(ctx, "subject")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, result, got)

	ttl, err := rc.Client.TTL(ctx, "compliance:result:subject").Result()
	require.NoError(t, err)
	assert.InDelta(t, time.Minute.Seconds(), ttl.Seconds(), 5)

	require.NoError(t, rc.Client.Set(ctx, "compliance:result:corrupt", "{", time.Minute).Err())
	_, ok, err = c.Get(ctx, "corrupt")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestResetKeepsForeignKeys(t *testing.T) {
	rc := containers.GetManager().GetRedis(t)
	ctx := context.Background()

	c := NewRedisCache(rc.Client)
	require.NoError(t, c.Set(ctx, "subject", saidnumber.Validate("8001015009087"), time.Minute))
	require.NoError(t, rc.Client.Set(ctx, "other-service:key", "v", time.Minute).Err())

	removed, err := rc.Client.PurgeNamespace(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, removed, int64(1))

	_, ok, err := c.Get(ctx, "subject")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "v", rc.Client.Get(ctx, "other-service:key").Val())
	require.NoError(t, rc.Client.Del(ctx, "other-service:key").Err())
}
