package resultcache

import (
	"context"
	"testing"
	"time"

	"compliance/internal/identity/saidnumber"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryCache(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewInMemoryCache()
	c.now = func() time.Time { return now }

	valid := saidnumber.Validate("8001015009087")

	t.Run("miss", func(t *testing.T) {
		_, ok, err := c.Get(ctx, "absent")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("hit within ttl", func(t *testing.T) {
		require.NoError(t, c.Set(ctx, "h", valid, time.Minute))
		got, ok, err := c.Get(ctx, "h")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, valid, got)
	})

	t.Run("cached value is detached", func(t *testing.T) {
		got, _, _ := c.Get(ctx, "h")
		got.DateOfBirth.Year = 1900
		again, _, _ := c.Get(ctx, "h")
		assert.Equal(t, 1980, again.DateOfBirth.Year)
	})

	t.Run("expired entries are dropped", func(t *testing.T) {
		now = now.Add(time.Minute)
		_, ok, err := c.Get(ctx, "h")
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Zero(t, c.Len())
	})

	t.Run("non-positive ttl is not stored", func(t *testing.T) {
		require.NoError(t, c.Set(ctx, "zero", valid, 0))
		_, ok, _ := c.Get(ctx, "zero")
		assert.False(t, ok)
	})
}
