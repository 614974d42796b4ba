package resultcache

import (
	"context"
	"errors"
	"testing"
	"time"

	"compliance/internal/identity/saidnumber"
	"compliance/pkg/platform/circuit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type switchableCache struct {
	*InMemoryCache
	down bool
}

var errDown = errors.New("connection refused")

func (c *switchableCache) Get(ctx context.Context, k string) (saidnumber.Result, bool, error) {
	if c.down {
		return saidnumber.Result{}, false, errDown
	}
	return c.InMemoryCache.Get(ctx, k)
}

func (c *switchableCache) Set(ctx context.Context, k string, r saidnumber.Result, ttl time.Duration) error {
	if c.down {
		return errDown
	}
	return c.InMemoryCache.Set(ctx, k, r, ttl)
}

func TestGuardedCache(t *testing.T) {
	ctx := context.Background()
	result := saidnumber.Validate("7105145001087")

	primary := &switchableCache{InMemoryCache: NewInMemoryCache()}
	fallback := NewInMemoryCache()
	breaker := circuit.New("test", circuit.WithFailureThreshold(2), circuit.WithSuccessThreshold(2))
	g := NewGuarded(primary, fallback, WithBreaker(breaker))

	require.NoError(t, g.Set(ctx, "a", result, time.Minute))
	_, ok, _ := primary.InMemoryCache.Get(ctx, "a")
	assert.True(t, ok, "closed breaker writes to primary")

	primary.down = true
	err := g.Set(ctx, "b", result, time.Minute)
	assert.ErrorIs(t, err, errDown, "first failure surfaces while closed")
	assert.Equal(t, circuit.StateClosed, g.State())

	require.NoError(t, g.Set(ctx, "b", result, time.Minute), "threshold reached, fallback used")
	assert.Equal(t, circuit.StateOpen, g.State())
	got, ok, err := g.Get(ctx, "b")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, result, got)

	primary.down = false
	_, ok, err = g.Get(ctx, "b")
	require.NoError(t, err)
	assert.True(t, ok, "still served by fallback until success threshold")

	_, _, _ = g.Get(ctx, "a")
	assert.Equal(t, circuit.StateClosed, g.State())
	_, ok, _ = g.Get(ctx, "b")
	assert.False(t, ok, "primary never saw b")
}

func TestGuardedReset(t *testing.T) {
	primary := &switchableCache{InMemoryCache: NewInMemoryCache(), down: true}
	g := NewGuarded(primary, NewInMemoryCache(), WithBreaker(circuit.New("t", circuit.WithFailureThreshold(1))))

	_, _, err := g.Get(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, circuit.StateOpen, g.State())

	g.Reset(context.Background())
	assert.Equal(t, circuit.StateClosed, g.State())
}
