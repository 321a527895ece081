package rediscache

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
)

func TestRedisCache_GetSetDelete(t *testing.T) {
	mr := miniredis.RunT(t)
	c := New(mr.Addr())
	t.Cleanup(func() { _ = c.Close() })

	ctx := context.Background()
	require.NoError(t, c.Ping(ctx))
	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))

	b, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("v"), b)

	require.NoError(t, c.Delete(ctx, "k"))
	_, ok, err = c.Get(ctx, "k")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRedisCache_Expiry(t *testing.T) {
	mr := miniredis.RunT(t)
	c := New(mr.Addr())
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	mr.FastForward(time.Minute)
	_, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, c.Set(ctx, "z", []byte("v"), 0))
	_, ok, err = c.Get(ctx, "z")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRateLimiter_Allow(t *testing.T) {
	mr := miniredis.RunT(t)
	rl := NewRateLimiter(mr.Addr(), time.Minute, 2)
	t.Cleanup(func() { _ = rl.Close() })

	ctx := context.Background()
	d, err := rl.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	require.False(t, d.Limited)
	require.Equal(t, int64(1), d.Count)

	d, _ = rl.Allow(ctx, "10.0.0.1")
	require.False(t, d.Limited)
	require.Equal(t, int64(2), d.Count)

	mr.FastForward(20 * time.Second)
	d, err = rl.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	require.True(t, d.Limited)
	require.Equal(t, int64(3), d.Count)
	require.Equal(t, 40*time.Second, d.RetryAfter)

	mr.FastForward(40 * time.Second)
	d, err = rl.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	require.False(t, d.Limited)
	require.Equal(t, int64(1), d.Count)
}
