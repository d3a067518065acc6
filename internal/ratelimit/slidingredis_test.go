package ratelimit

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestSlidingWindowTake(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	window := 2 * time.Second
	limiter := SlidingWindow{Client: client, Prefix: "test:", Window: window, Max: 2}
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		d, err := limiter.Take(ctx, "key")
		require.NoError(t, err)
		require.True(t, d.Allowed, "request %d", i)
		require.Equal(t, 2-(i+1), d.Remaining)
	}

	d, err := limiter.Take(ctx, "key")
	require.NoError(t, err)
	require.False(t, d.Allowed)
	require.Zero(t, d.Remaining)

	mr.FastForward(window)

	d, err = limiter.Take(ctx, "key")
	require.NoError(t, err)
	require.True(t, d.Allowed)
}

func TestSlidingWindowDisabled(t *testing.T) {
	d, err := SlidingWindow{Max: 5, Window: time.Minute}.Take(context.Background(), "key")
	require.NoError(t, err)
	require.True(t, d.Allowed)
	require.Equal(t, 5, d.Remaining)
}
