package ratelimit

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestFixedWindowMemory(t *testing.T) {
	lim, err := NewFixedWindow(nil, "submit", "2-M")
	require.NoError(t, err)

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		d, err := lim.Take(ctx, "1.2.3.4")
		require.NoError(t, err)
		require.True(t, d.Allowed)
		require.Equal(t, 2, d.Limit)
	}
	d, err := lim.Take(ctx, "1.2.3.4")
	require.NoError(t, err)
	require.False(t, d.Allowed)
	require.Zero(t, d.Remaining)

	d, err = lim.Take(ctx, "5.6.7.8")
	require.NoError(t, err)
	require.True(t, d.Allowed)
}

func TestFixedWindowRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	lim, err := NewFixedWindow(client, "submit", "1-H")
	require.NoError(t, err)

	d, err := lim.Take(context.Background(), "ip")
	require.NoError(t, err)
	require.True(t, d.Allowed)

	d, err = lim.Take(context.Background(), "ip")
	require.NoError(t, err)
	require.False(t, d.Allowed)
}

func TestFixedWindowRejectsBadRate(t *testing.T) {
	_, err := NewFixedWindow(nil, "submit", "ten per minute")
	require.Error(t, err)
}
