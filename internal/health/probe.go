package health

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

// Probe checks the event document directory and the optional Redis cache.
type Probe struct {
	EventsDir string
	Redis     *redis.Client
}

// PingEvents verifies the events directory exists and is listable.
func (p Probe) PingEvents(ctx context.Context, timeout time.Duration) error {
	if p.EventsDir == "" {
		return errors.New("events dir not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	done := make(chan error, 1)
	go func() {
		f, err := os.Open(p.EventsDir)
		if err != nil {
			done <- err
			return
		}
		defer f.Close()
		_, err = f.Readdirnames(1)
		if err != nil && !errors.Is(err, io.EOF) {
			done <- fmt.Errorf("read events dir: %w", err)
			return
		}
		done <- nil
	}()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PingRedis pings the cache. A nil client means caching is disabled, which is
// not a readiness failure.
func (p Probe) PingRedis(ctx context.Context, timeout time.Duration) error {
	if p.Redis == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return p.Redis.Ping(ctx).Err()
}
