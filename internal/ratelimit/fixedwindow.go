package ratelimit

import (
	"context"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
	limiter "github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	limiterredis "github.com/ulule/limiter/v3/drivers/store/redis"
)

// FixedWindow adapts a ulule limiter to the Limiter interface.
type FixedWindow struct {
	lim *limiter.Limiter
}

// NewFixedWindow builds a fixed window limiter from a formatted rate such as
// "10-M". Counters live in Redis when rdb is set and in process memory
// otherwise.
func NewFixedWindow(rdb *redis.Client, prefix, formatted string) (*FixedWindow, error) {
	rate, err := limiter.NewRateFromFormatted(formatted)
	if err != nil {
		return nil, fmt.Errorf("parse rate %q: %w", formatted, err)
	}
	store, err := newStore(rdb, prefix)
	if err != nil {
		return nil, err
	}
	return &FixedWindow{lim: limiter.New(store, rate)}, nil
}

func newStore(rdb *redis.Client, prefix string) (limiter.Store, error) {
	opts := limiter.StoreOptions{Prefix: prefix, CleanUpInterval: limiter.DefaultCleanUpInterval}
	if rdb == nil {
		return memory.NewStoreWithOptions(opts), nil
	}
	store, err := limiterredis.NewStoreWithOptions(rdb, opts)
	if err != nil {
		return nil, fmt.Errorf("limiter redis store: %w", err)
	}
	return store, nil
}

// Take increments the counter for key.
func (f *FixedWindow) Take(ctx context.Context, key string) (Decision, error) {
	res, err := f.lim.Get(ctx, key)
	if err != nil {
		return Decision{}, err
	}
	return Decision{
		Allowed:   !res.Reached,
		Limit:     int(res.Limit),
		Remaining: int(res.Remaining),
		Reset:     time.Unix(res.Reset, 0),
	}, nil
}
