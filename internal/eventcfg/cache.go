package eventcfg

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const cacheKeyPrefix = "eventcfg:"

// Cache keeps raw event documents in Redis so repeated loads skip the disk.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache constructs a cache helper. A nil client disables caching.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// Get returns the cached document bytes for slug. It reports whether the key existed.
func (c *Cache) Get(ctx context.Context, slug string) ([]byte, bool, error) {
	if c == nil || c.client == nil || slug == "" {
		return nil, false, nil
	}
	data, err := c.client.Get(ctx, cacheKeyPrefix+slug).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return data, true, nil
}

// Set stores the document bytes with the configured TTL.
func (c *Cache) Set(ctx context.Context, slug string, data []byte) error {
	if c == nil || c.client == nil || slug == "" || c.ttl <= 0 {
		return nil
	}
	return c.client.Set(ctx, cacheKeyPrefix+slug, data, c.ttl).Err()
}

// Invalidate drops the cached document for slug.
func (c *Cache) Invalidate(ctx context.Context, slug string) error {
	if c == nil || c.client == nil || slug == "" {
		return nil
	}
	return c.client.Del(ctx, cacheKeyPrefix+slug).Err()
}
