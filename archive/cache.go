package archive

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const cacheKeyPrefix = "compass:briefing:"

// Cache keeps recently read or written briefings in Redis keyed by date.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache wraps a Redis client. A zero ttl keeps entries for 48 hours.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 48 * time.Hour
	}
	return &Cache{client: client, ttl: ttl}
}

// Get returns the cached document for date, or ErrNotFound.
func (c *Cache) Get(ctx context.Context, date string) ([]byte, error) {
	data, err := c.client.Get(ctx, cacheKeyPrefix+date).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cached briefing %s: %w", date, err)
	}
	return data, nil
}

// Set stores the document for date with the cache TTL.
func (c *Cache) Set(ctx context.Context, date string, data []byte) error {
	if err := c.client.Set(ctx, cacheKeyPrefix+date, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache briefing %s: %w", date, err)
	}
	return nil
}

// Close closes the underlying client.
func (c *Cache) Close() error {
	return c.client.Close()
}
