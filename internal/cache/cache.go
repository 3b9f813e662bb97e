package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/samber/oops"
)

// DefaultTTL is used when RedisCache is created with a non-positive TTL
const DefaultTTL = time.Hour

// Cache is a byte-oriented key/value store with a fixed expiry per entry
type Cache interface {
	// Get returns the value and true on a hit, nil and false on a miss
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// RedisCache stores entries in Redis under a common prefix
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisCache{
		client: client,
		prefix: "cache:",
		ttl:    ttl,
	}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, oops.Code("CACHE_GET_FAILED").With("key", key).Wrap(err)
	}
	return value, true, nil
}

func (c *RedisCache) Put(ctx context.Context, key string, value []byte) error {
	if err := c.client.Set(ctx, c.prefix+key, value, c.ttl).Err(); err != nil {
		return oops.Code("CACHE_PUT_FAILED").With("key", key).Wrap(err)
	}
	return nil
}

func (c *RedisCache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, c.prefix+key).Err(); err != nil {
		return oops.Code("CACHE_DELETE_FAILED").With("key", key).Wrap(err)
	}
	return nil
}

// TTL reports the expiry applied to every entry
func (c *RedisCache) TTL() time.Duration {
	return c.ttl
}
