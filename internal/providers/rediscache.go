// rediscache.go is the optional same-day quote cache mirror alongside the
// mandatory file cache. The file cache (filecache.go) remains
// authoritative per spec; Redis is consulted first only as a latency
// shortcut and any miss or error falls straight through to the normal
// fetch path.
package providers

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache mirrors FileCache's same-day semantics against a Redis
// instance, keyed by symbol with a TTL pinned to the remainder of the
// current calendar day.
type RedisCache struct {
	client *redis.Client
	prefix string
}

func NewRedisCache(client *redis.Client, prefix string) *RedisCache {
	return &RedisCache{client: client, prefix: prefix}
}

func (c *RedisCache) key(symbol string) string {
	return c.prefix + ":" + symbol
}

// Get reads the cached value for symbol into out. A Redis error (including
// a down instance) is treated as a cache miss, never surfaced as a fetch
// failure — Redis is a latency optimization, not a dependency.
func (c *RedisCache) Get(ctx context.Context, symbol string, out any) bool {
	data, err := c.client.Get(ctx, c.key(symbol)).Bytes()
	if err != nil {
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false
	}
	return true
}

// Put writes value for symbol with a TTL expiring at the next UTC
// midnight, mirroring the file cache's same-calendar-day validity window.
func (c *RedisCache) Put(ctx context.Context, symbol string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	ttl := time.Until(nextUTCMidnight(time.Now()))
	c.client.Set(ctx, c.key(symbol), data, ttl)
}

func nextUTCMidnight(from time.Time) time.Time {
	from = from.UTC()
	return time.Date(from.Year(), from.Month(), from.Day()+1, 0, 0, 0, 0, time.UTC)
}
