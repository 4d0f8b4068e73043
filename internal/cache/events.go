package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// EventCache fronts the public event/distance reads with redis, falling
// back to the in-process TTL map when redis is unavailable. Admin
// writes call Invalidate so the public surface never serves a stale
// distance list for more than one TTL.
type EventCache struct {
	rdb *redis.Client
	mem *Memory
	ttl time.Duration
}

const eventKeyPrefix = "racereg:events:"

func NewEventCache(rdb *redis.Client, ttl time.Duration) *EventCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &EventCache{
		rdb: rdb,
		mem: NewMemory(ttl),
		ttl: ttl,
	}
}

func (c *EventCache) Get(ctx context.Context, key string) ([]byte, bool) {
	if c.rdb != nil {
		val, err := c.rdb.Get(ctx, eventKeyPrefix+key).Bytes()
		if err == nil {
			return val, true
		}
		if !errors.Is(err, redis.Nil) {
			// redis down, fall through to the local map
			return c.mem.Get(key)
		}
		return nil, false
	}
	return c.mem.Get(key)
}

func (c *EventCache) Set(ctx context.Context, key string, val []byte) {
	if c.rdb != nil {
		if err := c.rdb.Set(ctx, eventKeyPrefix+key, val, c.ttl).Err(); err == nil {
			return
		}
	}
	c.mem.Set(key, val)
}

func (c *EventCache) Invalidate(ctx context.Context, keys ...string) {
	for _, key := range keys {
		if c.rdb != nil {
			c.rdb.Del(ctx, eventKeyPrefix+key)
		}
		c.mem.Delete(key)
	}
}
