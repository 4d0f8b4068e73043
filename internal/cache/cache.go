package cache

import (
	"sync"
	"time"
)

// Memory is a TTL map used by the public read endpoints. Entries are
// dropped lazily on read.
type Memory struct {
	mu  sync.RWMutex
	ttl time.Duration
	m   map[string]memEntry
}

type memEntry struct {
	val []byte
	exp time.Time
}

func NewMemory(ttl time.Duration) *Memory {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}

	return &Memory{
		ttl: ttl,
		m:   make(map[string]memEntry),
	}
}

func (c *Memory) Get(key string) ([]byte, bool) {
	now := time.Now()
	c.mu.RLock()
	e, ok := c.m[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}

	if now.After(e.exp) {
		c.mu.Lock()
		delete(c.m, key)
		c.mu.Unlock()
		return nil, false
	}

	return e.val, true
}

func (c *Memory) Set(key string, val []byte) {
	c.mu.Lock()
	c.m[key] = memEntry{val: val, exp: time.Now().Add(c.ttl)}
	c.mu.Unlock()
}

func (c *Memory) Delete(key string) {
	c.mu.Lock()
	delete(c.m, key)
	c.mu.Unlock()
}

func (c *Memory) Clear() {
	c.mu.Lock()
	c.m = make(map[string]memEntry)
	c.mu.Unlock()
}
