package apikey

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// VerdictCache stores validation verdicts under hashed credential keys.
// Entries are only ever replaced by TTL expiry, never deleted explicitly.
type VerdictCache interface {
	Get(ctx context.Context, key string) (*Verdict, bool)
	Set(ctx context.Context, key string, v *Verdict, ttl time.Duration)
}

// MemoryCache is a process-local VerdictCache.
type MemoryCache struct {
	mu    sync.Mutex
	items map[string]memoryEntry

	now func() time.Time
}

type memoryEntry struct {
	verdict  Verdict
	expireAt time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		items: make(map[string]memoryEntry),
		now:   time.Now,
	}
}

func (c *MemoryCache) Get(_ context.Context, key string) (*Verdict, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.items[key]
	if !ok {
		return nil, false
	}
	if c.now().After(e.expireAt) {
		delete(c.items, key)
		return nil, false
	}
	v := e.verdict
	return &v, true
}

func (c *MemoryCache) Set(_ context.Context, key string, v *Verdict, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = memoryEntry{verdict: *v, expireAt: c.now().Add(ttl)}
}

// RedisCache shares verdicts across gateway instances. Verdicts are stored
// as JSON under the hashed key with the TTL applied by Redis itself.
type RedisCache struct {
	Client *redis.Client
}

var _ VerdictCache = (*RedisCache)(nil)

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{Client: client}
}

func (c *RedisCache) Get(ctx context.Context, key string) (*Verdict, bool) {
	raw, err := c.Client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	var v Verdict
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, false
	}
	return &v, true
}

func (c *RedisCache) Set(ctx context.Context, key string, v *Verdict, ttl time.Duration) {
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	// Best effort: a failed write just means another upstream call later.
	c.Client.SetEx(ctx, key, raw, ttl)
}
