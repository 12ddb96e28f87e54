package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// rateLimitScript checks the ceiling before incrementing, so a rejected
// request never consumes quota, and starts the window on the first hit.
var rateLimitScript = redis.NewScript(`
local current = tonumber(redis.call("GET", KEYS[1]) or "0")
if current >= tonumber(ARGV[2]) then
  local ttl = redis.call("PTTL", KEYS[1])
  return {current, ttl, 0}
end
current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
return {current, ttl, 1}
`)

// RedisLimiter shares window counters across gateway instances. When Redis
// is unreachable it degrades to the per-process in-memory limiter rather
// than failing open.
type RedisLimiter struct {
	Client   *redis.Client
	Window   time.Duration
	Limit    int
	Prefix   string
	Fallback *InMemoryLimiter
}

var _ Limiter = (*RedisLimiter)(nil)

func NewRedis(client *redis.Client, limit int, window time.Duration) *RedisLimiter {
	if window <= 0 {
		window = time.Minute
	}
	if limit <= 0 {
		limit = 1
	}
	return &RedisLimiter{
		Client:   client,
		Window:   window,
		Limit:    limit,
		Prefix:   "rl:",
		Fallback: NewInMemory(limit, window),
	}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) Decision {
	if l.Client == nil {
		return l.Fallback.Allow(ctx, key)
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	res, err := rateLimitScript.Run(ctx, l.Client,
		[]string{l.Prefix + key},
		l.Window.Milliseconds(), l.Limit).Result()
	if err != nil {
		return l.Fallback.Allow(ctx, key)
	}

	vals, ok := res.([]interface{})
	if !ok || len(vals) < 3 {
		return l.Fallback.Allow(ctx, key)
	}

	count, _ := vals[0].(int64)
	ttlMs, _ := vals[1].(int64)
	allowed, _ := vals[2].(int64)
	if ttlMs < 0 {
		ttlMs = l.Window.Milliseconds()
	}

	remaining := l.Limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:   allowed == 1,
		Count:     int(count),
		Limit:     l.Limit,
		Remaining: remaining,
		ResetAt:   time.Now().UTC().Add(time.Duration(ttlMs) * time.Millisecond),
	}
}
