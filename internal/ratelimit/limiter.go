// Package ratelimit enforces a per-principal request rate on relay operations.
package ratelimit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

const keyPrefix = "relay:rl:"

// LimitResult is the outcome of a rate limit check.
type LimitResult struct {
	Allowed    bool
	Remaining  int64
	ResetAt    time.Time
	RetryAfter time.Duration
}

// Limiter counts requests in a sliding window shared through Redis. Without
// Redis it keeps a token bucket per key in process memory, which only limits
// a single relay instance. A bucket idle for a whole window is full again, so
// such buckets are dropped at most once per window to keep memory bounded by
// the keys active in the last window.
type Limiter struct {
	rdb *redis.Client

	mu        sync.Mutex
	local     map[string]*localBucket
	lastSweep time.Time
	now       func() time.Time
}

type localBucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

func NewLimiter(rdb *redis.Client) *Limiter {
	return &Limiter{
		rdb:   rdb,
		local: make(map[string]*localBucket),
		now:   time.Now,
	}
}

// slidingWindowScript atomically: removes expired entries, adds current, counts.
// KEYS[1] = sorted set key
// ARGV[1] = window start (unix micro)
// ARGV[2] = now (unix micro)
// ARGV[3] = limit
// ARGV[4] = TTL seconds for the key
// Returns: [current_count, 1=allowed/0=denied]
var slidingWindowScript = redis.NewScript(`
local key = KEYS[1]
local window_start = tonumber(ARGV[1])
local now = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local ttl = tonumber(ARGV[4])

redis.call('ZREMRANGEBYSCORE', key, '-inf', window_start)
local count = redis.call('ZCARD', key)

if count < limit then
    redis.call('ZADD', key, now, now .. ':' .. math.random(1000000))
    redis.call('EXPIRE', key, ttl)
    return {count + 1, 1}
end

redis.call('EXPIRE', key, ttl)
return {count, 0}
`)

// Check admits or rejects one request for key, allowing at most limit
// requests per window.
func (l *Limiter) Check(ctx context.Context, key string, limit int64, window time.Duration) (LimitResult, error) {
	if l.rdb == nil {
		return l.checkLocal(key, limit, window), nil
	}

	now := l.now()
	result, err := slidingWindowScript.Run(ctx, l.rdb, []string{keyPrefix + key},
		now.Add(-window).UnixMicro(), now.UnixMicro(), limit, int64(window.Seconds())+1,
	).Int64Slice()
	if err != nil {
		// Fail open on Redis errors
		slog.WarnContext(ctx, "rate limit store unavailable", "error", err)
		return LimitResult{Allowed: true, Remaining: limit, ResetAt: now.Add(window)}, nil
	}

	count := result[0]
	allowed := result[1] == 1
	res := LimitResult{
		Allowed:   allowed,
		Remaining: max(limit-count, 0),
		ResetAt:   now.Add(window),
	}
	if !allowed {
		res.RetryAfter = window / 2
	}
	return res, nil
}

func (l *Limiter) checkLocal(key string, limit int64, window time.Duration) LimitResult {
	now := l.now()

	l.mu.Lock()
	if now.Sub(l.lastSweep) >= window {
		l.evictIdle(now, window)
	}
	b, ok := l.local[key]
	if !ok {
		b = &localBucket{lim: rate.NewLimiter(rate.Limit(float64(limit)/window.Seconds()), int(limit))}
		l.local[key] = b
	}
	b.lastSeen = now
	lim := b.lim
	l.mu.Unlock()

	r := lim.ReserveN(now, 1)
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return LimitResult{
			Allowed:    false,
			ResetAt:    now.Add(delay),
			RetryAfter: delay,
		}
	}
	return LimitResult{
		Allowed:   true,
		Remaining: max(int64(lim.TokensAt(now)), 0),
		ResetAt:   now.Add(window),
	}
}

// evictIdle drops buckets unused for at least window. Callers hold l.mu.
func (l *Limiter) evictIdle(now time.Time, window time.Duration) {
	for key, b := range l.local {
		if now.Sub(b.lastSeen) >= window {
			delete(l.local, key)
		}
	}
	l.lastSweep = now
}
