package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"math"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	rateLimitUserPrefix = "ratelimit:user:"
	rateLimitIPPrefix   = "ratelimit:ip:"
)

// RateLimit is a token bucket: Rate tokens per second, holding at most Burst.
type RateLimit struct {
	Rate  float64
	Burst int
}

// PerMinute builds a RateLimit from a per-minute rate.
func PerMinute(n, burst int) RateLimit {
	return RateLimit{Rate: float64(n) / 60.0, Burst: burst}
}

// Unlimited reports whether the limit is disabled.
func (l RateLimit) Unlimited() bool {
	return l.Rate <= 0
}

// ttl keeps a bucket around long enough to refill completely.
func (l RateLimit) ttl() int {
	if l.Rate <= 0 {
		return 60
	}
	return int(math.Ceil(float64(l.Burst)/l.Rate)) + 1
}

// RateLimitResult contains the result of a rate limit check.
type RateLimitResult struct {
	Allowed    bool
	Remaining  int64
	ResetAt    time.Time
	RetryAfter time.Duration
}

// tokenBucketScript refills and consumes in one atomic step.
var tokenBucketScript = redis.NewScript(`
	local key = KEYS[1]
	local rate = tonumber(ARGV[1])
	local burst = tonumber(ARGV[2])
	local now = tonumber(ARGV[3])
	local ttl = tonumber(ARGV[4])

	local data = redis.call('HMGET', key, 'tokens', 'last_update')
	local tokens = tonumber(data[1]) or burst
	local last_update = tonumber(data[2]) or now

	tokens = math.min(burst, tokens + ((now - last_update) * rate))

	local allowed = 0
	local retry_after = 0
	if tokens >= 1 then
		tokens = tokens - 1
		allowed = 1
	else
		retry_after = math.ceil((1 - tokens) / rate)
	end

	redis.call('HSET', key, 'tokens', tokens, 'last_update', now)
	redis.call('EXPIRE', key, ttl)

	return {allowed, retry_after, math.floor(tokens)}
`)

// CheckUserRateLimit consumes one token from a signed-in user's bucket.
func (c *Cache) CheckUserRateLimit(ctx context.Context, userID string, limit RateLimit) *RateLimitResult {
	return c.checkRateLimit(ctx, rateLimitUserPrefix+userID, limit)
}

// CheckIPRateLimit consumes one token from an anonymous client's bucket.
// The IP is hashed so raw addresses never reach Redis.
func (c *Cache) CheckIPRateLimit(ctx context.Context, ip string, limit RateLimit) *RateLimitResult {
	return c.checkRateLimit(ctx, rateLimitIPPrefix+hashIP(ip), limit)
}

// checkRateLimit fails open: a Redis error allows the request.
func (c *Cache) checkRateLimit(ctx context.Context, key string, limit RateLimit) *RateLimitResult {
	open := &RateLimitResult{
		Allowed:   true,
		Remaining: int64(limit.Burst),
		ResetAt:   time.Now().Add(time.Minute),
	}
	if limit.Unlimited() {
		return open
	}

	result, err := tokenBucketScript.Run(ctx, c.client,
		[]string{key},
		limit.Rate, limit.Burst, time.Now().Unix(), limit.ttl(),
	).Int64Slice()
	if err != nil || len(result) != 3 {
		return open
	}

	return &RateLimitResult{
		Allowed:    result[0] == 1,
		Remaining:  result[2],
		ResetAt:    time.Now().Add(time.Duration(float64(time.Second) / limit.Rate)),
		RetryAfter: time.Duration(result[1]) * time.Second,
	}
}

func hashIP(ip string) string {
	hash := sha256.Sum256([]byte(ip))
	return hex.EncodeToString(hash[:8])
}
