package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	rateLimitInvitePrefix = "ratelimit:invite:"
	// rateLimitInviteIdle drops buckets of parents that stopped inviting.
	rateLimitInviteIdle = 10 * time.Minute
)

// RateLimitResult is the outcome of one bucket check.
type RateLimitResult struct {
	Allowed    bool
	Remaining  int64
	ResetAt    time.Time
	RetryAfter time.Duration
}

// inviteBucketScript refills and drains a token bucket atomically.
// Times are in milliseconds; the rate is tokens per millisecond.
//
// KEYS[1] bucket key
// ARGV    rate, burst, now, idle ttl
// returns {allowed, retry_after_ms, remaining, refill_ms}
var inviteBucketScript = redis.NewScript(`
local rate = tonumber(ARGV[1])
local burst = tonumber(ARGV[2])
local now = tonumber(ARGV[3])

local state = redis.call('HMGET', KEYS[1], 'tokens', 'ts')
local tokens = tonumber(state[1]) or burst
local ts = tonumber(state[2]) or now
if now > ts then
	tokens = math.min(burst, tokens + (now - ts) * rate)
end

local allowed = 0
local wait = 0
if tokens >= 1 then
	tokens = tokens - 1
	allowed = 1
else
	wait = math.ceil((1 - tokens) / rate)
end

redis.call('HSET', KEYS[1], 'tokens', tostring(tokens), 'ts', now)
redis.call('PEXPIRE', KEYS[1], ARGV[4])

return {allowed, wait, math.floor(tokens), math.ceil((burst - tokens) / rate)}
`)

// CheckInviteRateLimit takes one token from the invitation bucket of a parent.
// The bucket holds burst tokens and refills at ratePerMinute; a rate of zero
// disables the limit.
func (c *Cache) CheckInviteRateLimit(ctx context.Context, parentID string, ratePerMinute, burst int) (*RateLimitResult, error) {
	now := time.Now()
	if ratePerMinute <= 0 {
		return &RateLimitResult{Allowed: true, Remaining: int64(burst), ResetAt: now}, nil
	}
	if burst < 1 {
		burst = 1
	}

	perMs := float64(ratePerMinute) / float64(time.Minute/time.Millisecond)
	res, err := inviteBucketScript.Run(ctx, c.client,
		[]string{inviteRateLimitKey(parentID)},
		perMs, burst, now.UnixMilli(), rateLimitInviteIdle.Milliseconds(),
	).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("invite rate limit: %w", err)
	}
	if len(res) != 4 {
		return nil, fmt.Errorf("invite rate limit: unexpected reply %v", res)
	}

	return &RateLimitResult{
		Allowed:    res[0] == 1,
		RetryAfter: time.Duration(res[1]) * time.Millisecond,
		Remaining:  res[2],
		ResetAt:    now.Add(time.Duration(res[3]) * time.Millisecond),
	}, nil
}

// inviteRateLimitKey derives the bucket key of a parent.
// Account ids are hashed so they never appear in key listings.
func inviteRateLimitKey(parentID string) string {
	sum := sha256.Sum256([]byte(parentID))
	return rateLimitInvitePrefix + hex.EncodeToString(sum[:8])
}
