package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/evamind/gateway/pkg/idx"
	"github.com/redis/go-redis/v9"
)

// slidingLog trims, counts and conditionally appends in one atomic step.
// The clock is Redis' own TIME so that every gateway instance agrees.
//
// KEYS[1] client key; ARGV[1] window ms; ARGV[2] limit; ARGV[3] member.
// Returns {allowed, count, oldest_ms, now_ms}.
var slidingLog = redis.NewScript(`
local t = redis.call('TIME')
local now = tonumber(t[1]) * 1000 + math.floor(tonumber(t[2]) / 1000)
local window = tonumber(ARGV[1])
local limit = tonumber(ARGV[2])

redis.call('ZREMRANGEBYSCORE', KEYS[1], '-inf', now - window)
local count = redis.call('ZCARD', KEYS[1])

local oldest = 0
local first = redis.call('ZRANGE', KEYS[1], 0, 0, 'WITHSCORES')
if first[2] then
  oldest = tonumber(first[2])
end

if count >= limit then
  return {0, count, oldest, now}
end

redis.call('ZADD', KEYS[1], now, ARGV[3])
redis.call('PEXPIRE', KEYS[1], window)
if oldest == 0 then
  oldest = now
end
return {1, count + 1, oldest, now}
`)

// Redis is a sliding log shared by every gateway instance, stored as one
// sorted set per client.
type Redis struct {
	client redis.UniversalClient
	prefix string
}

func NewRedis(client redis.UniversalClient, prefix string) *Redis {
	if prefix == "" {
		prefix = "gateway:ratelimit:"
	}
	return &Redis{client: client, prefix: prefix}
}

func (r *Redis) Check(ctx context.Context, clientID string, limit int, window time.Duration) (Decision, error) {
	res, err := slidingLog.Run(ctx, r.client,
		[]string{r.prefix + clientID},
		window.Milliseconds(), limit, idx.New().String(),
	).Int64Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("ratelimit: redis sliding log: %w", err)
	}
	if len(res) != 4 {
		return Decision{}, fmt.Errorf("ratelimit: unexpected script reply of length %d", len(res))
	}

	count := int(res[1])
	if res[0] == 1 {
		return Decision{Allowed: true, Count: count, Limit: limit}, nil
	}

	var oldest time.Time
	if res[2] > 0 {
		oldest = time.UnixMilli(res[2])
	}
	return deny(count, limit, oldest, time.UnixMilli(res[3]), window), nil
}

// Ping checks connectivity to Redis.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
