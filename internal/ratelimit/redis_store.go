package ratelimit

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
)

// countScript prunes expired entries and returns the remaining count together
// with the expiry of the oldest entry. Read-only with respect to limits:
// recording happens separately, after the action executed.
var countScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])

local windowStart = now - window

redis.call('ZREMRANGEBYSCORE', key, '-inf', windowStart)

local count = redis.call('ZCARD', key)

local oldestExpiry = now + window
local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
if #oldest >= 2 then
    oldestExpiry = tonumber(oldest[2]) + window
end

return {count, oldestExpiry}
`)

// RedisStore is the multi-instance Store backed by per-key sorted sets.
type RedisStore struct {
	client redis.Cmdable
}

func NewRedisStore(client redis.Cmdable) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Count(ctx context.Context, key string, window time.Duration) (int, time.Time, error) {
	now := time.Now().Unix()

	result, err := countScript.Run(
		ctx,
		s.client,
		[]string{fullKey(key)},
		now,
		int64(window.Seconds()),
	).Int64Slice()
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("rate limit count: %w", err)
	}
	if len(result) != 2 {
		return 0, time.Time{}, fmt.Errorf("rate limit count: unexpected result length %d", len(result))
	}

	return int(result[0]), time.Unix(result[1], 0), nil
}

func (s *RedisStore) Record(ctx context.Context, key string, window time.Duration) error {
	now := time.Now().Unix()
	member := fmt.Sprintf("%d-%d", now, rand.Int63())

	pipe := s.client.Pipeline()
	pipe.ZAdd(ctx, fullKey(key), redis.Z{Score: float64(now), Member: member})
	pipe.Expire(ctx, fullKey(key), window+10*time.Second)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *RedisStore) Last(ctx context.Context, key string) (time.Time, error) {
	value, err := s.client.Get(ctx, fullKey(key)).Int64()
	if err == redis.Nil {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(value, 0), nil
}

func (s *RedisStore) Stamp(ctx context.Context, key string, ttl time.Duration) error {
	return s.client.Set(ctx, fullKey(key), time.Now().Unix(), ttl).Err()
}

func fullKey(key string) string {
	return fmt.Sprintf("ratelimit:%s", key)
}
