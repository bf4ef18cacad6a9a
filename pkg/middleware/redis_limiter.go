package middleware

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

var fixedWindowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
if ttl < 0 then
  ttl = tonumber(ARGV[1])
end
return {current, ttl}
`)

// RedisLimiter implements a distributed fixed-window limiter.
type RedisLimiter struct {
	client redis.UniversalClient
	prefix string
	scope  string
	limit  int
	window time.Duration
}

func NewRedisLimiter(client redis.UniversalClient, prefix, scope string, limit int, window time.Duration) *RedisLimiter {
	trimmedPrefix := strings.TrimSuffix(strings.TrimSpace(prefix), ":")
	if trimmedPrefix == "" {
		trimmedPrefix = "transfa:rate_limit"
	}
	if window < time.Second {
		window = time.Second
	}
	return &RedisLimiter{
		client: client,
		prefix: trimmedPrefix,
		scope:  scope,
		limit:  limit,
		window: window,
	}
}

func (r *RedisLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	if r.limit <= 0 {
		return true, 0, nil
	}

	redisKey := fmt.Sprintf("%s:%s:%s", r.prefix, r.scope, key)
	rawResult, err := fixedWindowScript.Run(ctx, r.client, []string{redisKey}, r.window.Milliseconds()).Result()
	if err != nil {
		return false, 0, err
	}

	values, ok := rawResult.([]interface{})
	if !ok || len(values) != 2 {
		return false, 0, fmt.Errorf("unexpected redis limiter response shape: %T", rawResult)
	}
	count, ok := values[0].(int64)
	if !ok {
		return false, 0, fmt.Errorf("unexpected redis limiter count type: %T", values[0])
	}
	ttlMs, ok := values[1].(int64)
	if !ok {
		return false, 0, fmt.Errorf("unexpected redis limiter ttl type: %T", values[1])
	}

	if count > int64(r.limit) {
		return false, time.Duration(ttlMs) * time.Millisecond, nil
	}
	return true, 0, nil
}
