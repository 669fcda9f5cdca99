package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/menucraft/api/pkg/logger"
)

// Lua scripts are compiled once at package initialization. They keep the
// check-and-consume step atomic across distributed API instances.
var (
	allowScript = redis.NewScript(`
		local key = KEYS[1]
		local now = tonumber(ARGV[1])
		local window_start = tonumber(ARGV[2])
		local window_ms = tonumber(ARGV[3])
		local limit = tonumber(ARGV[4])
		local request_id = ARGV[5]

		redis.call('ZREMRANGEBYSCORE', key, '-inf', window_start)
		local count = redis.call('ZCARD', key)

		if count < limit then
			redis.call('ZADD', key, now, request_id)
			redis.call('PEXPIRE', key, window_ms)
			return {1, limit - count - 1, now + window_ms}
		else
			local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
			local retry_at = oldest[2] and (tonumber(oldest[2]) + window_ms) or (now + window_ms)
			return {0, 0, retry_at}
		end
	`)

	statusScript = redis.NewScript(`
		local key = KEYS[1]
		local now = tonumber(ARGV[1])
		local window_start = tonumber(ARGV[2])
		local window_ms = tonumber(ARGV[3])
		local limit = tonumber(ARGV[4])

		redis.call('ZREMRANGEBYSCORE', key, '-inf', window_start)
		local count = redis.call('ZCARD', key)
		local ttl = redis.call('PTTL', key)
		if ttl < 0 then
			ttl = window_ms
		end

		local remaining = limit - count
		if remaining < 0 then
			remaining = 0
		end
		local allowed = 0
		if count < limit then
			allowed = 1
		end
		return {allowed, remaining, now + ttl}
	`)
)

// RateLimiter implements distributed rate limiting with a sliding window
// log over a Redis sorted set. Unlike fixed windows it tracks individual
// request timestamps, so bursts at window edges cannot double the rate.
type RateLimiter struct {
	client    *Client
	keyPrefix string
	limit     int
	window    time.Duration
	logger    *logger.Logger
}

// RateLimitResult contains the result of a rate limit check.
type RateLimitResult struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time

	// RetryAt is when the client should retry. Only set when not allowed.
	RetryAt time.Time
}

// NewRateLimiter creates a new distributed rate limiter.
func NewRateLimiter(client *Client, prefix string, limit int, window time.Duration, log *logger.Logger) (*RateLimiter, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	if prefix == "" {
		return nil, errors.New("key prefix is required")
	}
	if limit <= 0 {
		return nil, errors.New("limit must be positive")
	}
	if window <= 0 {
		return nil, errors.New("window must be positive")
	}
	if log == nil {
		return nil, errors.New("logger is required")
	}
	return &RateLimiter{
		client:    client,
		keyPrefix: prefix,
		limit:     limit,
		window:    window,
		logger:    log,
	}, nil
}

func (r *RateLimiter) buildKey(key string) string {
	return fmt.Sprintf("ratelimit:%s:%s", r.keyPrefix, key)
}

// Allow checks whether a request is permitted and consumes one slot.
func (r *RateLimiter) Allow(ctx context.Context, key string) (*RateLimitResult, error) {
	if key == "" {
		return nil, errors.New("key is required")
	}

	now := time.Now()
	windowStart := now.Add(-r.window)

	raw, err := allowScript.Run(ctx, r.client.client,
		[]string{r.buildKey(key)},
		now.UnixMilli(),
		windowStart.UnixMilli(),
		r.window.Milliseconds(),
		r.limit,
		uuid.NewString(),
	).Result()
	if err != nil {
		return nil, fmt.Errorf("rate limit check: %w", err)
	}

	result, err := parseScriptResult(raw)
	if err != nil {
		return nil, err
	}
	DefaultMetrics.RecordRateLimit(r.keyPrefix, result.Allowed)
	return result, nil
}

// Status returns the current window state without consuming a slot.
func (r *RateLimiter) Status(ctx context.Context, key string) (*RateLimitResult, error) {
	if key == "" {
		return nil, errors.New("key is required")
	}

	now := time.Now()
	windowStart := now.Add(-r.window)

	raw, err := statusScript.Run(ctx, r.client.client,
		[]string{r.buildKey(key)},
		now.UnixMilli(),
		windowStart.UnixMilli(),
		r.window.Milliseconds(),
		r.limit,
	).Result()
	if err != nil {
		return nil, fmt.Errorf("rate limit status: %w", err)
	}
	return parseScriptResult(raw)
}

// Reset removes the rate limit state for a key.
func (r *RateLimiter) Reset(ctx context.Context, key string) error {
	if key == "" {
		return errors.New("key is required")
	}
	return r.client.Del(ctx, r.buildKey(key))
}

// Limit returns the configured limit.
func (r *RateLimiter) Limit() int {
	return r.limit
}

// Window returns the configured window duration.
func (r *RateLimiter) Window() time.Duration {
	return r.window
}

func parseScriptResult(raw any) (*RateLimitResult, error) {
	values, ok := raw.([]any)
	if !ok || len(values) != 3 {
		return nil, fmt.Errorf("unexpected rate limit script result: %v", raw)
	}

	allowed, _ := values[0].(int64)
	remaining, _ := values[1].(int64)
	atMillis, _ := values[2].(int64)
	at := time.UnixMilli(atMillis)

	result := &RateLimitResult{
		Allowed:   allowed == 1,
		Remaining: int(remaining),
		ResetAt:   at,
	}
	if !result.Allowed {
		result.RetryAt = at
	}
	return result, nil
}
