package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/apex/log"
	"github.com/redis/go-redis/v9"
)

// RedisRateLimiter is a fixed window limiter shared by every relay instance
// pointing at the same Redis. Redis failures let the request through.
type RedisRateLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
	prefix string
	now    func() time.Time
}

func NewRedisRateLimiter(client *redis.Client, limit int, window time.Duration) *RedisRateLimiter {
	return &RedisRateLimiter{
		client: client,
		limit:  limit,
		window: window,
		prefix: "interrogame:ratelimit",
		now:    time.Now,
	}
}

func (rl *RedisRateLimiter) key(ip string) string {
	bucket := rl.now().UnixNano() / int64(rl.window)
	return fmt.Sprintf("%s:%s:%d", rl.prefix, ip, bucket)
}

// Allow counts one hit for ip in the current window.
func (rl *RedisRateLimiter) Allow(ctx context.Context, ip string) (bool, error) {
	key := rl.key(ip)

	var incr *redis.IntCmd
	_, err := rl.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, rl.window)
		return nil
	})
	if err != nil {
		return true, fmt.Errorf("rate limit counter: %w", err)
	}
	return incr.Val() <= int64(rl.limit), nil
}

func (rl *RedisRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)

		allowed, err := rl.Allow(r.Context(), ip)
		if err != nil {
			log.WithError(err).WithField("ip", ip).Warn("Rate limiter unavailable, allowing request")
		}
		if !allowed {
			rejectRateLimited(w, r)
			return
		}

		next.ServeHTTP(w, r)
	})
}
