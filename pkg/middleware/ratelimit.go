/**
 * @description
 * Rate limiting middleware to prevent abuse and ensure fair resource usage.
 * Requests are keyed by the authenticated user id, falling back to the client IP.
 *
 * @notes
 * - TokenBucketLimiter is in-process; RedisLimiter shares the budget across
 *   replicas.
 * - A limiter error lets the request through.
 */
package middleware

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Limiter decides whether one more request for key fits in the budget.
// retryAfter is only meaningful when allowed is false.
type Limiter interface {
	Allow(ctx context.Context, key string) (allowed bool, retryAfter time.Duration, err error)
}

// TokenBucketLimiter implements a per-key token bucket.
type TokenBucketLimiter struct {
	buckets     map[string]*tokenBucket
	mutex       sync.Mutex
	capacity    float64
	refillEvery time.Duration
	now         func() time.Time
	stopCleanup chan struct{}
	stopOnce    sync.Once
}

type tokenBucket struct {
	tokens     float64
	lastRefill time.Time
}

// NewTokenBucketLimiter allows requestsPerMinute per key with a burst of the same size.
func NewTokenBucketLimiter(requestsPerMinute int) *TokenBucketLimiter {
	if requestsPerMinute < 1 {
		requestsPerMinute = 1
	}
	tl := &TokenBucketLimiter{
		buckets:     make(map[string]*tokenBucket),
		capacity:    float64(requestsPerMinute),
		refillEvery: time.Minute / time.Duration(requestsPerMinute),
		now:         time.Now,
		stopCleanup: make(chan struct{}),
	}
	go tl.cleanupExpiredBuckets()
	return tl
}

func (tl *TokenBucketLimiter) Allow(_ context.Context, key string) (bool, time.Duration, error) {
	tl.mutex.Lock()
	defer tl.mutex.Unlock()

	now := tl.now()
	bucket, exists := tl.buckets[key]
	if !exists {
		bucket = &tokenBucket{tokens: tl.capacity, lastRefill: now}
		tl.buckets[key] = bucket
	}

	elapsed := now.Sub(bucket.lastRefill)
	if elapsed > 0 {
		bucket.tokens += float64(elapsed) / float64(tl.refillEvery)
		if bucket.tokens > tl.capacity {
			bucket.tokens = tl.capacity
		}
		bucket.lastRefill = now
	}

	if bucket.tokens >= 1 {
		bucket.tokens--
		return true, 0, nil
	}
	wait := time.Duration((1 - bucket.tokens) * float64(tl.refillEvery))
	return false, wait, nil
}

// Stop ends the background cleanup goroutine.
func (tl *TokenBucketLimiter) Stop() {
	tl.stopOnce.Do(func() { close(tl.stopCleanup) })
}

// cleanupExpiredBuckets removes idle buckets to prevent memory leaks.
func (tl *TokenBucketLimiter) cleanupExpiredBuckets() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			tl.mutex.Lock()
			now := tl.now()
			for key, bucket := range tl.buckets {
				if now.Sub(bucket.lastRefill) > 10*time.Minute {
					delete(tl.buckets, key)
				}
			}
			tl.mutex.Unlock()
		case <-tl.stopCleanup:
			return
		}
	}
}

// RateLimitMiddleware rejects requests over budget with 429 and Retry-After.
// onError, if set, is told about limiter failures.
func RateLimitMiddleware(limiter Limiter, requestsPerMinute int, onError func(error)) func(http.Handler) http.Handler {
	limit := strconv.Itoa(requestsPerMinute)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := GetUserIDFromContext(r.Context())
			if key == "" {
				key = "ip:" + getClientIP(r)
			}

			allowed, retryAfter, err := limiter.Allow(r.Context(), key)
			if err != nil {
				if onError != nil {
					onError(err)
				}
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", limit)
			if !allowed {
				seconds := int((retryAfter + time.Second - 1) / time.Second)
				if seconds < 1 {
					seconds = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(seconds))
				http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// getClientIP extracts the client IP from the request.
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
