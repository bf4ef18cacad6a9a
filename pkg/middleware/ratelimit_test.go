package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenBucketLimiter(t *testing.T) {
	limiter := NewTokenBucketLimiter(60)
	defer limiter.Stop()

	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 60; i++ {
		allowed, _, err := limiter.Allow(ctx, "user-a")
		require.NoError(t, err)
		require.True(t, allowed, "request %d should be allowed", i)
	}

	allowed, retryAfter, err := limiter.Allow(ctx, "user-a")
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Equal(t, time.Second, retryAfter)

	allowed, _, _ = limiter.Allow(ctx, "user-b")
	assert.True(t, allowed, "keys must not share a bucket")

	now = now.Add(time.Second)
	allowed, _, _ = limiter.Allow(ctx, "user-a")
	assert.True(t, allowed, "one token refills per second at 60/min")
}

type staticLimiter struct {
	allowed    bool
	retryAfter time.Duration
	err        error
	lastKey    string
}

func (s *staticLimiter) Allow(_ context.Context, key string) (bool, time.Duration, error) {
	s.lastKey = key
	return s.allowed, s.retryAfter, s.err
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimitMiddleware(t *testing.T) {
	t.Run("rejects with retry-after", func(t *testing.T) {
		limiter := &staticLimiter{allowed: false, retryAfter: 1500 * time.Millisecond}
		handler := RateLimitMiddleware(limiter, 120, nil)(okHandler())

		req := httptest.NewRequest(http.MethodGet, "/payment-methods", nil)
		req = req.WithContext(context.WithValue(req.Context(), UserIDKey, "user-a"))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Equal(t, "2", rec.Header().Get("Retry-After"))
		assert.Equal(t, "120", rec.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, "user-a", limiter.lastKey)
	})

	t.Run("falls back to client ip", func(t *testing.T) {
		limiter := &staticLimiter{allowed: true}
		handler := RateLimitMiddleware(limiter, 120, nil)(okHandler())

		req := httptest.NewRequest(http.MethodGet, "/payment-methods", nil)
		req.RemoteAddr = "10.0.0.7:5123"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "ip:10.0.0.7", limiter.lastKey)
	})

	t.Run("fails open on limiter error", func(t *testing.T) {
		var reported error
		limiter := &staticLimiter{err: assert.AnError}
		handler := RateLimitMiddleware(limiter, 120, func(err error) { reported = err })(okHandler())

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/payment-methods", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.ErrorIs(t, reported, assert.AnError)
	})
}

func TestRedisLimiterUnreachableFailsOpen(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	limiter := NewRedisLimiter(client, "transfa:rate_limit:", "payment_methods", 10, time.Minute)
	_, _, err := limiter.Allow(context.Background(), "user-a")
	require.Error(t, err)

	handler := RateLimitMiddleware(limiter, 10, nil)(okHandler())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/payment-methods", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name   string
		xff    string
		xri    string
		remote string
		want   string
	}{
		{name: "forwarded chain", xff: "1.1.1.1, 2.2.2.2", remote: "9.9.9.9:1", want: "1.1.1.1"},
		{name: "real ip", xri: "3.3.3.3", remote: "9.9.9.9:1", want: "3.3.3.3"},
		{name: "remote addr", remote: "9.9.9.9:1234", want: "9.9.9.9"},
		{name: "remote addr without port", remote: "9.9.9.9", want: "9.9.9.9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				req.Header.Set("X-Real-IP", tt.xri)
			}
			assert.Equal(t, tt.want, getClientIP(req))
		})
	}
}
