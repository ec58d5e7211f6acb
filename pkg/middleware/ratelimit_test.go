package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLimiter(t *testing.T) {
	l := NewMemoryLimiter(RateLimitConfig{RequestsPerWindow: 2, WindowDuration: time.Minute})
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	d, _ := l.Allow(ctx, "a")
	assert.True(t, d.Allowed)
	assert.Equal(t, 1, d.Remaining)

	d, _ = l.Allow(ctx, "a")
	assert.True(t, d.Allowed)
	assert.Equal(t, 0, d.Remaining)

	d, _ = l.Allow(ctx, "a")
	assert.False(t, d.Allowed)
	assert.Equal(t, now.Add(time.Minute), d.Reset)

	d, _ = l.Allow(ctx, "b")
	assert.True(t, d.Allowed, "keys are independent")

	now = now.Add(time.Minute)
	d, _ = l.Allow(ctx, "a")
	assert.True(t, d.Allowed, "a new window starts after reset")

	now = now.Add(2 * time.Minute)
	l.Cleanup()
	assert.Empty(t, l.windows)
}

func TestMemoryLimiter_Defaults(t *testing.T) {
	l := NewMemoryLimiter(RateLimitConfig{})
	assert.Equal(t, DefaultRateLimitConfig(), l.config)
}

func TestRedisLimiter(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	l := NewRedisLimiter(client, RateLimitConfig{RequestsPerWindow: 2, WindowDuration: 30 * time.Second}, "test")
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		d, err := l.Allow(ctx, "ip:1.2.3.4")
		require.NoError(t, err)
		assert.True(t, d.Allowed)
	}

	d, err := l.Allow(ctx, "ip:1.2.3.4")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, 0, d.Remaining)
	assert.Equal(t, 30*time.Second, mr.TTL("test:ip:1.2.3.4"))

	mr.FastForward(31 * time.Second)
	d, err = l.Allow(ctx, "ip:1.2.3.4")
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	require.NoError(t, l.Reset(ctx, "ip:1.2.3.4"))
	assert.False(t, mr.Exists("test:ip:1.2.3.4"))
}

func TestRedisLimiter_Unavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()
	mr.Close()

	_, err := NewRedisLimiter(client, RateLimitConfig{}, "").Allow(context.Background(), "k")
	assert.Error(t, err)
}

type limiterFunc func(ctx context.Context, key string) (Decision, error)

func (f limiterFunc) Allow(ctx context.Context, key string) (Decision, error) { return f(ctx, key) }

func TestRateLimit(t *testing.T) {
	limiter := NewMemoryLimiter(RateLimitConfig{RequestsPerWindow: 1, WindowDuration: time.Minute})
	handler := RateLimit(limiter, nil, logrus.New())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/gauges", nil)
	req.RemoteAddr = "10.0.0.1:5555"

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), "rate limit exceeded")

	other := httptest.NewRequest(http.MethodGet, "/api/v1/gauges", nil)
	other.RemoteAddr = "10.0.0.2:5555"
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, other)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimit_FailOpen(t *testing.T) {
	failing := limiterFunc(func(context.Context, string) (Decision, error) {
		return Decision{}, errors.New("redis down")
	})
	called := false
	handler := RateLimit(failing, nil, nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		called = true
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.True(t, called)
}

func TestClientIP(t *testing.T) {
	trusted, err := ParseTrustedProxies([]string{"10.0.0.0/8", "192.0.2.1"})
	require.NoError(t, err)

	tests := []struct {
		name      string
		remote    string
		forwarded string
		realIP    string
		want      string
	}{
		{"direct", "198.51.100.9:1234", "", "", "198.51.100.9"},
		{"untrusted peer cannot spoof", "198.51.100.9:1234", "203.0.113.5", "203.0.113.6", "198.51.100.9"},
		{"trusted proxy", "192.0.2.1:1234", "203.0.113.5", "", "203.0.113.5"},
		{"rightmost untrusted hop", "10.1.1.1:80", "1.2.3.4, 203.0.113.5, 10.0.0.7", "", "203.0.113.5"},
		{"all hops trusted", "10.1.1.1:80", "10.0.0.8, 10.0.0.7", "", "10.0.0.8"},
		{"real ip from trusted proxy", "10.1.1.1:80", "", "203.0.113.6", "203.0.113.6"},
		{"no port", "192.0.2.50", "", "", "192.0.2.50"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			if tt.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			if tt.realIP != "" {
				req.Header.Set("X-Real-IP", tt.realIP)
			}
			assert.Equal(t, tt.want, clientIP(req, trusted))
		})
	}
}

func TestRateLimit_SpoofedForwardedFor(t *testing.T) {
	limiter := NewMemoryLimiter(RateLimitConfig{RequestsPerWindow: 1, WindowDuration: time.Minute})
	handler := RateLimit(limiter, nil, logrus.New())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(forwarded string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "198.51.100.9:4444"
		req.Header.Set("X-Forwarded-For", forwarded)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, send("203.0.113.1"))
	assert.Equal(t, http.StatusTooManyRequests, send("203.0.113.2"), "a new header value is still the same client")
}

func TestParseTrustedProxies(t *testing.T) {
	proxies, err := ParseTrustedProxies([]string{"10.0.0.0/8", " 192.0.2.1 ", "", "2001:db8::/32", "::1"})
	require.NoError(t, err)
	assert.Len(t, proxies, 4)

	assert.True(t, proxies.Contains("10.200.0.1"))
	assert.True(t, proxies.Contains("192.0.2.1"))
	assert.False(t, proxies.Contains("192.0.2.2"))
	assert.True(t, proxies.Contains("2001:db8::5"))
	assert.True(t, proxies.Contains("::1"))
	assert.False(t, proxies.Contains("not-an-ip"))
	assert.False(t, TrustedProxies(nil).Contains("10.0.0.1"))

	_, err = ParseTrustedProxies([]string{"10.0.0.0/99"})
	assert.Error(t, err)
	_, err = ParseTrustedProxies([]string{"proxy.local"})
	assert.Error(t, err)
}
