package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/eventdash/pkg/httputil"
)

// RateLimitConfig defines rate limiting configuration
type RateLimitConfig struct {
	// RequestsPerWindow is the max requests allowed in the time window
	RequestsPerWindow int `yaml:"requests_per_window"`
	// WindowDuration is the time window for rate limiting
	WindowDuration time.Duration `yaml:"window"`
	// TrustedProxies lists the addresses or CIDRs whose X-Forwarded-For and
	// X-Real-IP headers are believed
	TrustedProxies []string `yaml:"trusted_proxies"`
}

// DefaultRateLimitConfig returns default rate limit settings
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerWindow: 300,
		WindowDuration:    time.Minute,
	}
}

func (c RateLimitConfig) normalized() RateLimitConfig {
	def := DefaultRateLimitConfig()
	if c.RequestsPerWindow <= 0 {
		c.RequestsPerWindow = def.RequestsPerWindow
	}
	if c.WindowDuration <= 0 {
		c.WindowDuration = def.WindowDuration
	}
	return c
}

// Decision is the outcome of one Allow call
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	// Reset is when the current window ends
	Reset time.Time
}

// Limiter counts requests per key
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

// MemoryLimiter is a fixed-window limiter local to the process
type MemoryLimiter struct {
	config  RateLimitConfig
	now     func() time.Time
	mu      sync.Mutex
	windows map[string]*window
}

type window struct {
	count int
	reset time.Time
}

// NewMemoryLimiter creates an in-memory limiter
func NewMemoryLimiter(config RateLimitConfig) *MemoryLimiter {
	return &MemoryLimiter{
		config:  config.normalized(),
		now:     time.Now,
		windows: make(map[string]*window),
	}
}

// Allow implements Limiter
func (l *MemoryLimiter) Allow(_ context.Context, key string) (Decision, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.windows[key]
	if !ok || !now.Before(w.reset) {
		w = &window{reset: now.Add(l.config.WindowDuration)}
		l.windows[key] = w
	}
	w.count++

	return decide(l.config, int64(w.count), w.reset), nil
}

// Cleanup removes expired windows
func (l *MemoryLimiter) Cleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for key, w := range l.windows {
		if !now.Before(w.reset) {
			delete(l.windows, key)
		}
	}
}

// StartCleanup runs Cleanup every window until ctx is done
func (l *MemoryLimiter) StartCleanup(ctx context.Context) {
	ticker := time.NewTicker(l.config.WindowDuration)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				l.Cleanup()
			}
		}
	}()
}

func decide(config RateLimitConfig, count int64, reset time.Time) Decision {
	remaining := int64(config.RequestsPerWindow) - count
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:   count <= int64(config.RequestsPerWindow),
		Limit:     config.RequestsPerWindow,
		Remaining: int(remaining),
		Reset:     reset,
	}
}

// TrustedProxies holds the networks allowed to report the client address
type TrustedProxies []*net.IPNet

// ParseTrustedProxies parses CIDRs and bare IP addresses
func ParseTrustedProxies(entries []string) (TrustedProxies, error) {
	var proxies TrustedProxies
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if !strings.Contains(entry, "/") {
			ip := net.ParseIP(entry)
			if ip == nil {
				return nil, fmt.Errorf("invalid trusted proxy %q", entry)
			}
			bits := 8 * net.IPv6len
			if v4 := ip.To4(); v4 != nil {
				ip, bits = v4, 8*net.IPv4len
			}
			proxies = append(proxies, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
			continue
		}
		_, network, err := net.ParseCIDR(entry)
		if err != nil {
			return nil, fmt.Errorf("invalid trusted proxy %q: %w", entry, err)
		}
		proxies = append(proxies, network)
	}
	return proxies, nil
}

// Contains reports whether addr belongs to a trusted network
func (t TrustedProxies) Contains(addr string) bool {
	ip := net.ParseIP(addr)
	if ip == nil {
		return false
	}
	for _, network := range t {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

// RateLimit limits requests per client IP. Forwarding headers are only read
// from trusted proxies. Limiter errors let the request through.
func RateLimit(limiter Limiter, trusted TrustedProxies, logger logrus.FieldLogger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := "ip:" + clientIP(r, trusted)

			d, err := limiter.Allow(r.Context(), key)
			if err != nil {
				logger.WithError(err).WithField("key", key).Warn("Rate limiter unavailable, allowing request")
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", d.Limit))
			w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", d.Remaining))
			w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", d.Reset.Unix()))

			if !d.Allowed {
				retryAfter := time.Until(d.Reset).Seconds()
				if retryAfter < 1 {
					retryAfter = 1
				}
				w.Header().Set("Retry-After", fmt.Sprintf("%.0f", retryAfter))
				httputil.WriteErrorMessage(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// clientIP returns the connection address without its port unless the peer
// is a trusted proxy. Behind one, X-Forwarded-For is walked from the right
// and the first untrusted hop wins; X-Real-IP is the fallback.
func clientIP(r *http.Request, trusted TrustedProxies) string {
	peer := r.RemoteAddr
	if host, _, err := net.SplitHostPort(peer); err == nil {
		peer = host
	}
	if !trusted.Contains(peer) {
		return peer
	}

	if forwarded := r.Header.Values("X-Forwarded-For"); len(forwarded) > 0 {
		hops := strings.Split(strings.Join(forwarded, ","), ",")
		for i := len(hops) - 1; i >= 0; i-- {
			hop := strings.TrimSpace(hops[i])
			if hop != "" && !trusted.Contains(hop) {
				return hop
			}
		}
		if first := strings.TrimSpace(hops[0]); first != "" {
			return first
		}
	}
	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}
	return peer
}
