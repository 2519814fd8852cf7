package kit

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const defaultLimiterIdleTTL = 10 * time.Minute

// IPRateLimiter keeps one token bucket per client IP. Buckets idle for longer
// than idleTTL are dropped on the next sweep. The client IP is the TCP peer
// unless the limiter sits behind a proxy it trusts to set X-Forwarded-For.
type IPRateLimiter struct {
	mu         sync.Mutex
	rps        rate.Limit
	burst      int
	idleTTL    time.Duration
	trustProxy bool
	now        func() time.Time
	entries    map[string]*limiterEntry
}

type IPRateLimiterOption func(*IPRateLimiter)

// WithTrustedProxy keys buckets by the leftmost X-Forwarded-For entry.
// Only enable it when every request passes through a proxy that overwrites
// the header; otherwise clients can pick their own bucket.
func WithTrustedProxy(trust bool) IPRateLimiterOption {
	return func(l *IPRateLimiter) { l.trustProxy = trust }
}

type limiterEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

func NewIPRateLimiter(rps float64, burst int, opts ...IPRateLimiterOption) *IPRateLimiter {
	if burst < 1 {
		burst = 1
	}
	l := &IPRateLimiter{
		rps:     rate.Limit(rps),
		burst:   burst,
		idleTTL: defaultLimiterIdleTTL,
		now:     time.Now,
		entries: make(map[string]*limiterEntry),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *IPRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.limiter(clientIP(r, l.trustProxy)).Allow() {
			w.Header().Set("Retry-After", strconv.Itoa(l.retryAfterSeconds()))
			WriteError(w, r, http.StatusTooManyRequests, "RateLimited", "too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (l *IPRateLimiter) limiter(ip string) *rate.Limiter {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.sweep(now)

	if ent, ok := l.entries[ip]; ok {
		ent.lastSeen = now
		return ent.lim
	}

	lim := rate.NewLimiter(l.rps, l.burst)
	l.entries[ip] = &limiterEntry{lim: lim, lastSeen: now}
	return lim
}

func (l *IPRateLimiter) sweep(now time.Time) {
	cutoff := now.Add(-l.idleTTL)
	for k, ent := range l.entries {
		if ent.lastSeen.Before(cutoff) {
			delete(l.entries, k)
		}
	}
}

func (l *IPRateLimiter) retryAfterSeconds() int {
	if l.rps <= 0 {
		return 1
	}
	sec := int(1 / float64(l.rps))
	if sec < 1 {
		return 1
	}
	return sec
}

func clientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if ip := firstForwardedFor(r.Header.Get("X-Forwarded-For")); ip != "" {
			return ip
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}

	return r.RemoteAddr
}

func firstForwardedFor(xff string) string {
	if xff == "" {
		return ""
	}
	first, _, _ := strings.Cut(xff, ",")
	return strings.TrimSpace(first)
}
