package middleware

import (
	"net/http"
	"sync"
	"time"
)

// RateLimiter applies a per-client token bucket. It shields the fake checkout
// pages and admin API from abuse; the WhatsApp webhook is excluded because
// Meta controls its retry cadence.
type RateLimiter struct {
	mu     sync.Mutex
	seen   map[string]*clientBucket
	rate   float64
	burst  float64
	nowFn  func() time.Time
	sweeps *time.Ticker
}

type clientBucket struct {
	tokens float64
	at     time.Time
}

// NewRateLimiter allows rate requests/sec with the given burst per client key.
func NewRateLimiter(rate float64, burst int) *RateLimiter {
	rl := &RateLimiter{
		seen:   make(map[string]*clientBucket),
		rate:   rate,
		burst:  float64(burst),
		nowFn:  time.Now,
		sweeps: time.NewTicker(5 * time.Minute),
	}
	go rl.sweep()
	return rl
}

// Allow reports whether a request under key fits the budget, consuming one
// token when it does.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.nowFn()
	b, ok := rl.seen[key]
	if !ok {
		rl.seen[key] = &clientBucket{tokens: rl.burst - 1, at: now}
		return true
	}

	b.tokens += now.Sub(b.at).Seconds() * rl.rate
	if b.tokens > rl.burst {
		b.tokens = rl.burst
	}
	b.at = now

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// sweep drops buckets idle long enough to be full again anyway.
func (rl *RateLimiter) sweep() {
	for range rl.sweeps.C {
		rl.mu.Lock()
		cutoff := rl.nowFn().Add(-10 * time.Minute)
		for key, b := range rl.seen {
			if b.at.Before(cutoff) {
				delete(rl.seen, key)
			}
		}
		rl.mu.Unlock()
	}
}

// RateLimit rejects requests beyond the configured rate with 429, keyed by
// client IP (X-Real-Ip when chi's RealIP middleware has set it).
func RateLimit(rate float64, burst int) func(http.Handler) http.Handler {
	limiter := NewRateLimiter(rate, burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get("X-Real-Ip")
			if key == "" {
				key = r.RemoteAddr
			}
			if !limiter.Allow(key) {
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
