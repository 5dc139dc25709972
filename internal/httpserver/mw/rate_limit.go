package mw

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/MrSnakeDoc/arrcenter/internal/utils"
)

// RateLimitConfig configures the per-client token bucket guarding the routes
// that send probes. One token is one resolution, which is at most two
// outbound probes (primary, then secondary).
type RateLimitConfig struct {
	Burst             int // resolutions a client may run back to back
	RefillPerIPPerMin int
	MaxEntries        int
	SweepInterval     time.Duration
	IdleTTL           time.Duration
	TrustProxy        bool // resolve the client IP from proxy headers

	// Cost returns the number of resolutions r triggers. Nil means one.
	Cost func(r *http.Request) int
}

type bucket struct {
	mu       sync.Mutex
	tokens   float64
	lastRef  time.Time
	lastSeen time.Time
}

// decision is the outcome of charging a bucket.
type decision struct {
	ok         bool
	remaining  int
	retryAfter int // seconds, set when !ok
}

type limiter struct {
	cfg       RateLimitConfig
	rate      float64 // tokens per second
	capacity  float64
	mu        sync.Mutex
	buckets   map[string]*bucket
	lastSweep time.Time
}

func newLimiter(cfg RateLimitConfig) *limiter {
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = time.Minute
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 15 * time.Minute
	}
	if cfg.Burst < 1 {
		cfg.Burst = 1
	}
	if cfg.RefillPerIPPerMin < 1 {
		cfg.RefillPerIPPerMin = 1
	}
	return &limiter{
		cfg:       cfg,
		rate:      float64(cfg.RefillPerIPPerMin) / 60.0,
		capacity:  float64(cfg.Burst),
		buckets:   make(map[string]*bucket, 1024),
		lastSweep: time.Now(),
	}
}

// cost clamps the configured cost to [1, capacity] so a single request can
// always pass on a full bucket.
func (l *limiter) cost(r *http.Request) float64 {
	n := 1
	if l.cfg.Cost != nil {
		n = l.cfg.Cost(r)
	}
	return math.Max(1, math.Min(float64(n), l.capacity))
}

func (l *limiter) bucketFor(key string, now time.Time) *bucket {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cfg.MaxEntries > 0 && len(l.buckets) >= l.cfg.MaxEntries {
		l.sweepLocked(now)
	}
	b := l.buckets[key]
	if b == nil {
		b = &bucket{tokens: l.capacity, lastRef: now, lastSeen: now}
		l.buckets[key] = b
	}
	return b
}

// take charges cost tokens to the bucket of key.
func (l *limiter) take(key string, now time.Time, cost float64) decision {
	b := l.bucketFor(key, now)

	b.mu.Lock()
	defer b.mu.Unlock()

	if elapsed := now.Sub(b.lastRef).Seconds(); elapsed > 0 {
		b.tokens = math.Min(l.capacity, b.tokens+elapsed*l.rate)
		b.lastRef = now
	}

	if b.tokens >= cost {
		b.tokens -= cost
		b.lastSeen = now
		return decision{ok: true, remaining: int(math.Floor(b.tokens))}
	}

	return decision{
		remaining:  int(math.Floor(b.tokens)),
		retryAfter: max(1, int(math.Ceil((cost-b.tokens)/l.rate))),
	}
}

func (l *limiter) sweepLocked(now time.Time) {
	for ip, b := range l.buckets {
		if now.Sub(b.lastSeen) > l.cfg.IdleTTL {
			delete(l.buckets, ip)
		}
	}
	l.lastSweep = now
}

func (l *limiter) sweepMaybe(now time.Time) {
	l.mu.Lock()
	if now.Sub(l.lastSweep) >= l.cfg.SweepInterval {
		l.sweepLocked(now)
	}
	l.mu.Unlock()
}

// RateLimit returns a middleware sharing one set of buckets across every
// route it wraps. Rejected requests get a JSON 429 with Retry-After.
func RateLimit(cfg RateLimitConfig) func(http.Handler) http.Handler {
	l := newLimiter(cfg)
	limitStr := strconv.Itoa(int(l.capacity))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			now := time.Now()
			l.sweepMaybe(now)

			d := l.take(utils.ClientIP(r, l.cfg.TrustProxy), now, l.cost(r))

			w.Header().Set("X-RateLimit-Limit", limitStr)
			if !d.ok {
				w.Header().Set("Retry-After", strconv.Itoa(d.retryAfter))
				w.Header().Set("X-RateLimit-Remaining", "0")
				writeTooManyRequests(w)
				return
			}

			// Set before the handler writes its status line.
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(max(0, d.remaining)))
			next.ServeHTTP(w, r)
		})
	}
}

func writeTooManyRequests(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	_, _ = w.Write([]byte(`{"error":"rate limited"}` + "\n"))
}
