package ratelimit

import (
	"net/http"
	"sync"
	"time"

	xhttp "AgriIntel/pkg/http"

	"github.com/labstack/echo/v4"
)

type bucket struct {
	tokens float64
	last   time.Time
}

// Limiter is a per-key token bucket. A bucket idle long enough to refill
// completely is dropped, since a fresh bucket is equivalent.
type Limiter struct {
	mu        sync.Mutex
	m         map[string]*bucket
	capacity  float64
	refill    float64 // tokens per second
	idleTTL   time.Duration
	lastSweep time.Time
	now       func() time.Time
}

func New(capacity, refillPerSec float64) *Limiter {
	l := &Limiter{
		m:        make(map[string]*bucket),
		capacity: capacity,
		refill:   refillPerSec,
		now:      time.Now,
	}
	if refillPerSec > 0 {
		l.idleTTL = time.Duration(capacity / refillPerSec * float64(time.Second))
		if l.idleTTL < time.Second {
			l.idleTTL = time.Second
		}
	}
	return l
}

// Allow returns true if one token can be consumed for key.
func (l *Limiter) Allow(key string) bool {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()

	l.sweep(now)
	b, ok := l.m[key]
	if !ok {
		b = &bucket{tokens: l.capacity, last: now}
		l.m[key] = b
	}
	if elapsed := now.Sub(b.last).Seconds(); elapsed > 0 {
		b.tokens += elapsed * l.refill
		if b.tokens > l.capacity {
			b.tokens = l.capacity
		}
		b.last = now
	}
	if b.tokens >= 1 {
		b.tokens--
		return true
	}
	return false
}

// Len is the number of tracked keys.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.m)
}

// sweep runs at most once per idleTTL. Without refill a bucket never
// recovers, so nothing is evicted.
func (l *Limiter) sweep(now time.Time) {
	if l.idleTTL <= 0 || now.Sub(l.lastSweep) < l.idleTTL {
		return
	}
	for k, b := range l.m {
		if now.Sub(b.last) >= l.idleTTL {
			delete(l.m, k)
		}
	}
	l.lastSweep = now
}

// Middleware rejects requests over the client's budget with 429. Clients are
// keyed by RealIP, so the server's IPExtractor decides which headers count.
func (l *Limiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !l.Allow(c.RealIP()) {
				c.Response().Header().Set("Retry-After", "1")
				appErr := xhttp.TooManyRequestsError("Too many requests").WithParam("retry_after_seconds", 1)
				return xhttp.DataResponse(c, http.StatusTooManyRequests, []*xhttp.AppError{appErr})
			}
			return next(c)
		}
	}
}
