package api

import (
	"context"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"apartment-estimator/apperrors"
	"apartment-estimator/utils"
)

const (
	// visitorIdleTTL is how long an idle client keeps its bucket.
	visitorIdleTTL = 10 * time.Minute
	// visitorCleanupInterval is how often idle buckets are dropped.
	visitorCleanupInterval = time.Minute
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ipRateLimiter hands out one token bucket per client IP. Buckets idle for
// longer than visitorIdleTTL are dropped by cleanup.
type ipRateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rps      rate.Limit
	burst    int
	now      func() time.Time
}

func newIPRateLimiter(perMinute int) *ipRateLimiter {
	burst := perMinute / 2
	if burst < 5 {
		burst = 5
	}
	return &ipRateLimiter{
		visitors: make(map[string]*visitor),
		rps:      rate.Limit(float64(perMinute) / 60.0),
		burst:    burst,
		now:      time.Now,
	}
}

func (l *ipRateLimiter) get(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	v, ok := l.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.visitors[ip] = v
	}
	v.lastSeen = l.now()
	return v.limiter
}

// cleanup drops visitors not seen within idle and returns how many were
// removed.
func (l *ipRateLimiter) cleanup(idle time.Duration) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-idle)
	removed := 0
	for ip, v := range l.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(l.visitors, ip)
			removed++
		}
	}
	return removed
}

func (l *ipRateLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.visitors)
}

// runCleanup calls cleanup every interval until ctx is done.
func (l *ipRateLimiter) runCleanup(ctx context.Context, interval, idle time.Duration, logger *utils.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := l.cleanup(idle); n > 0 {
				logger.Debug("[api] Dropped %d idle rate limiters", n)
			}
		}
	}
}

// Middleware rejects requests beyond the per-IP budget. A non-positive
// budget disables limiting.
func (l *ipRateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if l.rps <= 0 {
			c.Next()
			return
		}
		if !l.get(c.ClientIP()).Allow() {
			_ = c.Error(apperrors.NewRateLimitError("60s"))
			c.Abort()
			return
		}
		c.Next()
	}
}

// requestLogger logs one line per request through the application logger.
func requestLogger(logger *utils.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("[api] %s %s %d %s",
			c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start).Round(time.Microsecond))
	}
}
