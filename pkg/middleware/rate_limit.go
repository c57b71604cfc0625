package middleware

import (
	"net/http"
	"sync"

	"github.com/buildreviewer/reviewer-services/pkg/metrics"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// memoryLimiter keeps one token bucket per caller key.
type memoryLimiter struct {
	rps   rate.Limit
	burst int
	mu    sync.Mutex
	store map[string]*rate.Limiter
}

func (m *memoryLimiter) get(key string) *rate.Limiter {
	m.mu.Lock()
	defer m.mu.Unlock()
	lim, ok := m.store[key]
	if !ok {
		lim = rate.NewLimiter(m.rps, m.burst)
		m.store[key] = lim
	}
	return lim
}

// RateLimitMiddleware enforces a per-caller token bucket of rps events per
// second with the given burst. Buckets are local to the middleware instance.
func RateLimitMiddleware(rps float64, burst int) gin.HandlerFunc {
	ml := &memoryLimiter{rps: rate.Limit(rps), burst: burst, store: map[string]*rate.Limiter{}}
	return func(c *gin.Context) {
		if !ml.get(limiterKey(c)).Allow() {
			c.Header("Retry-After", "1")
			metrics.RateLimitRejected.WithLabelValues("memory").Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded"})
			return
		}
		metrics.RateLimitAllowed.WithLabelValues("memory").Inc()
		c.Next()
	}
}
