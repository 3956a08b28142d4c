package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"messenger-service/internal/observability"
)

type keyLimiter struct {
	lim  *rate.Limiter
	seen time.Time
}

// RateLimiter hands out one token bucket per key and forgets idle keys.
type RateLimiter struct {
	mu    sync.Mutex
	keys  map[string]*keyLimiter
	limit rate.Limit
	burst int
	ttl   time.Duration
	stop  chan struct{}
	once  sync.Once
}

func NewRateLimiter(limit rate.Limit, burst int, ttl time.Duration) *RateLimiter {
	return &RateLimiter{
		keys:  make(map[string]*keyLimiter),
		limit: limit,
		burst: burst,
		ttl:   ttl,
		stop:  make(chan struct{}),
	}
}

// Allow reports whether key may proceed now.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	kl, ok := rl.keys[key]
	if !ok {
		kl = &keyLimiter{lim: rate.NewLimiter(rl.limit, rl.burst)}
		rl.keys[key] = kl
	}
	kl.seen = time.Now()
	rl.mu.Unlock()
	return kl.lim.Allow()
}

// Sweep drops keys idle for longer than the ttl.
func (rl *RateLimiter) Sweep(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for k, v := range rl.keys {
		if now.Sub(v.seen) > rl.ttl {
			delete(rl.keys, k)
		}
	}
}

// Run sweeps periodically until Stop is called.
func (rl *RateLimiter) Run(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-rl.stop:
			return
		case now := <-ticker.C:
			rl.Sweep(now)
		}
	}
}

func (rl *RateLimiter) Stop() {
	rl.once.Do(func() { close(rl.stop) })
}

func (rl *RateLimiter) size() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.keys)
}

// RateLimit limits requests per authenticated user, falling back to client IP,
// and per route.
func RateLimit(rl *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		who := observability.IPFromRequest(c.Request)
		if userID := c.GetInt("userID"); userID != 0 {
			who = "user:" + strconv.Itoa(userID)
		}
		route := observability.RouteLabel(c)

		if !rl.Allow(who + "|" + route) {
			observability.IncRateLimited(route)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		c.Next()
	}
}
