package daemon

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/gamingear/console/internal/models"
)

// clientLimiter is the token bucket of one client address.
type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter throttles credential form posts per client address so the
// shell cannot be used to hammer the remote sign-in endpoint.
type RateLimiter struct {
	mu       sync.Mutex
	clients  map[string]*clientLimiter
	rate     rate.Limit
	burst    int
	idle     time.Duration
	stopOnce sync.Once
	stop     chan struct{}
}

func NewRateLimiter(r rate.Limit, burst int) *RateLimiter {
	rl := &RateLimiter{
		clients: make(map[string]*clientLimiter),
		rate:    r,
		burst:   burst,
		idle:    10 * time.Minute,
		stop:    make(chan struct{}),
	}

	go rl.cleanupLoop(5 * time.Minute)

	logrus.WithFields(logrus.Fields{
		"rate":  float64(r),
		"burst": burst,
	}).Debugln("Auth rate limiter initialized")

	return rl
}

// Allow reports whether the client may make another request now.
func (rl *RateLimiter) Allow(client string) bool {
	return rl.limiterFor(client).Allow()
}

func (rl *RateLimiter) limiterFor(client string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()

	if l, ok := rl.clients[client]; ok {
		l.lastSeen = now
		return l.limiter
	}

	limiter := rate.NewLimiter(rl.rate, rl.burst)
	rl.clients[client] = &clientLimiter{limiter: limiter, lastSeen: now}
	return limiter
}

// Middleware rejects requests over the limit with 429 and a Retry-After.
// Only mutating requests count, so session polling is never throttled.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodGet || c.Request.Method == http.MethodHead {
			c.Next()
			return
		}

		client := c.ClientIP()

		if !rl.Allow(client) {
			requestLogger(c).WithFields(logrus.Fields{
				"client": client,
				"path":   c.Request.URL.Path,
			}).Warnln("Auth rate limit exceeded")

			retryAfter := max(int(1.0/float64(rl.rate)), 1)
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, models.AuthResult{
				Status:  models.AuthStatusFailed,
				Message: "Too many attempts, please try again later",
			})
			return
		}

		c.Next()
	}
}

func (rl *RateLimiter) cleanupLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.evictIdle(time.Now())
		case <-rl.stop:
			return
		}
	}
}

// evictIdle drops clients not seen within the idle window.
func (rl *RateLimiter) evictIdle(now time.Time) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	evicted := 0
	for client, l := range rl.clients {
		if now.Sub(l.lastSeen) > rl.idle {
			delete(rl.clients, client)
			evicted++
		}
	}

	if evicted > 0 {
		logrus.WithField("count", evicted).Debugln("Evicted idle rate limiter clients")
	}
	return evicted
}

// Size returns the number of tracked clients.
func (rl *RateLimiter) Size() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.clients)
}

func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() {
		close(rl.stop)
	})
}
