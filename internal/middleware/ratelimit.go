package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lukashondrich/open-workinghours-sub001/pkg/response"
)

// ipLimiter caps requests per client IP over a sliding window. Device
// ingest (transitions, position pings) is the main consumer, so the cap
// has to accommodate one ping every few seconds per device.
type ipLimiter struct {
	mu       sync.Mutex
	visitors map[string][]time.Time
	limit    int
	window   time.Duration
}

func newIPLimiter(limit int, window time.Duration) *ipLimiter {
	l := &ipLimiter{
		visitors: make(map[string][]time.Time),
		limit:    limit,
		window:   window,
	}
	go l.sweep()
	return l
}

// sweep drops clients that have gone quiet for a full window.
func (l *ipLimiter) sweep() {
	ticker := time.NewTicker(l.window)
	defer ticker.Stop()

	for range ticker.C {
		cutoff := time.Now().Add(-l.window)
		l.mu.Lock()
		for ip, stamps := range l.visitors {
			stamps = pruneStamps(stamps, cutoff)
			if len(stamps) == 0 {
				delete(l.visitors, ip)
				continue
			}
			l.visitors[ip] = stamps
		}
		l.mu.Unlock()
	}
}

func (l *ipLimiter) allow(ip string) bool {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	stamps := pruneStamps(l.visitors[ip], now.Add(-l.window))
	if len(stamps) >= l.limit {
		l.visitors[ip] = stamps
		return false
	}
	l.visitors[ip] = append(stamps, now)
	return true
}

func pruneStamps(stamps []time.Time, cutoff time.Time) []time.Time {
	kept := stamps[:0]
	for _, s := range stamps {
		if s.After(cutoff) {
			kept = append(kept, s)
		}
	}
	return kept
}

// RateLimit rejects requests beyond limit per window for each client IP.
func RateLimit(limit int, window time.Duration) gin.HandlerFunc {
	limiter := newIPLimiter(limit, window)

	return func(c *gin.Context) {
		if !limiter.allow(c.ClientIP()) {
			response.Error(c, http.StatusTooManyRequests, "rate limit exceeded")
			c.Abort()
			return
		}
		c.Next()
	}
}
