package gatehttp

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// clientLimiter 按客户端来源地址限流。唯一的跨请求共享可变状态，
// 必须能承受多请求并发的计数与检查。
type clientLimiter struct {
	mu       sync.Mutex
	clients  map[string]*clientEntry
	limit    rate.Limit
	burst    int
	lastSeen time.Duration
}

type clientEntry struct {
	limiter *rate.Limiter
	seen    time.Time
}

// newClientLimiter 以窗口/上限构造：平均速率 cap/window，突发额度 cap。
func newClientLimiter(window time.Duration, cap int) *clientLimiter {
	if window <= 0 {
		window = time.Minute
	}
	if cap <= 0 {
		cap = 60
	}
	return &clientLimiter{
		clients:  make(map[string]*clientEntry),
		limit:    rate.Limit(float64(cap) / window.Seconds()),
		burst:    cap,
		lastSeen: 3 * window,
	}
}

func (cl *clientLimiter) allow(key string) bool {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	now := time.Now()
	entry, ok := cl.clients[key]
	if !ok {
		entry = &clientEntry{limiter: rate.NewLimiter(cl.limit, cl.burst)}
		cl.clients[key] = entry
	}
	entry.seen = now
	if len(cl.clients) > 1024 {
		cl.evict(now)
	}
	return entry.limiter.Allow()
}

// evict 丢弃长时间未出现的客户端，防止表无限增长。调用方须持锁。
func (cl *clientLimiter) evict(now time.Time) {
	for key, entry := range cl.clients {
		if now.Sub(entry.seen) > cl.lastSeen {
			delete(cl.clients, key)
		}
	}
}

// rateLimitMiddleware 超限返回 429。
func rateLimitMiddleware(cl *clientLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !cl.allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": gin.H{"message": "rate limit exceeded, retry later", "cause": "rate_limit"},
			})
			return
		}
		c.Next()
	}
}
