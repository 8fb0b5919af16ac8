package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// LimiterStore counts requests per client key within a rolling window. The
// interface exists so tests and alternative deployments can swap the backing
// store; the service ships with the in-memory implementation.
type LimiterStore interface {
	// Incr bumps the counter for key and returns the new count. A counter
	// whose window has elapsed restarts at 1.
	Incr(key string, window time.Duration) int
}

type limiterEntry struct {
	count     int
	expiresAt time.Time
}

// MemoryLimiterStore is the default in-process LimiterStore.
type MemoryLimiterStore struct {
	mu      sync.Mutex
	entries map[string]*limiterEntry
}

// NewMemoryLimiterStore creates an in-memory limiter store. Expired entries
// are swept every window until done is closed.
func NewMemoryLimiterStore(window time.Duration, done <-chan struct{}) *MemoryLimiterStore {
	s := &MemoryLimiterStore{entries: make(map[string]*limiterEntry)}

	go func() {
		ticker := time.NewTicker(window)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				s.sweep()
			}
		}
	}()

	return s
}

// Incr implements LimiterStore.
func (s *MemoryLimiterStore) Incr(key string, window time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	entry, exists := s.entries[key]
	if !exists || now.After(entry.expiresAt) {
		s.entries[key] = &limiterEntry{count: 1, expiresAt: now.Add(window)}
		return 1
	}

	entry.count++
	return entry.count
}

func (s *MemoryLimiterStore) sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for key, entry := range s.entries {
		if now.After(entry.expiresAt) {
			delete(s.entries, key)
		}
	}
}

// RateLimiter limits requests per IP address within a time window. onLimit,
// if non-nil, is called once for each rejected request.
func RateLimiter(store LimiterStore, maxRequests int, window time.Duration, onLimit func()) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip, _, _ := net.SplitHostPort(c.Request.RemoteAddr)
		if ip == "" {
			ip = c.Request.RemoteAddr
		}

		if store.Incr(ip, window) > maxRequests {
			if onLimit != nil {
				onLimit()
			}
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded",
			})
			return
		}
		c.Next()
	}
}
