package middleware

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	gocache "github.com/patrickmn/go-cache"

	"github.com/charlesng35/abordo/pkg/errors"
	"github.com/charlesng35/abordo/pkg/response"
)

// RateStore coordinates rate limiting counters for a specific key.
type RateStore interface {
	Increment(key string, window time.Duration) (count int, resetIn time.Duration)
}

type rateWindow struct {
	count int
	ends  time.Time
}

// memoryRateStore keeps fixed-window counters in a go-cache instance, which
// evicts them once their window has passed.
type memoryRateStore struct {
	mu    sync.Mutex
	cache *gocache.Cache
	now   func() time.Time
}

// NewMemoryRateStore constructs a process-local rate store.
func NewMemoryRateStore(cleanup time.Duration) RateStore {
	if cleanup <= 0 {
		cleanup = time.Minute
	}
	return &memoryRateStore{
		cache: gocache.New(gocache.NoExpiration, cleanup),
		now:   time.Now,
	}
}

func (s *memoryRateStore) Increment(key string, window time.Duration) (int, time.Duration) {
	if window <= 0 {
		window = time.Minute
	}
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	current := rateWindow{ends: now.Add(window)}
	if cached, ok := s.cache.Get(key); ok {
		if w := cached.(rateWindow); now.Before(w.ends) {
			current = w
		}
	}
	current.count++
	s.cache.Set(key, current, current.ends.Sub(now))

	return current.count, current.ends.Sub(now)
}

// RateLimit limits requests per (client IP, route) within a fixed window.
func RateLimit(maxRequests int, window time.Duration) gin.HandlerFunc {
	return RateLimitWithStore(NewMemoryRateStore(window), maxRequests, window)
}

// RateLimitWithStore is RateLimit backed by the given store.
func RateLimitWithStore(store RateStore, maxRequests int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if store == nil || maxRequests <= 0 || window <= 0 {
			c.Next()
			return
		}

		key := c.ClientIP() + "|" + c.FullPath()
		count, resetIn := store.Increment(key, window)

		c.Header("X-RateLimit-Limit", strconv.Itoa(maxRequests))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(max(0, maxRequests-count)))
		c.Header("X-RateLimit-Reset", strconv.Itoa(int(resetIn.Seconds())))

		if count > maxRequests {
			response.Error(c, errors.ErrRateLimit)
			return
		}

		c.Next()
	}
}
