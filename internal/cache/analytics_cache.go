package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// AnalyticsCacheStats tracks cache performance counters.
type AnalyticsCacheStats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
	Sets   int64 `json:"sets"`
	mu     sync.RWMutex
}

// AnalyticsCache memoizes engine responses in Redis. Safe because the engine
// is a pure function of (user, operation, window, end date); a hit is always
// equivalent to recomputation. Cache failures degrade to recomputation and
// never fail a request.
type AnalyticsCache struct {
	redis  *redis.Client
	ttl    time.Duration
	stats  *AnalyticsCacheStats
	prefix string
}

// NewAnalyticsCache creates a cache with the given TTL.
func NewAnalyticsCache(redisClient *redis.Client, ttl time.Duration) *AnalyticsCache {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &AnalyticsCache{
		redis:  redisClient,
		ttl:    ttl,
		stats:  &AnalyticsCacheStats{},
		prefix: "analytics:",
	}
}

// Key builds the memoization key for one engine invocation.
func (c *AnalyticsCache) Key(operation, userID string, days int, endDate time.Time) string {
	return fmt.Sprintf("%s%s:%s:%d:%s", c.prefix, operation, userID, days, endDate.UTC().Format("2006-01-02"))
}

// Get unmarshals a cached response into dest. Returns false on miss or any
// cache error.
func (c *AnalyticsCache) Get(ctx context.Context, key string, dest interface{}) bool {
	data, err := c.redis.Get(ctx, key).Result()
	if err != nil {
		c.stats.mu.Lock()
		c.stats.Misses++
		c.stats.mu.Unlock()
		return false
	}
	if err := json.Unmarshal([]byte(data), dest); err != nil {
		c.stats.mu.Lock()
		c.stats.Misses++
		c.stats.mu.Unlock()
		return false
	}
	c.stats.mu.Lock()
	c.stats.Hits++
	c.stats.mu.Unlock()
	return true
}

// Set stores a response under the key. Errors are swallowed; caching is
// best effort.
func (c *AnalyticsCache) Set(ctx context.Context, key string, value interface{}) {
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return
	}
	c.stats.mu.Lock()
	c.stats.Sets++
	c.stats.mu.Unlock()
}

// Invalidate drops cached responses for a user, e.g. after a data backfill.
func (c *AnalyticsCache) Invalidate(ctx context.Context, userID string) error {
	pattern := c.prefix + "*:" + userID + ":*"
	iter := c.redis.Scan(ctx, 0, pattern, 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan cache keys: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	return c.redis.Del(ctx, keys...).Err()
}

// Stats returns a snapshot of the counters.
func (c *AnalyticsCache) Stats() (hits, misses, sets int64) {
	c.stats.mu.RLock()
	defer c.stats.mu.RUnlock()
	return c.stats.Hits, c.stats.Misses, c.stats.Sets
}
