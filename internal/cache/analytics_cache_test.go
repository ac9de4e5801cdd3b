package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumina-health/lumina-ai-go/internal/models"
	"github.com/lumina-health/lumina-ai-go/internal/testutil"
)

func testEndDate() time.Time {
	return time.Date(2025, 1, 30, 0, 0, 0, 0, time.UTC)
}

func TestCacheKeyFormat(t *testing.T) {
	_, client := testutil.NewTestRedis(t)
	c := NewAnalyticsCache(client, time.Minute)

	key := c.Key("correlations", "user-1", 30, testEndDate())
	assert.Equal(t, "analytics:correlations:user-1:30:2025-01-30", key)

	// The end date is normalized to UTC so callers in other timezones hit the
	// same entry.
	loc := time.FixedZone("UTC-8", -8*3600)
	shifted := c.Key("correlations", "user-1", 30, time.Date(2025, 1, 29, 22, 0, 0, 0, loc))
	assert.Equal(t, key, shifted)
}

func TestCacheRoundTrip(t *testing.T) {
	_, client := testutil.NewTestRedis(t)
	c := NewAnalyticsCache(client, time.Minute)
	ctx := context.Background()

	original := models.TrendsResponse{
		Trends: []models.TrendResult{{MetricName: "sleep_score", TrendType: models.TrendStable}},
	}
	key := c.Key("trends", "user-1", 30, testEndDate())

	var miss models.TrendsResponse
	assert.False(t, c.Get(ctx, key, &miss))

	c.Set(ctx, key, original)

	var hit models.TrendsResponse
	require.True(t, c.Get(ctx, key, &hit))
	assert.Equal(t, original, hit)

	hits, misses, sets := c.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(1), misses)
	assert.Equal(t, int64(1), sets)
}

func TestCacheTTLApplied(t *testing.T) {
	mr, client := testutil.NewTestRedis(t)
	c := NewAnalyticsCache(client, time.Minute)
	ctx := context.Background()

	key := c.Key("trends", "user-1", 30, testEndDate())
	c.Set(ctx, key, models.TrendsResponse{})

	mr.FastForward(2 * time.Minute)

	var out models.TrendsResponse
	assert.False(t, c.Get(ctx, key, &out))
}

func TestCacheInvalidateUser(t *testing.T) {
	_, client := testutil.NewTestRedis(t)
	c := NewAnalyticsCache(client, time.Minute)
	ctx := context.Background()

	keep := c.Key("trends", "user-2", 30, testEndDate())
	drop1 := c.Key("trends", "user-1", 30, testEndDate())
	drop2 := c.Key("correlations", "user-1", 14, testEndDate())
	for _, key := range []string{keep, drop1, drop2} {
		c.Set(ctx, key, models.TrendsResponse{})
	}

	require.NoError(t, c.Invalidate(ctx, "user-1"))

	var out models.TrendsResponse
	assert.False(t, c.Get(ctx, drop1, &out))
	assert.False(t, c.Get(ctx, drop2, &out))
	assert.True(t, c.Get(ctx, keep, &out))
}

func TestCacheDefaultTTL(t *testing.T) {
	_, client := testutil.NewTestRedis(t)
	c := NewAnalyticsCache(client, 0)
	assert.Equal(t, 15*time.Minute, c.ttl)
}

func TestCacheSurvivesRedisOutage(t *testing.T) {
	mr, client := testutil.NewTestRedis(t)
	c := NewAnalyticsCache(client, time.Minute)
	ctx := context.Background()

	mr.Close()

	key := c.Key("trends", "user-1", 30, testEndDate())
	c.Set(ctx, key, models.TrendsResponse{})

	var out models.TrendsResponse
	assert.False(t, c.Get(ctx, key, &out))
}
