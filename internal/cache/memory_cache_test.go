package cache

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridpulse/gridpulse-go/internal/config"
	"github.com/gridpulse/gridpulse-go/internal/models"
)

func testCacheConfig() config.CacheConfig {
	return config.CacheConfig{
		Enabled:        true,
		Backend:        "memory",
		DefaultTimeout: 3600,
	}
}

func testDataset(product string, hours int) *models.ForecastDataset {
	base := time.Date(2023, 11, 20, 0, 0, 0, 0, models.BusinessTimezone)
	records := make([]models.ForecastRecord, 0, hours)
	for i := 0; i < hours; i++ {
		records = append(records, models.ForecastRecord{
			Timestamp:     base.Add(time.Duration(i) * time.Hour),
			Product:       product,
			PointForecast: decimal.NewFromFloat(35.5 + float64(i)),
		})
	}
	return &models.ForecastDataset{Product: product, Records: records}
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func TestMemoryCache_RoundTrip(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(testCacheConfig(), quietLogger())
	dataset := testDataset("DALMP", 24)

	require.True(t, c.Set(ctx, "DALMP:key", dataset, 0))

	got := c.Get(ctx, "DALMP:key")
	require.NotNil(t, got)
	assert.Equal(t, dataset, got)
}

func TestMemoryCache_RejectsInvalidDataset(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(testCacheConfig(), quietLogger())
	empty := &models.ForecastDataset{Product: "DALMP"}

	assert.False(t, c.Set(ctx, "DALMP:key", empty, 0))
	assert.Nil(t, c.Get(ctx, "DALMP:key"))
}

func TestMemoryCache_Expiration(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(testCacheConfig(), quietLogger())

	now := time.Date(2023, 11, 20, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	require.True(t, c.Set(ctx, "DALMP:key", testDataset("DALMP", 4), 1*time.Second))

	// Two simulated seconds later the entry is expired and evicted on read.
	now = now.Add(2 * time.Second)
	assert.Nil(t, c.Get(ctx, "DALMP:key"))

	stats := c.Stats(ctx)
	assert.Equal(t, 0, stats.EntryCount)
	assert.Equal(t, 0, stats.ExpiredCount)
}

func TestMemoryCache_ExpiredEntriesLingerInStats(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(testCacheConfig(), quietLogger())

	now := time.Date(2023, 11, 20, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	require.True(t, c.Set(ctx, "DALMP:key", testDataset("DALMP", 4), 1*time.Second))

	// No read touches the entry, so it lingers as expired-but-not-evicted.
	now = now.Add(2 * time.Second)
	stats := c.Stats(ctx)
	assert.Equal(t, 0, stats.EntryCount)
	assert.Equal(t, 1, stats.ExpiredCount)
}

func TestMemoryCache_DefaultTimeoutApplies(t *testing.T) {
	ctx := context.Background()
	cfg := testCacheConfig()
	cfg.DefaultTimeout = 10
	c := NewMemoryCache(cfg, quietLogger())

	now := time.Date(2023, 11, 20, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	require.True(t, c.Set(ctx, "DALMP:key", testDataset("DALMP", 4), 0))

	now = now.Add(9 * time.Second)
	assert.NotNil(t, c.Get(ctx, "DALMP:key"))

	now = now.Add(2 * time.Second)
	assert.Nil(t, c.Get(ctx, "DALMP:key"))
}

func TestMemoryCache_PerProductClear(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(testCacheConfig(), quietLogger())
	require.True(t, c.Set(ctx, "DALMP:a", testDataset("DALMP", 4), 0))
	require.True(t, c.Set(ctx, "DALMP:b", testDataset("DALMP", 4), 0))
	require.True(t, c.Set(ctx, "RTLMP:c", testDataset("RTLMP", 4), 0))

	removed := c.Clear(ctx, "DALMP")
	assert.Equal(t, 2, removed)

	assert.Nil(t, c.Get(ctx, "DALMP:a"))
	assert.NotNil(t, c.Get(ctx, "RTLMP:c"))
}

func TestMemoryCache_FullClearResetsCounters(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(testCacheConfig(), quietLogger())

	c.Get(ctx, "DALMP:missing") // miss
	require.True(t, c.Set(ctx, "DALMP:a", testDataset("DALMP", 4), 0))
	c.Get(ctx, "DALMP:a") // hit

	removed := c.Clear(ctx, "")
	assert.Equal(t, 1, removed)

	stats := c.Stats(ctx)
	assert.Equal(t, int64(0), stats.Hits)
	assert.Equal(t, int64(0), stats.Misses)
	assert.Equal(t, 0, stats.EntryCount)
}

func TestMemoryCache_ProductClearKeepsCounters(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(testCacheConfig(), quietLogger())

	c.Get(ctx, "DALMP:missing")
	require.True(t, c.Set(ctx, "DALMP:a", testDataset("DALMP", 4), 0))
	c.Get(ctx, "DALMP:a")

	c.Clear(ctx, "DALMP")

	stats := c.Stats(ctx)
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
}

func TestMemoryCache_HitMissAccounting(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(testCacheConfig(), quietLogger())

	assert.Nil(t, c.Get(ctx, "DALMP:key")) // miss
	require.True(t, c.Set(ctx, "DALMP:key", testDataset("DALMP", 4), 0))
	assert.NotNil(t, c.Get(ctx, "DALMP:key")) // hit

	stats := c.Stats(ctx)
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.InDelta(t, 0.5, stats.HitRate, 1e-9)
}

func TestMemoryCache_DisabledCache(t *testing.T) {
	ctx := context.Background()
	cfg := testCacheConfig()
	cfg.Enabled = false
	c := NewMemoryCache(cfg, quietLogger())

	assert.False(t, c.Set(ctx, "DALMP:key", testDataset("DALMP", 4), 0))
	assert.Nil(t, c.Get(ctx, "DALMP:key"))
	assert.False(t, c.Enabled())

	// The disabled path must not touch either counter.
	stats := c.Stats(ctx)
	assert.Equal(t, int64(0), stats.Hits)
	assert.Equal(t, int64(0), stats.Misses)
}

func TestMemoryCache_Invalidate(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(testCacheConfig(), quietLogger())
	require.True(t, c.Set(ctx, "DALMP:key", testDataset("DALMP", 4), 0))

	assert.True(t, c.Invalidate(ctx, "DALMP:key"))
	assert.False(t, c.Invalidate(ctx, "DALMP:key"))
}

func TestMemoryCache_StatsDoesNotMutate(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(testCacheConfig(), quietLogger())

	now := time.Date(2023, 11, 20, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	require.True(t, c.Set(ctx, "DALMP:key", testDataset("DALMP", 4), 1*time.Second))
	now = now.Add(2 * time.Second)

	first := c.Stats(ctx)
	second := c.Stats(ctx)
	assert.Equal(t, first, second)

	// The expired entry is still in storage until a Get or Clear evicts it.
	assert.Equal(t, 1, second.ExpiredCount)
}

func TestMemoryCache_PerProductStats(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(testCacheConfig(), quietLogger())
	require.True(t, c.Set(ctx, "DALMP:a", testDataset("DALMP", 4), 0))
	require.True(t, c.Set(ctx, "DALMP:b", testDataset("DALMP", 4), 0))
	require.True(t, c.Set(ctx, "REGUP:c", testDataset("REGUP", 4), 0))

	stats := c.Stats(ctx)
	assert.Equal(t, 3, stats.EntryCount)
	assert.Equal(t, 2, stats.PerProduct["DALMP"])
	assert.Equal(t, 1, stats.PerProduct["REGUP"])
}
