package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/gridpulse/gridpulse-go/internal/config"
	"github.com/gridpulse/gridpulse-go/internal/models"
	"github.com/gridpulse/gridpulse-go/internal/validation"
)

// redisEntry is the serialized form of a cache entry. The created-at and
// timeout are stored alongside the dataset so the expiration rule stays the
// cache's own even when Redis TTL eviction lags behind.
type redisEntry struct {
	Dataset   *models.ForecastDataset `json:"dataset"`
	CreatedAt time.Time               `json:"created_at"`
	Timeout   time.Duration           `json:"timeout_ns"`
	Product   string                  `json:"product"`
	RowCount  int                     `json:"row_count"`
}

// RedisCache implements Store on Redis for deployments where several
// dashboard workers share one cache. Hit/miss counters are process-local,
// matching the in-memory store's semantics.
type RedisCache struct {
	client         redis.Cmdable
	enabled        bool
	defaultTimeout time.Duration
	prefix         string
	logger         *logrus.Logger

	mu     sync.Mutex
	hits   int64
	misses int64
}

// NewRedisCache creates a Redis-backed forecast cache.
func NewRedisCache(client redis.Cmdable, cfg config.CacheConfig, logger *logrus.Logger) *RedisCache {
	return &RedisCache{
		client:         client,
		enabled:        cfg.Enabled,
		defaultTimeout: cfg.DefaultCacheTimeout(),
		prefix:         "forecast_cache:",
		logger:         logger,
	}
}

// Get retrieves a cached dataset from Redis. Entries past their own
// expiration are deleted and counted as misses even if Redis has not
// evicted them yet.
func (c *RedisCache) Get(ctx context.Context, key string) *models.ForecastDataset {
	if !c.enabled {
		return nil
	}
	cacheKey := c.prefix + key

	data, err := c.client.Get(ctx, cacheKey).Result()
	if err == redis.Nil {
		c.recordMiss()
		return nil
	}
	if err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("Redis error reading cache entry")
		c.recordMiss()
		return nil
	}

	var entry redisEntry
	if err := json.Unmarshal([]byte(data), &entry); err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("Error deserializing cache entry")
		c.recordMiss()
		return nil
	}

	timeout := entry.Timeout
	if timeout == 0 {
		timeout = c.defaultTimeout
	}
	if time.Since(entry.CreatedAt) >= timeout {
		_ = c.client.Del(ctx, cacheKey).Err()
		c.recordMiss()
		return nil
	}

	c.mu.Lock()
	c.hits++
	c.mu.Unlock()
	return entry.Dataset
}

// Set stores a dataset in Redis with the entry's effective timeout as the
// Redis TTL. Invalid datasets are refused, as with the in-memory store.
func (c *RedisCache) Set(ctx context.Context, key string, dataset *models.ForecastDataset, timeout time.Duration) bool {
	if !c.enabled {
		return false
	}

	if result := validation.Validate(dataset); !result.Valid {
		c.logger.WithFields(logrus.Fields{
			"key":    key,
			"errors": result.Errors,
		}).Warn("Refusing to cache dataset that failed validation")
		return false
	}

	effective := timeout
	if effective == 0 {
		effective = c.defaultTimeout
	}

	entry := redisEntry{
		Dataset:   dataset,
		CreatedAt: time.Now(),
		Timeout:   timeout,
		Product:   dataset.Product,
		RowCount:  dataset.RowCount(),
	}
	data, err := json.Marshal(entry)
	if err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("Error serializing cache entry")
		return false
	}

	if err := c.client.Set(ctx, c.prefix+key, data, effective).Err(); err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("Redis error writing cache entry")
		return false
	}
	return true
}

// Invalidate removes one entry, reporting whether it existed.
func (c *RedisCache) Invalidate(ctx context.Context, key string) bool {
	removed, err := c.client.Del(ctx, c.prefix+key).Result()
	if err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("Redis error invalidating cache entry")
		return false
	}
	return removed > 0
}

// Clear evicts entries for one product, or everything when product is
// empty. Keys carry the product as a prefix segment, so per-product
// invalidation is a pattern scan.
func (c *RedisCache) Clear(ctx context.Context, product string) int {
	pattern := c.prefix + "*"
	if product != "" {
		pattern = c.prefix + product + ":*"
	}

	keys, err := c.scanKeys(ctx, pattern)
	if err != nil {
		c.logger.WithError(err).Warn("Redis error scanning cache keys for clear")
		return 0
	}

	if len(keys) > 0 {
		if err := c.client.Del(ctx, keys...).Err(); err != nil {
			c.logger.WithError(err).Warn("Redis error clearing cache entries")
			return 0
		}
	}

	if product == "" {
		c.mu.Lock()
		c.hits = 0
		c.misses = 0
		c.mu.Unlock()
	}
	return len(keys)
}

// Stats computes a live snapshot from Redis key state plus the local
// hit/miss counters. Redis evicts on TTL, so ExpiredCount is always zero
// for this backend.
func (c *RedisCache) Stats(ctx context.Context) models.CacheStatistics {
	c.mu.Lock()
	hits, misses := c.hits, c.misses
	c.mu.Unlock()

	stats := models.CacheStatistics{
		Hits:       hits,
		Misses:     misses,
		PerProduct: make(map[string]int),
	}
	if total := hits + misses; total > 0 {
		stats.HitRate = float64(hits) / float64(total)
	}

	keys, err := c.scanKeys(ctx, c.prefix+"*")
	if err != nil {
		c.logger.WithError(err).Warn("Redis error scanning cache keys for stats")
		return stats
	}

	stats.EntryCount = len(keys)
	for _, key := range keys {
		if product := ProductOf(key[len(c.prefix):]); product != "" {
			stats.PerProduct[product]++
		}
	}
	return stats
}

// Enabled reports whether caching is active.
func (c *RedisCache) Enabled() bool {
	return c.enabled
}

func (c *RedisCache) scanKeys(ctx context.Context, pattern string) ([]string, error) {
	var keys []string
	iter := c.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	return keys, iter.Err()
}

func (c *RedisCache) recordMiss() {
	c.mu.Lock()
	c.misses++
	c.mu.Unlock()
}

var _ Store = (*RedisCache)(nil)
