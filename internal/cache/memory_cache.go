package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/gridpulse/gridpulse-go/internal/config"
	"github.com/gridpulse/gridpulse-go/internal/models"
	"github.com/gridpulse/gridpulse-go/internal/validation"
)

// memoryEntry wraps one cached dataset with the metadata expiration and
// per-product invalidation work from. Entries are replaced or removed whole;
// a reader never observes a partially written entry.
type memoryEntry struct {
	dataset   *models.ForecastDataset
	createdAt time.Time
	timeout   time.Duration // 0 means use the configured default
	product   string
	rowCount  int
}

// MemoryCache is the in-process forecast cache. Expiration is lazy: expired
// entries linger until the next Get or Clear touches them, and show up as
// ExpiredCount in statistics until then. There is no background sweep.
type MemoryCache struct {
	mu             sync.RWMutex
	entries        map[string]*memoryEntry
	enabled        bool
	defaultTimeout time.Duration
	hits           int64
	misses         int64
	logger         *logrus.Logger

	// now is replaceable in tests to simulate elapsed time.
	now func() time.Time
}

// NewMemoryCache creates an in-memory cache from the cache configuration.
func NewMemoryCache(cfg config.CacheConfig, logger *logrus.Logger) *MemoryCache {
	return &MemoryCache{
		entries:        make(map[string]*memoryEntry),
		enabled:        cfg.Enabled,
		defaultTimeout: cfg.DefaultCacheTimeout(),
		logger:         logger,
		now:            time.Now,
	}
}

// Get returns the cached dataset for key, nil on a miss. A hit increments
// the hit counter; every nil-returning path except "caching disabled"
// increments the miss counter. Reading an expired entry evicts it. The
// context is accepted for Store compatibility; in-process reads never block.
func (c *MemoryCache) Get(_ context.Context, key string) *models.ForecastDataset {
	if !c.enabled {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		c.misses++
		return nil
	}

	if c.expired(entry) {
		delete(c.entries, key)
		c.misses++
		c.logger.WithFields(logrus.Fields{
			"key":     key,
			"product": entry.product,
		}).Debug("Evicted expired cache entry on read")
		return nil
	}

	c.hits++
	return entry.dataset
}

// Set stores dataset under key. Invalid datasets are refused: the cache only
// holds data that passed schema validation, even though the service will
// still serve such data to the caller.
func (c *MemoryCache) Set(_ context.Context, key string, dataset *models.ForecastDataset, timeout time.Duration) bool {
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

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = &memoryEntry{
		dataset:   dataset,
		createdAt: c.now(),
		timeout:   timeout,
		product:   dataset.Product,
		rowCount:  dataset.RowCount(),
	}
	return true
}

// Invalidate removes one entry, reporting whether it existed.
func (c *MemoryCache) Invalidate(_ context.Context, key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.entries[key]
	delete(c.entries, key)
	return ok
}

// Clear evicts entries for product, or everything when product is empty. A
// full clear resets the hit/miss counters; a per-product clear does not.
func (c *MemoryCache) Clear(_ context.Context, product string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if product == "" {
		removed := len(c.entries)
		c.entries = make(map[string]*memoryEntry)
		c.hits = 0
		c.misses = 0
		return removed
	}

	removed := 0
	for key, entry := range c.entries {
		if entry.product == product {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Stats computes a live snapshot. Expired entries that have not been evicted
// yet count toward ExpiredCount and are excluded from EntryCount and the
// per-product counts. Stats never mutates cache state.
func (c *MemoryCache) Stats(_ context.Context) models.CacheStatistics {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := models.CacheStatistics{
		Hits:       c.hits,
		Misses:     c.misses,
		PerProduct: make(map[string]int),
	}
	if total := c.hits + c.misses; total > 0 {
		stats.HitRate = float64(c.hits) / float64(total)
	}

	for _, entry := range c.entries {
		if c.expired(entry) {
			stats.ExpiredCount++
			continue
		}
		stats.EntryCount++
		stats.PerProduct[entry.product]++
	}
	return stats
}

// Enabled reports whether caching is active.
func (c *MemoryCache) Enabled() bool {
	return c.enabled
}

// ProductOf extracts the product prefix from a cache key.
func ProductOf(key string) string {
	if i := strings.IndexByte(key, ':'); i > 0 {
		return key[:i]
	}
	return ""
}

func (c *MemoryCache) expired(entry *memoryEntry) bool {
	timeout := entry.timeout
	if timeout == 0 {
		timeout = c.defaultTimeout
	}
	return c.now().Sub(entry.createdAt) >= timeout
}

var _ Store = (*MemoryCache)(nil)
