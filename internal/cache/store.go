// Package cache holds previously fetched forecast datasets keyed by the
// deterministic request key, with time-based expiration and per-product
// invalidation. The in-memory store is the default; a Redis-backed store
// implements the same contract for deployments that share a cache between
// processes.
package cache

import (
	"context"
	"time"

	"github.com/gridpulse/gridpulse-go/internal/models"
)

// Store is the contract the forecast service caches through. The in-memory
// store ignores the context; the Redis store passes it to every command.
type Store interface {
	// Get returns the cached dataset or nil when caching is disabled, the
	// key is absent, or the entry has expired. An expired entry is evicted
	// as a side effect of the read.
	Get(ctx context.Context, key string) *models.ForecastDataset

	// Set stores a dataset under key with the given timeout (zero means the
	// configured default). It returns false without storing when caching is
	// disabled or the dataset fails validation.
	Set(ctx context.Context, key string, dataset *models.ForecastDataset, timeout time.Duration) bool

	// Invalidate removes one entry, reporting whether it existed.
	Invalidate(ctx context.Context, key string) bool

	// Clear evicts entries for one product, or everything when product is
	// empty, returning the number removed. A full clear also resets the
	// hit/miss counters; a per-product clear leaves them untouched.
	Clear(ctx context.Context, product string) int

	// Stats returns a live statistics snapshot without mutating the cache.
	Stats(ctx context.Context) models.CacheStatistics

	// Enabled reports whether caching is active at all.
	Enabled() bool
}
