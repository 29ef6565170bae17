package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/gridpulse/gridpulse-go/internal/models"
)

// GenerateKey derives the deterministic cache key for one logical forecast
// request. Date parameters accept a pre-formatted ISO string or a time.Time;
// both normalize to the same calendar-date string before hashing. Absent
// optional parameters are omitted from the hash input entirely, so a missing
// field and an empty value occupy different points in the key space.
//
// The product is kept as a plain prefix so per-product invalidation can
// match keys without a reverse index.
func GenerateKey(product string, startDate, endDate any, format string) string {
	parts := []string{"product=" + product}

	if startDate != nil {
		parts = append(parts, "start="+models.DateString(startDate))
	}
	if endDate != nil {
		parts = append(parts, "end="+models.DateString(endDate))
	}
	if format != "" {
		parts = append(parts, "format="+format)
	}

	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return product + ":" + hex.EncodeToString(sum[:])
}
