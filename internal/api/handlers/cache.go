package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// CacheHandler handles cache monitoring and administration endpoints.
type CacheHandler struct {
	service ForecastServiceInterface
}

// NewCacheHandler creates a new cache handler.
func NewCacheHandler(service ForecastServiceInterface) *CacheHandler {
	return &CacheHandler{service: service}
}

// GetCacheStats serves GET /api/v1/cache/stats with a live snapshot of
// hit/miss counters and entry counts.
func (h *CacheHandler) GetCacheStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    h.service.CacheStats(c.Request.Context()),
	})
}

// ClearCache serves DELETE /api/v1/cache. With ?product= only that
// product's entries are evicted; without it the whole cache is cleared and
// the counters reset.
func (h *CacheHandler) ClearCache(c *gin.Context) {
	removed := h.service.ClearCache(c.Request.Context(), c.Query("product"))
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"removed": removed,
	})
}
