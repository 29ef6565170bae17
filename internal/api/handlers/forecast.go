package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/gridpulse/gridpulse-go/internal/models"
	"github.com/gridpulse/gridpulse-go/internal/services"
)

// ForecastServiceInterface defines the service surface the API exposes to
// the UI layer.
type ForecastServiceInterface interface {
	GetForecastByDate(ctx context.Context, product string, date any, opts *services.FetchOptions) *models.ForecastResult
	GetLatestForecast(ctx context.Context, product string, opts *services.FetchOptions) *models.ForecastResult
	GetForecastRange(ctx context.Context, product string, startDate, endDate any, opts *services.FetchOptions) *models.ForecastResult
	CheckAPIHealth(ctx context.Context) bool
	ClearCache(ctx context.Context, product string) int
	CacheStats(ctx context.Context) models.CacheStatistics
}

// ForecastHandler handles forecast retrieval endpoints.
type ForecastHandler struct {
	service ForecastServiceInterface
}

// NewForecastHandler creates a new forecast handler.
func NewForecastHandler(service ForecastServiceInterface) *ForecastHandler {
	return &ForecastHandler{service: service}
}

// GetForecast serves GET /api/v1/forecasts/:product. A single day is
// requested with ?date=, a range with ?start_date=&end_date=.
func (h *ForecastHandler) GetForecast(c *gin.Context) {
	product := c.Param("product")
	opts := fetchOptions(c)

	date := c.Query("date")
	startDate := c.Query("start_date")
	endDate := c.Query("end_date")

	var result *models.ForecastResult
	switch {
	case date != "":
		result = h.service.GetForecastByDate(c.Request.Context(), product, date, opts)
	case startDate != "" && endDate != "":
		result = h.service.GetForecastRange(c.Request.Context(), product, startDate, endDate, opts)
	default:
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "date or start_date and end_date query parameters are required",
		})
		return
	}

	respond(c, result)
}

// GetLatestForecast serves GET /api/v1/forecasts/:product/latest.
func (h *ForecastHandler) GetLatestForecast(c *gin.Context) {
	result := h.service.GetLatestForecast(c.Request.Context(), c.Param("product"), fetchOptions(c))
	respond(c, result)
}

func respond(c *gin.Context, result *models.ForecastResult) {
	if result.OK() {
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data":    result.Data,
		})
		return
	}
	c.JSON(statusFor(result.Error.Kind), gin.H{
		"success": false,
		"error":   result.Error,
	})
}

// statusFor maps an error-indicator kind onto an HTTP status. The service
// never propagates raw errors, so this is the only failure translation.
func statusFor(kind string) int {
	switch kind {
	case "invalid_product":
		return http.StatusBadRequest
	case "connection":
		return http.StatusServiceUnavailable
	case "timeout":
		return http.StatusGatewayTimeout
	case "http_status", "parse":
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// fetchOptions reads ?percentiles=10,90 and ?no_cache=true.
func fetchOptions(c *gin.Context) *services.FetchOptions {
	opts := &services.FetchOptions{}

	if raw := c.Query("percentiles"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			p, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil || p <= 0 || p >= 100 {
				continue
			}
			opts.Percentiles = append(opts.Percentiles, p)
		}
	}

	if raw := c.Query("no_cache"); raw != "" {
		if bypass, err := strconv.ParseBool(raw); err == nil {
			opts.BypassCache = bypass
		}
	}
	return opts
}
