package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/gridpulse/gridpulse-go/internal/api/handlers"
	"github.com/gridpulse/gridpulse-go/internal/middleware"
)

// HealthResponse is the body of the liveness endpoint.
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Services  Services  `json:"services"`
}

// Services reports the reachability of the external collaborators. Cache is
// reported only when a shared cache backend is configured.
type Services struct {
	ForecastAPI string `json:"forecast_api"`
	Cache       string `json:"cache,omitempty"`
}

// CachePinger reports reachability of a shared cache backend. It is nil for
// the in-process cache, which has nothing to probe.
type CachePinger interface {
	HealthCheck(ctx context.Context) error
}

// SetupRoutes wires the dashboard API onto the router.
func SetupRoutes(router *gin.Engine, service handlers.ForecastServiceInterface, registry *prometheus.Registry, cachePinger CachePinger, logger *logrus.Logger) {
	router.Use(middleware.RequestLogger(logger))

	forecastHandler := handlers.NewForecastHandler(service)
	cacheHandler := handlers.NewCacheHandler(service)

	// Health check endpoint
	router.GET("/health", healthCheck(service, cachePinger))

	// Prometheus metrics
	if registry != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	}

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		forecasts := v1.Group("/forecasts")
		{
			forecasts.GET("/:product", forecastHandler.GetForecast)
			forecasts.GET("/:product/latest", forecastHandler.GetLatestForecast)
		}

		cacheGroup := v1.Group("/cache")
		{
			cacheGroup.GET("/stats", cacheHandler.GetCacheStats)
			cacheGroup.DELETE("", cacheHandler.ClearCache)
		}
	}
}

func healthCheck(service handlers.ForecastServiceInterface, cachePinger CachePinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		response := HealthResponse{
			Status:    "ok",
			Timestamp: time.Now(),
			Services:  Services{ForecastAPI: "ok"},
		}

		status := http.StatusOK
		if !service.CheckAPIHealth(c.Request.Context()) {
			response.Status = "degraded"
			response.Services.ForecastAPI = "unreachable"
			status = http.StatusServiceUnavailable
		}

		if cachePinger != nil {
			response.Services.Cache = "ok"
			if err := cachePinger.HealthCheck(c.Request.Context()); err != nil {
				response.Status = "degraded"
				response.Services.Cache = "unreachable"
				status = http.StatusServiceUnavailable
			}
		}
		c.JSON(status, response)
	}
}
