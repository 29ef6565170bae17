package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/gridpulse/gridpulse-go/internal/api"
	"github.com/gridpulse/gridpulse-go/internal/cache"
	"github.com/gridpulse/gridpulse-go/internal/config"
	"github.com/gridpulse/gridpulse-go/internal/database"
	"github.com/gridpulse/gridpulse-go/internal/logging"
	"github.com/gridpulse/gridpulse-go/internal/metrics"
	"github.com/gridpulse/gridpulse-go/internal/services"
	"github.com/gridpulse/gridpulse-go/pkg/forecastapi"
)

func main() {
	// Load .env before configuration so local overrides are picked up
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := logging.New(cfg.LogLevel, cfg.Environment)

	// Choose the cache backend. The Redis connection doubles as the cache
	// health probe for the /health endpoint.
	var store cache.Store
	var cachePinger api.CachePinger
	switch cfg.Cache.Backend {
	case "redis":
		redisConn, err := database.NewRedisConnection(cfg.Redis)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisConn.Close()
		store = cache.NewRedisCache(redisConn.Client, cfg.Cache, logger)
		cachePinger = redisConn
	default:
		store = cache.NewMemoryCache(cfg.Cache, logger)
	}

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	// Initialize the forecast client and service
	client := forecastapi.NewClient(&cfg.ForecastAPI, logger)
	service := services.NewForecastService(client, store, cfg, logger, m)
	defer func() {
		if err := service.Close(); err != nil {
			logger.WithError(err).Warn("Error closing forecast service")
		}
	}()

	// Setup Gin router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	api.SetupRoutes(router, service, registry, cachePinger, logger)

	// Create HTTP server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		logger.WithField("port", cfg.Server.Port).Info("Server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited")
}
