package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Environment string            `mapstructure:"environment"`
	LogLevel    string            `mapstructure:"log_level"`
	Server      ServerConfig      `mapstructure:"server"`
	ForecastAPI ForecastAPIConfig `mapstructure:"forecast_api"`
	Cache       CacheConfig       `mapstructure:"cache"`
	Redis       RedisConfig       `mapstructure:"redis"`
	Forecast    ForecastConfig    `mapstructure:"forecast"`
}

type ServerConfig struct {
	Port           int      `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type ForecastAPIConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Timeout int    `mapstructure:"timeout"`
	Format  string `mapstructure:"format"`
}

type CacheConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	Backend        string `mapstructure:"backend"`
	DefaultTimeout int    `mapstructure:"default_timeout"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type ForecastConfig struct {
	DefaultPercentiles []int   `mapstructure:"default_percentiles"`
	BandSigma          float64 `mapstructure:"band_sigma"`
}

// DefaultCacheTimeout returns the process-wide cache timeout as a duration.
func (c CacheConfig) DefaultCacheTimeout() time.Duration {
	return time.Duration(c.DefaultTimeout) * time.Second
}

// IsProduction reports whether the process runs in production mode. The
// service withholds technical error detail from its error indicators there.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")

	// Set default values
	setDefaults()

	// Enable environment variable support
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Read config file
	if err := viper.ReadInConfig(); err != nil {
		// Config file not found, use defaults and environment variables
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	// Normalize environment to lowercase for consistent comparison
	config.Environment = strings.ToLower(config.Environment)

	switch config.Cache.Backend {
	case "memory", "redis":
	default:
		return nil, fmt.Errorf("unknown cache backend %q (expected memory or redis)", config.Cache.Backend)
	}

	if config.ForecastAPI.Timeout <= 0 {
		return nil, fmt.Errorf("forecast_api.timeout must be positive, got %d", config.ForecastAPI.Timeout)
	}

	for _, p := range config.Forecast.DefaultPercentiles {
		if p <= 0 || p >= 100 {
			return nil, fmt.Errorf("default percentile out of range (0, 100): %d", p)
		}
	}

	return &config, nil
}

func setDefaults() {
	// Environment
	viper.SetDefault("environment", "development")
	viper.SetDefault("log_level", "info")

	// Server
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})

	// Forecast API
	viper.SetDefault("forecast_api.base_url", "http://localhost:8000")
	viper.SetDefault("forecast_api.timeout", 30)
	viper.SetDefault("forecast_api.format", "json")

	// Cache
	viper.SetDefault("cache.enabled", true)
	viper.SetDefault("cache.backend", "memory")
	viper.SetDefault("cache.default_timeout", 3600)

	// Redis (only used when cache.backend is redis)
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)

	// Forecast presentation
	viper.SetDefault("forecast.default_percentiles", []int{10, 90})
	viper.SetDefault("forecast.band_sigma", 0.15)
}
