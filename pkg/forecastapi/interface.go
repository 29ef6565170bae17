package forecastapi

import (
	"context"

	"github.com/gridpulse/gridpulse-go/internal/models"
)

// ForecastClient defines the interface for low-level forecast API operations.
type ForecastClient interface {
	// Fetch operations
	GetForecastByDate(ctx context.Context, product string, date any, format string) (*models.ForecastDataset, error)
	GetLatestForecast(ctx context.Context, product, format string) (*models.ForecastDataset, error)
	GetForecastsByDateRange(ctx context.Context, product string, startDate, endDate any, format string) (*models.ForecastDataset, error)

	// Health and lifecycle
	CheckAPIHealth(ctx context.Context) bool
	Close() error
}

// Ensure our implementation satisfies the interface
var _ ForecastClient = (*Client)(nil)
