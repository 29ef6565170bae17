// Package services orchestrates cache-or-fetch retrieval of forecast data
// and shapes it for visualization. The service is the single boundary that
// converts fetch and processing failures into renderable error indicators;
// no error escapes to the UI layer.
package services

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/gridpulse/gridpulse-go/internal/cache"
	"github.com/gridpulse/gridpulse-go/internal/config"
	"github.com/gridpulse/gridpulse-go/internal/metrics"
	"github.com/gridpulse/gridpulse-go/internal/models"
	"github.com/gridpulse/gridpulse-go/internal/validation"
	"github.com/gridpulse/gridpulse-go/pkg/forecastapi"
)

// FetchOptions tunes one service fetch. The zero value means "use the cache
// with the configured default percentiles".
type FetchOptions struct {
	// Percentiles selects the uncertainty bands to compute; empty means the
	// configured default pair (10th/90th).
	Percentiles []int
	// BypassCache skips both the cache read and the cache write.
	BypassCache bool
}

// ForecastService is the entry point consumers use to obtain
// visualization-ready forecast data.
type ForecastService struct {
	client  forecastapi.ForecastClient
	cache   cache.Store
	cfg     *config.Config
	logger  *logrus.Logger
	metrics *metrics.Metrics
}

// NewForecastService wires the service. metrics may be nil when Prometheus
// instrumentation is not wanted (tests).
func NewForecastService(client forecastapi.ForecastClient, store cache.Store, cfg *config.Config, logger *logrus.Logger, m *metrics.Metrics) *ForecastService {
	return &ForecastService{
		client:  client,
		cache:   store,
		cfg:     cfg,
		logger:  logger,
		metrics: m,
	}
}

// GetForecastByDate returns the forecast for a single day.
func (s *ForecastService) GetForecastByDate(ctx context.Context, product string, date any, opts *FetchOptions) *models.ForecastResult {
	return s.fetch(ctx, "get_forecast_by_date", product, date, date, opts, func(ctx context.Context) (*models.ForecastDataset, error) {
		return s.client.GetForecastByDate(ctx, product, date, s.cfg.ForecastAPI.Format)
	})
}

// GetLatestForecast returns the most recently generated forecast.
func (s *ForecastService) GetLatestForecast(ctx context.Context, product string, opts *FetchOptions) *models.ForecastResult {
	return s.fetch(ctx, "get_latest_forecast", product, nil, nil, opts, func(ctx context.Context) (*models.ForecastDataset, error) {
		return s.client.GetLatestForecast(ctx, product, s.cfg.ForecastAPI.Format)
	})
}

// GetForecastRange returns the forecast for an inclusive date range.
func (s *ForecastService) GetForecastRange(ctx context.Context, product string, startDate, endDate any, opts *FetchOptions) *models.ForecastResult {
	return s.fetch(ctx, "get_forecast_range", product, startDate, endDate, opts, func(ctx context.Context) (*models.ForecastDataset, error) {
		return s.client.GetForecastsByDateRange(ctx, product, startDate, endDate, s.cfg.ForecastAPI.Format)
	})
}

// fetch is the shared cache-or-fetch orchestration: consult the cache, fall
// through to the client on a miss, cache the raw (pre-transform) dataset and
// return the transformed view. All failures, panics included, become error
// indicators here.
func (s *ForecastService) fetch(ctx context.Context, operation, product string, startDate, endDate any, opts *FetchOptions, call func(context.Context) (*models.ForecastDataset, error)) (result *models.ForecastResult) {
	if opts == nil {
		opts = &FetchOptions{}
	}

	defer func() {
		if r := recover(); r != nil {
			result = s.errorResult(operation, product, startDate, endDate, fmt.Errorf("panic: %v", r))
		}
	}()

	key := cache.GenerateKey(product, startDate, endDate, s.cfg.ForecastAPI.Format)

	useCache := !opts.BypassCache && s.cache.Enabled()
	if useCache {
		if dataset := s.cache.Get(ctx, key); dataset != nil {
			if s.metrics != nil {
				s.metrics.CacheHitsTotal.Inc()
			}
			return &models.ForecastResult{Data: s.ProcessForecastData(dataset, opts.Percentiles)}
		}
		if s.metrics != nil {
			s.metrics.CacheMissesTotal.Inc()
		}
	}

	started := time.Now()
	raw, err := call(ctx)
	if s.metrics != nil {
		s.metrics.FetchDurationSeconds.WithLabelValues(product, operation).Observe(time.Since(started).Seconds())
	}
	if err != nil {
		return s.errorResult(operation, product, startDate, endDate, err)
	}

	view := s.ProcessForecastData(raw, opts.Percentiles)
	if useCache {
		s.cache.Set(ctx, key, raw, 0)
	}
	return &models.ForecastResult{Data: view}
}

// ProcessForecastData validates the raw dataset and shapes it for
// visualization: uncertainty-band columns for the requested percentiles plus
// the display unit. Validation failures are tolerated here with a warning —
// the dashboard serves best-effort data even though the cache refuses to
// store it.
func (s *ForecastService) ProcessForecastData(raw *models.ForecastDataset, percentiles []int) *models.ForecastView {
	if result := validation.Validate(raw); !result.Valid {
		s.logger.WithFields(logrus.Fields{
			"product": raw.Product,
			"errors":  result.Errors,
		}).Warn("Forecast dataset failed validation, serving anyway")
	}

	if len(percentiles) == 0 {
		percentiles = s.cfg.Forecast.DefaultPercentiles
	}
	percentiles = validPercentiles(percentiles)
	if len(percentiles) == 0 {
		percentiles = []int{10, 90}
	}

	factors := bandFactors(percentiles, s.cfg.Forecast.BandSigma)
	lowest, highest := percentiles[0], percentiles[0]
	for _, p := range percentiles {
		if p < lowest {
			lowest = p
		}
		if p > highest {
			highest = p
		}
	}

	view := &models.ForecastView{
		Product:    raw.Product,
		Unit:       models.ProductUnit(raw.Product),
		IsFallback: raw.HasFallback(),
		Records:    make([]models.ViewRecord, 0, raw.RowCount()),
	}

	for _, record := range raw.Records {
		bands := make(map[string]decimal.Decimal, len(percentiles))
		for _, p := range percentiles {
			bands[bandLabel(p)] = record.PointForecast.Mul(factors[p])
		}
		// Bounds delivered by the backend take precedence over the derived
		// band for the outermost percentiles.
		if record.LowerBound != nil {
			bands[bandLabel(lowest)] = *record.LowerBound
		}
		if record.UpperBound != nil {
			bands[bandLabel(highest)] = *record.UpperBound
		}
		view.Records = append(view.Records, models.ViewRecord{
			Timestamp:     record.Timestamp,
			PointForecast: record.PointForecast,
			Bands:         bands,
			IsFallback:    record.IsFallback,
		})
	}
	return view
}

// IsUsingFallback reports whether any row of the dataset carries the
// fallback flag. A nil or empty dataset is simply not fallback data.
func (s *ForecastService) IsUsingFallback(dataset *models.ForecastDataset) bool {
	return dataset.HasFallback()
}

// CheckAPIHealth delegates to the client's health probe. It never raises,
// even if the probe itself panics.
func (s *ForecastService) CheckAPIHealth(ctx context.Context) (healthy bool) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.WithField("panic", r).Error("Health probe panicked")
			healthy = false
		}
	}()
	return s.client.CheckAPIHealth(ctx)
}

// ClearCache evicts cached forecasts for one product, or everything when
// product is empty, returning the eviction count.
func (s *ForecastService) ClearCache(ctx context.Context, product string) int {
	return s.cache.Clear(ctx, product)
}

// CacheStats returns a live cache statistics snapshot.
func (s *ForecastService) CacheStats(ctx context.Context) models.CacheStatistics {
	return s.cache.Stats(ctx)
}

// Close releases client resources; safe to call more than once.
func (s *ForecastService) Close() error {
	return s.client.Close()
}

// errorResult logs the failure with full context and converts it into the
// renderable indicator the UI layer consumes. Technical detail is attached
// only outside production.
func (s *ForecastService) errorResult(operation, product string, startDate, endDate any, err error) *models.ForecastResult {
	kind := errorKind(err)

	s.logger.WithFields(logrus.Fields{
		"operation":  operation,
		"product":    product,
		"start_date": models.DateString(startDate),
		"end_date":   models.DateString(endDate),
		"kind":       kind,
	}).WithError(err).Error("Forecast fetch failed")

	if s.metrics != nil {
		s.metrics.FetchErrorsTotal.WithLabelValues(kind).Inc()
	}

	indicator := &models.ErrorIndicator{
		Kind:      kind,
		Message:   err.Error(),
		Product:   product,
		Operation: operation,
	}
	if !s.cfg.IsProduction() {
		indicator.Detail = string(debug.Stack())
	}
	return &models.ForecastResult{Error: indicator}
}

func errorKind(err error) string {
	var invalidProduct *forecastapi.InvalidProductError
	var timeout *forecastapi.TimeoutError
	var connection *forecastapi.ConnectionError
	var httpStatus *forecastapi.HTTPStatusError
	var parse *forecastapi.ParseError

	switch {
	case errors.As(err, &invalidProduct):
		return "invalid_product"
	case errors.As(err, &timeout):
		return "timeout"
	case errors.As(err, &connection):
		return "connection"
	case errors.As(err, &httpStatus):
		return "http_status"
	case errors.As(err, &parse):
		return "parse"
	default:
		return "internal"
	}
}

func bandLabel(percentile int) string {
	return fmt.Sprintf("p%d", percentile)
}

// validPercentiles filters out values with no finite quantile.
func validPercentiles(percentiles []int) []int {
	valid := make([]int, 0, len(percentiles))
	for _, p := range percentiles {
		if p > 0 && p < 100 {
			valid = append(valid, p)
		}
	}
	return valid
}

// bandFactors maps each percentile to a multiplicative factor on the point
// forecast, from the standard normal quantile scaled by the configured
// relative sigma. Percentiles at or beyond the distribution's support (0 and
// 100 have infinite quantiles) are skipped.
func bandFactors(percentiles []int, sigma float64) map[int]decimal.Decimal {
	if sigma <= 0 {
		sigma = 0.15
	}
	normal := distuv.Normal{Mu: 0, Sigma: 1}

	factors := make(map[int]decimal.Decimal, len(percentiles))
	for _, p := range percentiles {
		if p <= 0 || p >= 100 {
			continue
		}
		z := normal.Quantile(float64(p) / 100)
		factors[p] = decimal.NewFromFloat(1 + z*sigma)
	}
	return factors
}
