package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Market products served by the forecast backend. The set is fixed; the
// Remote Forecast Client rejects anything outside it before touching the
// network.
const (
	ProductDALMP = "DALMP" // day-ahead locational marginal price
	ProductRTLMP = "RTLMP" // real-time locational marginal price
	ProductREGUP = "REGUP" // regulation up
	ProductREGDN = "REGDN" // regulation down
	ProductSPIN  = "SPIN"  // spinning reserve
	ProductNSPIN = "NSPIN" // non-spinning reserve
)

// ValidProducts lists every recognized market product.
var ValidProducts = []string{
	ProductDALMP,
	ProductRTLMP,
	ProductREGUP,
	ProductREGDN,
	ProductSPIN,
	ProductNSPIN,
}

// IsValidProduct reports whether product belongs to the fixed enumeration.
func IsValidProduct(product string) bool {
	for _, p := range ValidProducts {
		if p == product {
			return true
		}
	}
	return false
}

// ProductUnit returns the display unit for a product. Energy products price
// energy per MWh; ancillary services price reserved capacity per MW.
func ProductUnit(product string) string {
	switch product {
	case ProductDALMP, ProductRTLMP:
		return "$/MWh"
	default:
		return "$/MW"
	}
}

// BusinessTimezone is the single market timezone all forecast timestamps are
// fixed to.
var BusinessTimezone = mustLoadLocation("America/Chicago")

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

// ForecastRecord represents one hourly price point.
type ForecastRecord struct {
	Timestamp     time.Time        `json:"timestamp"`
	Product       string           `json:"product"`
	PointForecast decimal.Decimal  `json:"point_forecast"`
	LowerBound    *decimal.Decimal `json:"lower_bound,omitempty"`
	UpperBound    *decimal.Decimal `json:"upper_bound,omitempty"`
	IsFallback    bool             `json:"is_fallback"`
	Unit          string           `json:"unit,omitempty"`
}

// ForecastDataset is an ordered collection of records sharing one product
// and spanning a contiguous time range.
type ForecastDataset struct {
	Product string           `json:"product"`
	Records []ForecastRecord `json:"records"`
}

// RowCount returns the number of records in the dataset.
func (d *ForecastDataset) RowCount() int {
	if d == nil {
		return 0
	}
	return len(d.Records)
}

// IsEmpty reports whether the dataset is nil or has no records.
func (d *ForecastDataset) IsEmpty() bool {
	return d == nil || len(d.Records) == 0
}

// HasFallback reports whether any record carries the fallback flag. The flag
// is stored per row but consumers treat the dataset as fallback data in its
// entirety when any row is flagged.
func (d *ForecastDataset) HasFallback() bool {
	if d == nil {
		return false
	}
	for _, r := range d.Records {
		if r.IsFallback {
			return true
		}
	}
	return false
}

// CacheStatistics is a live snapshot of cache state; it is recomputed on
// demand and never persisted.
type CacheStatistics struct {
	Hits         int64          `json:"hits"`
	Misses       int64          `json:"misses"`
	HitRate      float64        `json:"hit_rate"`
	EntryCount   int            `json:"entry_count"`
	ExpiredCount int            `json:"expired_count"`
	PerProduct   map[string]int `json:"per_product"`
}

// ViewRecord is one row of a visualization-ready dataset: the point forecast
// plus the derived uncertainty-band columns, keyed "p10", "p90", etc.
type ViewRecord struct {
	Timestamp     time.Time                  `json:"timestamp"`
	PointForecast decimal.Decimal            `json:"point_forecast"`
	Bands         map[string]decimal.Decimal `json:"bands,omitempty"`
	IsFallback    bool                       `json:"is_fallback"`
}

// ForecastView is the transformed dataset handed to the UI layer.
type ForecastView struct {
	Product    string       `json:"product"`
	Unit       string       `json:"unit"`
	IsFallback bool         `json:"is_fallback"`
	Records    []ViewRecord `json:"records"`
}

// ErrorIndicator is the renderable error payload the service returns instead
// of propagating an error to the UI layer. Detail carries technical context
// only outside production.
type ErrorIndicator struct {
	Kind      string `json:"kind"`
	Message   string `json:"message"`
	Product   string `json:"product,omitempty"`
	Operation string `json:"operation,omitempty"`
	Detail    string `json:"detail,omitempty"`
}

// ForecastResult is what every service fetch operation returns: either a
// visualization-ready view or an error indicator, never both.
type ForecastResult struct {
	Data  *ForecastView   `json:"data,omitempty"`
	Error *ErrorIndicator `json:"error,omitempty"`
}

// OK reports whether the result carries data rather than an error indicator.
func (r *ForecastResult) OK() bool {
	return r != nil && r.Error == nil
}
