package forecastapi

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gridpulse/gridpulse-go/internal/models"
)

// Supported response formats.
const (
	FormatJSON    = "json"
	FormatCSV     = "csv"
	FormatExcel   = "excel"
	FormatParquet = "parquet"
)

// wireRecord is one forecast row as the backend serializes it. The same
// shape covers the JSON array-of-objects body and the Parquet row group.
type wireRecord struct {
	Timestamp     string   `json:"timestamp" parquet:"timestamp"`
	Product       string   `json:"product" parquet:"product"`
	PointForecast float64  `json:"point_forecast" parquet:"point_forecast"`
	LowerBound    *float64 `json:"lower_bound,omitempty" parquet:"lower_bound,optional"`
	UpperBound    *float64 `json:"upper_bound,omitempty" parquet:"upper_bound,optional"`
	IsFallback    bool     `json:"is_fallback" parquet:"is_fallback"`
}

// timestampLayouts are the formats the backend has been seen emitting.
// Values without an explicit offset are interpreted in the business timezone.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	models.ISODate,
}

func parseTimestamp(value string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, value, models.BusinessTimezone); err == nil {
			return t.In(models.BusinessTimezone), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", value)
}

// toDataset converts wire rows to the domain dataset, ordering records by
// ascending timestamp.
func toDataset(product string, rows []wireRecord) (*models.ForecastDataset, error) {
	records := make([]models.ForecastRecord, 0, len(rows))
	for i, row := range rows {
		ts, err := parseTimestamp(row.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		record := models.ForecastRecord{
			Timestamp:     ts,
			Product:       row.Product,
			PointForecast: decimal.NewFromFloat(row.PointForecast),
			IsFallback:    row.IsFallback,
		}
		if row.LowerBound != nil {
			lower := decimal.NewFromFloat(*row.LowerBound)
			record.LowerBound = &lower
		}
		if row.UpperBound != nil {
			upper := decimal.NewFromFloat(*row.UpperBound)
			record.UpperBound = &upper
		}
		records = append(records, record)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].Timestamp.Before(records[j].Timestamp)
	})

	return &models.ForecastDataset{Product: product, Records: records}, nil
}
