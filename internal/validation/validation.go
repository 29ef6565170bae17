// Package validation checks fetched forecast datasets against the minimal
// schema the dashboard relies on. It is pure: no logging, no mutation, no
// errors raised. Callers decide what a failed check means — the cache
// refuses to store invalid data while the service logs and serves it anyway.
package validation

import (
	"fmt"

	"github.com/gridpulse/gridpulse-go/internal/models"
)

// Result reports the outcome of a dataset validation. Errors maps check
// names to the problems found; it is empty when Valid is true.
type Result struct {
	Valid  bool                `json:"valid"`
	Errors map[string][]string `json:"errors"`
}

// Validate checks that the dataset is non-empty and every record carries the
// required fields: timestamp and product. The point_forecast column is
// structurally always present in the record type, so only the fields that
// can actually be absent are checked. Numeric ranges are deliberately not
// checked.
func Validate(dataset *models.ForecastDataset) Result {
	errs := make(map[string][]string)

	if dataset.IsEmpty() {
		errs["dataset"] = append(errs["dataset"], "dataset is empty")
		return Result{Valid: false, Errors: errs}
	}

	for i, record := range dataset.Records {
		if record.Timestamp.IsZero() {
			errs["timestamp"] = append(errs["timestamp"], fmt.Sprintf("record %d: missing timestamp", i))
		}
		if record.Product == "" {
			errs["product"] = append(errs["product"], fmt.Sprintf("record %d: missing product", i))
		}
	}

	return Result{Valid: len(errs) == 0, Errors: errs}
}
