package forecastapi

import (
	"fmt"
	"strings"

	"github.com/gridpulse/gridpulse-go/internal/models"
)

// InvalidProductError is returned before any network call when the requested
// product is outside the fixed enumeration.
type InvalidProductError struct {
	Product string
}

func (e *InvalidProductError) Error() string {
	return fmt.Sprintf("invalid product %q: valid products are %s",
		e.Product, strings.Join(models.ValidProducts, ", "))
}

// ConnectionError wraps a transport-level failure reaching the forecast API.
type ConnectionError struct {
	URL string
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("could not connect to forecast API at %s: %v", e.URL, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// TimeoutError wraps a request that exceeded the client's per-request
// timeout. Kept distinct from ConnectionError so the service layer can log
// differentiated messages.
type TimeoutError struct {
	URL string
	Err error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("forecast API request to %s timed out: %v", e.URL, e.Err)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// HTTPStatusError is returned for any non-2xx response. Body holds a capped
// excerpt of the response body.
type HTTPStatusError struct {
	StatusCode int
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("forecast API error (%d): %s", e.StatusCode, e.Body)
}

// ParseError is returned when a response body does not match the declared
// format.
type ParseError struct {
	Format string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse %s forecast response: %v", e.Format, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
