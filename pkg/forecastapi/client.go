// Package forecastapi is the HTTP client for the backend forecast service.
// It fetches raw forecast payloads for a single day, a date range, or the
// most recently generated forecast, and deserializes them per the requested
// format.
package forecastapi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/gridpulse/gridpulse-go/internal/config"
	"github.com/gridpulse/gridpulse-go/internal/models"
)

const userAgent = "gridpulse-dashboard/1.0"

// bodyExcerptLimit caps how much of an error response body is embedded in an
// HTTPStatusError.
const bodyExcerptLimit = 512

// Client issues HTTP requests to the backend forecast API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	timeout    time.Duration
	logger     *logrus.Logger
}

// NewClient creates a forecast API client from configuration.
func NewClient(cfg *config.ForecastAPIConfig, logger *logrus.Logger) *Client {
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		timeout: timeout,
		logger:  logger,
	}
}

// GetForecastByDate fetches the forecast for a single day. The backend's
// range endpoint with start and end set to the same date returns that day.
func (c *Client) GetForecastByDate(ctx context.Context, product string, date any, format string) (*models.ForecastDataset, error) {
	return c.GetForecastsByDateRange(ctx, product, date, date, format)
}

// GetForecastsByDateRange fetches the inclusive date range in a single
// request; the backend returns the full range in one response.
func (c *Client) GetForecastsByDateRange(ctx context.Context, product string, startDate, endDate any, format string) (*models.ForecastDataset, error) {
	if !models.IsValidProduct(product) {
		return nil, &InvalidProductError{Product: product}
	}

	params := url.Values{}
	params.Set("start_date", models.DateString(startDate))
	params.Set("end_date", models.DateString(endDate))
	params.Set("format", format)

	body, err := c.get(ctx, "/forecasts/"+product+"?"+params.Encode())
	if err != nil {
		return nil, err
	}
	return c.parseResponse(body, format, product)
}

// GetLatestForecast fetches the most recently generated forecast via the
// dedicated latest endpoint; no date parameters are sent.
func (c *Client) GetLatestForecast(ctx context.Context, product, format string) (*models.ForecastDataset, error) {
	if !models.IsValidProduct(product) {
		return nil, &InvalidProductError{Product: product}
	}

	path := "/forecasts/" + product + "/latest"
	if format != "" {
		path += "?format=" + url.QueryEscape(format)
	}

	body, err := c.get(ctx, path)
	if err != nil {
		return nil, err
	}
	return c.parseResponse(body, format, product)
}

// CheckAPIHealth probes the backend's health endpoint. Any non-2xx status or
// transport-level failure reports unhealthy; the probe never returns an
// error.
func (c *Client) CheckAPIHealth(ctx context.Context) bool {
	_, err := c.get(ctx, "/health")
	if err != nil {
		c.logger.WithError(err).Debug("Forecast API health probe failed")
		return false
	}
	return true
}

// get performs a GET request and returns the response body, classifying
// transport failures into timeout and connection error kinds.
func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	requestURL := c.baseURL + path

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, &ConnectionError{URL: requestURL, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError(requestURL, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.WithError(err).Warn("Error closing response body")
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyTransportError(requestURL, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &HTTPStatusError{
			StatusCode: resp.StatusCode,
			Body:       bodyExcerpt(body),
		}
	}
	return body, nil
}

// Close releases the underlying connection resources. Safe to call even if
// nothing was ever sent, and safe to call more than once.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

func classifyTransportError(requestURL string, err error) error {
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &TimeoutError{URL: requestURL, Err: err}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &TimeoutError{URL: requestURL, Err: err}
	}
	return &ConnectionError{URL: requestURL, Err: err}
}

// bodyExcerpt caps the body and strips invalid UTF-8 so binary error bodies
// do not corrupt log output.
func bodyExcerpt(body []byte) string {
	excerpt := body
	if len(excerpt) > bodyExcerptLimit {
		excerpt = excerpt[:bodyExcerptLimit]
	}
	return strings.ToValidUTF8(string(excerpt), "�")
}
