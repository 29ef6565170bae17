package forecastapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	logrustest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridpulse/gridpulse-go/internal/config"
	"github.com/gridpulse/gridpulse-go/internal/models"
)

func testClient(baseURL string) (*Client, *logrustest.Hook) {
	logger, hook := logrustest.NewNullLogger()
	client := NewClient(&config.ForecastAPIConfig{
		BaseURL: baseURL,
		Timeout: 5,
		Format:  FormatJSON,
	}, logger)
	return client, hook
}

func sampleWireRecords() []wireRecord {
	lower := 30.1
	upper := 52.8
	return []wireRecord{
		{
			Timestamp:     "2023-11-20T01:00:00",
			Product:       "DALMP",
			PointForecast: 41.2,
		},
		{
			Timestamp:     "2023-11-20T00:00:00",
			Product:       "DALMP",
			PointForecast: 38.7,
			LowerBound:    &lower,
			UpperBound:    &upper,
			IsFallback:    true,
		},
	}
}

func TestClient_GetForecastByDate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/forecasts/DALMP", r.URL.Path)
		assert.Equal(t, "2023-11-20", r.URL.Query().Get("start_date"))
		assert.Equal(t, "2023-11-20", r.URL.Query().Get("end_date"))
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Equal(t, userAgent, r.Header.Get("User-Agent"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(sampleWireRecords())
	}))
	defer server.Close()

	client, _ := testClient(server.URL)

	dataset, err := client.GetForecastByDate(context.Background(), "DALMP", "2023-11-20", FormatJSON)
	require.NoError(t, err)
	require.NotNil(t, dataset)

	assert.Equal(t, "DALMP", dataset.Product)
	require.Len(t, dataset.Records, 2)

	// Records come back ordered by ascending timestamp regardless of the
	// response order.
	assert.True(t, dataset.Records[0].Timestamp.Before(dataset.Records[1].Timestamp))
	assert.True(t, dataset.Records[0].PointForecast.Equal(decimal.NewFromFloat(38.7)))
	require.NotNil(t, dataset.Records[0].LowerBound)
	assert.True(t, dataset.Records[0].LowerBound.Equal(decimal.NewFromFloat(30.1)))
	assert.True(t, dataset.Records[0].IsFallback)
}

func TestClient_GetForecastByDate_TimeInput(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2023-11-20", r.URL.Query().Get("start_date"))
		_ = json.NewEncoder(w).Encode(sampleWireRecords())
	}))
	defer server.Close()

	client, _ := testClient(server.URL)
	date := time.Date(2023, 11, 20, 14, 0, 0, 0, models.BusinessTimezone)

	_, err := client.GetForecastByDate(context.Background(), "DALMP", date, FormatJSON)
	require.NoError(t, err)
}

func TestClient_GetLatestForecast(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/forecasts/RTLMP/latest", r.URL.Path)
		assert.Empty(t, r.URL.Query().Get("start_date"))
		_ = json.NewEncoder(w).Encode(sampleWireRecords())
	}))
	defer server.Close()

	client, _ := testClient(server.URL)

	dataset, err := client.GetLatestForecast(context.Background(), "RTLMP", FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, "RTLMP", dataset.Product)
}

func TestClient_GetForecastsByDateRange(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "2023-11-20", r.URL.Query().Get("start_date"))
		assert.Equal(t, "2023-11-22", r.URL.Query().Get("end_date"))
		_ = json.NewEncoder(w).Encode(sampleWireRecords())
	}))
	defer server.Close()

	client, _ := testClient(server.URL)

	_, err := client.GetForecastsByDateRange(context.Background(), "DALMP", "2023-11-20", "2023-11-22", FormatJSON)
	require.NoError(t, err)

	// The backend returns the full range in one response: exactly one call.
	assert.Equal(t, int64(1), calls.Load())
}

func TestClient_InvalidProductFailsBeforeNetwork(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()

	client, _ := testClient(server.URL)

	_, err := client.GetForecastByDate(context.Background(), "NOTAPRODUCT", "2023-11-20", FormatJSON)
	var invalidProduct *InvalidProductError
	require.ErrorAs(t, err, &invalidProduct)
	assert.Equal(t, "NOTAPRODUCT", invalidProduct.Product)
	assert.Contains(t, err.Error(), "DALMP")
	assert.Equal(t, int64(0), calls.Load())

	_, err = client.GetLatestForecast(context.Background(), "NOTAPRODUCT", FormatJSON)
	require.ErrorAs(t, err, &invalidProduct)
	assert.Equal(t, int64(0), calls.Load())
}

func TestClient_HTTPStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("backend exploded"))
	}))
	defer server.Close()

	client, _ := testClient(server.URL)

	_, err := client.GetForecastByDate(context.Background(), "DALMP", "2023-11-20", FormatJSON)
	var statusErr *HTTPStatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusInternalServerError, statusErr.StatusCode)
	assert.Contains(t, statusErr.Body, "backend exploded")
	assert.Contains(t, err.Error(), "500")
}

func TestClient_HTTPStatusErrorBodyCapped(t *testing.T) {
	big := make([]byte, 4096)
	for i := range big {
		big[i] = 'x'
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write(big)
	}))
	defer server.Close()

	client, _ := testClient(server.URL)

	_, err := client.GetForecastByDate(context.Background(), "DALMP", "2023-11-20", FormatJSON)
	var statusErr *HTTPStatusError
	require.ErrorAs(t, err, &statusErr)
	assert.LessOrEqual(t, len(statusErr.Body), bodyExcerptLimit+len("�"))
}

func TestClient_MalformedJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("{not json"))
	}))
	defer server.Close()

	client, _ := testClient(server.URL)

	_, err := client.GetForecastByDate(context.Background(), "DALMP", "2023-11-20", FormatJSON)
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, FormatJSON, parseErr.Format)
	assert.NotNil(t, errors.Unwrap(parseErr))
}

func TestClient_ConnectionError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // refuse connections

	client, _ := testClient(server.URL)

	_, err := client.GetForecastByDate(context.Background(), "DALMP", "2023-11-20", FormatJSON)
	var connErr *ConnectionError
	require.ErrorAs(t, err, &connErr)
}

func TestClient_TimeoutError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
	}))
	defer server.Close()

	logger, _ := logrustest.NewNullLogger()
	client := NewClient(&config.ForecastAPIConfig{
		BaseURL: server.URL,
		Timeout: 1,
	}, logger)

	_, err := client.GetForecastByDate(context.Background(), "DALMP", "2023-11-20", FormatJSON)
	var timeoutErr *TimeoutError
	require.ErrorAs(t, err, &timeoutErr)
}

func TestClient_CheckAPIHealth(t *testing.T) {
	tests := []struct {
		name           string
		responseStatus int
		expected       bool
	}{
		{"healthy service", http.StatusOK, true},
		{"unhealthy service", http.StatusServiceUnavailable, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/health", r.URL.Path)
				w.WriteHeader(tt.responseStatus)
			}))
			defer server.Close()

			client, _ := testClient(server.URL)
			assert.Equal(t, tt.expected, client.CheckAPIHealth(context.Background()))
		})
	}
}

func TestClient_CheckAPIHealth_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client, _ := testClient(server.URL)
	assert.False(t, client.CheckAPIHealth(context.Background()))
}

func TestClient_UnknownFormatFallsBackToJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(sampleWireRecords())
	}))
	defer server.Close()

	client, hook := testClient(server.URL)

	dataset, err := client.GetForecastByDate(context.Background(), "DALMP", "2023-11-20", "yaml")
	require.NoError(t, err)
	assert.Len(t, dataset.Records, 2)

	// The fallback is deliberate and observable in the logs.
	require.NotEmpty(t, hook.Entries)
	found := false
	for _, entry := range hook.Entries {
		if entry.Level == logrus.WarnLevel && entry.Data["format"] == "yaml" {
			found = true
		}
	}
	assert.True(t, found, "expected a warning about the unknown format")
}

func TestClient_CloseIdempotent(t *testing.T) {
	client, _ := testClient("http://localhost:9")
	assert.NoError(t, client.Close())
	assert.NoError(t, client.Close())
}
