package forecastapi

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strconv"

	"github.com/parquet-go/parquet-go"
	"github.com/xuri/excelize/v2"

	"github.com/gridpulse/gridpulse-go/internal/models"
)

// parseResponse deserializes a response body per the declared format. An
// unrecognized format string logs a warning and falls back to JSON parsing,
// matching what the backend defaults to when format negotiation fails.
func (c *Client) parseResponse(data []byte, format, product string) (*models.ForecastDataset, error) {
	switch format {
	case FormatJSON:
		return parseJSON(data, product)
	case FormatCSV:
		return parseCSV(data, product)
	case FormatExcel:
		return parseExcel(data, product)
	case FormatParquet:
		return parseParquet(data, product)
	default:
		c.logger.WithField("format", format).Warn("Unknown response format, falling back to JSON parsing")
		return parseJSON(data, product)
	}
}

func parseJSON(data []byte, product string) (*models.ForecastDataset, error) {
	var rows []wireRecord
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, &ParseError{Format: FormatJSON, Err: err}
	}
	dataset, err := toDataset(product, rows)
	if err != nil {
		return nil, &ParseError{Format: FormatJSON, Err: err}
	}
	return dataset, nil
}

func parseCSV(data []byte, product string) (*models.ForecastDataset, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.TrimLeadingSpace = true

	lines, err := reader.ReadAll()
	if err != nil {
		return nil, &ParseError{Format: FormatCSV, Err: err}
	}
	if len(lines) == 0 {
		return toDataset(product, nil)
	}

	rows, err := tabularRows(lines[0], lines[1:])
	if err != nil {
		return nil, &ParseError{Format: FormatCSV, Err: err}
	}
	dataset, err := toDataset(product, rows)
	if err != nil {
		return nil, &ParseError{Format: FormatCSV, Err: err}
	}
	return dataset, nil
}

func parseExcel(data []byte, product string) (*models.ForecastDataset, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, &ParseError{Format: FormatExcel, Err: err}
	}
	defer f.Close()

	lines, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, &ParseError{Format: FormatExcel, Err: err}
	}
	if len(lines) == 0 {
		return toDataset(product, nil)
	}

	rows, err := tabularRows(lines[0], lines[1:])
	if err != nil {
		return nil, &ParseError{Format: FormatExcel, Err: err}
	}
	dataset, err := toDataset(product, rows)
	if err != nil {
		return nil, &ParseError{Format: FormatExcel, Err: err}
	}
	return dataset, nil
}

func parseParquet(data []byte, product string) (*models.ForecastDataset, error) {
	rows, err := parquet.Read[wireRecord](bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, &ParseError{Format: FormatParquet, Err: err}
	}
	dataset, err := toDataset(product, rows)
	if err != nil {
		return nil, &ParseError{Format: FormatParquet, Err: err}
	}
	return dataset, nil
}

// tabularRows converts a header row plus data rows (CSV or spreadsheet)
// into wire records. Optional columns may be absent or empty per cell.
func tabularRows(header []string, lines [][]string) ([]wireRecord, error) {
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[name] = i
	}

	cell := func(line []string, name string) string {
		idx, ok := columns[name]
		if !ok || idx >= len(line) {
			return ""
		}
		return line[idx]
	}

	rows := make([]wireRecord, 0, len(lines))
	for _, line := range lines {
		if len(line) == 0 {
			continue
		}
		row := wireRecord{
			Timestamp: cell(line, "timestamp"),
			Product:   cell(line, "product"),
		}
		if v := cell(line, "point_forecast"); v != "" {
			parsed, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, err
			}
			row.PointForecast = parsed
		}
		if v := cell(line, "lower_bound"); v != "" {
			parsed, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, err
			}
			row.LowerBound = &parsed
		}
		if v := cell(line, "upper_bound"); v != "" {
			parsed, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, err
			}
			row.UpperBound = &parsed
		}
		if v := cell(line, "is_fallback"); v != "" {
			parsed, err := strconv.ParseBool(v)
			if err != nil {
				return nil, err
			}
			row.IsFallback = parsed
		}
		rows = append(rows, row)
	}
	return rows, nil
}
