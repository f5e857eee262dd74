package data

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/quantfold/morrow/pkg/model"
)

const stooqBaseURL = "https://stooq.com/q/d/l/"

// StooqProvider implements BarProvider against Stooq's daily CSV
// download endpoint. Stooq serves adjusted prices, so AdjClose mirrors
// Close on returned bars.
type StooqProvider struct {
	BaseURL string
	Client  *http.Client
}

// NewStooqProvider creates a provider with a 30 second request timeout
func NewStooqProvider() *StooqProvider {
	return &StooqProvider{
		BaseURL: stooqBaseURL,
		Client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// FetchBars downloads daily bars for the instrument within [start, end]
func (p *StooqProvider) FetchBars(ctx context.Context, instrument string, start, end time.Time) ([]model.Bar, error) {
	url := fmt.Sprintf("%s?s=%s&d1=%s&d2=%s&i=d",
		p.BaseURL,
		stooqSymbol(instrument),
		start.Format("20060102"),
		end.Format("20060102"),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", instrument, err)
	}

	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", instrument, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %s", instrument, resp.Status)
	}

	bars, err := parseStooqCSV(resp.Body, instrument)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", instrument, err)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("fetch %s %s..%s: %w",
			instrument, start.Format(model.DateLayout), end.Format(model.DateLayout), ErrNoData)
	}

	model.SortBars(bars)
	return bars, nil
}

// stooqSymbol maps a plain US ticker to Stooq's symbol convention
func stooqSymbol(instrument string) string {
	s := strings.ToLower(instrument)
	// Indices (^spx) and already-qualified symbols pass through untouched.
	if strings.HasPrefix(s, "^") || strings.Contains(s, ".") {
		return s
	}
	return s + ".us"
}

// parseStooqCSV reads Stooq's Date,Open,High,Low,Close,Volume layout
func parseStooqCSV(r io.Reader, instrument string) ([]model.Bar, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	// Stooq answers "No data" in the body for unknown symbols.
	if len(header) < 6 || header[0] != "Date" {
		return nil, nil
	}

	var bars []model.Bar
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		if len(row) < 6 {
			continue
		}

		date, err := time.Parse(model.DateLayout, row[0])
		if err != nil {
			return nil, fmt.Errorf("invalid date %q: %w", row[0], err)
		}
		open, err := strconv.ParseFloat(row[1], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid open on %s: %w", row[0], err)
		}
		high, err := strconv.ParseFloat(row[2], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid high on %s: %w", row[0], err)
		}
		low, err := strconv.ParseFloat(row[3], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid low on %s: %w", row[0], err)
		}
		closePx, err := strconv.ParseFloat(row[4], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid close on %s: %w", row[0], err)
		}
		volume, err := strconv.ParseFloat(row[5], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid volume on %s: %w", row[0], err)
		}

		bars = append(bars, model.Bar{
			Instrument: instrument,
			Date:       date,
			Open:       open,
			High:       high,
			Low:        low,
			Close:      closePx,
			AdjClose:   closePx,
			Volume:     volume,
		})
	}

	return bars, nil
}
