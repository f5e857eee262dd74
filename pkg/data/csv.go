package data

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/quantfold/morrow/pkg/model"
)

// priceHeader is the tidy prices file layout
var priceHeader = []string{"date", "ticker", "open", "high", "low", "close", "adj_close", "volume"}

// CSVProvider implements BarProvider for a local tidy prices file with
// columns date,ticker,open,high,low,close,adj_close,volume
type CSVProvider struct {
	filePath string
	bars     []model.Bar
	loaded   bool
}

// NewCSVProvider creates a provider reading from the given CSV file
func NewCSVProvider(filePath string) *CSVProvider {
	return &CSVProvider{filePath: filePath}
}

func (p *CSVProvider) loadIfNeeded() error {
	if p.loaded {
		return nil
	}

	file, err := os.Open(p.filePath)
	if err != nil {
		return fmt.Errorf("open prices CSV: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)

	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("read prices CSV header: %w", err)
	}

	colMap := make(map[string]int, len(header))
	for i, col := range header {
		colMap[col] = i
	}
	for _, col := range priceHeader {
		if _, ok := colMap[col]; !ok {
			return fmt.Errorf("prices CSV %s missing column %q", p.filePath, col)
		}
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("read prices CSV record: %w", err)
		}
		bar, err := parsePriceRecord(record, colMap)
		if err != nil {
			return fmt.Errorf("prices CSV %s: %w", p.filePath, err)
		}
		p.bars = append(p.bars, bar)
	}

	p.loaded = true
	return nil
}

func parsePriceRecord(record []string, colMap map[string]int) (model.Bar, error) {
	get := func(name string) string {
		idx := colMap[name]
		if idx < len(record) {
			return record[idx]
		}
		return ""
	}

	date, err := time.Parse(model.DateLayout, get("date"))
	if err != nil {
		return model.Bar{}, fmt.Errorf("invalid date %q: %w", get("date"), err)
	}

	parse := func(name string) (float64, error) {
		v, err := strconv.ParseFloat(get(name), 64)
		if err != nil {
			return 0, fmt.Errorf("invalid %s %q on %s: %w", name, get(name), get("date"), err)
		}
		return v, nil
	}

	var bar model.Bar
	bar.Date = date
	bar.Instrument = get("ticker")
	if bar.Open, err = parse("open"); err != nil {
		return model.Bar{}, err
	}
	if bar.High, err = parse("high"); err != nil {
		return model.Bar{}, err
	}
	if bar.Low, err = parse("low"); err != nil {
		return model.Bar{}, err
	}
	if bar.Close, err = parse("close"); err != nil {
		return model.Bar{}, err
	}
	if bar.AdjClose, err = parse("adj_close"); err != nil {
		return model.Bar{}, err
	}
	if bar.Volume, err = parse("volume"); err != nil {
		return model.Bar{}, err
	}

	return bar, bar.Validate()
}

// FetchBars returns bars for the instrument within [start, end], oldest first
func (p *CSVProvider) FetchBars(ctx context.Context, instrument string, start, end time.Time) ([]model.Bar, error) {
	if err := p.loadIfNeeded(); err != nil {
		return nil, err
	}

	var out []model.Bar
	for _, b := range p.bars {
		if b.Instrument != instrument {
			continue
		}
		if b.Date.Before(start) || b.Date.After(end) {
			continue
		}
		out = append(out, b)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("fetch %s from %s: %w", instrument, p.filePath, ErrNoData)
	}

	model.SortBars(out)
	return out, nil
}

// SavePricesCSV writes bars to a tidy prices file, creating parent
// directories. Rows are written in date order.
func SavePricesCSV(path string, bars []model.Bar) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("save prices CSV: create dir: %w", err)
	}

	sorted := make([]model.Bar, len(bars))
	copy(sorted, bars)
	model.SortBars(sorted)

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("save prices CSV: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(priceHeader); err != nil {
		return fmt.Errorf("save prices CSV header: %w", err)
	}
	for i := range sorted {
		b := &sorted[i]
		row := []string{
			b.DateKey(),
			b.Instrument,
			strconv.FormatFloat(b.Open, 'f', -1, 64),
			strconv.FormatFloat(b.High, 'f', -1, 64),
			strconv.FormatFloat(b.Low, 'f', -1, 64),
			strconv.FormatFloat(b.Close, 'f', -1, 64),
			strconv.FormatFloat(b.AdjClose, 'f', -1, 64),
			strconv.FormatFloat(b.Volume, 'f', -1, 64),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("save prices CSV row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("save prices CSV flush: %w", err)
	}
	return nil
}
