package model

import (
	"fmt"
	"sort"
	"time"
)

// DateLayout is the calendar date format used everywhere a date is persisted
// or used as a join key. Dates are timezone-naive trading days.
const DateLayout = "2006-01-02"

// Bar represents one trading day's OHLCV record for an instrument
type Bar struct {
	Instrument string    `json:"instrument"`
	Date       time.Time `json:"date"`
	Open       float64   `json:"open"`
	High       float64   `json:"high"`
	Low        float64   `json:"low"`
	Close      float64   `json:"close"`
	AdjClose   float64   `json:"adj_close"`
	Volume     float64   `json:"volume"`
}

// DateKey returns the bar's date formatted as a join key
func (b *Bar) DateKey() string {
	return b.Date.Format(DateLayout)
}

// Validate checks that the bar carries every required field
func (b *Bar) Validate() error {
	if b.Instrument == "" {
		return fmt.Errorf("bar missing instrument")
	}
	if b.Date.IsZero() {
		return fmt.Errorf("bar missing date for %s", b.Instrument)
	}
	if b.Close <= 0 {
		return fmt.Errorf("bar %s %s has non-positive close", b.Instrument, b.DateKey())
	}
	return nil
}

// SortBars sorts bars ascending by date in place.
// Rolling computations are order-sensitive, so every consumer of a bar
// series must be able to rely on this ordering.
func SortBars(bars []Bar) {
	sort.Slice(bars, func(i, j int) bool {
		return bars[i].Date.Before(bars[j].Date)
	})
}

// ValidateSeries checks a single-instrument series: every bar valid,
// dates unique. The series does not need to be pre-sorted.
func ValidateSeries(bars []Bar) error {
	seen := make(map[string]bool, len(bars))
	for i := range bars {
		b := &bars[i]
		if err := b.Validate(); err != nil {
			return err
		}
		key := b.Instrument + "|" + b.DateKey()
		if seen[key] {
			return fmt.Errorf("duplicate bar for %s on %s", b.Instrument, b.DateKey())
		}
		seen[key] = true
	}
	return nil
}
