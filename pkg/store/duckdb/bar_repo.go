package duckdb

import (
	"context"
	"fmt"
	"time"

	"github.com/quantfold/morrow/pkg/model"
)

// BarRepo handles daily bar persistence
type BarRepo struct {
	client *Client
}

// NewBarRepo creates a new bar repository
func NewBarRepo(client *Client) *BarRepo {
	return &BarRepo{client: client}
}

const upsertBar = `
	INSERT INTO bars (instrument, date, open, high, low, close, adj_close, volume)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (instrument, date) DO UPDATE SET
		open = EXCLUDED.open,
		high = EXCLUDED.high,
		low = EXCLUDED.low,
		close = EXCLUDED.close,
		adj_close = EXCLUDED.adj_close,
		volume = EXCLUDED.volume
`

// Insert upserts a single bar
func (r *BarRepo) Insert(ctx context.Context, b *model.Bar) error {
	return r.client.Exec(upsertBar,
		b.Instrument, b.Date, b.Open, b.High, b.Low, b.Close, b.AdjClose, b.Volume,
	)
}

// InsertBatch upserts multiple bars in a transaction
func (r *BarRepo) InsertBatch(ctx context.Context, bars []model.Bar) error {
	tx, err := r.client.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(upsertBar)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for i := range bars {
		b := &bars[i]
		_, err := stmt.Exec(
			b.Instrument, b.Date, b.Open, b.High, b.Low, b.Close, b.AdjClose, b.Volume,
		)
		if err != nil {
			return fmt.Errorf("failed to insert bar %s %s: %w", b.Instrument, b.DateKey(), err)
		}
	}

	return tx.Commit()
}

// GetByDateRange retrieves bars for an instrument within a date range,
// oldest first
func (r *BarRepo) GetByDateRange(ctx context.Context, instrument string, start, end time.Time) ([]model.Bar, error) {
	query := `
		SELECT instrument, date, open, high, low, close, adj_close, volume
		FROM bars
		WHERE instrument = ? AND date >= ? AND date <= ?
		ORDER BY date ASC
	`
	return r.queryBars(query, instrument, start, end)
}

// GetAll retrieves every bar for an instrument, oldest first
func (r *BarRepo) GetAll(ctx context.Context, instrument string) ([]model.Bar, error) {
	query := `
		SELECT instrument, date, open, high, low, close, adj_close, volume
		FROM bars
		WHERE instrument = ?
		ORDER BY date ASC
	`
	return r.queryBars(query, instrument)
}

// Count returns the number of bars stored for an instrument
func (r *BarRepo) Count(ctx context.Context, instrument string) (int64, error) {
	var count int64
	row := r.client.QueryRow("SELECT COUNT(*) FROM bars WHERE instrument = ?", instrument)
	err := row.Scan(&count)
	return count, err
}

func (r *BarRepo) queryBars(query string, args ...interface{}) ([]model.Bar, error) {
	rows, err := r.client.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query bars: %w", err)
	}
	defer rows.Close()

	var bars []model.Bar
	for rows.Next() {
		var b model.Bar
		err := rows.Scan(
			&b.Instrument, &b.Date, &b.Open, &b.High, &b.Low, &b.Close, &b.AdjClose, &b.Volume,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bar: %w", err)
		}
		bars = append(bars, b)
	}

	return bars, rows.Err()
}
