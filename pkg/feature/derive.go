package feature

import (
	"github.com/quantfold/morrow/pkg/model"
)

// Engine derives feature rows from a daily bar series
type Engine struct {
	ShortWindow int // trailing moving-average window for ma5_gap
	LongWindow  int // trailing moving-average window for ma20_gap
}

// NewEngine creates an engine with the default 5/20 day windows
func NewEngine() *Engine {
	return &Engine{
		ShortWindow: 5,
		LongWindow:  20,
	}
}

// Derive computes one FeatureRow per eligible bar of a single-instrument
// series. A bar is eligible once every trailing input is fully computable:
// the first LongWindow-1 bars carry no row. The final row's TargetUp is
// LabelUnknown because no next-day close exists; callers filter it out of
// training data but may still use it for inference.
//
// The input is sorted defensively before any rolling computation. Rolling
// means are trailing and non-centered; a partial window never produces a
// row. Derive is pure: the caller's slice is left untouched.
func (e *Engine) Derive(bars []model.Bar) []model.FeatureRow {
	if len(bars) == 0 {
		return nil
	}

	sorted := make([]model.Bar, len(bars))
	copy(sorted, bars)
	model.SortBars(sorted)

	warmup := e.LongWindow
	if e.ShortWindow > warmup {
		warmup = e.ShortWindow
	}
	if len(sorted) < warmup {
		// Insufficient history: an empty eligible set, not an error.
		return nil
	}

	start := warmup - 1
	if start < 1 {
		// one_day_return needs a prior close even when windows are tiny
		start = 1
	}

	rows := make([]model.FeatureRow, 0, len(sorted)-start)
	for i := start; i < len(sorted); i++ {
		b := sorted[i]

		prevClose := sorted[i-1].Close
		if prevClose == 0 {
			continue
		}

		maShort := trailingMean(sorted, i, e.ShortWindow)
		maLong := trailingMean(sorted, i, e.LongWindow)
		if maShort == 0 || maLong == 0 {
			continue
		}

		target := model.LabelUnknown
		if i+1 < len(sorted) {
			target = 0
			if sorted[i+1].Close > b.Close {
				target = 1
			}
		}

		rows = append(rows, model.FeatureRow{
			Instrument: b.Instrument,
			Date:       b.Date,
			Ret1D:      b.Close/prevClose - 1,
			MA5Gap:     b.Close/maShort - 1,
			MA20Gap:    b.Close/maLong - 1,
			TargetUp:   target,
		})
	}

	return rows
}

// trailingMean averages the closes of the window ending at index i inclusive
func trailingMean(bars []model.Bar, i, window int) float64 {
	sum := 0.0
	for j := i - window + 1; j <= i; j++ {
		sum += bars[j].Close
	}
	return sum / float64(window)
}

// TrainingRows filters a derived table down to label-bearing rows
func TrainingRows(rows []model.FeatureRow) []model.FeatureRow {
	out := make([]model.FeatureRow, 0, len(rows))
	for _, r := range rows {
		if r.Labeled() {
			out = append(out, r)
		}
	}
	return out
}

// LatestRow returns the most recent feature row for inference, or nil if
// the table is empty. The returned row may be unlabeled.
func LatestRow(rows []model.FeatureRow) *model.FeatureRow {
	if len(rows) == 0 {
		return nil
	}
	r := rows[len(rows)-1]
	return &r
}
