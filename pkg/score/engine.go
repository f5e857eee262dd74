// Package score reconciles the prediction ledger against realized
// next-day moves. Every pass recomputes the scoring fields of every
// record from scratch, so re-running it on unchanged inputs is a no-op
// and hand-edited scoring cells do not survive; the scoring columns are
// managed fields owned entirely by this engine.
package score

import (
	"fmt"

	"github.com/quantfold/morrow/pkg/model"
)

// Summary reports how much of the ledger could be scored
type Summary struct {
	Total    int     // records in the ledger
	Scored   int     // records with a realized outcome
	Accuracy float64 // mean is_correct over scored records; 0 when none
}

// Scorable reports whether any record had a realized outcome
func (s Summary) Scorable() bool {
	return s.Scored > 0
}

func (s Summary) String() string {
	if !s.Scorable() {
		return fmt.Sprintf("no scorable rows yet (%d pending)", s.Total)
	}
	return fmt.Sprintf("scored %d/%d rows, accuracy %.4f", s.Scored, s.Total, s.Accuracy)
}

// Outcomes computes the realized next-day direction per bar, keyed by
// (instrument, date). The last bar of each instrument has no next-day
// close and produces no entry.
func Outcomes(bars []model.Bar) map[string]int {
	byInstrument := make(map[string][]model.Bar)
	for _, b := range bars {
		byInstrument[b.Instrument] = append(byInstrument[b.Instrument], b)
	}

	outcomes := make(map[string]int)
	for instrument, series := range byInstrument {
		model.SortBars(series)
		for i := 0; i+1 < len(series); i++ {
			up := 0
			if series[i+1].Close > series[i].Close {
				up = 1
			}
			outcomes[instrument+"|"+series[i].DateKey()] = up
		}
	}

	return outcomes
}

// Reconcile left-joins ledger records against realized outcomes and
// recomputes correctness. Previously computed scoring fields are
// discarded first, so the pass is idempotent and safe to re-run after
// new bars arrive. Records without a realized outcome yet are kept with
// unknown scoring fields. The input slice is not mutated.
func Reconcile(records []model.PredictionRecord, bars []model.Bar) ([]model.PredictionRecord, Summary) {
	outcomes := Outcomes(bars)

	updated := make([]model.PredictionRecord, len(records))
	copy(updated, records)

	summary := Summary{Total: len(records)}
	correctSum := 0
	for i := range updated {
		rec := &updated[i]
		rec.ActualUp = model.OutcomeUnknown
		rec.Correct = model.OutcomeUnknown

		actual, ok := outcomes[rec.Key()]
		if !ok {
			continue
		}
		rec.ActualUp = actual
		rec.Correct = 0
		if rec.PredUp == actual {
			rec.Correct = 1
		}

		summary.Scored++
		correctSum += rec.Correct
	}

	if summary.Scored > 0 {
		summary.Accuracy = float64(correctSum) / float64(summary.Scored)
	}

	return updated, summary
}
