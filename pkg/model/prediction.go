package model

import (
	"math"
	"time"
)

// Signal values recorded in the ledger
const (
	SignalUp   = "UP"
	SignalDown = "DOWN"
)

// OutcomeUnknown marks a prediction whose realized next-day move is not
// yet available. Only the Scoring Engine resolves it.
const OutcomeUnknown = -1

// PredictionRecord is one row of the prediction ledger. At most one record
// exists per (instrument, as-of-date); ActualUp and Correct are the only
// fields ever rewritten after creation.
type PredictionRecord struct {
	RunTime    time.Time `json:"run_time"`
	Instrument string    `json:"instrument"`
	AsOfDate   time.Time `json:"asof_date"`
	PredUp     int       `json:"pred_up"`
	ProbUp     float64   `json:"prob_up"`
	Signal     string    `json:"signal"`
	ActualUp   int       `json:"actual_up_next_day"`
	Correct    int       `json:"is_correct"`
}

// NewPredictionRecord builds an unscored record from an up-probability.
// The 0.5 threshold is inclusive: probability exactly 0.5 is an UP call.
// The probability is rounded to 4 decimals, matching the persisted form.
func NewPredictionRecord(instrument string, asOf time.Time, probUp float64, runTime time.Time) PredictionRecord {
	predUp := 0
	signal := SignalDown
	if probUp >= 0.5 {
		predUp = 1
		signal = SignalUp
	}
	return PredictionRecord{
		RunTime:    runTime.Truncate(time.Second),
		Instrument: instrument,
		AsOfDate:   asOf,
		PredUp:     predUp,
		ProbUp:     math.Round(probUp*10000) / 10000,
		Signal:     signal,
		ActualUp:   OutcomeUnknown,
		Correct:    OutcomeUnknown,
	}
}

// Key returns the uniqueness key for the ledger's one-row-per-day invariant
func (r *PredictionRecord) Key() string {
	return r.Instrument + "|" + r.AsOfDate.Format(DateLayout)
}

// Scored reports whether the record has a resolved outcome
func (r *PredictionRecord) Scored() bool {
	return r.Correct != OutcomeUnknown
}
