package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewPredictionRecordThreshold(t *testing.T) {
	asOf := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	now := time.Date(2024, 1, 2, 18, 30, 15, 0, time.UTC)

	// The 0.5 threshold is inclusive: an exact tie is an UP call.
	rec := NewPredictionRecord("SPY", asOf, 0.5, now)
	assert.Equal(t, 1, rec.PredUp)
	assert.Equal(t, SignalUp, rec.Signal)

	rec = NewPredictionRecord("SPY", asOf, 0.4999, now)
	assert.Equal(t, 0, rec.PredUp)
	assert.Equal(t, SignalDown, rec.Signal)

	assert.Equal(t, OutcomeUnknown, rec.ActualUp)
	assert.Equal(t, OutcomeUnknown, rec.Correct)
	assert.False(t, rec.Scored())
}

func TestNewPredictionRecordRoundsProbability(t *testing.T) {
	asOf := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	rec := NewPredictionRecord("SPY", asOf, 0.123456789, time.Now())
	assert.Equal(t, 0.1235, rec.ProbUp)
}

func TestPredictionRecordKey(t *testing.T) {
	asOf := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	rec := NewPredictionRecord("SPY", asOf, 0.7, time.Now())
	assert.Equal(t, "SPY|2024-01-02", rec.Key())
}

func TestValidateSeriesRejectsDuplicates(t *testing.T) {
	date := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	bars := []Bar{
		{Instrument: "SPY", Date: date, Close: 100},
		{Instrument: "SPY", Date: date, Close: 101},
	}
	assert.Error(t, ValidateSeries(bars))
}
