package score

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantfold/morrow/pkg/ledger"
	"github.com/quantfold/morrow/pkg/model"
)

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse(model.DateLayout, s)
	require.NoError(t, err)
	return d
}

func bar(t *testing.T, instrument, date string, close float64) model.Bar {
	t.Helper()
	return model.Bar{Instrument: instrument, Date: day(t, date), Close: close}
}

func record(t *testing.T, instrument, asOf string, predUp int) model.PredictionRecord {
	t.Helper()
	prob := 0.3
	if predUp == 1 {
		prob = 0.7
	}
	runTime := time.Date(2024, 1, 10, 18, 0, 0, 0, time.UTC)
	return model.NewPredictionRecord(instrument, day(t, asOf), prob, runTime)
}

func TestOutcomesPerInstrument(t *testing.T) {
	bars := []model.Bar{
		bar(t, "SPY", "2024-01-02", 100),
		bar(t, "SPY", "2024-01-03", 105),
		bar(t, "SPY", "2024-01-04", 102),
		bar(t, "QQQ", "2024-01-02", 50),
		bar(t, "QQQ", "2024-01-03", 51),
	}

	outcomes := Outcomes(bars)
	assert.Equal(t, map[string]int{
		"SPY|2024-01-02": 1,
		"SPY|2024-01-03": 0,
		"QQQ|2024-01-02": 1,
	}, outcomes, "last bar of each instrument has no outcome")
}

func TestOutcomesUnsortedBars(t *testing.T) {
	bars := []model.Bar{
		bar(t, "SPY", "2024-01-04", 102),
		bar(t, "SPY", "2024-01-02", 100),
		bar(t, "SPY", "2024-01-03", 105),
	}

	outcomes := Outcomes(bars)
	assert.Equal(t, 1, outcomes["SPY|2024-01-02"])
	assert.Equal(t, 0, outcomes["SPY|2024-01-03"])
}

func TestReconcileScoresMatchedRecords(t *testing.T) {
	bars := []model.Bar{
		bar(t, "SPY", "2024-01-02", 100),
		bar(t, "SPY", "2024-01-03", 105),
		bar(t, "SPY", "2024-01-04", 102),
	}
	records := []model.PredictionRecord{
		record(t, "SPY", "2024-01-02", 1), // up, was up: correct
		record(t, "SPY", "2024-01-03", 1), // up, was down: wrong
	}

	updated, summary := Reconcile(records, bars)
	require.Len(t, updated, 2)

	assert.Equal(t, 1, updated[0].ActualUp)
	assert.Equal(t, 1, updated[0].Correct)
	assert.Equal(t, 0, updated[1].ActualUp)
	assert.Equal(t, 0, updated[1].Correct)

	assert.Equal(t, 2, summary.Scored)
	assert.InDelta(t, 0.5, summary.Accuracy, 1e-12)
}

func TestReconcileLeftJoinKeepsUnmatched(t *testing.T) {
	bars := []model.Bar{
		bar(t, "SPY", "2024-01-02", 100),
		bar(t, "SPY", "2024-01-03", 105),
	}
	records := []model.PredictionRecord{
		record(t, "SPY", "2024-01-02", 1),
		record(t, "SPY", "2024-01-03", 1), // as-of the last bar: no next close yet
	}

	updated, summary := Reconcile(records, bars)
	require.Len(t, updated, 2, "unmatched records are kept")

	assert.Equal(t, model.OutcomeUnknown, updated[1].ActualUp)
	assert.Equal(t, model.OutcomeUnknown, updated[1].Correct)

	// The pending row is excluded from the accuracy mean.
	assert.Equal(t, 1, summary.Scored)
	assert.InDelta(t, 1.0, summary.Accuracy, 1e-12)
}

func TestReconcileDiscardsStaleScoring(t *testing.T) {
	bars := []model.Bar{
		bar(t, "SPY", "2024-01-02", 100),
		bar(t, "SPY", "2024-01-03", 105),
	}
	rec := record(t, "SPY", "2024-01-03", 1)
	// A hand-edited outcome does not survive a reconciliation pass.
	rec.ActualUp = 0
	rec.Correct = 0

	updated, _ := Reconcile([]model.PredictionRecord{rec}, bars)
	assert.Equal(t, model.OutcomeUnknown, updated[0].ActualUp)
	assert.Equal(t, model.OutcomeUnknown, updated[0].Correct)
}

func TestReconcileNothingScorable(t *testing.T) {
	bars := []model.Bar{bar(t, "SPY", "2024-01-03", 105)}
	records := []model.PredictionRecord{record(t, "SPY", "2024-01-03", 1)}

	_, summary := Reconcile(records, bars)
	assert.False(t, summary.Scorable())
	assert.Equal(t, 0.0, summary.Accuracy)
	assert.Contains(t, summary.String(), "no scorable rows")
}

func TestReconcileDoesNotMutateInput(t *testing.T) {
	bars := []model.Bar{
		bar(t, "SPY", "2024-01-02", 100),
		bar(t, "SPY", "2024-01-03", 105),
	}
	records := []model.PredictionRecord{record(t, "SPY", "2024-01-02", 1)}

	Reconcile(records, bars)
	assert.Equal(t, model.OutcomeUnknown, records[0].ActualUp)
	assert.Equal(t, model.OutcomeUnknown, records[0].Correct)
}

func TestReconcileRewriteIsIdempotent(t *testing.T) {
	bars := []model.Bar{
		bar(t, "SPY", "2024-01-02", 100),
		bar(t, "SPY", "2024-01-03", 105),
		bar(t, "SPY", "2024-01-04", 102),
	}
	path := filepath.Join(t.TempDir(), "history.csv")
	led := ledger.New(path)

	for _, asOf := range []string{"2024-01-02", "2024-01-03", "2024-01-04"} {
		_, err := led.AppendIfAbsent(record(t, "SPY", asOf, 1))
		require.NoError(t, err)
	}

	reconcileOnce := func() []byte {
		records, err := led.Read()
		require.NoError(t, err)
		updated, _ := Reconcile(records, bars)
		require.NoError(t, led.WriteAll(updated))
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		return data
	}

	first := reconcileOnce()
	second := reconcileOnce()
	assert.Equal(t, first, second, "re-running reconciliation on unchanged inputs is byte-identical")
}
