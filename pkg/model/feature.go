package model

import "time"

// Feature column names, in the order the classifier consumes them
var FeatureCols = []string{"ret_1d", "ma5_gap", "ma20_gap"}

// LabelUnknown marks a feature row whose next-day close is not yet
// available, so no direction label can be computed for it.
const LabelUnknown = -1

// FeatureRow contains the derived features for one eligible trading day.
// TargetUp is a label that looks one day ahead and must never be fed back
// into the feature vector at inference time.
type FeatureRow struct {
	Instrument string    `json:"instrument"`
	Date       time.Time `json:"date"`
	Ret1D      float64   `json:"ret_1d"`   // close[t]/close[t-1] - 1
	MA5Gap     float64   `json:"ma5_gap"`  // close[t]/mean(close, 5) - 1, trailing
	MA20Gap    float64   `json:"ma20_gap"` // close[t]/mean(close, 20) - 1, trailing
	TargetUp   int       `json:"target_up"`
}

// Vector returns the feature values in FeatureCols order
func (f *FeatureRow) Vector() []float64 {
	return []float64{f.Ret1D, f.MA5Gap, f.MA20Gap}
}

// Labeled reports whether the row carries a computable direction label
func (f *FeatureRow) Labeled() bool {
	return f.TargetUp != LabelUnknown
}
