package classifier

import "errors"

// Sentinel errors surfaced verbatim to the caller; neither is retried
// nor silently worked around inside the pipeline.
var (
	// ErrModelMissing indicates no persisted model exists at the given path
	ErrModelMissing = errors.New("model file not found")
	// ErrSchemaMismatch indicates a persisted model was trained on a
	// different feature column set than the one now in use
	ErrSchemaMismatch = errors.New("model feature columns mismatch")
)

// Classifier is the statistical capability the pipeline depends on.
// Any method that fits on feature/label pairs and emits an up-probability
// per feature vector satisfies it.
type Classifier interface {
	Fit(features [][]float64, labels []int) error
	PredictProbability(features [][]float64) ([]float64, error)
}
