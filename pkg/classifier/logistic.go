package classifier

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
)

const modelType = "LogisticRegression"

// Logistic is a binary logistic-regression classifier fit by batch
// gradient descent. It implements Classifier.
type Logistic struct {
	FeatureCols []string  `json:"feature_cols"`
	Weights     []float64 `json:"weights"`
	Bias        float64   `json:"bias"`

	LearnRate float64 `json:"-"`
	MaxIter   int     `json:"-"`
}

// NewLogistic creates an untrained classifier for the given feature columns
func NewLogistic(featureCols []string) *Logistic {
	cols := make([]string, len(featureCols))
	copy(cols, featureCols)
	return &Logistic{
		FeatureCols: cols,
		LearnRate:   0.1,
		MaxIter:     2000,
	}
}

// Fit trains the model on feature vectors and {0,1} labels
func (l *Logistic) Fit(features [][]float64, labels []int) error {
	if len(features) == 0 {
		return fmt.Errorf("fit: empty training set")
	}
	if len(features) != len(labels) {
		return fmt.Errorf("fit: %d feature rows but %d labels", len(features), len(labels))
	}
	dim := len(l.FeatureCols)
	for i, row := range features {
		if len(row) != dim {
			return fmt.Errorf("fit: row %d has %d values, want %d: %w", i, len(row), dim, ErrSchemaMismatch)
		}
	}

	l.Weights = make([]float64, dim)
	l.Bias = 0

	n := float64(len(features))
	for iter := 0; iter < l.MaxIter; iter++ {
		gradW := make([]float64, dim)
		gradB := 0.0
		for i, row := range features {
			err := sigmoid(l.score(row)) - float64(labels[i])
			for j, v := range row {
				gradW[j] += err * v
			}
			gradB += err
		}
		for j := range gradW {
			l.Weights[j] -= l.LearnRate * gradW[j] / n
		}
		l.Bias -= l.LearnRate * gradB / n
	}

	return nil
}

// PredictProbability returns the up-probability for each feature vector
func (l *Logistic) PredictProbability(features [][]float64) ([]float64, error) {
	if l.Weights == nil {
		return nil, fmt.Errorf("predict: model is not fitted: %w", ErrModelMissing)
	}
	probs := make([]float64, len(features))
	for i, row := range features {
		if len(row) != len(l.Weights) {
			return nil, fmt.Errorf("predict: row %d has %d values, want %d: %w", i, len(row), len(l.Weights), ErrSchemaMismatch)
		}
		probs[i] = sigmoid(l.score(row))
	}
	return probs, nil
}

// Accuracy computes the fraction of rows the fitted model classifies
// correctly at the 0.5 threshold
func (l *Logistic) Accuracy(features [][]float64, labels []int) (float64, error) {
	probs, err := l.PredictProbability(features)
	if err != nil {
		return 0, err
	}
	if len(probs) == 0 {
		return 0, fmt.Errorf("accuracy: empty evaluation set")
	}
	correct := 0
	for i, p := range probs {
		pred := 0
		if p >= 0.5 {
			pred = 1
		}
		if pred == labels[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(probs)), nil
}

func (l *Logistic) score(row []float64) float64 {
	s := l.Bias
	for j, v := range row {
		s += l.Weights[j] * v
	}
	return s
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// persistedModel is the on-disk JSON form
type persistedModel struct {
	ModelType   string    `json:"model_type"`
	FeatureCols []string  `json:"feature_cols"`
	Weights     []float64 `json:"weights"`
	Bias        float64   `json:"bias"`
}

// Save persists the fitted model as JSON, creating parent directories
func (l *Logistic) Save(path string) error {
	if l.Weights == nil {
		return fmt.Errorf("save: model is not fitted")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("save: create model dir: %w", err)
	}
	data, err := json.MarshalIndent(persistedModel{
		ModelType:   modelType,
		FeatureCols: l.FeatureCols,
		Weights:     l.Weights,
		Bias:        l.Bias,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("save: marshal model: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("save: write model: %w", err)
	}
	return nil
}

// Load reads a persisted model and validates its feature columns against
// the expected set. A column mismatch is fatal, never silently adapted.
func Load(path string, expectCols []string) (*Logistic, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("load %s: %w", path, ErrModelMissing)
		}
		return nil, fmt.Errorf("load %s: %w", path, err)
	}

	var pm persistedModel
	if err := json.Unmarshal(data, &pm); err != nil {
		return nil, fmt.Errorf("load %s: parse model: %w", path, err)
	}

	if len(pm.FeatureCols) != len(expectCols) {
		return nil, fmt.Errorf("load %s: model has %d feature cols, want %d: %w",
			path, len(pm.FeatureCols), len(expectCols), ErrSchemaMismatch)
	}
	for i, col := range expectCols {
		if pm.FeatureCols[i] != col {
			return nil, fmt.Errorf("load %s: feature col %d is %q, want %q: %w",
				path, i, pm.FeatureCols[i], col, ErrSchemaMismatch)
		}
	}

	m := NewLogistic(pm.FeatureCols)
	m.Weights = pm.Weights
	m.Bias = pm.Bias
	return m, nil
}
