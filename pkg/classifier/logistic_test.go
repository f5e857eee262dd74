package classifier

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// separable builds a trivially learnable set: label follows the sign of
// the first feature.
func separable() ([][]float64, []int) {
	features := [][]float64{
		{0.8, 0.1, 0.0},
		{0.6, 0.2, 0.1},
		{0.9, -0.1, 0.2},
		{0.7, 0.0, -0.1},
		{-0.8, 0.1, 0.0},
		{-0.6, -0.2, 0.1},
		{-0.9, 0.1, -0.2},
		{-0.7, 0.0, 0.1},
	}
	labels := []int{1, 1, 1, 1, 0, 0, 0, 0}
	return features, labels
}

func TestFitAndPredictSeparable(t *testing.T) {
	features, labels := separable()
	clf := NewLogistic([]string{"a", "b", "c"})
	require.NoError(t, clf.Fit(features, labels))

	probs, err := clf.PredictProbability(features)
	require.NoError(t, err)
	for i, p := range probs {
		assert.GreaterOrEqual(t, p, 0.0)
		assert.LessOrEqual(t, p, 1.0)
		if labels[i] == 1 {
			assert.Greater(t, p, 0.5, "row %d should lean up", i)
		} else {
			assert.Less(t, p, 0.5, "row %d should lean down", i)
		}
	}

	acc, err := clf.Accuracy(features, labels)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, acc, 1e-12)
}

func TestFitRejectsBadShapes(t *testing.T) {
	clf := NewLogistic([]string{"a", "b"})
	assert.Error(t, clf.Fit(nil, nil))
	assert.Error(t, clf.Fit([][]float64{{1, 2}}, []int{1, 0}))

	err := clf.Fit([][]float64{{1, 2, 3}}, []int{1})
	assert.ErrorIs(t, err, ErrSchemaMismatch)
}

func TestPredictUnfitted(t *testing.T) {
	clf := NewLogistic([]string{"a"})
	_, err := clf.PredictProbability([][]float64{{1}})
	assert.ErrorIs(t, err, ErrModelMissing)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	features, labels := separable()
	cols := []string{"a", "b", "c"}

	clf := NewLogistic(cols)
	require.NoError(t, clf.Fit(features, labels))

	path := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, clf.Save(path))

	loaded, err := Load(path, cols)
	require.NoError(t, err)
	assert.Equal(t, clf.Weights, loaded.Weights)
	assert.Equal(t, clf.Bias, loaded.Bias)

	want, err := clf.PredictProbability(features)
	require.NoError(t, err)
	got, err := loaded.PredictProbability(features)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLoadMissingModel(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"), []string{"a"})
	assert.ErrorIs(t, err, ErrModelMissing)
}

func TestLoadSchemaMismatch(t *testing.T) {
	features, labels := separable()
	clf := NewLogistic([]string{"a", "b", "c"})
	require.NoError(t, clf.Fit(features, labels))

	path := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, clf.Save(path))

	_, err := Load(path, []string{"a", "b"})
	assert.ErrorIs(t, err, ErrSchemaMismatch)

	_, err = Load(path, []string{"a", "b", "renamed"})
	assert.ErrorIs(t, err, ErrSchemaMismatch)
}

func TestSaveUnfitted(t *testing.T) {
	clf := NewLogistic([]string{"a"})
	assert.Error(t, clf.Save(filepath.Join(t.TempDir(), "model.json")))
}

func TestMetadataSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "models", "metadata.json")
	meta := &Metadata{
		Instrument:       "SPY",
		FeatureCols:      []string{"a"},
		TrainRows:        100,
		TrainStart:       "2024-01-02",
		TrainEnd:         "2024-06-28",
		InSampleAccuracy: 0.55,
	}
	require.NoError(t, meta.Save(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"model_type": "LogisticRegression"`)
	assert.Contains(t, string(data), `"train_rows": 100`)
}
