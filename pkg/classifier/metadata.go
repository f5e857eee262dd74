package classifier

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Metadata records what a training run saw. It is informational only;
// no downstream component reads it back.
type Metadata struct {
	ModelType        string   `json:"model_type"`
	Instrument       string   `json:"instrument"`
	FeatureCols      []string `json:"feature_cols"`
	TrainRows        int      `json:"train_rows"`
	TrainStart       string   `json:"train_start"`
	TrainEnd         string   `json:"train_end"`
	InSampleAccuracy float64  `json:"in_sample_accuracy"`
}

// Save writes the metadata as indented JSON next to the model
func (m *Metadata) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("metadata: create dir: %w", err)
	}
	m.ModelType = modelType
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("metadata: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("metadata: write: %w", err)
	}
	return nil
}
