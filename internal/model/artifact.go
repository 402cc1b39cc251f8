package model

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/emberwatch/fire-risk-service/internal/domain"
)

// Artifact file names within a bundle directory.
const (
	ForestFile   = "model.json"
	ScalerFile   = "scaler.json"
	MetadataFile = "metadata.json"
)

// Metadata describes how and when the model was trained. Optional: a bundle
// without it still scores, it just cannot report importance or metrics.
type Metadata struct {
	ModelType         string             `json:"model_type"`
	TrainedAt         string             `json:"trained_at"`
	FeatureColumns    []string           `json:"feature_columns"`
	Metrics           map[string]float64 `json:"metrics"`
	FeatureImportance map[string]float64 `json:"feature_importance"`
}

// Bundle is a loaded artifact set. It implements domain.Classifier.
type Bundle struct {
	forest   *Forest
	scaler   *Scaler
	metadata Metadata
}

// Load reads an artifact bundle from dir. Any missing or malformed file
// except metadata.json fails with domain.ErrModelUnavailable, so callers
// branch to the heuristic with errors.Is.
func Load(dir string) (*Bundle, error) {
	var forest Forest
	if err := readJSON(filepath.Join(dir, ForestFile), &forest); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrModelUnavailable, err)
	}
	if err := forest.validate(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrModelUnavailable, ForestFile, err)
	}
	if forest.NFeatures != domain.FeatureCount {
		return nil, fmt.Errorf("%w: forest trained on %d features, service computes %d",
			domain.ErrModelUnavailable, forest.NFeatures, domain.FeatureCount)
	}

	var scaler Scaler
	if err := readJSON(filepath.Join(dir, ScalerFile), &scaler); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrModelUnavailable, err)
	}
	if err := scaler.validate(domain.FeatureCount); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrModelUnavailable, ScalerFile, err)
	}

	bundle := &Bundle{forest: &forest, scaler: &scaler}

	// Metadata is best-effort.
	var meta Metadata
	if err := readJSON(filepath.Join(dir, MetadataFile), &meta); err == nil {
		bundle.metadata = meta
	}
	return bundle, nil
}

// PredictProbability scales the feature vector and runs the forest.
func (b *Bundle) PredictProbability(features []float64) (float64, error) {
	if len(features) != domain.FeatureCount {
		return 0, fmt.Errorf("feature vector has %d values, want %d", len(features), domain.FeatureCount)
	}
	return b.forest.Probability(b.scaler.Transform(features)), nil
}

// Metadata returns the training metadata, zero-valued if the bundle shipped
// without one.
func (b *Bundle) Metadata() Metadata {
	return b.metadata
}

// TreeCount reports the size of the loaded forest.
func (b *Bundle) TreeCount() int {
	return len(b.forest.Trees)
}

// TopFeatures returns up to n feature names ranked by training importance.
// Empty without metadata.
func (b *Bundle) TopFeatures(n int) []string {
	return rankImportance(b.metadata.FeatureImportance, n)
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return nil
}
