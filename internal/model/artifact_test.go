package model

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberwatch/fire-risk-service/internal/domain"
)

const testForestJSON = `{
  "model_type": "random_forest",
  "n_features": 10,
  "classes": [0, 1],
  "trees": [
    {
      "children_left": [1, -1, -1],
      "children_right": [2, -1, -1],
      "feature": [9, -2, -2],
      "threshold": [15.0, -2, -2],
      "value": [[50, 50], [80, 20], [10, 90]]
    },
    {
      "children_left": [-1],
      "children_right": [-1],
      "feature": [-2],
      "threshold": [-2],
      "value": [[50, 50]]
    }
  ]
}`

const testScalerJSON = `{
  "mean":  [0, 0, 0, 0, 0, 0, 0, 0, 0, 0],
  "scale": [1, 1, 1, 1, 1, 1, 1, 1, 1, 1]
}`

const testMetadataJSON = `{
  "model_type": "random_forest",
  "trained_at": "2026-05-02T10:00:00Z",
  "feature_columns": ["Temperature", "RH", "Ws", "Rain", "FFMC", "DMC", "DC", "ISI", "BUI", "FWI"],
  "metrics": {"accuracy": 0.94, "f1": 0.91},
  "feature_importance": {"FWI": 0.31, "ISI": 0.18, "Temperature": 0.14, "RH": 0.12, "FFMC": 0.09}
}`

// writeBundle lays out an artifact directory; empty content skips the file.
func writeBundle(t *testing.T, forest, scaler, metadata string) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{ForestFile: forest, ScalerFile: scaler, MetadataFile: metadata}
	for name, content := range files {
		if content == "" {
			continue
		}
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
	}
	return dir
}

func TestLoad(t *testing.T) {
	t.Run("loads a complete bundle", func(t *testing.T) {
		dir := writeBundle(t, testForestJSON, testScalerJSON, testMetadataJSON)

		bundle, err := Load(dir)
		require.NoError(t, err)
		assert.Equal(t, 2, bundle.TreeCount())
		assert.Equal(t, "random_forest", bundle.Metadata().ModelType)
		assert.InDelta(t, 0.94, bundle.Metadata().Metrics["accuracy"], 1e-9)
	})

	t.Run("metadata is optional", func(t *testing.T) {
		dir := writeBundle(t, testForestJSON, testScalerJSON, "")

		bundle, err := Load(dir)
		require.NoError(t, err)
		assert.Empty(t, bundle.Metadata().ModelType)
		assert.Nil(t, bundle.TopFeatures(3))
	})

	t.Run("missing forest", func(t *testing.T) {
		dir := writeBundle(t, "", testScalerJSON, "")

		_, err := Load(dir)
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrModelUnavailable)
	})

	t.Run("missing scaler", func(t *testing.T) {
		dir := writeBundle(t, testForestJSON, "", "")

		_, err := Load(dir)
		assert.ErrorIs(t, err, domain.ErrModelUnavailable)
	})

	t.Run("malformed forest json", func(t *testing.T) {
		dir := writeBundle(t, "{not json", testScalerJSON, "")

		_, err := Load(dir)
		assert.ErrorIs(t, err, domain.ErrModelUnavailable)
	})

	t.Run("feature count mismatch", func(t *testing.T) {
		forest := `{"model_type":"random_forest","n_features":4,"classes":[0,1],"trees":[{"children_left":[-1],"children_right":[-1],"feature":[-2],"threshold":[-2],"value":[[1,1]]}]}`
		dir := writeBundle(t, forest, testScalerJSON, "")

		_, err := Load(dir)
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrModelUnavailable)
	})

	t.Run("short scaler", func(t *testing.T) {
		dir := writeBundle(t, testForestJSON, `{"mean":[0],"scale":[1]}`, "")

		_, err := Load(dir)
		assert.ErrorIs(t, err, domain.ErrModelUnavailable)
	})
}

func TestBundlePredictProbability(t *testing.T) {
	dir := writeBundle(t, testForestJSON, testScalerJSON, testMetadataJSON)
	bundle, err := Load(dir)
	require.NoError(t, err)

	t.Run("scores through scaler and forest", func(t *testing.T) {
		calm := domain.Features(domain.Observation{}, domain.Indices{FWI: 10})
		p, err := bundle.PredictProbability(calm)
		require.NoError(t, err)
		assert.InDelta(t, 0.35, p, 1e-9) // (0.2 + 0.5) / 2

		fiery := domain.Features(domain.Observation{}, domain.Indices{FWI: 40})
		p, err = bundle.PredictProbability(fiery)
		require.NoError(t, err)
		assert.InDelta(t, 0.7, p, 1e-9) // (0.9 + 0.5) / 2
	})

	t.Run("rejects wrong vector length", func(t *testing.T) {
		_, err := bundle.PredictProbability([]float64{1, 2, 3})
		require.Error(t, err)
	})

	t.Run("ranks features by importance", func(t *testing.T) {
		top := bundle.TopFeatures(3)
		assert.Equal(t, []string{"FWI", "ISI", "Temperature"}, top)
	})
}
