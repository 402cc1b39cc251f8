package model

import "fmt"

// Scaler standardizes features with the training distribution:
// (x - mean) / scale per position.
type Scaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

// Transform returns the standardized copy of features.
func (s *Scaler) Transform(features []float64) []float64 {
	out := make([]float64, len(features))
	for i, v := range features {
		scale := s.Scale[i]
		if scale == 0 {
			// Zero-variance training feature; pass the offset through.
			scale = 1
		}
		out[i] = (v - s.Mean[i]) / scale
	}
	return out
}

func (s *Scaler) validate(nFeatures int) error {
	if len(s.Mean) != nFeatures || len(s.Scale) != nFeatures {
		return fmt.Errorf("scaler covers %d/%d positions, want %d", len(s.Mean), len(s.Scale), nFeatures)
	}
	return nil
}
