package model

import (
	"fmt"
	"math"
	"sort"

	"github.com/emberwatch/fire-risk-service/internal/domain"
)

// Heuristic is the artifact-free fallback scorer: a weighted linear blend of
// the classic fire drivers, kept from the operational rule of thumb the
// trained model replaced. Heat and wind push the score up, humidity and rain
// pull it down, and FWI carries the heaviest weight.
type Heuristic struct{}

// PredictProbability maps the heuristic 0-100 score back to a probability.
func (Heuristic) PredictProbability(features []float64) (float64, error) {
	if len(features) != domain.FeatureCount {
		return 0, fmt.Errorf("feature vector has %d values, want %d", len(features), domain.FeatureCount)
	}

	score := (features[domain.FeatureTemperature]-20)*2 +
		(80-features[domain.FeatureHumidity])*0.5 +
		features[domain.FeatureWindSpeed]*1.5 +
		features[domain.FeatureFWI]*3 -
		features[domain.FeatureRainfall]*10

	score = math.Min(math.Max(score, 0), 100)
	return score / 100, nil
}

// TopFeatures ranks the heuristic's fixed weights, so explanations stay
// populated in degraded mode.
func (Heuristic) TopFeatures(n int) []string {
	return rankImportance(map[string]float64{
		"FWI":         0.35,
		"Temperature": 0.25,
		"Ws":          0.15,
		"Rain":        0.15,
		"RH":          0.10,
	}, n)
}

// rankImportance returns up to n names sorted by descending weight, ties
// broken alphabetically for stable output.
func rankImportance(importance map[string]float64, n int) []string {
	if len(importance) == 0 || n <= 0 {
		return nil
	}

	names := make([]string, 0, len(importance))
	for name := range importance {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if importance[names[i]] != importance[names[j]] {
			return importance[names[i]] > importance[names[j]]
		}
		return names[i] < names[j]
	})

	if n < len(names) {
		names = names[:n]
	}
	return names
}
