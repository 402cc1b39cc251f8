package domain

// Feature vector positions for the risk classifier, in training order.
// The order is fixed; reordering silently breaks any trained model artifact.
const (
	FeatureTemperature = iota
	FeatureHumidity
	FeatureWindSpeed
	FeatureRainfall
	FeatureFFMC
	FeatureDMC
	FeatureDC
	FeatureISI
	FeatureBUI
	FeatureFWI

	FeatureCount
)

// FeatureNames lists the classifier features in vector order, using the
// column names the model was trained with.
var FeatureNames = [FeatureCount]string{
	"Temperature", "RH", "Ws", "Rain", "FFMC", "DMC", "DC", "ISI", "BUI", "FWI",
}

// Features assembles the classifier input vector from an observation and its
// derived indices.
func Features(obs Observation, idx Indices) []float64 {
	v := make([]float64, FeatureCount)
	v[FeatureTemperature] = obs.Temperature
	v[FeatureHumidity] = obs.Humidity
	v[FeatureWindSpeed] = obs.WindSpeed
	v[FeatureRainfall] = obs.Rainfall
	v[FeatureFFMC] = idx.FFMC
	v[FeatureDMC] = idx.DMC
	v[FeatureDC] = idx.DC
	v[FeatureISI] = idx.ISI
	v[FeatureBUI] = idx.BUI
	v[FeatureFWI] = idx.FWI
	return v
}

// Classifier scores a feature vector with the probability of fire occurrence
// in [0,1]. Implementations must be safe for concurrent use; the pipeline
// calls one classifier from every cell goroutine.
type Classifier interface {
	PredictProbability(features []float64) (float64, error)
}

// Scorer provenance labels recorded on each cell prediction.
const (
	ScoredByModel     = "random_forest"
	ScoredByHeuristic = "heuristic"
)
