package domain

import (
	"crypto/sha256"
	"encoding/binary"
	"math"
	"math/rand/v2"
)

// SyntheticObservation generates the deterministic fallback observation for a
// cell. The generator is seeded from the cell identity alone, so the same
// cell always yields the same conditions: reproducible output without a live
// provider and stable fixtures in tests.
//
// The synthesis follows a rough latitude gradient (hotter near the equator),
// with humidity inversely tracking temperature and rain only in humid air.
func SyntheticObservation(cell GridCell) Observation {
	rng := rand.New(rand.NewPCG(cellSeed(cell)))
	lat, _ := cell.Center()

	// 1 at the equator, 0 at the poles.
	latFactor := 1 - math.Abs(lat)/90
	baseTemp := 20 + latFactor*20

	temperature := clampF(baseTemp+uniform(rng, -5, 10), 15, 45)
	humidity := clampF(90-(temperature-20)*2+uniform(rng, -10, 10), 20, 95)
	wind := uniform(rng, 5, 25)

	var rain float64
	if humidity > 60 {
		rain = uniform(rng, 0, 5)
	}

	return Observation{
		Temperature: round1(temperature),
		Humidity:    round1(humidity),
		WindSpeed:   round1(wind),
		Rainfall:    round1(rain),
		Description: syntheticDescription(temperature, rain),
		Source:      SourceSynthetic,
		ObservedAt:  clock.Now(),
	}
}

// cellSeed derives a stable PCG seed pair from the cell identity.
func cellSeed(cell GridCell) (uint64, uint64) {
	sum := sha256.Sum256([]byte(cell.ID))
	return binary.BigEndian.Uint64(sum[:8]), binary.BigEndian.Uint64(sum[8:16])
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func syntheticDescription(temperature, rain float64) string {
	switch {
	case rain > 2:
		return "moderate rain"
	case rain > 0:
		return "light rain"
	case temperature > 35:
		return "clear sky, very hot"
	case temperature > 28:
		return "clear sky"
	default:
		return "scattered clouds"
	}
}
