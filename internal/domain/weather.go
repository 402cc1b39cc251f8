package domain

import (
	"context"
	"time"
)

// Provenance records where a cell's weather observation came from. Summaries
// tally provenance so consumers can tell real data from synthetic fallback.
type Provenance string

const (
	// SourceLive marks observations fetched from the live weather provider.
	SourceLive Provenance = "live"

	// SourceSynthetic marks deterministic fallback observations.
	SourceSynthetic Provenance = "synthetic"
)

// Observation is a point-in-time weather snapshot for one grid cell: the
// input to the fire-behavior index calculation. Ephemeral, never persisted.
type Observation struct {
	Temperature float64    `json:"temperature"` // °C
	Humidity    float64    `json:"humidity"`    // relative humidity, %
	WindSpeed   float64    `json:"wind_speed"`  // km/h
	Rainfall    float64    `json:"rainfall"`    // mm
	Description string     `json:"description,omitempty"`
	Source      Provenance `json:"source"`
	ObservedAt  time.Time  `json:"observed_at"`
}

// WeatherSource supplies current conditions for a grid cell from a live
// provider. Implementations must be safe for concurrent use; the pipeline
// fans out one call per cell. Any error means the caller falls back to a
// synthetic observation.
type WeatherSource interface {
	Fetch(ctx context.Context, cell GridCell) (Observation, error)
}
