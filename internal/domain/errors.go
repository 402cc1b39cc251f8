package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for degradable failures. Callers branch with errors.Is and
// fall back instead of aborting the run.
var (
	// ErrUnknownRegion marks a region id not present in the catalog.
	ErrUnknownRegion = errors.New("unknown region")

	// ErrUnknownCell marks a cell id that does not belong to the region's grid.
	ErrUnknownCell = errors.New("unknown grid cell")

	// ErrModelUnavailable marks a model artifact bundle that is missing or
	// unreadable. The service degrades to the heuristic scorer.
	ErrModelUnavailable = errors.New("model unavailable")

	// ErrWeatherUnavailable marks a live weather fetch that failed. The cell
	// degrades to a synthetic observation.
	ErrWeatherUnavailable = errors.New("weather unavailable")
)

// InvalidRegionError reports a region whose geometry or grid shape cannot be
// partitioned. Raised at catalog load or partition time and never absorbed:
// a malformed region is a configuration error, not a runtime condition.
type InvalidRegionError struct {
	RegionID string
	Reason   string
}

func (e *InvalidRegionError) Error() string {
	return fmt.Sprintf("invalid region %q: %s", e.RegionID, e.Reason)
}

// IncompleteGridError reports aggregation input that does not cover a
// region's grid exactly once. It indicates a programming error in the
// pipeline, not bad input data.
type IncompleteGridError struct {
	RegionID string
	Reason   string
}

func (e *IncompleteGridError) Error() string {
	return fmt.Sprintf("incomplete grid for region %q: %s", e.RegionID, e.Reason)
}
