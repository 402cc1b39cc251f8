package domain

import (
	"fmt"
	"math"
)

// Default grid shape for regions that do not specify one.
const (
	DefaultGridRows = 3
	DefaultGridCols = 4
)

// kmPerDegree is the mean great-circle length of one degree of latitude.
const kmPerDegree = 111.0

// BoundingBox is a geographic box in WGS-84 decimal degrees.
type BoundingBox struct {
	North float64 `json:"north" yaml:"north"`
	South float64 `json:"south" yaml:"south"`
	East  float64 `json:"east" yaml:"east"`
	West  float64 `json:"west" yaml:"west"`
}

// Center returns the midpoint of the box.
func (b BoundingBox) Center() (lat, lng float64) {
	return (b.North + b.South) / 2, (b.East + b.West) / 2
}

// Region is a monitored forest area partitioned into a fixed grid.
// Regions are immutable reference data held in a Catalog.
type Region struct {
	ID          string      `json:"id" yaml:"id"`
	Name        string      `json:"name" yaml:"name"`
	Description string      `json:"description,omitempty" yaml:"description"`
	Bounds      BoundingBox `json:"bounds" yaml:"bounds"`
	GridRows    int         `json:"grid_rows" yaml:"grid_rows"`
	GridCols    int         `json:"grid_cols" yaml:"grid_cols"`
}

// CellCount returns the number of grid cells the region partitions into.
func (r Region) CellCount() int {
	return r.GridRows * r.GridCols
}

// validate checks that the region can be partitioned.
func (r Region) validate() error {
	switch {
	case r.ID == "":
		return &InvalidRegionError{RegionID: r.ID, Reason: "empty region id"}
	case r.GridRows <= 0 || r.GridCols <= 0:
		return &InvalidRegionError{
			RegionID: r.ID,
			Reason:   fmt.Sprintf("grid shape %dx%d must be positive", r.GridRows, r.GridCols),
		}
	case r.Bounds.North <= r.Bounds.South:
		return &InvalidRegionError{
			RegionID: r.ID,
			Reason:   fmt.Sprintf("north %.4f must exceed south %.4f", r.Bounds.North, r.Bounds.South),
		}
	case r.Bounds.East <= r.Bounds.West:
		return &InvalidRegionError{
			RegionID: r.ID,
			Reason:   fmt.Sprintf("east %.4f must exceed west %.4f", r.Bounds.East, r.Bounds.West),
		}
	}
	return nil
}

// GridCell is one tile of a region's grid. Bounds are derived, never stored.
type GridCell struct {
	ID       string      `json:"id"`
	RegionID string      `json:"region_id"`
	Row      int         `json:"row"`
	Col      int         `json:"col"`
	Bounds   BoundingBox `json:"bounds"`
	AreaKm2  float64     `json:"area_km2"`
}

// Center returns the midpoint of the cell.
func (c GridCell) Center() (lat, lng float64) {
	return c.Bounds.Center()
}

// CellID formats the canonical cell identifier: "<region>_grid_<row>_<col>".
// Deterministic IDs keep synthetic weather, logs and API paths stable across
// runs without any stored state.
func CellID(regionID string, row, col int) string {
	return fmt.Sprintf("%s_grid_%d_%d", regionID, row, col)
}

// Partition splits a region's bounding box into its grid cells, row-major
// with cell (0,0) in the northwest corner. Rows divide latitude north to
// south and columns divide longitude west to east, so the union of the cells
// tiles the region exactly. Pure and deterministic.
func Partition(region Region) ([]GridCell, error) {
	if err := region.validate(); err != nil {
		return nil, err
	}

	latStep := (region.Bounds.North - region.Bounds.South) / float64(region.GridRows)
	lngStep := (region.Bounds.East - region.Bounds.West) / float64(region.GridCols)

	cells := make([]GridCell, 0, region.CellCount())
	for row := 0; row < region.GridRows; row++ {
		north := region.Bounds.North - float64(row)*latStep
		for col := 0; col < region.GridCols; col++ {
			west := region.Bounds.West + float64(col)*lngStep
			bounds := BoundingBox{
				North: north,
				South: north - latStep,
				East:  west + lngStep,
				West:  west,
			}
			cells = append(cells, GridCell{
				ID:       CellID(region.ID, row, col),
				RegionID: region.ID,
				Row:      row,
				Col:      col,
				Bounds:   bounds,
				AreaKm2:  boxAreaKm2(bounds),
			})
		}
	}
	return cells, nil
}

// boxAreaKm2 approximates the surface area of a bounding box, scaling the
// east-west extent by the cosine of the mean latitude.
func boxAreaKm2(b BoundingBox) float64 {
	midLat, _ := b.Center()
	latKm := (b.North - b.South) * kmPerDegree
	lngKm := (b.East - b.West) * kmPerDegree * math.Cos(midLat*math.Pi/180)
	return latKm * lngKm
}
