package domain

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Catalog is the immutable set of monitored regions. Loaded once at startup,
// read-only afterwards, safe for concurrent lookups.
type Catalog struct {
	regions map[string]Region
	order   []string
}

// BuiltinRegions returns the reference regions the service monitors when no
// region file is configured: four fire-prone forest areas on four continents.
func BuiltinRegions() []Region {
	return []Region{
		{
			ID:          "amazon",
			Name:        "Amazon Rainforest",
			Description: "Brazil - World's largest tropical rainforest",
			Bounds:      BoundingBox{North: -2.0, South: -5.0, East: -60.0, West: -65.0},
			GridRows:    DefaultGridRows,
			GridCols:    DefaultGridCols,
		},
		{
			ID:          "california",
			Name:        "California Forests",
			Description: "USA - Sierra Nevada and coastal forests",
			Bounds:      BoundingBox{North: 39.0, South: 36.0, East: -118.0, West: -121.0},
			GridRows:    DefaultGridRows,
			GridCols:    DefaultGridCols,
		},
		{
			ID:          "australia",
			Name:        "Australian Bushland",
			Description: "Australia - Eastern forest regions",
			Bounds:      BoundingBox{North: -32.0, South: -35.0, East: 152.0, West: 149.0},
			GridRows:    DefaultGridRows,
			GridCols:    DefaultGridCols,
		},
		{
			ID:          "mediterranean",
			Name:        "Mediterranean Forests",
			Description: "Southern Europe - Portugal, Spain, Greece",
			Bounds:      BoundingBox{North: 40.0, South: 37.0, East: -6.0, West: -10.0},
			GridRows:    DefaultGridRows,
			GridCols:    DefaultGridCols,
		},
	}
}

// NewCatalog builds a catalog from the given regions, validating each one.
// Fails fast: a single malformed region rejects the whole catalog.
func NewCatalog(regions []Region) (*Catalog, error) {
	if len(regions) == 0 {
		return nil, fmt.Errorf("catalog: no regions configured")
	}

	c := &Catalog{regions: make(map[string]Region, len(regions))}
	for _, r := range regions {
		if err := r.validate(); err != nil {
			return nil, fmt.Errorf("catalog: %w", err)
		}
		if _, dup := c.regions[r.ID]; dup {
			return nil, fmt.Errorf("catalog: duplicate region %q", r.ID)
		}
		c.regions[r.ID] = r
		c.order = append(c.order, r.ID)
	}
	sort.Strings(c.order)
	return c, nil
}

// LoadCatalog reads a YAML region file. Regions that omit a grid shape get
// the default rows x cols.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read region file: %w", err)
	}

	var file struct {
		Regions []Region `yaml:"regions"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse region file %s: %w", path, err)
	}

	for i := range file.Regions {
		if file.Regions[i].GridRows == 0 {
			file.Regions[i].GridRows = DefaultGridRows
		}
		if file.Regions[i].GridCols == 0 {
			file.Regions[i].GridCols = DefaultGridCols
		}
	}
	return NewCatalog(file.Regions)
}

// Get looks up a region by id.
func (c *Catalog) Get(id string) (Region, error) {
	r, ok := c.regions[id]
	if !ok {
		return Region{}, fmt.Errorf("%w: %q", ErrUnknownRegion, id)
	}
	return r, nil
}

// List returns all regions sorted by id.
func (c *Catalog) List() []Region {
	out := make([]Region, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.regions[id])
	}
	return out
}

// Count returns the number of regions in the catalog.
func (c *Catalog) Count() int {
	return len(c.regions)
}
