package domain

import (
	"fmt"
	"math"
)

// Category buckets a risk score for presentation and alerting.
type Category string

const (
	CategoryLow    Category = "Low"
	CategoryMedium Category = "Medium"
	CategoryHigh   Category = "High"
)

// Category thresholds over the 0-100 score range.
const (
	mediumRiskFloor = 34.0
	highRiskFloor   = 67.0
)

// CategoryForScore maps a risk score to its category: below 34 Low, 34 up to
// but excluding 67 Medium, 67 and above High.
func CategoryForScore(score float64) Category {
	switch {
	case score < mediumRiskFloor:
		return CategoryLow
	case score < highRiskFloor:
		return CategoryMedium
	default:
		return CategoryHigh
	}
}

// CellPrediction is the scored outcome for one grid cell. Immutable once
// built; corrections are produced by a new run, never by mutation.
type CellPrediction struct {
	Cell        GridCell    `json:"cell"`
	Weather     Observation `json:"weather"`
	Indices     Indices     `json:"indices"`
	Probability float64     `json:"probability"`
	RiskScore   float64     `json:"risk_score"`
	Category    Category    `json:"risk_category"`
	ScoredBy    string      `json:"scored_by"`
}

// AlertLevel is the region-wide escalation signal.
type AlertLevel string

const (
	AlertNormal   AlertLevel = "NORMAL"
	AlertWarning  AlertLevel = "WARNING"
	AlertCritical AlertLevel = "CRITICAL"
)

// DataSourceTally counts cells by observation provenance.
type DataSourceTally struct {
	Real      int `json:"real"`
	Synthetic int `json:"synthetic"`
}

// RegionSummary aggregates one prediction run over a region's grid.
type RegionSummary struct {
	RegionID    string          `json:"region_id"`
	RegionName  string          `json:"region_name"`
	TotalCells  int             `json:"total_cells"`
	AverageRisk float64         `json:"average_risk"`
	MaxRisk     float64         `json:"max_risk"`
	MinRisk     float64         `json:"min_risk"`
	HighCount   int             `json:"high_risk_count"`
	MediumCount int             `json:"medium_risk_count"`
	LowCount    int             `json:"low_risk_count"`
	AlertLevel  AlertLevel      `json:"alert_level"`
	DataSource  DataSourceTally `json:"data_source"`
}

// Aggregate reduces a region's cell predictions into a summary. It requires
// exactly one prediction per grid cell; anything else is a programming error
// reported as IncompleteGridError. Order-independent: permuting the input
// produces an identical summary.
func Aggregate(region Region, predictions []CellPrediction) (RegionSummary, error) {
	want := region.CellCount()
	if len(predictions) != want {
		return RegionSummary{}, &IncompleteGridError{
			RegionID: region.ID,
			Reason:   fmt.Sprintf("want %d cell predictions, got %d", want, len(predictions)),
		}
	}

	summary := RegionSummary{
		RegionID:   region.ID,
		RegionName: region.Name,
		TotalCells: want,
		MinRisk:    math.MaxFloat64,
	}

	seen := make(map[int]bool, want)
	var total float64
	for _, p := range predictions {
		if p.Cell.Row < 0 || p.Cell.Row >= region.GridRows || p.Cell.Col < 0 || p.Cell.Col >= region.GridCols {
			return RegionSummary{}, &IncompleteGridError{
				RegionID: region.ID,
				Reason:   fmt.Sprintf("cell %q outside the %dx%d grid", p.Cell.ID, region.GridRows, region.GridCols),
			}
		}
		key := p.Cell.Row*region.GridCols + p.Cell.Col
		if seen[key] {
			return RegionSummary{}, &IncompleteGridError{
				RegionID: region.ID,
				Reason:   fmt.Sprintf("duplicate prediction for cell (%d,%d)", p.Cell.Row, p.Cell.Col),
			}
		}
		seen[key] = true

		total += p.RiskScore
		summary.MaxRisk = math.Max(summary.MaxRisk, p.RiskScore)
		summary.MinRisk = math.Min(summary.MinRisk, p.RiskScore)

		switch p.Category {
		case CategoryHigh:
			summary.HighCount++
		case CategoryMedium:
			summary.MediumCount++
		default:
			summary.LowCount++
		}

		if p.Weather.Source == SourceLive {
			summary.DataSource.Real++
		} else {
			summary.DataSource.Synthetic++
		}
	}

	summary.AverageRisk = round1(total / float64(want))
	summary.MaxRisk = round1(summary.MaxRisk)
	summary.MinRisk = round1(summary.MinRisk)
	summary.AlertLevel = deriveAlertLevel(summary.HighCount, summary.MediumCount)
	return summary, nil
}

// deriveAlertLevel escalates on the worst cell in the region: any High cell
// is CRITICAL, any Medium cell is WARNING, otherwise NORMAL.
func deriveAlertLevel(highCount, mediumCount int) AlertLevel {
	switch {
	case highCount > 0:
		return AlertCritical
	case mediumCount > 0:
		return AlertWarning
	default:
		return AlertNormal
	}
}
