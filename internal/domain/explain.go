package domain

import "fmt"

// DriverSeverity labels whether a weather factor is pushing risk up or
// holding it down.
type DriverSeverity string

const (
	DriverCritical DriverSeverity = "critical"
	DriverSafe     DriverSeverity = "safe"
)

// Driver is one causal factor behind a region's risk picture.
type Driver struct {
	Factor   string         `json:"factor"`
	Value    float64        `json:"value"`
	Unit     string         `json:"unit"`
	Severity DriverSeverity `json:"severity"`
	Text     string         `json:"text"`
}

// RiskLevel is the qualitative label attached to an assessment.
type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskModerate RiskLevel = "MODERATE"
	RiskHigh     RiskLevel = "HIGH"
)

// Assessment is the region-wide narrative conclusion of a prediction run.
type Assessment struct {
	Level RiskLevel `json:"level"`
	Text  string    `json:"text"`
}

// Driver thresholds. Temperature above 30°C, humidity below 30% and wind
// above 25 km/h each mark fire-critical conditions. 0.5mm is the canopy
// interception threshold used by the FFMC rain phase; rainfall below it
// never reaches surface fuel, so no driver is emitted at all.
const (
	criticalTemperature = 30.0 // °C
	criticalHumidity    = 30.0 // %
	criticalWind        = 25.0 // km/h
	wettingRainfall     = 0.5  // mm
)

// Explain generates the ordered driver battery and the overall assessment
// for one prediction run over a region.
func Explain(summary RegionSummary, avg AverageConditions) ([]Driver, Assessment) {
	return BuildDrivers(avg.Temperature, avg.Humidity, avg.WindSpeed, avg.Rainfall), assess(summary)
}

// BuildDrivers runs the threshold battery over a set of conditions. The
// output order is fixed (temperature, humidity, wind, rainfall) so consumers
// can rely on stable positions; the rainfall driver appears only when rain
// is actually suppressing risk.
func BuildDrivers(temperature, humidity, wind, rainfall float64) []Driver {
	drivers := make([]Driver, 0, 4)

	if temperature > criticalTemperature {
		drivers = append(drivers, Driver{
			Factor:   "temperature",
			Value:    temperature,
			Unit:     "°C",
			Severity: DriverCritical,
			Text:     fmt.Sprintf("High temperature (%.1f°C) is drying vegetation and increasing ignition risk.", temperature),
		})
	} else {
		drivers = append(drivers, Driver{
			Factor:   "temperature",
			Value:    temperature,
			Unit:     "°C",
			Severity: DriverSafe,
			Text:     fmt.Sprintf("Temperature (%.1f°C) is within a safe range.", temperature),
		})
	}

	if humidity < criticalHumidity {
		drivers = append(drivers, Driver{
			Factor:   "humidity",
			Value:    humidity,
			Unit:     "%",
			Severity: DriverCritical,
			Text:     fmt.Sprintf("Low humidity (%.1f%%) leaves fuels dry and receptive to ignition.", humidity),
		})
	} else {
		drivers = append(drivers, Driver{
			Factor:   "humidity",
			Value:    humidity,
			Unit:     "%",
			Severity: DriverSafe,
			Text:     fmt.Sprintf("Humidity (%.1f%%) is keeping fuels moist.", humidity),
		})
	}

	if wind > criticalWind {
		drivers = append(drivers, Driver{
			Factor:   "wind",
			Value:    wind,
			Unit:     "km/h",
			Severity: DriverCritical,
			Text:     fmt.Sprintf("Strong wind (%.1f km/h) can drive rapid fire spread.", wind),
		})
	} else {
		drivers = append(drivers, Driver{
			Factor:   "wind",
			Value:    wind,
			Unit:     "km/h",
			Severity: DriverSafe,
			Text:     fmt.Sprintf("Wind (%.1f km/h) is light enough to limit fire spread.", wind),
		})
	}

	if rainfall > wettingRainfall {
		drivers = append(drivers, Driver{
			Factor:   "rainfall",
			Value:    rainfall,
			Unit:     "mm",
			Severity: DriverSafe,
			Text:     fmt.Sprintf("Recent rainfall (%.1fmm) is wetting surface fuels and lowering risk.", rainfall),
		})
	}

	return drivers
}

// assess maps category counts to the qualitative level, worst first.
func assess(summary RegionSummary) Assessment {
	switch {
	case summary.HighCount > 0:
		return Assessment{
			Level: RiskHigh,
			Text:  fmt.Sprintf("High fire risk detected in %d of %d zones. Immediate preventive measures are recommended.", summary.HighCount, summary.TotalCells),
		}
	case summary.MediumCount > 3:
		return Assessment{
			Level: RiskModerate,
			Text:  fmt.Sprintf("Moderate fire conditions in %d zones. Enhanced monitoring is advised.", summary.MediumCount),
		}
	default:
		return Assessment{
			Level: RiskLow,
			Text:  "Conditions are currently favorable. Standard monitoring is sufficient.",
		}
	}
}

// AverageConditions is the mean weather across a region's cells, the input
// to driver generation. FWI rides along for consumers that want the mean
// index next to the mean weather.
type AverageConditions struct {
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	WindSpeed   float64 `json:"wind_speed"`
	Rainfall    float64 `json:"rainfall"`
	FWI         float64 `json:"fwi"`
}

// AverageObservation computes the mean conditions over cell predictions.
func AverageObservation(predictions []CellPrediction) AverageConditions {
	if len(predictions) == 0 {
		return AverageConditions{}
	}

	var avg AverageConditions
	for _, p := range predictions {
		avg.Temperature += p.Weather.Temperature
		avg.Humidity += p.Weather.Humidity
		avg.WindSpeed += p.Weather.WindSpeed
		avg.Rainfall += p.Weather.Rainfall
		avg.FWI += p.Indices.FWI
	}

	n := float64(len(predictions))
	avg.Temperature = round1(avg.Temperature / n)
	avg.Humidity = round1(avg.Humidity / n)
	avg.WindSpeed = round1(avg.WindSpeed / n)
	avg.Rainfall = round1(avg.Rainfall / n)
	avg.FWI = round1(avg.FWI / n)
	return avg
}
