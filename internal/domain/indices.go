package domain

import "math"

// Indices is the Canadian Forest Fire Weather Index (FWI) System vector for
// one cell. The six components are always derived together from the same
// observation; a partially populated value never exists.
type Indices struct {
	FFMC float64 `json:"ffmc"` // Fine Fuel Moisture Code
	DMC  float64 `json:"dmc"`  // Duff Moisture Code
	DC   float64 `json:"dc"`   // Drought Code
	ISI  float64 `json:"isi"`  // Initial Spread Index
	BUI  float64 `json:"bui"`  // Buildup Index
	FWI  float64 `json:"fwi"`  // Fire Weather Index
}

// The FWI System is incremental: each day's moisture codes start from
// yesterday's. This service keeps no prediction history, so fixed dry-season
// baselines stand in for the previous day's codes and the day-length factors
// are pinned to July, the peak of the fire season.
const (
	baselineFFMC = 85.0 // standard startup value
	baselineDMC  = 10.0
	baselineDC   = 150.0

	dayLengthDMC = 12.4 // July effective day length (Le)
	dayLengthDC  = 6.4  // July day-length adjustment (Lf)
)

// Upper bounds of the documented valid range per component. Intermediate
// results are clamped before feeding downstream components so one extreme
// input cannot blow up the whole vector.
const (
	maxFFMC = 101.0
	maxDMC  = 500.0
	maxDC   = 800.0
	maxISI  = 100.0
	maxBUI  = 500.0
	maxFWI  = 100.0
)

// CalculateIndices derives the FWI System components from a single
// observation using the standard equations (Van Wagner, 1987). Pure and
// deterministic: equal observations produce equal indices.
//
// Inputs are sanitized first (humidity clamped to [0,100], wind and rainfall
// to >= 0) so a malformed observation degrades to a clamped calculation
// instead of propagating NaN.
func CalculateIndices(obs Observation) Indices {
	temperature := obs.Temperature
	humidity := clampF(obs.Humidity, 0, 100)
	wind := math.Max(obs.WindSpeed, 0)
	rain := math.Max(obs.Rainfall, 0)

	ffmc := fineFuelMoistureCode(temperature, humidity, wind, rain)
	dmc := duffMoistureCode(temperature, humidity, rain)
	dc := droughtCode(temperature, rain)
	isi := initialSpreadIndex(ffmc, wind)
	bui := buildupIndex(dmc, dc)
	fwi := fireWeatherIndex(isi, bui)

	return Indices{FFMC: ffmc, DMC: dmc, DC: dc, ISI: isi, BUI: bui, FWI: fwi}
}

// fineFuelMoistureCode rates the dryness of fine surface litter, the fuel
// that ignites first. Driven by temperature, humidity, wind and rain.
func fineFuelMoistureCode(temperature, humidity, wind, rain float64) float64 {
	// Yesterday's code converted to a moisture content percentage.
	m0 := 147.2 * (101 - baselineFFMC) / (59.5 + baselineFFMC)

	// Rain above the 0.5mm canopy interception threshold wets the fuel.
	if rain > 0.5 {
		rf := rain - 0.5
		mr := m0 + 42.5*rf*math.Exp(-100/(251-m0))*(1-math.Exp(-6.93/rf))
		if m0 > 150 {
			mr += 0.0015 * (m0 - 150) * (m0 - 150) * math.Sqrt(rf)
		}
		m0 = math.Min(mr, 250)
	}

	// Drying equilibrium moisture content.
	ed := 0.942*math.Pow(humidity, 0.679) +
		11*math.Exp((humidity-100)/10) +
		0.18*(21.1-temperature)*(1-math.Exp(-0.115*humidity))

	var m float64
	if m0 > ed {
		// Fuel dries toward equilibrium; wind accelerates drying.
		k0 := 0.424*(1-math.Pow(humidity/100, 1.7)) +
			0.0694*math.Sqrt(wind)*(1-math.Pow(humidity/100, 8))
		kd := k0 * 0.581 * math.Exp(0.0365*temperature)
		m = ed + (m0-ed)*math.Pow(10, -kd)
	} else {
		// Wetting equilibrium sits below the drying one.
		ew := 0.618*math.Pow(humidity, 0.753) +
			10*math.Exp((humidity-100)/10) +
			0.18*(21.1-temperature)*(1-math.Exp(-0.115*humidity))
		if m0 < ew {
			k1 := 0.424*(1-math.Pow((100-humidity)/100, 1.7)) +
				0.0694*math.Sqrt(wind)*(1-math.Pow((100-humidity)/100, 8))
			kw := k1 * 0.581 * math.Exp(0.0365*temperature)
			m = ew - (ew-m0)*math.Pow(10, -kw)
		} else {
			m = m0
		}
	}

	return clampF(59.5*(250-m)/(147.2+m), 0, maxFFMC)
}

// duffMoistureCode rates the dryness of loosely compacted organic layers of
// moderate depth. Rain below 1.5mm never penetrates the duff layer.
func duffMoistureCode(temperature, humidity, rain float64) float64 {
	p0 := baselineDMC

	if rain > 1.5 {
		re := 0.92*rain - 1.27
		m0 := 20 + math.Exp(5.6348-p0/43.43)

		var b float64
		switch {
		case p0 <= 33:
			b = 100 / (0.5 + 0.3*p0)
		case p0 <= 65:
			b = 14 - 1.3*math.Log(p0)
		default:
			b = 6.2*math.Log(p0) - 17.2
		}

		mr := m0 + 1000*re/(48.77+b*re)
		p0 = math.Max(43.43*(5.6348-math.Log(mr-20)), 0)
	}

	// Log drying rate; dormant below -1.1°C.
	var k float64
	if temperature > -1.1 {
		k = 1.894 * (temperature + 1.1) * (100 - humidity) * dayLengthDMC * 1e-6
	}

	return clampF(p0+100*k, 0, maxDMC)
}

// droughtCode rates the dryness of deep compact organic layers. It reacts
// slowly and tracks seasonal drought; rain below 2.8mm never reaches it.
func droughtCode(temperature, rain float64) float64 {
	d0 := baselineDC

	if rain > 2.8 {
		rd := 0.83*rain - 1.27
		q0 := 800 * math.Exp(-d0/400)
		qr := q0 + 3.937*rd
		d0 = math.Max(400*math.Log(800/qr), 0)
	}

	// Potential evapotranspiration, floored at zero in cold weather.
	v := math.Max(0.36*(temperature+2.8)+dayLengthDC, 0)

	return clampF(d0+0.5*v, 0, maxDC)
}

// initialSpreadIndex combines wind and fine fuel dryness into an expected
// rate of fire spread.
func initialSpreadIndex(ffmc, wind float64) float64 {
	m := 147.2 * (101 - ffmc) / (59.5 + ffmc)
	windFunc := math.Exp(0.05039 * wind)
	fuelFunc := 91.9 * math.Exp(-0.1386*m) * (1 + math.Pow(m, 5.31)/4.93e7)
	return clampF(0.208*windFunc*fuelFunc, 0, maxISI)
}

// buildupIndex combines the two slower moisture codes into the total fuel
// available for consumption.
func buildupIndex(dmc, dc float64) float64 {
	if dmc == 0 && dc == 0 {
		return 0
	}

	var u float64
	if dmc <= 0.4*dc {
		u = 0.8 * dmc * dc / (dmc + 0.4*dc)
	} else {
		u = dmc - (1-0.8*dc/(dmc+0.4*dc))*(0.92+math.Pow(0.0114*dmc, 1.7))
	}
	return clampF(u, 0, maxBUI)
}

// fireWeatherIndex combines spread rate and available fuel into the general
// fire intensity rating.
func fireWeatherIndex(isi, bui float64) float64 {
	var duffFunc float64
	if bui <= 80 {
		duffFunc = 0.626*math.Pow(bui, 0.809) + 2
	} else {
		duffFunc = 1000 / (25 + 108.64*math.Exp(-0.023*bui))
	}

	b := 0.1 * isi * duffFunc
	if b <= 1 {
		return clampF(b, 0, maxFWI)
	}
	return clampF(math.Exp(2.72*math.Pow(0.434*math.Log(b), 0.647)), 0, maxFWI)
}

// clampF bounds v to [lo, hi].
func clampF(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
