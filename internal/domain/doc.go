// Package domain models grid-based wildfire risk assessment.
//
// # Regions and Grids
//
// A monitored region is a WGS-84 bounding box partitioned into a fixed
// rows x columns grid (default 3x4). Cell (0,0) is the northwest corner;
// rows advance southward, columns eastward. Cell IDs are deterministic:
//
//	"<region>_grid_<row>_<col>"   e.g. "amazon_grid_0_2"
//
// Cell bounds are linear interpolations of the region box, so the union of
// the cells tiles the region exactly. Cell areas are approximated by scaling
// the east-west extent by the cosine of the mean latitude, adequate for the
// 1-3 degree boxes this service monitors.
//
// # Weather Observations
//
// Each prediction run attaches one point-in-time observation per cell:
// temperature (°C), relative humidity (%), wind speed (km/h) and rainfall
// (mm). Observations come from the live provider when one is configured and
// reachable; otherwise a synthetic observation is generated deterministically
// from the cell identity. Every observation carries its provenance ("live" or
// "synthetic") and the region summary reports the tally, so degraded output
// is always labeled as such.
//
// # Fire Weather Index System
//
// Risk features derive from the Canadian Forest Fire Weather Index (FWI)
// System (Van Wagner, 1987): three moisture codes (FFMC, DMC, DC) and three
// behavior indices (ISI, BUI, FWI). The standard system is incremental,
// carrying yesterday's codes forward day by day; this service keeps no
// prediction history, so fixed dry-season baselines (FFMC 85, DMC 10, DC 150)
// stand in for the previous day and the day-length factors are pinned to
// July, the peak of the fire season. All six components are computed together
// from one observation and clamped to documented ranges:
//
//	FFMC 0-101 | DMC 0-500 | DC 0-800 | ISI 0-100 | BUI 0-500 | FWI 0-100
//
// # Risk Scores and Categories
//
// A classifier maps the ten-feature vector (Temperature, RH, Ws, Rain, FFMC,
// DMC, DC, ISI, BUI, FWI, in fixed training order) to a fire probability in
// [0,1]; risk score = probability x 100. Categories:
//
//	Low < 34 | 34 <= Medium < 67 | High >= 67
//
// The region alert level escalates on the worst cell: any High cell makes the
// region CRITICAL, any Medium cell WARNING, otherwise NORMAL.
//
// # Explainability
//
// Driver generation runs a fixed threshold battery over region-average
// conditions, always in the same order: temperature (>30°C critical),
// humidity (<30% critical), wind (>25 km/h critical), rainfall (>0.5mm emits
// a mitigating "safe" driver and is otherwise omitted entirely). The
// assessment label is worst-first: HIGH with any High cell, MODERATE with
// more than three Medium cells, else LOW.
package domain
