// Package model loads trained risk-model artifacts and scores feature
// vectors. Artifacts are produced offline by the training pipeline and
// shipped as a directory of JSON files:
//
//	model.json     random-forest trees in scikit-learn export layout
//	scaler.json    per-feature standardization parameters
//	metadata.json  training metrics and feature importance (optional)
//
// A Bundle is loaded once at startup, immutable afterwards and safe for
// concurrent use. When no bundle can be loaded the service runs on
// Heuristic, which needs no artifacts at all; every prediction records
// which scorer produced it.
package model
