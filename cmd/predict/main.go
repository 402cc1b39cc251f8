// Command predict runs a one-shot offline fire risk prediction for a region
// and prints the result as JSON. It never calls the live weather API: every
// cell gets a synthetic observation, so output depends only on the region
// and the model bundle.
//
// Usage:
//
//	go run ./cmd/predict -region california
//	go run ./cmd/predict -region amazon -model-dir models -pretty
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/emberwatch/fire-risk-service/internal/domain"
	"github.com/emberwatch/fire-risk-service/internal/model"
	"github.com/emberwatch/fire-risk-service/internal/observability"
	"github.com/emberwatch/fire-risk-service/internal/pipeline"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	regionID := flag.String("region", "", "region id to predict")
	regionsFile := flag.String("regions-file", "", "YAML region catalog (default: builtin regions)")
	modelDir := flag.String("model-dir", "models", "model artifact bundle directory")
	pretty := flag.Bool("pretty", false, "indent JSON output")
	flag.Parse()

	catalog, err := loadCatalog(*regionsFile)
	if err != nil {
		return err
	}

	if *regionID == "" {
		flag.Usage()
		return fmt.Errorf("missing -region (available: %s)", regionIDs(catalog))
	}

	var classifier domain.Classifier
	scorerName := domain.ScoredByHeuristic
	if bundle, err := model.Load(*modelDir); err != nil {
		log.Printf("model unavailable (%v), using heuristic scoring", err)
		classifier = model.Heuristic{}
	} else {
		classifier = bundle
		scorerName = domain.ScoredByModel
		log.Printf("model loaded from %s (%d trees)", *modelDir, bundle.TreeCount())
	}

	// Errors only; progress goes through log, the result through stdout.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	predictor := pipeline.New(pipeline.Params{
		Catalog:    catalog,
		Classifier: classifier,
		ScorerName: scorerName,
		Logger:     logger,
		Metrics:    observability.NewMetrics(),
	})

	result, err := predictor.PredictRegion(context.Background(), *regionID)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	if *pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(result)
}

func loadCatalog(path string) (*domain.Catalog, error) {
	if path != "" {
		return domain.LoadCatalog(path)
	}
	return domain.NewCatalog(domain.BuiltinRegions())
}

func regionIDs(catalog *domain.Catalog) string {
	ids := make([]string, 0, catalog.Count())
	for _, r := range catalog.List() {
		ids = append(ids, r.ID)
	}
	return strings.Join(ids, ", ")
}
