// Command checkmodel validates a model artifact bundle before deployment.
// It loads the bundle, scores a set of canonical weather scenarios, and
// verifies the probabilities order the way fire physics says they must:
// extreme fire weather scores highest, soaking rain lowest. It also checks
// that training metadata agrees with the service's feature vector.
//
// Usage:
//
//	go run ./cmd/checkmodel -model-dir models
package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"

	"github.com/emberwatch/fire-risk-service/internal/domain"
	"github.com/emberwatch/fire-risk-service/internal/model"
)

// scenario is a canonical weather condition with a well-understood risk rank.
type scenario struct {
	name string
	obs  domain.Observation
}

// Ordered from safest to most dangerous. The bundle passes only if it scores
// the last strictly highest and the first strictly lowest.
var scenarios = []scenario{
	{name: "overnight rain, cool and humid", obs: domain.Observation{Temperature: 12, Humidity: 92, WindSpeed: 6, Rainfall: 18}},
	{name: "mild spring day", obs: domain.Observation{Temperature: 21, Humidity: 55, WindSpeed: 12, Rainfall: 0.4}},
	{name: "hot dry afternoon", obs: domain.Observation{Temperature: 33, Humidity: 24, WindSpeed: 20, Rainfall: 0}},
	{name: "extreme fire weather", obs: domain.Observation{Temperature: 41, Humidity: 9, WindSpeed: 45, Rainfall: 0}},
}

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	modelDir := flag.String("model-dir", "models", "model artifact bundle directory")
	flag.Parse()

	if code := run(*modelDir); code != 0 {
		os.Exit(code)
	}
}

func run(modelDir string) int {
	fmt.Println("=== Model Bundle Validation ===")
	fmt.Println()

	bundle, err := model.Load(modelDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load bundle from %s: %v\n", modelDir, err)
		return 1
	}
	fmt.Printf("Bundle: %d trees, %d-feature vector\n", bundle.TreeCount(), domain.FeatureCount)
	printMetadata(bundle)

	probs, scoring := scoreScenarios(bundle)
	phases := []*phase{
		scoring,
		validateOrdering(probs),
		validateImportance(bundle),
	}

	// ── Report results ──
	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nBundle is deployable.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

func printMetadata(bundle *model.Bundle) {
	meta := bundle.Metadata()
	if meta.ModelType == "" {
		fmt.Println("Metadata: none (metadata.json missing or unreadable)")
		return
	}
	fmt.Printf("Metadata: %s trained %s\n", meta.ModelType, meta.TrainedAt)

	if len(meta.Metrics) > 0 {
		keys := make([]string, 0, len(meta.Metrics))
		for k := range meta.Metrics {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s=%.3f", k, meta.Metrics[k]))
		}
		fmt.Printf("Training metrics: %s\n", strings.Join(parts, " "))
	}
	if top := bundle.TopFeatures(5); len(top) > 0 {
		fmt.Printf("Top features: %s\n", strings.Join(top, ", "))
	}
}

// ── Phase 1: Scenario Scoring ──
// Every canonical scenario must produce a finite probability in [0,1].

func scoreScenarios(bundle *model.Bundle) ([]float64, *phase) {
	p := &phase{name: "Phase 1: Scenario Scoring"}

	fmt.Println()
	probs := make([]float64, len(scenarios))
	for i, s := range scenarios {
		idx := domain.CalculateIndices(s.obs)
		prob, err := bundle.PredictProbability(domain.Features(s.obs, idx))
		if err != nil {
			p.errorf("%s: %v", s.name, err)
			continue
		}
		probs[i] = prob
		fmt.Printf("  %-34s p=%.4f (FWI %.1f)\n", s.name, prob, idx.FWI)

		if math.IsNaN(prob) || math.IsInf(prob, 0) {
			p.errorf("%s: probability is %v", s.name, prob)
		}
		if prob < 0 || prob > 1 {
			p.errorf("%s: probability %.4f outside [0,1]", s.name, prob)
		}
	}
	return probs, p
}

// ── Phase 2: Scenario Ordering ──
// A usable fire model must rank extreme fire weather above soaking rain.

func validateOrdering(probs []float64) *phase {
	p := &phase{name: "Phase 2: Scenario Ordering"}

	lowest, highest := probs[0], probs[len(probs)-1]
	for i := 1; i < len(probs); i++ {
		if probs[i] <= lowest {
			p.errorf("%q (p=%.4f) does not score above %q (p=%.4f)",
				scenarios[i].name, probs[i], scenarios[0].name, lowest)
		}
	}
	for i := 0; i < len(probs)-1; i++ {
		if probs[i] >= highest {
			p.errorf("%q (p=%.4f) does not score below %q (p=%.4f)",
				scenarios[i].name, probs[i], scenarios[len(probs)-1].name, highest)
		}
	}
	return p
}

// ── Phase 3: Feature Alignment ──
// Metadata feature names must match the vector the service computes; a
// mismatch means the bundle was trained against a different pipeline.

func validateImportance(bundle *model.Bundle) *phase {
	p := &phase{name: "Phase 3: Feature Alignment"}

	meta := bundle.Metadata()
	if meta.ModelType == "" {
		return p // metadata is optional, nothing to align
	}

	known := map[string]bool{}
	for _, name := range domain.FeatureNames {
		known[name] = true
	}

	if len(meta.FeatureColumns) > 0 {
		if len(meta.FeatureColumns) != domain.FeatureCount {
			p.errorf("metadata lists %d feature columns, service computes %d",
				len(meta.FeatureColumns), domain.FeatureCount)
		}
		for i, col := range meta.FeatureColumns {
			if i < domain.FeatureCount && col != domain.FeatureNames[i] {
				p.errorf("feature column %d: metadata %q, service %q", i, col, domain.FeatureNames[i])
			}
		}
	}

	for name := range meta.FeatureImportance {
		if !known[name] {
			p.errorf("importance entry %q is not a service feature", name)
		}
	}
	return p
}
