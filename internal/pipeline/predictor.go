// Package pipeline orchestrates one prediction run: partition a region,
// predict every cell in parallel, aggregate, explain, and fan out alerts.
// Runs are stateless and independent; all shared state (catalog, model) is
// immutable after startup.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/emberwatch/fire-risk-service/internal/domain"
	"github.com/emberwatch/fire-risk-service/internal/model"
	"github.com/emberwatch/fire-risk-service/internal/observability"
)

// Alert is the event published when a region's alert level escalates above
// NORMAL.
type Alert struct {
	RunID       string               `json:"run_id"`
	RegionID    string               `json:"region_id"`
	AlertLevel  domain.AlertLevel    `json:"alert_level"`
	Summary     domain.RegionSummary `json:"summary"`
	Assessment  domain.Assessment    `json:"assessment"`
	Drivers     []domain.Driver      `json:"drivers"`
	GeneratedAt time.Time            `json:"generated_at"`
}

// AlertSink receives escalation alerts. Publish failures are absorbed by the
// predictor; the next run re-derives the alert, so delivery is best-effort.
type AlertSink interface {
	PublishAlert(ctx context.Context, alert Alert) error
}

// FeatureRanker is the optional classifier capability of reporting which
// features mattered most in training.
type FeatureRanker interface {
	TopFeatures(n int) []string
}

// Result is one complete prediction run over a region.
type Result struct {
	RunID       string                  `json:"run_id"`
	Region      domain.Region           `json:"region"`
	Cells       []domain.CellPrediction `json:"grids"`
	Summary     domain.RegionSummary    `json:"summary"`
	Drivers     []domain.Driver         `json:"drivers"`
	Assessment  domain.Assessment       `json:"assessment"`
	GeneratedAt time.Time               `json:"generated_at"`
}

// CellDetail is the per-cell drill-down: the prediction plus a driver
// battery run on that cell's own conditions.
type CellDetail struct {
	Prediction  domain.CellPrediction `json:"prediction"`
	Drivers     []domain.Driver       `json:"drivers"`
	TopFeatures []string              `json:"top_features,omitempty"`
}

// Params bundles the predictor's collaborators and tuning. Weather and
// Alerts are optional; nil disables that integration.
type Params struct {
	Catalog    *domain.Catalog
	Classifier domain.Classifier
	ScorerName string
	Weather    domain.WeatherSource
	Alerts     AlertSink
	Logger     *slog.Logger
	Metrics    *observability.Metrics

	// WeatherTimeout caps each live fetch; expired fetches degrade to
	// synthetic observations. Zero means DefaultWeatherTimeout.
	WeatherTimeout time.Duration

	// MaxParallel bounds concurrent cell predictions per run. Zero or
	// negative means one goroutine per cell.
	MaxParallel int
}

// DefaultWeatherTimeout bounds a single live weather fetch.
const DefaultWeatherTimeout = 10 * time.Second

// Predictor runs the per-region prediction pipeline.
type Predictor struct {
	catalog        *domain.Catalog
	classifier     domain.Classifier
	scorerName     string
	fallback       domain.Classifier
	weather        domain.WeatherSource
	alerts         AlertSink
	logger         *slog.Logger
	metrics        *observability.Metrics
	weatherTimeout time.Duration
	maxParallel    int
}

// New creates a Predictor. The heuristic backstop is always wired so a
// classifier failure can never sink a run.
func New(p Params) *Predictor {
	timeout := p.WeatherTimeout
	if timeout <= 0 {
		timeout = DefaultWeatherTimeout
	}
	parallel := p.MaxParallel
	if parallel <= 0 {
		parallel = -1 // errgroup: no limit
	}

	return &Predictor{
		catalog:        p.Catalog,
		classifier:     p.Classifier,
		scorerName:     p.ScorerName,
		fallback:       model.Heuristic{},
		weather:        p.Weather,
		alerts:         p.Alerts,
		logger:         p.Logger,
		metrics:        p.Metrics,
		weatherTimeout: timeout,
		maxParallel:    parallel,
	}
}

// CheckReadiness reports whether the predictor can serve traffic.
func (p *Predictor) CheckReadiness(_ context.Context) error {
	if p.catalog == nil || p.catalog.Count() == 0 {
		return errors.New("region catalog is empty")
	}
	return nil
}

// PredictRegion runs the full pipeline for one region. Cell-level failures
// degrade (synthetic weather, heuristic scores) and never fail the run;
// only an unknown region or a malformed grid is an error.
func (p *Predictor) PredictRegion(ctx context.Context, regionID string) (*Result, error) {
	region, err := p.catalog.Get(regionID)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	runID := uuid.NewString()
	logger := p.logger.With("run_id", runID, "region", region.ID)

	cells, err := domain.Partition(region)
	if err != nil {
		return nil, err
	}

	// Fan out one prediction per cell; recombine by index so output order
	// matches partition order regardless of completion order.
	predictions := make([]domain.CellPrediction, len(cells))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.maxParallel)
	for i, cell := range cells {
		g.Go(func() error {
			predictions[i] = p.predictCell(gctx, logger, cell)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	summary, err := domain.Aggregate(region, predictions)
	if err != nil {
		return nil, err
	}

	drivers, assessment := domain.Explain(summary, domain.AverageObservation(predictions))

	result := &Result{
		RunID:       runID,
		Region:      region,
		Cells:       predictions,
		Summary:     summary,
		Drivers:     drivers,
		Assessment:  assessment,
		GeneratedAt: domain.Now(),
	}

	duration := time.Since(start)
	p.metrics.PredictionsTotal.WithLabelValues(region.ID).Inc()
	p.metrics.PredictionDuration.Observe(duration.Seconds())
	logger.Info("prediction complete",
		"alert_level", summary.AlertLevel,
		"average_risk", summary.AverageRisk,
		"max_risk", summary.MaxRisk,
		"live_cells", summary.DataSource.Real,
		"duration_ms", duration.Milliseconds(),
	)

	p.publishAlert(ctx, result)

	return result, nil
}

// ExplainCell predicts a single cell and explains it against its own
// conditions rather than the region average.
func (p *Predictor) ExplainCell(ctx context.Context, regionID, cellID string) (*CellDetail, error) {
	region, err := p.catalog.Get(regionID)
	if err != nil {
		return nil, err
	}

	cells, err := domain.Partition(region)
	if err != nil {
		return nil, err
	}

	for _, cell := range cells {
		if cell.ID != cellID {
			continue
		}

		logger := p.logger.With("region", region.ID, "cell", cellID)
		prediction := p.predictCell(ctx, logger, cell)

		detail := &CellDetail{
			Prediction: prediction,
			Drivers: domain.BuildDrivers(
				prediction.Weather.Temperature,
				prediction.Weather.Humidity,
				prediction.Weather.WindSpeed,
				prediction.Weather.Rainfall,
			),
		}
		if ranker, ok := p.classifier.(FeatureRanker); ok {
			detail.TopFeatures = ranker.TopFeatures(5)
		}
		return detail, nil
	}

	return nil, fmt.Errorf("%w: %q in region %q", domain.ErrUnknownCell, cellID, regionID)
}

// predictCell produces the scored prediction for one cell. Never fails:
// weather degrades to synthetic, scoring degrades to the heuristic.
func (p *Predictor) predictCell(ctx context.Context, logger *slog.Logger, cell domain.GridCell) domain.CellPrediction {
	obs := p.observe(ctx, logger, cell)
	idx := domain.CalculateIndices(obs)
	features := domain.Features(obs, idx)
	probability, scoredBy := p.score(logger, cell.ID, features)

	score := round1(probability * 100)
	return domain.CellPrediction{
		Cell:        cell,
		Weather:     obs,
		Indices:     idx,
		Probability: probability,
		RiskScore:   score,
		Category:    domain.CategoryForScore(score),
		ScoredBy:    scoredBy,
	}
}

func (p *Predictor) observe(ctx context.Context, logger *slog.Logger, cell domain.GridCell) domain.Observation {
	if p.weather == nil {
		p.metrics.CellObservations.WithLabelValues(string(domain.SourceSynthetic)).Inc()
		return domain.SyntheticObservation(cell)
	}

	fetchCtx, cancel := context.WithTimeout(ctx, p.weatherTimeout)
	defer cancel()

	obs, err := p.weather.Fetch(fetchCtx, cell)
	if err != nil {
		logger.Warn("live weather unavailable, using synthetic", "cell", cell.ID, "error", err)
		p.metrics.WeatherFallbacks.Inc()
		p.metrics.CellObservations.WithLabelValues(string(domain.SourceSynthetic)).Inc()
		return domain.SyntheticObservation(cell)
	}

	p.metrics.CellObservations.WithLabelValues(string(domain.SourceLive)).Inc()
	return obs
}

func (p *Predictor) score(logger *slog.Logger, cellID string, features []float64) (float64, string) {
	probability, err := p.classifier.PredictProbability(features)
	if err == nil {
		return probability, p.scorerName
	}

	logger.Warn("classifier failed, scoring with heuristic", "cell", cellID, "error", err)
	p.metrics.ClassifierFallbacks.Inc()

	probability, err = p.fallback.PredictProbability(features)
	if err != nil {
		return 0, domain.ScoredByHeuristic
	}
	return probability, domain.ScoredByHeuristic
}

func (p *Predictor) publishAlert(ctx context.Context, result *Result) {
	if p.alerts == nil || result.Summary.AlertLevel == domain.AlertNormal {
		return
	}

	alert := Alert{
		RunID:       result.RunID,
		RegionID:    result.Region.ID,
		AlertLevel:  result.Summary.AlertLevel,
		Summary:     result.Summary,
		Assessment:  result.Assessment,
		Drivers:     result.Drivers,
		GeneratedAt: result.GeneratedAt,
	}
	if err := p.alerts.PublishAlert(ctx, alert); err != nil {
		p.logger.Warn("alert publish failed", "region", result.Region.ID, "run_id", result.RunID, "error", err)
		p.metrics.AlertErrors.Inc()
		return
	}
	p.metrics.AlertsPublished.Inc()
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
