package pipeline_test

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberwatch/fire-risk-service/internal/domain"
	"github.com/emberwatch/fire-risk-service/internal/model"
	"github.com/emberwatch/fire-risk-service/internal/observability"
	"github.com/emberwatch/fire-risk-service/internal/pipeline"
)

// --- mocks ---

type stubWeather struct {
	obs      domain.Observation
	err      error
	calls    atomic.Int64
	inFlight atomic.Int64
	peak     atomic.Int64
}

func (s *stubWeather) Fetch(_ context.Context, _ domain.GridCell) (domain.Observation, error) {
	s.calls.Add(1)

	cur := s.inFlight.Add(1)
	for {
		peak := s.peak.Load()
		if cur <= peak || s.peak.CompareAndSwap(peak, cur) {
			break
		}
	}
	time.Sleep(2 * time.Millisecond)
	s.inFlight.Add(-1)

	if s.err != nil {
		return domain.Observation{}, s.err
	}
	return s.obs, nil
}

type stubClassifier struct {
	probability float64
	err         error
}

func (s stubClassifier) PredictProbability(_ []float64) (float64, error) {
	if s.err != nil {
		return 0, s.err
	}
	return s.probability, nil
}

type recordingSink struct {
	mu     sync.Mutex
	alerts []pipeline.Alert
	err    error
}

func (r *recordingSink) PublishAlert(_ context.Context, alert pipeline.Alert) error {
	if r.err != nil {
		return r.err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alerts = append(r.alerts, alert)
	return nil
}

func (r *recordingSink) published() []pipeline.Alert {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]pipeline.Alert(nil), r.alerts...)
}

func newTestMetrics() *observability.Metrics {
	// Use a fresh registry to avoid "already registered" panics in tests.
	return observability.NewMetricsForTesting()
}

func newTestPredictor(t *testing.T, params pipeline.Params) *pipeline.Predictor {
	t.Helper()
	if params.Catalog == nil {
		catalog, err := domain.NewCatalog(domain.BuiltinRegions())
		require.NoError(t, err)
		params.Catalog = catalog
	}
	if params.Classifier == nil {
		params.Classifier = model.Heuristic{}
	}
	if params.ScorerName == "" {
		params.ScorerName = domain.ScoredByHeuristic
	}
	if params.Logger == nil {
		params.Logger = slog.Default()
	}
	if params.Metrics == nil {
		params.Metrics = newTestMetrics()
	}
	return pipeline.New(params)
}

func freezeClock(t *testing.T) time.Time {
	t.Helper()
	at := time.Date(2024, time.August, 14, 12, 0, 0, 0, time.UTC)
	domain.SetClock(clockwork.NewFakeClockAt(at))
	t.Cleanup(func() {
		domain.SetClock(nil)
	})
	return at
}

// --- tests ---

func TestPredictor_PredictRegion_SyntheticOnly(t *testing.T) {
	at := freezeClock(t)
	p := newTestPredictor(t, pipeline.Params{})

	result, err := p.PredictRegion(context.Background(), "california")
	require.NoError(t, err)

	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, "california", result.Region.ID)
	assert.True(t, result.GeneratedAt.Equal(at))

	require.Len(t, result.Cells, 12)
	assert.Equal(t, "california_grid_0_0", result.Cells[0].Cell.ID)
	assert.Equal(t, "california_grid_2_3", result.Cells[11].Cell.ID)
	for _, cell := range result.Cells {
		assert.Equal(t, domain.SourceSynthetic, cell.Weather.Source)
		assert.Equal(t, domain.ScoredByHeuristic, cell.ScoredBy)
		assert.GreaterOrEqual(t, cell.RiskScore, 0.0)
		assert.LessOrEqual(t, cell.RiskScore, 100.0)
	}

	assert.Equal(t, 12, result.Summary.TotalCells)
	assert.Equal(t, 0, result.Summary.DataSource.Real)
	assert.Equal(t, 12, result.Summary.DataSource.Synthetic)
	assert.NotEmpty(t, result.Drivers)
	assert.NotEmpty(t, result.Assessment.Text)
}

func TestPredictor_PredictRegion_Deterministic(t *testing.T) {
	freezeClock(t)
	p := newTestPredictor(t, pipeline.Params{})

	first, err := p.PredictRegion(context.Background(), "amazon")
	require.NoError(t, err)
	second, err := p.PredictRegion(context.Background(), "amazon")
	require.NoError(t, err)

	// Run ids differ; everything derived from the region must not.
	assert.NotEqual(t, first.RunID, second.RunID)
	if diff := cmp.Diff(first.Cells, second.Cells); diff != "" {
		t.Fatalf("cell predictions changed between runs (-first +second):\n%s", diff)
	}
	assert.Equal(t, first.Summary, second.Summary)
}

func TestPredictor_PredictRegion_HighRiskEscalatesAlert(t *testing.T) {
	sink := &recordingSink{}
	p := newTestPredictor(t, pipeline.Params{
		Classifier: stubClassifier{probability: 0.9},
		ScorerName: domain.ScoredByModel,
		Alerts:     sink,
	})

	result, err := p.PredictRegion(context.Background(), "australia")
	require.NoError(t, err)

	assert.Equal(t, 12, result.Summary.HighCount)
	assert.Equal(t, domain.AlertCritical, result.Summary.AlertLevel)
	assert.Equal(t, domain.RiskHigh, result.Assessment.Level)
	assert.Contains(t, result.Assessment.Text, "12 of 12")

	alerts := sink.published()
	require.Len(t, alerts, 1)
	assert.Equal(t, result.RunID, alerts[0].RunID)
	assert.Equal(t, "australia", alerts[0].RegionID)
	assert.Equal(t, domain.AlertCritical, alerts[0].AlertLevel)
}

func TestPredictor_PredictRegion_NormalRunSkipsAlert(t *testing.T) {
	sink := &recordingSink{}
	p := newTestPredictor(t, pipeline.Params{
		Classifier: stubClassifier{probability: 0.1},
		ScorerName: domain.ScoredByModel,
		Alerts:     sink,
	})

	result, err := p.PredictRegion(context.Background(), "amazon")
	require.NoError(t, err)

	assert.Equal(t, domain.AlertNormal, result.Summary.AlertLevel)
	assert.Equal(t, 12, result.Summary.LowCount)
	assert.Empty(t, sink.published())
}

func TestPredictor_PredictRegion_AlertFailureAbsorbed(t *testing.T) {
	sink := &recordingSink{err: errors.New("broker unreachable")}
	p := newTestPredictor(t, pipeline.Params{
		Classifier: stubClassifier{probability: 0.9},
		ScorerName: domain.ScoredByModel,
		Alerts:     sink,
	})

	result, err := p.PredictRegion(context.Background(), "amazon")
	require.NoError(t, err)
	assert.Equal(t, domain.AlertCritical, result.Summary.AlertLevel)
	assert.Empty(t, sink.published())
}

func TestPredictor_PredictRegion_LiveWeather(t *testing.T) {
	weather := &stubWeather{obs: domain.Observation{
		Temperature: 22.0,
		Humidity:    55.0,
		WindSpeed:   10.0,
		Rainfall:    0.0,
		Description: "clear sky",
		Source:      domain.SourceLive,
		ObservedAt:  time.Date(2024, time.August, 14, 11, 55, 0, 0, time.UTC),
	}}
	p := newTestPredictor(t, pipeline.Params{
		Classifier: stubClassifier{probability: 0.5},
		ScorerName: domain.ScoredByModel,
		Weather:    weather,
	})

	result, err := p.PredictRegion(context.Background(), "mediterranean")
	require.NoError(t, err)

	assert.Equal(t, int64(12), weather.calls.Load())
	assert.Equal(t, 12, result.Summary.DataSource.Real)
	assert.Equal(t, 0, result.Summary.DataSource.Synthetic)
	for _, cell := range result.Cells {
		assert.Equal(t, domain.SourceLive, cell.Weather.Source)
		assert.Equal(t, domain.ScoredByModel, cell.ScoredBy)
		assert.InEpsilon(t, 50.0, cell.RiskScore, 0.0001)
	}
}

func TestPredictor_PredictRegion_WeatherFallback(t *testing.T) {
	weather := &stubWeather{err: errors.New("upstream 503")}
	p := newTestPredictor(t, pipeline.Params{Weather: weather})

	result, err := p.PredictRegion(context.Background(), "california")
	require.NoError(t, err)

	assert.Equal(t, int64(12), weather.calls.Load())
	assert.Equal(t, 0, result.Summary.DataSource.Real)
	assert.Equal(t, 12, result.Summary.DataSource.Synthetic)
	for _, cell := range result.Cells {
		assert.Equal(t, domain.SourceSynthetic, cell.Weather.Source)
	}
}

func TestPredictor_PredictRegion_ClassifierFallback(t *testing.T) {
	p := newTestPredictor(t, pipeline.Params{
		Classifier: stubClassifier{err: errors.New("model poisoned")},
		ScorerName: domain.ScoredByModel,
	})

	result, err := p.PredictRegion(context.Background(), "california")
	require.NoError(t, err)

	for _, cell := range result.Cells {
		assert.Equal(t, domain.ScoredByHeuristic, cell.ScoredBy)
		assert.GreaterOrEqual(t, cell.RiskScore, 0.0)
		assert.LessOrEqual(t, cell.RiskScore, 100.0)
	}
}

func TestPredictor_PredictRegion_BoundedParallelism(t *testing.T) {
	weather := &stubWeather{obs: domain.Observation{
		Temperature: 20.0,
		Humidity:    50.0,
		Source:      domain.SourceLive,
	}}
	p := newTestPredictor(t, pipeline.Params{
		Weather:     weather,
		MaxParallel: 3,
	})

	_, err := p.PredictRegion(context.Background(), "amazon")
	require.NoError(t, err)

	assert.Equal(t, int64(12), weather.calls.Load())
	assert.LessOrEqual(t, weather.peak.Load(), int64(3))
}

func TestPredictor_PredictRegion_UnknownRegion(t *testing.T) {
	p := newTestPredictor(t, pipeline.Params{})

	_, err := p.PredictRegion(context.Background(), "atlantis")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnknownRegion)
}

func TestPredictor_ExplainCell(t *testing.T) {
	freezeClock(t)
	p := newTestPredictor(t, pipeline.Params{})

	detail, err := p.ExplainCell(context.Background(), "california", "california_grid_1_2")
	require.NoError(t, err)

	assert.Equal(t, "california_grid_1_2", detail.Prediction.Cell.ID)
	assert.Equal(t, 1, detail.Prediction.Cell.Row)
	assert.Equal(t, 2, detail.Prediction.Cell.Col)
	assert.NotEmpty(t, detail.Drivers)

	// The heuristic reports its fixed importance ranking.
	assert.Equal(t, []string{"FWI", "Temperature", "Rain", "Ws", "RH"}, detail.TopFeatures)
}

func TestPredictor_ExplainCell_RankerOptional(t *testing.T) {
	p := newTestPredictor(t, pipeline.Params{
		Classifier: stubClassifier{probability: 0.4},
		ScorerName: domain.ScoredByModel,
	})

	detail, err := p.ExplainCell(context.Background(), "amazon", "amazon_grid_0_0")
	require.NoError(t, err)
	assert.Empty(t, detail.TopFeatures)
}

func TestPredictor_ExplainCell_UnknownCell(t *testing.T) {
	p := newTestPredictor(t, pipeline.Params{})

	_, err := p.ExplainCell(context.Background(), "california", "california_grid_9_9")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnknownCell)

	_, err = p.ExplainCell(context.Background(), "atlantis", "atlantis_grid_0_0")
	assert.ErrorIs(t, err, domain.ErrUnknownRegion)
}

func TestPredictor_CheckReadiness(t *testing.T) {
	p := newTestPredictor(t, pipeline.Params{})
	assert.NoError(t, p.CheckReadiness(context.Background()))

	empty := pipeline.New(pipeline.Params{
		Classifier: model.Heuristic{},
		Logger:     slog.Default(),
		Metrics:    newTestMetrics(),
	})
	assert.Error(t, empty.CheckReadiness(context.Background()))
}
