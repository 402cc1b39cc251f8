package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// prediction service.
type Metrics struct {
	PredictionsTotal   *prometheus.CounterVec // labels: region
	PredictionDuration prometheus.Histogram
	CellObservations   *prometheus.CounterVec // labels: source={live,synthetic}
	WeatherFallbacks   prometheus.Counter

	// Live weather adapter metrics.
	WeatherRequests    *prometheus.CounterVec // labels: outcome={ok,error}
	WeatherAPIDuration prometheus.Histogram
	WeatherCache       *prometheus.CounterVec // labels: result={hit,miss,expired}

	// Classifier metrics.
	ClassifierFallbacks prometheus.Counter
	ModelLoaded         prometheus.Gauge

	// Alert publishing metrics.
	AlertsPublished prometheus.Counter
	AlertErrors     prometheus.Counter
}

// NewMetrics creates and registers all service metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		PredictionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fire_risk",
			Name:      "predictions_total",
			Help:      "Completed prediction runs by region.",
		}, []string{"region"}),
		PredictionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "fire_risk",
			Name:      "prediction_duration_seconds",
			Help:      "Duration of a complete region prediction run.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}),
		CellObservations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fire_risk",
			Name:      "cell_observations_total",
			Help:      "Cell weather observations by provenance.",
		}, []string{"source"}),
		WeatherFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fire_risk",
			Name:      "weather_fallbacks_total",
			Help:      "Live weather fetches that degraded to synthetic observations.",
		}),
		WeatherRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fire_risk",
			Name:      "weather_requests_total",
			Help:      "Live weather API requests by outcome.",
		}, []string{"outcome"}),
		WeatherAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "fire_risk",
			Name:      "weather_api_duration_seconds",
			Help:      "Live weather API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		WeatherCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fire_risk",
			Name:      "weather_cache_total",
			Help:      "Weather cache lookups by result.",
		}, []string{"result"}),
		ClassifierFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fire_risk",
			Name:      "classifier_fallbacks_total",
			Help:      "Cell scores that fell back to the heuristic classifier.",
		}),
		ModelLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "fire_risk",
			Name:      "model_loaded",
			Help:      "1 when a trained model bundle is loaded, 0 when running on the heuristic.",
		}),
		AlertsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fire_risk",
			Name:      "alerts_published_total",
			Help:      "Escalation alerts delivered to the alert topic.",
		}),
		AlertErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fire_risk",
			Name:      "alert_errors_total",
			Help:      "Escalation alerts that failed to publish.",
		}),
	}

	prometheus.MustRegister(
		m.PredictionsTotal,
		m.PredictionDuration,
		m.CellObservations,
		m.WeatherFallbacks,
		m.WeatherRequests,
		m.WeatherAPIDuration,
		m.WeatherCache,
		m.ClassifierFallbacks,
		m.ModelLoaded,
		m.AlertsPublished,
		m.AlertErrors,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		PredictionsTotal:    prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "fire_risk", Name: "predictions_total"}, []string{"region"}),
		PredictionDuration:  prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "fire_risk", Name: "prediction_duration_seconds"}),
		CellObservations:    prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "fire_risk", Name: "cell_observations_total"}, []string{"source"}),
		WeatherFallbacks:    prometheus.NewCounter(prometheus.CounterOpts{Namespace: "fire_risk", Name: "weather_fallbacks_total"}),
		WeatherRequests:     prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "fire_risk", Name: "weather_requests_total"}, []string{"outcome"}),
		WeatherAPIDuration:  prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "fire_risk", Name: "weather_api_duration_seconds"}),
		WeatherCache:        prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "fire_risk", Name: "weather_cache_total"}, []string{"result"}),
		ClassifierFallbacks: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "fire_risk", Name: "classifier_fallbacks_total"}),
		ModelLoaded:         prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "fire_risk", Name: "model_loaded"}),
		AlertsPublished:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: "fire_risk", Name: "alerts_published_total"}),
		AlertErrors:         prometheus.NewCounter(prometheus.CounterOpts{Namespace: "fire_risk", Name: "alert_errors_total"}),
	}
}
