package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/emberwatch/fire-risk-service/internal/adapter/httpapi"
	kafkaadapter "github.com/emberwatch/fire-risk-service/internal/adapter/kafka"
	"github.com/emberwatch/fire-risk-service/internal/adapter/openweather"
	"github.com/emberwatch/fire-risk-service/internal/config"
	"github.com/emberwatch/fire-risk-service/internal/domain"
	"github.com/emberwatch/fire-risk-service/internal/model"
	"github.com/emberwatch/fire-risk-service/internal/observability"
	"github.com/emberwatch/fire-risk-service/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	catalog, err := loadCatalog(cfg)
	if err != nil {
		logger.Error("failed to load region catalog", "error", err)
		os.Exit(1)
	}
	logger.Info("region catalog loaded", "regions", catalog.Count())

	// Load model artifacts; a missing or malformed bundle degrades to the
	// heuristic scorer rather than failing startup.
	var classifier domain.Classifier
	scorerName := domain.ScoredByHeuristic
	modelLoaded := false
	if bundle, err := model.Load(cfg.ModelDir); err != nil {
		logger.Warn("model unavailable, using heuristic scoring", "model_dir", cfg.ModelDir, "error", err)
		classifier = model.Heuristic{}
		metrics.ModelLoaded.Set(0)
	} else {
		classifier = bundle
		scorerName = domain.ScoredByModel
		modelLoaded = true
		metrics.ModelLoaded.Set(1)
		logger.Info("model loaded", "model_dir", cfg.ModelDir, "trees", bundle.TreeCount())
	}

	// Live weather is feature-flagged via OPENWEATHER_API_KEY / WEATHER_ENABLED.
	var weather domain.WeatherSource
	if cfg.WeatherEnabled {
		client := openweather.NewClient(cfg.OpenWeatherAPIKey, cfg.OpenWeatherTimeout, cfg.OpenWeatherRPS, logger, metrics)
		weather = openweather.NewCachedSource(client, cfg.WeatherCacheSize, cfg.WeatherCacheTTL, metrics)
		logger.Info("live weather enabled", "cache_size", cfg.WeatherCacheSize, "cache_ttl", cfg.WeatherCacheTTL)
	} else {
		logger.Info("live weather disabled, using synthetic observations")
	}

	// Alert publishing is feature-flagged via ALERTS_ENABLED.
	var alerts pipeline.AlertSink
	var publisher *kafkaadapter.AlertPublisher
	if cfg.AlertsEnabled {
		publisher = kafkaadapter.NewAlertPublisher(cfg, logger)
		alerts = publisher
		logger.Info("alert publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaAlertsTopic)
	} else {
		logger.Info("alert publishing disabled")
	}

	predictor := pipeline.New(pipeline.Params{
		Catalog:        catalog,
		Classifier:     classifier,
		ScorerName:     scorerName,
		Weather:        weather,
		Alerts:         alerts,
		Logger:         logger,
		Metrics:        metrics,
		WeatherTimeout: cfg.OpenWeatherTimeout,
		MaxParallel:    cfg.MaxParallelCells,
	})

	srv := httpapi.NewServer(httpapi.Params{
		Addr:           cfg.HTTPAddr,
		Catalog:        catalog,
		Predictor:      predictor,
		Ready:          predictor,
		ModelLoaded:    modelLoaded,
		PredictTimeout: cfg.PredictTimeout,
		Logger:         logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if publisher != nil {
		if err := publisher.Close(); err != nil {
			logger.Error("alert publisher close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}

func loadCatalog(cfg *config.Config) (*domain.Catalog, error) {
	if cfg.RegionsFile != "" {
		return domain.LoadCatalog(cfg.RegionsFile)
	}
	return domain.NewCatalog(domain.BuiltinRegions())
}
