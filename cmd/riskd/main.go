// Command riskd consumes village assessment requests from Kafka, scores them,
// and publishes the assessments. It also serves the scoring HTTP API.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/climate-risk-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/climate-risk-service/internal/adapter/kafka"
	"github.com/couchcryptid/climate-risk-service/internal/adapter/mapbox"
	"github.com/couchcryptid/climate-risk-service/internal/classifier"
	"github.com/couchcryptid/climate-risk-service/internal/config"
	"github.com/couchcryptid/climate-risk-service/internal/domain"
	"github.com/couchcryptid/climate-risk-service/internal/observability"
	"github.com/couchcryptid/climate-risk-service/internal/pipeline"
	"github.com/couchcryptid/climate-risk-service/internal/schema"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	if err := run(cfg, logger, metrics); err != nil {
		logger.Error("service stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) error {
	validator, err := schema.New(domain.DefaultBounds())
	if err != nil {
		return err
	}

	// Feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN.
	var geocoder domain.Geocoder
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, cfg.MapboxRPS, metrics, logger)
		geocoder = mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize, metrics)
		metrics.GeocodeEnabled.Set(1)
		logger.Info("mapbox geocoding enabled",
			"cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout, "rps", cfg.MapboxRPS)
	} else {
		logger.Info("mapbox geocoding disabled")
	}

	// A typed nil would defeat the nil checks downstream.
	var (
		predictor     domain.FloodPredictor
		riskPredictor domain.RiskPredictor
	)
	if cfg.FloodModelEnabled {
		pcfg := classifier.DefaultPredictorConfig()
		pcfg.Trees = cfg.FloodModelTrees
		pcfg.Samples = cfg.FloodModelSamples
		pcfg.Seed = cfg.FloodModelSeed
		p, err := classifier.NewFloodPredictor(pcfg, logger)
		if err != nil {
			return err
		}
		predictor = p

		rcfg := classifier.DefaultRiskPredictorConfig()
		rcfg.Trees = cfg.FloodModelTrees
		rcfg.Seed = cfg.FloodModelSeed
		rp, err := classifier.NewRiskPredictor(rcfg, logger)
		if err != nil {
			return err
		}
		riskPredictor = rp
	} else {
		logger.Info("flood model disabled")
	}

	reader := kafkaadapter.NewReader(cfg, logger)
	writer := kafkaadapter.NewWriter(cfg, logger)
	defer func() {
		if err := reader.Close(); err != nil {
			logger.Error("kafka reader close error", "error", err)
		}
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}()

	transformer := pipeline.NewTransformer(validator, predictor, geocoder, logger)
	p := pipeline.New(reader, transformer, writer, logger, metrics, cfg.BatchSize)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, httpadapter.Options{
		Validator:     validator,
		Predictor:     predictor,
		RiskPredictor: riskPredictor,
		Metrics:       metrics,
	}, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http server listening", "addr", cfg.HTTPAddr)
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return p.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("shutdown complete")
	return nil
}
