package classifier

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/climate-risk-service/internal/domain"
)

// PredictorConfig controls how a predictor is trained.
type PredictorConfig struct {
	Trees        int
	Samples      int
	TestFraction float64
	Seed         uint64
}

// DefaultPredictorConfig mirrors the case-study simulator: 1000 samples,
// 20% held out, fixed seed.
func DefaultPredictorConfig() PredictorConfig {
	return PredictorConfig{Trees: DefaultTrees, Samples: 1000, TestFraction: 0.2, Seed: 42}
}

// DefaultRiskPredictorConfig mirrors the risk simulator: 500 samples, 30%
// held out.
func DefaultRiskPredictorConfig() PredictorConfig {
	return PredictorConfig{Trees: DefaultTrees, Samples: 500, TestFraction: 0.3, Seed: 42}
}

// trained is a fitted model with its held-out evaluation.
type trained struct {
	model  domain.Classifier
	report Report
}

func train(name string, model domain.Classifier, ds Dataset, cfg PredictorConfig, logger *slog.Logger) (trained, error) {
	tr, test, err := TrainTestSplit(ds, cfg.TestFraction, cfg.Seed)
	if err != nil {
		return trained{}, fmt.Errorf("split %s dataset: %w", name, err)
	}
	if err := model.Fit(tr.Features, tr.Labels); err != nil {
		return trained{}, fmt.Errorf("fit %s model: %w", name, err)
	}
	report, err := Evaluate(model, test)
	if err != nil {
		return trained{}, err
	}

	logger.Info(name+" model trained",
		"train_rows", tr.Len(),
		"test_rows", test.Len(),
		"accuracy", report.Accuracy,
	)
	return trained{model: model, report: report}, nil
}

// Report returns the held-out evaluation from training.
func (t trained) Report() Report {
	return t.report
}

// Predictor implements domain.FloodPredictor on a fitted classifier.
type Predictor struct {
	trained
}

var _ domain.FloodPredictor = (*Predictor)(nil)

// NewFloodPredictor trains a random forest on the synthetic flood-event
// dataset and evaluates it on the held-out split.
func NewFloodPredictor(cfg PredictorConfig, logger *slog.Logger) (*Predictor, error) {
	return TrainPredictor(NewForest(cfg.Trees), FloodEventDataset(cfg.Samples, cfg.Seed), cfg, logger)
}

// TrainPredictor fits model on a split of ds. ds must have the
// (rainfall_mm, deforestation_pct) columns of FloodEventDataset.
func TrainPredictor(model domain.Classifier, ds Dataset, cfg PredictorConfig, logger *slog.Logger) (*Predictor, error) {
	t, err := train("flood", model, ds, cfg, logger)
	if err != nil {
		return nil, err
	}
	return &Predictor{trained: t}, nil
}

// PredictFlood classifies the drivers as FloodExpected or FloodNotExpected.
func (p *Predictor) PredictFlood(ctx context.Context, drivers domain.AdjustedHazardInput) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return p.model.Predict([]float64{drivers.RainfallMM, drivers.DeforestationPct})
}

// RiskPredictor implements domain.RiskPredictor on a fitted classifier.
type RiskPredictor struct {
	trained
}

var _ domain.RiskPredictor = (*RiskPredictor)(nil)

// NewRiskPredictor trains a random forest on the synthetic flood-risk
// dataset and evaluates it on the held-out split.
func NewRiskPredictor(cfg PredictorConfig, logger *slog.Logger) (*RiskPredictor, error) {
	return TrainRiskPredictor(NewForest(cfg.Trees), FloodRiskDataset(cfg.Samples, cfg.Seed), cfg, logger)
}

// TrainRiskPredictor fits model on a split of ds. ds must have the
// (rainfall_mm, soil_moisture, elevation_m) columns of FloodRiskDataset.
func TrainRiskPredictor(model domain.Classifier, ds Dataset, cfg PredictorConfig, logger *slog.Logger) (*RiskPredictor, error) {
	t, err := train("flood risk", model, ds, cfg, logger)
	if err != nil {
		return nil, err
	}
	return &RiskPredictor{trained: t}, nil
}

// PredictRisk grades the site conditions as RiskLow, RiskMedium or RiskHigh.
func (p *RiskPredictor) PredictRisk(ctx context.Context, in domain.FloodRiskInput) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return p.model.Predict([]float64{in.RainfallMM, in.SoilMoisture, in.ElevationM})
}
