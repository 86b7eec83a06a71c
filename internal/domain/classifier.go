package domain

import (
	"context"
	"errors"
)

// ErrNotFitted is returned by a Classifier asked to predict before Fit.
var ErrNotFitted = errors.New("classifier is not fitted")

// Classifier is a swappable supervised model. Implementations own their
// feature scaling; callers pass raw feature rows.
type Classifier interface {
	Fit(features [][]float64, labels []string) error
	Predict(features []float64) (string, error)
}

// FloodPredictor answers whether the given drivers are expected to flood.
// It returns FloodExpected or FloodNotExpected.
type FloodPredictor interface {
	PredictFlood(ctx context.Context, drivers AdjustedHazardInput) (string, error)
}

// FloodRiskInput holds the site conditions graded by the flood-risk model.
type FloodRiskInput struct {
	RainfallMM   float64 `json:"rainfall_mm"`
	SoilMoisture float64 `json:"soil_moisture"`
	ElevationM   float64 `json:"elevation_m"`
}

// RiskPredictor grades site conditions with one of the risk labels of its
// training set.
type RiskPredictor interface {
	PredictRisk(ctx context.Context, in FloodRiskInput) (string, error)
}
