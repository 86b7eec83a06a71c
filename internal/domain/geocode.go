package domain

import (
	"context"
	"log/slog"
)

// Geo sources recorded on an assessment.
const (
	GeoSourceForward  = "forward"
	GeoSourceReverse  = "reverse"
	GeoSourceOriginal = "original"
	GeoSourceFailed   = "failed"
)

// EnrichWithGeocoding attempts to locate the assessed village.
// If geocoder is nil or geocoding fails, the assessment is returned with
// GeoSource set accordingly and its score untouched.
func EnrichWithGeocoding(ctx context.Context, a Assessment, geocoder Geocoder, logger *slog.Logger) Assessment {
	if geocoder == nil {
		return a
	}

	hasCoords := a.Geo.Lat != 0 || a.Geo.Lon != 0

	// Villages without coordinates are looked up by name.
	if !hasCoords && a.Village != "" {
		result, err := geocoder.ForwardGeocode(ctx, a.Village, a.Region)
		if err != nil {
			logger.Warn("forward geocoding failed",
				"assessment_id", a.ID,
				"village", a.Village,
				"region", a.Region,
				"error", err,
			)
			a.GeoSource = GeoSourceFailed
			return a
		}
		if result.Lat != 0 || result.Lon != 0 {
			a.Geo = Geo{Lat: result.Lat, Lon: result.Lon}
			a.FormattedAddress = result.FormattedAddress
			a.PlaceName = result.PlaceName
			a.GeoConfidence = result.Confidence
			a.GeoSource = GeoSourceForward
			return a
		}
		a.GeoSource = GeoSourceOriginal
		return a
	}

	if hasCoords {
		result, err := geocoder.ReverseGeocode(ctx, a.Geo.Lat, a.Geo.Lon)
		if err != nil {
			logger.Warn("reverse geocoding failed",
				"assessment_id", a.ID,
				"lat", a.Geo.Lat,
				"lon", a.Geo.Lon,
				"error", err,
			)
			a.GeoSource = GeoSourceFailed
			return a
		}
		if result.FormattedAddress != "" {
			a.FormattedAddress = result.FormattedAddress
			a.PlaceName = result.PlaceName
			a.GeoConfidence = result.Confidence
			a.GeoSource = GeoSourceReverse
			return a
		}
	}

	a.GeoSource = GeoSourceOriginal
	return a
}

// EnrichWithFloodPrediction attaches a flood prediction for assessments that
// carry environmental drivers. Prediction failures leave the field empty.
func EnrichWithFloodPrediction(ctx context.Context, a Assessment, predictor FloodPredictor, logger *slog.Logger) Assessment {
	if predictor == nil || a.Adjusted == nil {
		return a
	}
	prediction, err := predictor.PredictFlood(ctx, a.Adjusted.Drivers)
	if err != nil {
		logger.Warn("flood prediction failed",
			"assessment_id", a.ID,
			"rainfall_mm", a.Adjusted.Drivers.RainfallMM,
			"deforestation_pct", a.Adjusted.Drivers.DeforestationPct,
			"error", err,
		)
		return a
	}
	a.FloodPrediction = prediction
	return a
}
