package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/climate-risk-service/internal/domain"
	"github.com/couchcryptid/climate-risk-service/internal/schema"
)

// AssessmentTransformer implements Transformer: it validates the payload
// against the request schema, scores it, and applies the optional flood
// prediction and geocoding enrichments.
type AssessmentTransformer struct {
	validator *schema.Validator
	predictor domain.FloodPredictor
	geocoder  domain.Geocoder
	logger    *slog.Logger
}

// NewTransformer creates an AssessmentTransformer. A nil predictor or
// geocoder disables that enrichment.
func NewTransformer(validator *schema.Validator, predictor domain.FloodPredictor, geocoder domain.Geocoder, logger *slog.Logger) *AssessmentTransformer {
	return &AssessmentTransformer{
		validator: validator,
		predictor: predictor,
		geocoder:  geocoder,
		logger:    logger,
	}
}

func (t *AssessmentTransformer) Transform(ctx context.Context, raw domain.RawEvent) (domain.Assessment, error) {
	if err := t.validator.Validate(schema.AssessmentRequest, raw.Value); err != nil {
		return domain.Assessment{}, fmt.Errorf("offset %d: %w", raw.Offset, err)
	}

	req, err := domain.ParseRawEvent(raw)
	if err != nil {
		return domain.Assessment{}, err
	}

	a := domain.BuildAssessment(req)
	a = domain.EnrichWithFloodPrediction(ctx, a, t.predictor, t.logger)
	a = domain.EnrichWithGeocoding(ctx, a, t.geocoder, t.logger)
	a.RawPayload = raw.Value

	return a, nil
}
