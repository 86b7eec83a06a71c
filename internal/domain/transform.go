package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ErrMissingVillage is returned when a request has no village name.
var ErrMissingVillage = errors.New("village name is required")

// assessmentNamespace seeds UUIDv5 assessment IDs.
var assessmentNamespace = uuid.MustParse("4b1e2a2c-6a53-4f6e-9d1f-3c0b7a9e51d2")

// ParseRawEvent deserializes a RawEvent's value into an AssessmentRequest.
// Range validation is the caller's concern; see the schema package.
func ParseRawEvent(raw RawEvent) (AssessmentRequest, error) {
	var req AssessmentRequest
	if err := json.Unmarshal(raw.Value, &req); err != nil {
		return AssessmentRequest{}, fmt.Errorf("parse raw event: %w", err)
	}
	req.Village = strings.TrimSpace(req.Village)
	req.Region = strings.TrimSpace(req.Region)
	if req.Village == "" {
		return AssessmentRequest{}, fmt.Errorf("parse raw event: %w", ErrMissingVillage)
	}
	if req.RequestedAt == nil && !raw.Timestamp.IsZero() {
		ts := raw.Timestamp.UTC()
		req.RequestedAt = &ts
	}
	return req, nil
}

// BuildAssessment scores a request and, when drivers are present, runs the
// adjusted-hazard case study on it.
func BuildAssessment(req AssessmentRequest) Assessment {
	in := req.Input()
	result := Score(in)

	a := Assessment{
		ID:           generateID(req),
		Village:      req.Village,
		Region:       req.Region,
		Geo:          Geo{Lat: req.Lat, Lon: req.Lon},
		Input:        in,
		Result:       result,
		IndexDisplay: FormatIndex(result.Index),
		Label:        result.Band.Label(),
		ProcessedAt:  clock.Now().UTC(),
	}
	if req.RequestedAt != nil {
		a.RequestedAt = req.RequestedAt.UTC()
	}

	if d := req.Drivers(); d != nil {
		hazard, adj := ScoreAdjusted(in, *d)
		a.Adjusted = &AdjustedAssessment{
			Drivers:      *d,
			Hazard:       hazard,
			Result:       adj,
			IndexDisplay: FormatIndex(adj.Index),
			Label:        adj.Band.Label(),
		}
	}
	return a
}

// generateID produces a deterministic ID from the request's key fields.
// The request timestamp is excluded so re-sent requests collapse to one ID.
func generateID(req AssessmentRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s|%s|%.4f|%.4f|%g|%g|%g|%g",
		strings.ToLower(req.Village), strings.ToLower(req.Region),
		req.Lat, req.Lon,
		req.Exposure, req.Sensitivity, req.AdaptiveCapacity, req.Hazard)
	if d := req.Drivers(); d != nil {
		fmt.Fprintf(&b, "|%g|%g", d.RainfallMM, d.DeforestationPct)
	}
	return uuid.NewSHA1(assessmentNamespace, []byte(b.String())).String()
}
