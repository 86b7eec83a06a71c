package domain

import (
	"context"
	"time"
)

// AssessmentRequest is the flat JSON payload published to the source topic
// and accepted by the HTTP API. Zero coordinates mean "unknown".
type AssessmentRequest struct {
	Village          string     `json:"village"`
	Region           string     `json:"region,omitempty"` // kabupaten or province, used for geocoding
	Lat              float64    `json:"lat,omitempty"`
	Lon              float64    `json:"lon,omitempty"`
	Exposure         float64    `json:"exposure"`
	Sensitivity      float64    `json:"sensitivity"`
	AdaptiveCapacity float64    `json:"adaptive_capacity"`
	Hazard           float64    `json:"hazard"`
	RainfallMM       *float64   `json:"rainfall_mm,omitempty"`
	DeforestationPct *float64   `json:"deforestation_pct,omitempty"`
	RequestedAt      *time.Time `json:"requested_at,omitempty"`
}

// Input returns the request's risk factors.
func (r AssessmentRequest) Input() VulnerabilityInput {
	return VulnerabilityInput{
		Exposure:         r.Exposure,
		Sensitivity:      r.Sensitivity,
		AdaptiveCapacity: r.AdaptiveCapacity,
		Hazard:           r.Hazard,
	}
}

// Drivers returns the environmental drivers, or nil when the request has none.
// A request carrying only one driver treats the other as zero.
func (r AssessmentRequest) Drivers() *AdjustedHazardInput {
	if r.RainfallMM == nil && r.DeforestationPct == nil {
		return nil
	}
	var d AdjustedHazardInput
	if r.RainfallMM != nil {
		d.RainfallMM = *r.RainfallMM
	}
	if r.DeforestationPct != nil {
		d.DeforestationPct = *r.DeforestationPct
	}
	return &d
}

// RawEvent represents an unprocessed message from the source topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// Geo represents a WGS-84 latitude/longitude coordinate pair.
type Geo struct {
	Lat float64 `json:"lat,omitempty"`
	Lon float64 `json:"lon,omitempty"`
}

// AdjustedAssessment is the rescored result of the flash-flood case study.
type AdjustedAssessment struct {
	Drivers      AdjustedHazardInput `json:"drivers"`
	Hazard       float64             `json:"hazard"`
	Result       VulnerabilityResult `json:"result"`
	IndexDisplay string              `json:"index_display"`
	Label        string              `json:"label"`
}

// Flood prediction outcomes.
const (
	FloodExpected    = "flood"
	FloodNotExpected = "no_flood"
)

// Assessment is a scored village ready for the sink topic.
type Assessment struct {
	ID           string              `json:"id"`
	Village      string              `json:"village"`
	Region       string              `json:"region,omitempty"`
	Geo          Geo                 `json:"geo,omitzero"`
	Input        VulnerabilityInput  `json:"input"`
	Result       VulnerabilityResult `json:"result"`
	IndexDisplay string              `json:"index_display"`
	Label        string              `json:"label"`
	Adjusted     *AdjustedAssessment `json:"adjusted,omitempty"`

	FloodPrediction string `json:"flood_prediction,omitempty"` // FloodExpected, FloodNotExpected, or empty

	// Geocoding enrichment fields.
	FormattedAddress string  `json:"formatted_address,omitempty"`
	PlaceName        string  `json:"place_name,omitempty"`
	GeoConfidence    float64 `json:"geo_confidence,omitempty"`
	GeoSource        string  `json:"geo_source,omitempty"` // "forward", "reverse", "original", "failed"

	RequestedAt time.Time `json:"requested_at"`
	RawPayload  []byte    `json:"-"`
	ProcessedAt time.Time `json:"processed_at"`
}

// Band returns the band that drives alerting: the adjusted band when the
// case study was run, the base band otherwise.
func (a Assessment) Band() Band {
	if a.Adjusted != nil {
		return a.Adjusted.Result.Band
	}
	return a.Result.Band
}
