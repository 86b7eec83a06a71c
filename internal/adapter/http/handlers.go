package http

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/couchcryptid/climate-risk-service/internal/domain"
	"github.com/couchcryptid/climate-risk-service/internal/schema"
	"github.com/couchcryptid/climate-risk-service/internal/village"
)

const maxBodyBytes = 64 << 10

type indexResponse struct {
	Index        float64     `json:"index"`
	IndexDisplay string      `json:"index_display"`
	Band         domain.Band `json:"band"`
	Label        string      `json:"label"`
}

func newIndexResponse(r domain.VulnerabilityResult) indexResponse {
	return indexResponse{
		Index:        r.Index,
		IndexDisplay: domain.FormatIndex(r.Index),
		Band:         r.Band,
		Label:        r.Band.Label(),
	}
}

type adjustedResponse struct {
	indexResponse
	AdjustedHazard float64       `json:"adjusted_hazard"`
	Base           indexResponse `json:"base"`
}

type floodResponse struct {
	Prediction string `json:"prediction"`
}

type riskResponse struct {
	Risk string `json:"risk"`
}

type referenceResponse struct {
	Village  string                     `json:"village"`
	Region   string                     `json:"region"`
	Geo      domain.Geo                 `json:"geo"`
	Input    domain.VulnerabilityInput  `json:"input"`
	Drivers  domain.AdjustedHazardInput `json:"drivers"`
	Result   indexResponse              `json:"result"`
	Adjusted adjustedResponse           `json:"adjusted"`
}

type adjustedBody struct {
	domain.VulnerabilityInput
	domain.AdjustedHazardInput
}

// decode reads the body, validates it against kind, and unmarshals it into v.
func (s *Server) decode(r *http.Request, kind schema.Kind, v any) error {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		return fmt.Errorf("%w: read body: %v", ErrInvalidRequest, err)
	}
	if len(data) > maxBodyBytes {
		return fmt.Errorf("%w: body exceeds %d bytes", ErrInvalidRequest, maxBodyBytes)
	}
	if err := s.opts.Validator.Validate(kind, data); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return nil
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	var in domain.VulnerabilityInput
	if err := s.decode(r, schema.Factors, &in); err != nil {
		s.reject(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newIndexResponse(domain.Score(in)))
}

func (s *Server) handleAdjusted(w http.ResponseWriter, r *http.Request) {
	var body adjustedBody
	if err := s.decode(r, schema.AdjustedFactors, &body); err != nil {
		s.reject(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, adjusted(body.VulnerabilityInput, body.AdjustedHazardInput))
}

func (s *Server) handleFloodPredict(w http.ResponseWriter, r *http.Request) {
	if s.opts.Predictor == nil {
		writeError(w, ErrNoPredictor)
		return
	}
	var drivers domain.AdjustedHazardInput
	if err := s.decode(r, schema.FloodDrivers, &drivers); err != nil {
		s.reject(w, r, err)
		return
	}
	prediction, err := s.opts.Predictor.PredictFlood(r.Context(), drivers)
	if err != nil {
		s.logger.Error("flood prediction failed", "error", err, "request_id", RequestIDFrom(r.Context()))
		writeError(w, fmt.Errorf("flood prediction: %w", err))
		return
	}
	writeJSON(w, http.StatusOK, floodResponse{Prediction: prediction})
}

func (s *Server) handleFloodRisk(w http.ResponseWriter, r *http.Request) {
	if s.opts.RiskPredictor == nil {
		writeError(w, ErrNoRiskModel)
		return
	}
	var in domain.FloodRiskInput
	if err := s.decode(r, schema.FloodRisk, &in); err != nil {
		s.reject(w, r, err)
		return
	}
	risk, err := s.opts.RiskPredictor.PredictRisk(r.Context(), in)
	if err != nil {
		s.logger.Error("flood risk prediction failed", "error", err, "request_id", RequestIDFrom(r.Context()))
		writeError(w, fmt.Errorf("flood risk prediction: %w", err))
		return
	}
	writeJSON(w, http.StatusOK, riskResponse{Risk: risk})
}

func (s *Server) handleReference(w http.ResponseWriter, _ *http.Request) {
	p := village.ReferenceProfile()
	resp := referenceResponse{
		Village: p.Name,
		Region:  p.Region,
		Geo:     domain.Geo{Lat: p.Lat, Lon: p.Lon},
		Input:   p.Input,
		Result:  newIndexResponse(domain.Score(p.Input)),
	}
	if p.Drivers != nil {
		resp.Drivers = *p.Drivers
		resp.Adjusted = adjusted(p.Input, *p.Drivers)
	}
	writeJSON(w, http.StatusOK, resp)
}

func adjusted(in domain.VulnerabilityInput, d domain.AdjustedHazardInput) adjustedResponse {
	hazard, result := domain.ScoreAdjusted(in, d)
	return adjustedResponse{
		indexResponse:  newIndexResponse(result),
		AdjustedHazard: hazard,
		Base:           newIndexResponse(domain.Score(in)),
	}
}

func (s *Server) reject(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Debug("request rejected", "path", r.URL.Path, "error", err, "request_id", RequestIDFrom(r.Context()))
	writeError(w, err)
}
