package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/climate-risk-service/internal/domain"
	"github.com/couchcryptid/climate-risk-service/internal/observability"
	"github.com/couchcryptid/climate-risk-service/internal/schema"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Sentinel errors mapped to HTTP status codes.
var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrNoPredictor    = errors.New("flood model is not enabled")
	ErrNoRiskModel    = errors.New("flood risk model is not enabled")
)

// Options configures the scoring API.
type Options struct {
	Validator     *schema.Validator
	// Predictor answers /v1/flood/predict. Nil disables the endpoint (503).
	Predictor     domain.FloodPredictor
	// RiskPredictor answers /v1/flood/risk. Nil disables the endpoint (503).
	RiskPredictor domain.RiskPredictor
	Metrics       *observability.Metrics
}

// Server exposes the scoring API alongside health, readiness, and metrics.
type Server struct {
	httpServer *http.Server
	opts       Options
	logger     *slog.Logger
}

// NewServer creates an HTTP server with the health routes and the /v1 scoring API.
func NewServer(addr string, ready sharedobs.ReadinessChecker, opts Options, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      requestID(logger, mux),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		opts:   opts,
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.Handle("POST /v1/irid", s.instrument("irid", s.handleIndex))
	mux.Handle("POST /v1/irid/adjusted", s.instrument("irid_adjusted", s.handleAdjusted))
	mux.Handle("POST /v1/flood/predict", s.instrument("flood_predict", s.handleFloodPredict))
	mux.Handle("POST /v1/flood/risk", s.instrument("flood_risk", s.handleFloodRisk))
	mux.Handle("GET /v1/villages/reference", s.instrument("village_reference", s.handleReference))

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // client went away
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ErrInvalidRequest):
		status = http.StatusBadRequest
	case errors.Is(err, ErrNoPredictor), errors.Is(err, ErrNoRiskModel):
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}
