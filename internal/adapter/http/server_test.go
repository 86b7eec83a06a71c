package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	httpadapter "github.com/couchcryptid/climate-risk-service/internal/adapter/http"
	"github.com/couchcryptid/climate-risk-service/internal/domain"
	"github.com/couchcryptid/climate-risk-service/internal/observability"
	"github.com/couchcryptid/climate-risk-service/internal/schema"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

type fixedPredictor struct {
	prediction string
	err        error
}

func (f fixedPredictor) PredictFlood(context.Context, domain.AdjustedHazardInput) (string, error) {
	return f.prediction, f.err
}

func newTestServer(t *testing.T, readyErr error, predictor domain.FloodPredictor) (*httpadapter.Server, *observability.Metrics) {
	t.Helper()
	metrics := observability.NewMetricsForTesting()
	srv := httpadapter.NewServer(":0", &mockReadiness{err: readyErr}, httpadapter.Options{
		Validator: schema.MustNew(),
		Predictor: predictor,
		Metrics:   metrics,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return srv, metrics
}

func do(srv http.Handler, method, path, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	srv.ServeHTTP(rec, httptest.NewRequest(method, path, r))
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

const referenceFactors = `{"exposure":0.086957,"sensitivity":0.106448,"adaptive_capacity":0.283833,"hazard":0.002609}`

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t, nil, nil)
	assert.Equal(t, http.StatusOK, do(srv, http.MethodGet, "/healthz", "").Code)
}

func TestReadyz(t *testing.T) {
	ready, _ := newTestServer(t, nil, nil)
	assert.Equal(t, http.StatusOK, do(ready, http.MethodGet, "/readyz", "").Code)

	notReady, _ := newTestServer(t, errors.New("not ready yet"), nil)
	assert.Equal(t, http.StatusServiceUnavailable, do(notReady, http.MethodGet, "/readyz", "").Code)
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, nil, nil)
	rec := do(srv, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestIndex_Reference(t *testing.T) {
	srv, metrics := newTestServer(t, nil, nil)
	rec := do(srv, http.MethodPost, "/v1/irid", referenceFactors)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decodeBody(t, rec)
	assert.InDelta(t, -0.000235926652, body["index"], 1e-9)
	assert.Equal(t, "0.000", body["index_display"])
	assert.Equal(t, "low", body["band"])
	assert.Equal(t, "Kerentanan Rendah", body["label"])
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.APIRequests.WithLabelValues("irid", "200")))
}

func TestIndex_Bands(t *testing.T) {
	srv, _ := newTestServer(t, nil, nil)

	tests := []struct {
		body string
		band string
	}{
		{`{"exposure":0.5,"sensitivity":0.5,"adaptive_capacity":0.2,"hazard":1}`, "high"},
		{`{"exposure":0.4,"sensitivity":0.5,"adaptive_capacity":0.3,"hazard":0.75}`, "medium"},
		{`{"exposure":0,"sensitivity":0,"adaptive_capacity":0,"hazard":1}`, "low"},
	}
	for _, tt := range tests {
		rec := do(srv, http.MethodPost, "/v1/irid", tt.body)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, tt.band, decodeBody(t, rec)["band"], tt.body)
	}
}

func TestIndex_RejectsInvalidBodies(t *testing.T) {
	srv, metrics := newTestServer(t, nil, nil)

	tests := map[string]string{
		"malformed":     `{"exposure":`,
		"out of range":  `{"exposure":1.5,"sensitivity":0.1,"adaptive_capacity":0.1,"hazard":0.1}`,
		"missing field": `{"exposure":0.1,"sensitivity":0.1,"hazard":0.1}`,
		"unknown field": `{"exposure":0.1,"sensitivity":0.1,"adaptive_capacity":0.1,"hazard":0.1,"x":1}`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			rec := do(srv, http.MethodPost, "/v1/irid", body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.NotEmpty(t, decodeBody(t, rec)["error"])
		})
	}
	assert.Equal(t, float64(len(tests)), testutil.ToFloat64(metrics.APIRequests.WithLabelValues("irid", "400")))
}

func TestAdjusted_Reference(t *testing.T) {
	srv, _ := newTestServer(t, nil, nil)
	body := `{"exposure":0.086957,"sensitivity":0.106448,"adaptive_capacity":0.283833,"hazard":0.002609,"rainfall_mm":300,"deforestation_pct":30}`

	rec := do(srv, http.MethodPost, "/v1/irid/adjusted", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	got := decodeBody(t, rec)
	assert.InDelta(t, 0.242609, got["adjusted_hazard"], 1e-9)
	assert.InDelta(t, -0.021938646652, got["index"], 1e-9)
	assert.Equal(t, "-0.022", got["index_display"])
	assert.Equal(t, "low", got["band"])

	base, ok := got["base"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "0.000", base["index_display"])
}

func TestAdjusted_RaisesBand(t *testing.T) {
	srv, _ := newTestServer(t, nil, nil)
	body := `{"exposure":0.6,"sensitivity":0.5,"adaptive_capacity":0.1,"hazard":0.3,"rainfall_mm":500,"deforestation_pct":100}`

	got := decodeBody(t, do(srv, http.MethodPost, "/v1/irid/adjusted", body))
	assert.Equal(t, "high", got["band"])
	assert.Equal(t, "low", got["base"].(map[string]any)["band"])
}

func TestAdjusted_RequiresDrivers(t *testing.T) {
	srv, _ := newTestServer(t, nil, nil)
	rec := do(srv, http.MethodPost, "/v1/irid/adjusted", referenceFactors)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFloodPredict(t *testing.T) {
	srv, _ := newTestServer(t, nil, fixedPredictor{prediction: domain.FloodExpected})
	rec := do(srv, http.MethodPost, "/v1/flood/predict", `{"rainfall_mm":420,"deforestation_pct":65}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "flood", decodeBody(t, rec)["prediction"])

	rec = do(srv, http.MethodPost, "/v1/flood/predict", `{"rainfall_mm":900,"deforestation_pct":65}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFloodPredict_Disabled(t *testing.T) {
	srv, _ := newTestServer(t, nil, nil)
	rec := do(srv, http.MethodPost, "/v1/flood/predict", `{"rainfall_mm":420,"deforestation_pct":65}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, decodeBody(t, rec)["error"], "not enabled")
}

func TestFloodPredict_ModelError(t *testing.T) {
	srv, _ := newTestServer(t, nil, fixedPredictor{err: errors.New("boom")})
	rec := do(srv, http.MethodPost, "/v1/flood/predict", `{"rainfall_mm":420,"deforestation_pct":65}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

type fixedRiskPredictor struct {
	risk string
	got  *domain.FloodRiskInput
}

func (f fixedRiskPredictor) PredictRisk(_ context.Context, in domain.FloodRiskInput) (string, error) {
	if f.got != nil {
		*f.got = in
	}
	return f.risk, nil
}

func newRiskServer(risk domain.RiskPredictor) *httpadapter.Server {
	return httpadapter.NewServer(":0", &mockReadiness{}, httpadapter.Options{
		Validator:     schema.MustNew(),
		RiskPredictor: risk,
		Metrics:       observability.NewMetricsForTesting(),
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestFloodRisk(t *testing.T) {
	var got domain.FloodRiskInput
	srv := newRiskServer(fixedRiskPredictor{risk: "High", got: &got})

	rec := do(srv, http.MethodPost, "/v1/flood/risk", `{"rainfall_mm":180,"soil_moisture":0.9,"elevation_m":15}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "High", decodeBody(t, rec)["risk"])
	assert.Equal(t, domain.FloodRiskInput{RainfallMM: 180, SoilMoisture: 0.9, ElevationM: 15}, got)

	rec = do(srv, http.MethodPost, "/v1/flood/risk", `{"rainfall_mm":180,"soil_moisture":1.9,"elevation_m":15}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFloodRisk_Disabled(t *testing.T) {
	srv := newRiskServer(nil)
	rec := do(srv, http.MethodPost, "/v1/flood/risk", `{"rainfall_mm":100,"soil_moisture":0.5,"elevation_m":200}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, decodeBody(t, rec)["error"], "risk model is not enabled")
}

func TestVillageReference(t *testing.T) {
	srv, _ := newTestServer(t, nil, nil)
	rec := do(srv, http.MethodGet, "/v1/villages/reference", "")
	require.Equal(t, http.StatusOK, rec.Code)

	got := decodeBody(t, rec)
	assert.Equal(t, "Lembur Sawah", got["village"])
	assert.Equal(t, "low", got["result"].(map[string]any)["band"])
	assert.InDelta(t, 0.242609, got["adjusted"].(map[string]any)["adjusted_hazard"], 1e-9)
}

func TestRequestID(t *testing.T) {
	srv, _ := newTestServer(t, nil, nil)

	rec := do(srv, http.MethodGet, "/healthz", "")
	assert.Len(t, rec.Header().Get(httpadapter.HeaderRequestID), 36, "generated UUID")

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(httpadapter.HeaderRequestID, "survey-batch-7")
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Equal(t, "survey-batch-7", rec.Header().Get(httpadapter.HeaderRequestID))
}

func TestMethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(t, nil, nil)
	assert.Equal(t, http.StatusMethodNotAllowed, do(srv, http.MethodGet, "/v1/irid", "").Code)
}
