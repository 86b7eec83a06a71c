// Package simulation generates the synthetic climate series and risk samples
// drawn on the village dashboard. Nothing here is a climate model: every
// generator is seeded random sampling, reproducible for a given seed.
package simulation

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/couchcryptid/climate-risk-service/internal/domain"
)

// Scenario is an IPCC AR5 Representative Concentration Pathway.
type Scenario string

const (
	RCP26 Scenario = "RCP 2.6"
	RCP45 Scenario = "RCP 4.5"
	RCP60 Scenario = "RCP 6.0"
	RCP85 Scenario = "RCP 8.5"
)

// Scenarios lists the supported pathways in ascending forcing order.
func Scenarios() []Scenario {
	return []Scenario{RCP26, RCP45, RCP60, RCP85}
}

// ParseScenario accepts "RCP 4.5", "rcp4.5", "rcp45" and "4.5" style names.
func ParseScenario(s string) (Scenario, error) {
	norm := strings.ToLower(strings.NewReplacer(" ", "", ".", "", "_", "", "-", "").Replace(s))
	norm = strings.TrimPrefix(norm, "rcp")
	switch norm {
	case "26":
		return RCP26, nil
	case "45":
		return RCP45, nil
	case "60", "6":
		return RCP60, nil
	case "85":
		return RCP85, nil
	default:
		return "", fmt.Errorf("unknown scenario %q", s)
	}
}

// Projection years of the trend charts.
const (
	FirstYear = 2025
	LastYear  = 2095
	YearStep  = 5
)

// YearPoint is one projected year.
type YearPoint struct {
	Year            int     `json:"year"`
	TemperatureC    float64 `json:"temperature_anomaly_c"`
	PrecipitationMM float64 `json:"precipitation_mm"`
}

// Trend is a projected temperature and precipitation series for a region.
type Trend struct {
	Scenario Scenario    `json:"scenario"`
	Region   string      `json:"region"`
	Points   []YearPoint `json:"points"`
}

// Summary holds the series means shown under the trend charts.
type Summary struct {
	MeanTemperatureC    float64
	MeanPrecipitationMM float64
}

// Trends draws temperature anomaly ~ N(1.5, 0.5) and precipitation ~ N(100, 20)
// for every projection year. The scenario labels the series only.
func Trends(scenario Scenario, region string, seed uint64) Trend {
	r := newRand(seed)
	t := Trend{Scenario: scenario, Region: region}
	for year := FirstYear; year <= LastYear; year += YearStep {
		t.Points = append(t.Points, YearPoint{
			Year:            year,
			TemperatureC:    1.5 + 0.5*r.NormFloat64(),
			PrecipitationMM: 100 + 20*r.NormFloat64(),
		})
	}
	return t
}

// Summary returns the means of the series. An empty trend summarizes to zero.
func (t Trend) Summary() Summary {
	if len(t.Points) == 0 {
		return Summary{}
	}
	var s Summary
	for _, p := range t.Points {
		s.MeanTemperatureC += p.TemperatureC
		s.MeanPrecipitationMM += p.PrecipitationMM
	}
	n := float64(len(t.Points))
	s.MeanTemperatureC /= n
	s.MeanPrecipitationMM /= n
	return s
}

// MapPoint is one marker of the risk map.
type MapPoint struct {
	Lat  float64     `json:"lat"`
	Lon  float64     `json:"lon"`
	Band domain.Band `json:"band"`
}

// RiskMapSpanDeg is the width of the box sampled around the map centre.
const RiskMapSpanDeg = 0.3

// RiskMap scatters n points uniformly in a RiskMapSpanDeg box centred on
// center, each with a uniformly random band.
func RiskMap(center domain.Geo, n int, seed uint64) []MapPoint {
	r := newRand(seed)
	bands := []domain.Band{domain.BandLow, domain.BandMedium, domain.BandHigh}
	half := RiskMapSpanDeg / 2
	out := make([]MapPoint, n)
	for i := range out {
		out[i] = MapPoint{
			Lat:  center.Lat - half + r.Float64()*RiskMapSpanDeg,
			Lon:  center.Lon - half + r.Float64()*RiskMapSpanDeg,
			Band: bands[r.IntN(len(bands))],
		}
	}
	return out
}

// IRIDPoint is a sampled factor quadruple with its score.
type IRIDPoint struct {
	Input  domain.VulnerabilityInput  `json:"input"`
	Result domain.VulnerabilityResult `json:"result"`
}

// IRIDSample draws n uniform factor quadruples in [0, 1) and scores them.
func IRIDSample(n int, seed uint64) []IRIDPoint {
	r := newRand(seed)
	out := make([]IRIDPoint, n)
	for i := range out {
		in := domain.VulnerabilityInput{
			Exposure:         r.Float64(),
			Sensitivity:      r.Float64(),
			AdaptiveCapacity: r.Float64(),
			Hazard:           r.Float64(),
		}
		out[i] = IRIDPoint{Input: in, Result: domain.Score(in)}
	}
	return out
}

func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x2545f4914f6cdd1d))
}
