package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Band is the ordinal severity class of an IRID value.
type Band string

const (
	BandLow    Band = "low"
	BandMedium Band = "medium"
	BandHigh   Band = "high"
)

// Band thresholds, lower-inclusive.
const (
	MediumThreshold = 0.4
	HighThreshold   = 0.6
)

// Adjusted hazard weights and driver scales.
const (
	RainfallScaleMM      = 500.0
	RainfallWeight       = 0.3
	DeforestationScale   = 100.0
	DeforestationWeight  = 0.2
	indexDisplayDecimals = 3
)

// Rank returns an integer rank for comparison (Low=1, High=3, unknown=0).
func (b Band) Rank() int {
	switch b {
	case BandLow:
		return 1
	case BandMedium:
		return 2
	case BandHigh:
		return 3
	default:
		return 0
	}
}

func (b Band) String() string {
	return string(b)
}

// Label returns the display label used on village reports.
func (b Band) Label() string {
	switch b {
	case BandLow:
		return "Kerentanan Rendah"
	case BandMedium:
		return "Kerentanan Sedang"
	case BandHigh:
		return "Kerentanan Tinggi"
	default:
		return ""
	}
}

// ParseBand parses a band name or display label case-insensitively.
func ParseBand(s string) (Band, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low", "rendah", "kerentanan rendah":
		return BandLow, nil
	case "medium", "moderate", "sedang", "kerentanan sedang":
		return BandMedium, nil
	case "high", "tinggi", "kerentanan tinggi":
		return BandHigh, nil
	default:
		return "", fmt.Errorf("invalid band: %q", s)
	}
}

// VulnerabilityInput holds the four IRID risk factors, each nominally in [0, 1].
type VulnerabilityInput struct {
	Exposure         float64 `json:"exposure" yaml:"exposure"`
	Sensitivity      float64 `json:"sensitivity" yaml:"sensitivity"`
	AdaptiveCapacity float64 `json:"adaptive_capacity" yaml:"adaptive_capacity"`
	Hazard           float64 `json:"hazard" yaml:"hazard"`
}

// AdjustedHazardInput holds the environmental drivers of the flash-flood case study.
type AdjustedHazardInput struct {
	RainfallMM       float64 `json:"rainfall_mm" yaml:"rainfall_mm"`
	DeforestationPct float64 `json:"deforestation_pct" yaml:"deforestation_pct"`
}

// VulnerabilityResult is a computed index and its band.
type VulnerabilityResult struct {
	Index float64 `json:"index"`
	Band  Band    `json:"band"`
}

// ComputeIndex returns (exposure + sensitivity - adaptiveCapacity) * hazard.
// Inputs are not range-checked and the result is not clamped.
func ComputeIndex(exposure, sensitivity, adaptiveCapacity, hazard float64) float64 {
	return (exposure + sensitivity - adaptiveCapacity) * hazard
}

// Classify maps an index to its band. It is total over float64; NaN is Low.
func Classify(index float64) Band {
	switch {
	case index >= HighThreshold:
		return BandHigh
	case index >= MediumThreshold:
		return BandMedium
	default:
		return BandLow
	}
}

// ComputeAdjustedHazard raises hazard by the rainfall and deforestation drivers.
// The result is not clamped to [0, 1].
func ComputeAdjustedHazard(hazard, rainfallMM, deforestationPct float64) float64 {
	return hazard +
		(rainfallMM/RainfallScaleMM)*RainfallWeight +
		(deforestationPct/DeforestationScale)*DeforestationWeight
}

// Score computes and classifies the index for in.
func Score(in VulnerabilityInput) VulnerabilityResult {
	idx := ComputeIndex(in.Exposure, in.Sensitivity, in.AdaptiveCapacity, in.Hazard)
	return VulnerabilityResult{Index: idx, Band: Classify(idx)}
}

// ScoreAdjusted rescores in with its hazard replaced by the adjusted hazard.
// It returns the adjusted hazard alongside the result.
func ScoreAdjusted(in VulnerabilityInput, drivers AdjustedHazardInput) (float64, VulnerabilityResult) {
	hazard := ComputeAdjustedHazard(in.Hazard, drivers.RainfallMM, drivers.DeforestationPct)
	in.Hazard = hazard
	return hazard, Score(in)
}

// FormatIndex renders an index with three decimal places, rounding half away
// from zero.
func FormatIndex(index float64) string {
	if math.IsNaN(index) || math.IsInf(index, 0) {
		return strconv.FormatFloat(index, 'f', -1, 64)
	}
	return decimal.NewFromFloat(index).StringFixed(indexDisplayDecimals)
}
