package domain

import (
	"errors"
	"fmt"
	"math"
)

// ErrOutOfRange is returned when a host-supplied value falls outside its declared bound.
var ErrOutOfRange = errors.New("value out of range")

// Bound declares the accepted range and default of one input parameter.
type Bound struct {
	Min     float64
	Max     float64
	Default float64
}

// Contains reports whether v lies in [Min, Max]. NaN is never contained.
func (b Bound) Contains(v float64) bool {
	return !math.IsNaN(v) && v >= b.Min && v <= b.Max
}

// InputBounds declares the ranges the hosts enforce before calling the scorer.
// Defaults are the Desa Lembur Sawah reference values.
type InputBounds struct {
	Exposure         Bound
	Sensitivity      Bound
	AdaptiveCapacity Bound
	Hazard           Bound
	RainfallMM       Bound
	DeforestationPct Bound
}

// DefaultBounds returns the bounds of the village dashboard inputs.
func DefaultBounds() InputBounds {
	return InputBounds{
		Exposure:         Bound{Min: 0, Max: 1, Default: 0.086957},
		Sensitivity:      Bound{Min: 0, Max: 1, Default: 0.106448},
		AdaptiveCapacity: Bound{Min: 0, Max: 1, Default: 0.283833},
		Hazard:           Bound{Min: 0, Max: 1, Default: 0.002609},
		RainfallMM:       Bound{Min: 0, Max: RainfallScaleMM, Default: 300},
		DeforestationPct: Bound{Min: 0, Max: DeforestationScale, Default: 30},
	}
}

// DefaultInput returns the default factor values.
func (b InputBounds) DefaultInput() VulnerabilityInput {
	return VulnerabilityInput{
		Exposure:         b.Exposure.Default,
		Sensitivity:      b.Sensitivity.Default,
		AdaptiveCapacity: b.AdaptiveCapacity.Default,
		Hazard:           b.Hazard.Default,
	}
}

// DefaultDrivers returns the default rainfall and deforestation values.
func (b InputBounds) DefaultDrivers() AdjustedHazardInput {
	return AdjustedHazardInput{
		RainfallMM:       b.RainfallMM.Default,
		DeforestationPct: b.DeforestationPct.Default,
	}
}

// Check returns an error wrapping ErrOutOfRange for the first factor outside its bound.
func (b InputBounds) Check(in VulnerabilityInput) error {
	return checkAll(
		field{"exposure", in.Exposure, b.Exposure},
		field{"sensitivity", in.Sensitivity, b.Sensitivity},
		field{"adaptive_capacity", in.AdaptiveCapacity, b.AdaptiveCapacity},
		field{"hazard", in.Hazard, b.Hazard},
	)
}

// CheckDrivers returns an error wrapping ErrOutOfRange for the first driver outside its bound.
func (b InputBounds) CheckDrivers(d AdjustedHazardInput) error {
	return checkAll(
		field{"rainfall_mm", d.RainfallMM, b.RainfallMM},
		field{"deforestation_pct", d.DeforestationPct, b.DeforestationPct},
	)
}

type field struct {
	name  string
	value float64
	bound Bound
}

func checkAll(fields ...field) error {
	for _, f := range fields {
		if !f.bound.Contains(f.value) {
			return fmt.Errorf("%s=%g not in [%g, %g]: %w", f.name, f.value, f.bound.Min, f.bound.Max, ErrOutOfRange)
		}
	}
	return nil
}

// FloodRiskBounds declares the accepted flood-risk model inputs.
type FloodRiskBounds struct {
	RainfallMM   Bound
	SoilMoisture Bound
	ElevationM   Bound
}

// DefaultFloodRiskBounds returns the ranges and defaults of the risk form.
func DefaultFloodRiskBounds() FloodRiskBounds {
	return FloodRiskBounds{
		RainfallMM:   Bound{Min: 0, Max: 300, Default: 100},
		SoilMoisture: Bound{Min: 0, Max: 1, Default: 0.5},
		ElevationM:   Bound{Min: 0, Max: 1000, Default: 200},
	}
}

// Default returns the default site conditions.
func (b FloodRiskBounds) Default() FloodRiskInput {
	return FloodRiskInput{
		RainfallMM:   b.RainfallMM.Default,
		SoilMoisture: b.SoilMoisture.Default,
		ElevationM:   b.ElevationM.Default,
	}
}

// Check returns an error wrapping ErrOutOfRange for the first input outside its bound.
func (b FloodRiskBounds) Check(in FloodRiskInput) error {
	return checkAll(
		field{"rainfall_mm", in.RainfallMM, b.RainfallMM},
		field{"soil_moisture", in.SoilMoisture, b.SoilMoisture},
		field{"elevation_m", in.ElevationM, b.ElevationM},
	)
}
