// Package schema validates inbound JSON against schemas derived from the
// declared input bounds. It is the boundary that keeps out-of-range factors
// away from the scorer, which itself accepts any float.
package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/couchcryptid/climate-risk-service/internal/domain"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid payload")

// Kind selects the payload shape being validated.
type Kind string

const (
	// AssessmentRequest is the Kafka source payload.
	AssessmentRequest Kind = "assessment-request"
	// Factors is the four-factor body of the index endpoint.
	Factors Kind = "factors"
	// AdjustedFactors is the four factors plus both drivers.
	AdjustedFactors Kind = "adjusted-factors"
	// FloodDrivers is rainfall and deforestation only.
	FloodDrivers Kind = "flood-drivers"
	// FloodRisk is rainfall, soil moisture and elevation.
	FloodRisk Kind = "flood-risk"
)

// Validator validates payloads of every Kind.
type Validator struct {
	schemas map[Kind]*jsonschema.Schema
}

// New compiles the schemas for the given bounds.
func New(bounds domain.InputBounds) (*Validator, error) {
	docs := documents(bounds)
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020

	v := &Validator{schemas: make(map[Kind]*jsonschema.Schema, len(docs))}
	for kind, doc := range docs {
		raw, err := json.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("marshal %s schema: %w", kind, err)
		}
		url := "mem://" + string(kind) + ".json"
		if err := c.AddResource(url, bytes.NewReader(raw)); err != nil {
			return nil, fmt.Errorf("add %s schema: %w", kind, err)
		}
		sch, err := c.Compile(url)
		if err != nil {
			return nil, fmt.Errorf("compile %s schema: %w", kind, err)
		}
		v.schemas[kind] = sch
	}
	return v, nil
}

// MustNew is New for the default bounds, panicking on error.
func MustNew() *Validator {
	v, err := New(domain.DefaultBounds())
	if err != nil {
		panic(err)
	}
	return v
}

// Validate checks data against the schema of kind.
func (v *Validator) Validate(kind Kind, data []byte) error {
	sch, ok := v.schemas[kind]
	if !ok {
		return fmt.Errorf("unknown schema kind %q", kind)
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := sch.Validate(doc); err != nil {
		var verr *jsonschema.ValidationError
		if errors.As(err, &verr) {
			return fmt.Errorf("%w: %s", ErrInvalid, describe(verr))
		}
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// describe returns the innermost validation message with its JSON pointer.
func describe(e *jsonschema.ValidationError) string {
	for len(e.Causes) > 0 {
		e = e.Causes[0]
	}
	loc := e.InstanceLocation
	if loc == "" {
		loc = "/"
	}
	return loc + ": " + e.Message
}

type object = map[string]any

func number(b domain.Bound) object {
	return object{"type": "number", "minimum": b.Min, "maximum": b.Max}
}

func documents(b domain.InputBounds) map[Kind]object {
	factors := object{
		"exposure":          number(b.Exposure),
		"sensitivity":       number(b.Sensitivity),
		"adaptive_capacity": number(b.AdaptiveCapacity),
		"hazard":            number(b.Hazard),
	}
	drivers := object{
		"rainfall_mm":       number(b.RainfallMM),
		"deforestation_pct": number(b.DeforestationPct),
	}
	rb := domain.DefaultFloodRiskBounds()
	risk := object{
		"rainfall_mm":   number(rb.RainfallMM),
		"soil_moisture": number(rb.SoilMoisture),
		"elevation_m":   number(rb.ElevationM),
	}
	factorNames := []string{"exposure", "sensitivity", "adaptive_capacity", "hazard"}
	driverNames := []string{"rainfall_mm", "deforestation_pct"}

	request := merge(factors, drivers, object{
		"village":      object{"type": "string", "minLength": 1, "pattern": `\S`},
		"region":       object{"type": "string"},
		"lat":          object{"type": "number", "minimum": -90, "maximum": 90},
		"lon":          object{"type": "number", "minimum": -180, "maximum": 180},
		"requested_at": object{"type": "string"},
	})

	return map[Kind]object{
		AssessmentRequest: {
			"type":       "object",
			"required":   append([]string{"village"}, factorNames...),
			"properties": request,
		},
		Factors: {
			"type":                 "object",
			"required":             factorNames,
			"properties":           factors,
			"additionalProperties": false,
		},
		AdjustedFactors: {
			"type":                 "object",
			"required":             append(append([]string{}, factorNames...), driverNames...),
			"properties":           merge(factors, drivers),
			"additionalProperties": false,
		},
		FloodDrivers: {
			"type":                 "object",
			"required":             driverNames,
			"properties":           drivers,
			"additionalProperties": false,
		},
		FloodRisk: {
			"type":                 "object",
			"required":             []string{"rainfall_mm", "soil_moisture", "elevation_m"},
			"properties":           risk,
			"additionalProperties": false,
		},
	}
}

func merge(parts ...object) object {
	out := object{}
	for _, p := range parts {
		for k, v := range p {
			out[k] = v
		}
	}
	return out
}
