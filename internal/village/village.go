// Package village loads the village profiles scored by the CLI.
package village

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/couchcryptid/climate-risk-service/internal/domain"
	"gopkg.in/yaml.v3"
)

// Profile is a named village with its risk factors and, optionally, the
// drivers of the flash-flood case study.
type Profile struct {
	Name    string                      `yaml:"name"`
	Region  string                      `yaml:"region,omitempty"`
	Lat     float64                     `yaml:"lat,omitempty"`
	Lon     float64                     `yaml:"lon,omitempty"`
	Input   domain.VulnerabilityInput   `yaml:"factors"`
	Drivers *domain.AdjustedHazardInput `yaml:"drivers,omitempty"`
}

// Reference village coordinates.
const (
	ReferenceName   = "Lembur Sawah"
	ReferenceRegion = "Sukabumi"
	ReferenceLat    = -7.0501
	ReferenceLon    = 106.7224
)

// ReferenceProfile returns Desa Lembur Sawah with the dashboard defaults.
func ReferenceProfile() Profile {
	b := domain.DefaultBounds()
	d := b.DefaultDrivers()
	return Profile{
		Name:    ReferenceName,
		Region:  ReferenceRegion,
		Lat:     ReferenceLat,
		Lon:     ReferenceLon,
		Input:   b.DefaultInput(),
		Drivers: &d,
	}
}

// Request converts the profile into an assessment request.
func (p Profile) Request() domain.AssessmentRequest {
	req := domain.AssessmentRequest{
		Village:          p.Name,
		Region:           p.Region,
		Lat:              p.Lat,
		Lon:              p.Lon,
		Exposure:         p.Input.Exposure,
		Sensitivity:      p.Input.Sensitivity,
		AdaptiveCapacity: p.Input.AdaptiveCapacity,
		Hazard:           p.Input.Hazard,
	}
	if p.Drivers != nil {
		rain, defo := p.Drivers.RainfallMM, p.Drivers.DeforestationPct
		req.RainfallMM = &rain
		req.DeforestationPct = &defo
	}
	return req
}

// Validate checks the profile against the declared input bounds.
func (p Profile) Validate(bounds domain.InputBounds) error {
	if strings.TrimSpace(p.Name) == "" {
		return domain.ErrMissingVillage
	}
	if err := bounds.Check(p.Input); err != nil {
		return fmt.Errorf("village %s: %w", p.Name, err)
	}
	if p.Drivers != nil {
		if err := bounds.CheckDrivers(*p.Drivers); err != nil {
			return fmt.Errorf("village %s: %w", p.Name, err)
		}
	}
	return nil
}

type file struct {
	Villages []Profile `yaml:"villages"`
}

// LoadProfiles reads a YAML document with a top-level "villages" list and
// validates every entry against the default bounds.
func LoadProfiles(path string) ([]Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profiles: %w", err)
	}
	return ParseProfiles(data)
}

// ParseProfiles decodes and validates a profiles document.
func ParseProfiles(data []byte) ([]Profile, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode profiles: %w", err)
	}
	if len(f.Villages) == 0 {
		return nil, errors.New("profiles document lists no villages")
	}

	bounds := domain.DefaultBounds()
	for i, p := range f.Villages {
		if err := p.Validate(bounds); err != nil {
			return nil, fmt.Errorf("profile %d: %w", i, err)
		}
	}
	return f.Villages, nil
}

// Find returns the profile whose name matches case-insensitively.
func Find(profiles []Profile, name string) (Profile, bool) {
	for _, p := range profiles {
		if strings.EqualFold(p.Name, name) {
			return p, true
		}
	}
	return Profile{}, false
}
