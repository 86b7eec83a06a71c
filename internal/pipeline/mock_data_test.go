package pipeline_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/couchcryptid/climate-risk-service/internal/domain"
	"github.com/couchcryptid/climate-risk-service/internal/pipeline"
	"github.com/couchcryptid/climate-risk-service/internal/schema"
	"github.com/couchcryptid/climate-risk-service/internal/village"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadSampleProfiles(t *testing.T) []village.Profile {
	t.Helper()
	profiles, err := village.LoadProfiles(filepath.Join("..", "..", "data", "villages.yaml"))
	require.NoError(t, err)
	return profiles
}

func TestAssessmentTransformer_WithSampleVillages(t *testing.T) {
	tfm := pipeline.NewTransformer(schema.MustNew(), nil, nil, discardLogger())

	want := map[string]struct {
		band     domain.Band
		adjusted domain.Band // empty when the profile has no drivers
	}{
		"Lembur Sawah":  {domain.BandLow, domain.BandLow},
		"Cibadak":       {domain.BandHigh, ""},
		"Cikidang":      {domain.BandMedium, ""},
		"Pelabuhanratu": {domain.BandLow, domain.BandLow},
		"Cisolok":       {domain.BandLow, domain.BandHigh},
		"Simpenan":      {domain.BandHigh, ""},
	}

	profiles := loadSampleProfiles(t)
	require.Len(t, profiles, len(want))

	ids := make(map[string]bool, len(profiles))
	for _, p := range profiles {
		t.Run(p.Name, func(t *testing.T) {
			raw := makeRawEvent(t, p.Name, p.Request())
			got, err := tfm.Transform(context.Background(), raw)
			require.NoError(t, err)

			exp, ok := want[p.Name]
			require.True(t, ok, "unexpected profile %q", p.Name)

			assert.InDelta(t, domain.Score(p.Input).Index, got.Result.Index, 1e-12)
			assert.Equal(t, exp.band, got.Result.Band)
			assert.Equal(t, exp.band.Label(), got.Label)
			assert.Equal(t, domain.FormatIndex(got.Result.Index), got.IndexDisplay)

			if exp.adjusted == "" {
				assert.Nil(t, got.Adjusted)
				assert.Equal(t, exp.band, got.Band())
			} else {
				require.NotNil(t, got.Adjusted)
				assert.Equal(t, exp.adjusted, got.Adjusted.Result.Band)
				assert.Equal(t, exp.adjusted, got.Band())
				assert.InDelta(t, domain.ComputeAdjustedHazard(p.Input.Hazard, p.Drivers.RainfallMM, p.Drivers.DeforestationPct), got.Adjusted.Hazard, 1e-12)
			}

			assert.False(t, ids[got.ID], "duplicate ID %s", got.ID)
			ids[got.ID] = true
		})
	}
}
