package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/couchcryptid/climate-risk-service/internal/classifier"
	"github.com/couchcryptid/climate-risk-service/internal/simulation"
	"github.com/couchcryptid/climate-risk-service/internal/village"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestNewDashboard_Deterministic(t *testing.T) {
	p := village.ReferenceProfile()
	a := NewDashboard(p, simulation.RCP45, 7)
	b := NewDashboard(p, simulation.RCP45, 7)

	assert.Equal(t, a, b)
	assert.Len(t, a.RiskMap, DefaultMapPoints)
	assert.Len(t, a.Sample, DefaultSamples)
	assert.Equal(t, DefaultRiskSamples, a.FloodRisk.Len())
	assert.Equal(t, []string{"rainfall_mm", "soil_moisture", "elevation_m"}, a.FloodRisk.Columns)
	assert.Equal(t, "Sukabumi", a.Trend.Region)
	assert.Len(t, a.Trend.Points, (simulation.LastYear-simulation.FirstYear)/simulation.YearStep+1)
}

func TestNewDashboard_RegionFallsBackToVillage(t *testing.T) {
	p := village.ReferenceProfile()
	p.Region = ""
	assert.Equal(t, p.Name, NewDashboard(p, simulation.RCP85, 1).Trend.Region)
}

func TestRenderDashboard(t *testing.T) {
	var buf bytes.Buffer
	d := NewDashboard(village.ReferenceProfile(), simulation.RCP85, 42)
	require.NoError(t, RenderDashboard(&buf, d))

	html := buf.String()
	assert.True(t, strings.HasPrefix(strings.TrimSpace(html), "<!DOCTYPE html>") || strings.Contains(html, "<html"))
	for _, want := range []string{
		"Risiko Iklim Desa Lembur Sawah",
		"Proyeksi Perubahan Suhu (RCP 8.5)",
		"Proyeksi Perubahan Curah Hujan",
		"Peta Risiko Perubahan Iklim",
		"Simulasi 3D IRID",
		"Distribusi Risiko Banjir",
		"Kelembapan Tanah",
		"Kerentanan Rendah",
		"scatter3D",
	} {
		assert.Contains(t, html, want)
	}
}

func TestFloodRiskScatter_SeriesPerLabel(t *testing.T) {
	d := NewDashboard(village.ReferenceProfile(), simulation.RCP45, 42)
	sc := floodRiskScatter(d)

	require.Len(t, sc.MultiSeries, 3)
	total := 0
	for i, want := range []string{classifier.RiskLow, classifier.RiskMedium, classifier.RiskHigh} {
		assert.Equal(t, want, sc.MultiSeries[i].Name)
		data, ok := sc.MultiSeries[i].Data.([]opts.Chart3DData)
		require.True(t, ok)
		total += len(data)
	}
	assert.Equal(t, DefaultRiskSamples, total)
}

func TestRound3(t *testing.T) {
	assert.Equal(t, 1.235, round3(1.23456))
	assert.Equal(t, -0.022, round3(-0.021938646652))
}

func TestWriteExcel(t *testing.T) {
	ds := classifier.FloodRiskDataset(25, 42)

	var buf bytes.Buffer
	require.NoError(t, WriteExcel(&buf, ds))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })

	assert.Equal(t, []string{SheetName}, f.GetSheetList())

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, ds.Len()+1)
	assert.Equal(t, []string{"Curah Hujan (mm)", "Kelembapan Tanah", "Elevasi (m)", "Risiko"}, rows[0])

	for i, row := range rows[1:] {
		require.Len(t, row, 4)
		assert.Equal(t, ds.Labels[i], row[3])
	}
}

func TestWriteExcel_Empty(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, WriteExcel(&buf, classifier.Dataset{}))
	assert.Zero(t, buf.Len())
}

func TestHeaders_UnknownColumnKeepsKey(t *testing.T) {
	ds := classifier.Dataset{Columns: []string{"deforestation_pct", "slope_deg"}}
	assert.Equal(t, []string{"Deforestasi (%)", "slope_deg", "Risiko"}, Headers(ds))
}
