// Package report renders the village risk dashboard as a standalone HTML
// page and exports simulated datasets as Excel workbooks.
package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/couchcryptid/climate-risk-service/internal/classifier"
	"github.com/couchcryptid/climate-risk-service/internal/domain"
	"github.com/couchcryptid/climate-risk-service/internal/simulation"
	"github.com/couchcryptid/climate-risk-service/internal/village"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/shopspring/decimal"
)

const (
	colorLow    = "#22c55e"
	colorMedium = "#eab308"
	colorHigh   = "#ef4444"
	colorTemp   = "#f97316"
	colorRain   = "#38bdf8"
	colorMarker = "#1e3a8a"

	chartWidth  = "1100px"
	chartHeight = "420px"

	// DefaultMapPoints, DefaultSamples and DefaultRiskSamples size the
	// generated scatter layers.
	DefaultMapPoints   = 100
	DefaultSamples     = 100
	DefaultRiskSamples = 500
)

// Dashboard is everything drawn on the page.
type Dashboard struct {
	Village  village.Profile
	Scenario simulation.Scenario
	Trend    simulation.Trend
	RiskMap  []simulation.MapPoint
	Sample   []simulation.IRIDPoint

	// FloodRisk is the labelled (rainfall, soil moisture, elevation) set
	// the flood-risk model trains on.
	FloodRisk classifier.Dataset
}

// NewDashboard generates the synthetic layers for a village. The same seed
// always yields the same page.
func NewDashboard(p village.Profile, scenario simulation.Scenario, seed uint64) Dashboard {
	region := p.Region
	if region == "" {
		region = p.Name
	}
	return Dashboard{
		Village:  p,
		Scenario: scenario,
		Trend:    simulation.Trends(scenario, region, seed),
		RiskMap:  simulation.RiskMap(domain.Geo{Lat: p.Lat, Lon: p.Lon}, DefaultMapPoints, seed+1),
		Sample:   simulation.IRIDSample(DefaultSamples, seed+2),

		FloodRisk: classifier.FloodRiskDataset(DefaultRiskSamples, seed+3),
	}
}

// RenderDashboard writes the dashboard page to w.
func RenderDashboard(w io.Writer, d Dashboard) error {
	page := components.NewPage()
	page.PageTitle = fmt.Sprintf("Risiko Iklim Desa %s", d.Village.Name)
	page.SetLayout(components.PageFlexLayout)
	page.AddCharts(
		temperatureChart(d),
		precipitationChart(d),
		riskMapChart(d),
		iridScatter(d),
		floodRiskScatter(d),
	)
	if err := page.Render(w); err != nil {
		return fmt.Errorf("render dashboard: %w", err)
	}
	return nil
}

func initOpts() charts.GlobalOpts {
	return charts.WithInitializationOpts(opts.Initialization{Width: chartWidth, Height: chartHeight})
}

func years(t simulation.Trend) []string {
	out := make([]string, len(t.Points))
	for i, p := range t.Points {
		out[i] = strconv.Itoa(p.Year)
	}
	return out
}

func temperatureChart(d Dashboard) *charts.Line {
	sum := d.Trend.Summary()
	line := charts.NewLine()
	line.SetGlobalOptions(
		initOpts(),
		charts.WithTitleOpts(opts.Title{
			Title:    fmt.Sprintf("Proyeksi Perubahan Suhu (%s)", d.Scenario),
			Subtitle: fmt.Sprintf("Wilayah %s, rata-rata %.2f °C", d.Trend.Region, sum.MeanTemperatureC),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Tahun"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Anomali Suhu (°C)"}),
	)
	data := make([]opts.LineData, len(d.Trend.Points))
	for i, p := range d.Trend.Points {
		data[i] = opts.LineData{Value: round3(p.TemperatureC)}
	}
	line.SetXAxis(years(d.Trend)).AddSeries("Anomali Suhu (°C)", data,
		charts.WithLineStyleOpts(opts.LineStyle{Color: colorTemp, Width: 2}),
		charts.WithItemStyleOpts(opts.ItemStyle{Color: colorTemp}),
	)
	return line
}

func precipitationChart(d Dashboard) *charts.Bar {
	sum := d.Trend.Summary()
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		initOpts(),
		charts.WithTitleOpts(opts.Title{
			Title:    fmt.Sprintf("Proyeksi Perubahan Curah Hujan (%s)", d.Scenario),
			Subtitle: fmt.Sprintf("Wilayah %s, rata-rata %.2f mm", d.Trend.Region, sum.MeanPrecipitationMM),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Tahun"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Curah Hujan (mm)"}),
	)
	data := make([]opts.BarData, len(d.Trend.Points))
	for i, p := range d.Trend.Points {
		data[i] = opts.BarData{Value: round3(p.PrecipitationMM)}
	}
	bar.SetXAxis(years(d.Trend)).AddSeries("Curah Hujan (mm)", data,
		charts.WithItemStyleOpts(opts.ItemStyle{Color: colorRain}),
	)
	return bar
}

func riskMapChart(d Dashboard) *charts.Scatter {
	half := simulation.RiskMapSpanDeg / 2
	result := domain.Score(d.Village.Input)

	sc := charts.NewScatter()
	sc.SetGlobalOptions(
		initOpts(),
		charts.WithTitleOpts(opts.Title{
			Title: "Peta Risiko Perubahan Iklim",
			Subtitle: fmt.Sprintf("Desa %s, IRID %s, %s",
				d.Village.Name, domain.FormatIndex(result.Index), result.Band.Label()),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Right: "10"}),
		charts.WithXAxisOpts(opts.XAxis{
			Type: "value", Name: "Bujur",
			Min: round3(d.Village.Lon - half), Max: round3(d.Village.Lon + half),
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Type: "value", Name: "Lintang",
			Min: round3(d.Village.Lat - half), Max: round3(d.Village.Lat + half),
		}),
	)

	byBand := make(map[domain.Band][]opts.ScatterData, 3)
	for _, p := range d.RiskMap {
		byBand[p.Band] = append(byBand[p.Band], opts.ScatterData{
			Value:      []float64{p.Lon, p.Lat},
			SymbolSize: 8,
		})
	}
	for _, b := range bands() {
		sc.AddSeries(b.Label(), byBand[b], charts.WithItemStyleOpts(opts.ItemStyle{Color: bandColor(b)}))
	}

	sc.AddSeries("Desa "+d.Village.Name, []opts.ScatterData{{
		Name:       d.Village.Name,
		Value:      []float64{d.Village.Lon, d.Village.Lat},
		Symbol:     "pin",
		SymbolSize: 32,
	}}, charts.WithItemStyleOpts(opts.ItemStyle{Color: colorMarker}))
	return sc
}

func iridScatter(d Dashboard) *charts.Scatter3D {
	sc := charts.NewScatter3D()
	sc.SetGlobalOptions(
		initOpts(),
		charts.WithTitleOpts(opts.Title{Title: "Simulasi 3D IRID"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Right: "10"}),
		charts.WithXAxis3DOpts(opts.XAxis3D{Name: "Exposure", Min: 0, Max: 1}),
		charts.WithYAxis3DOpts(opts.YAxis3D{Name: "Sensitivity", Min: 0, Max: 1}),
		charts.WithZAxis3DOpts(opts.ZAxis3D{Name: "Adaptive Capacity", Min: 0, Max: 1}),
	)

	byBand := make(map[domain.Band][]opts.Chart3DData, 3)
	for _, p := range d.Sample {
		byBand[p.Result.Band] = append(byBand[p.Result.Band], opts.Chart3DData{
			Name: "IRID " + domain.FormatIndex(p.Result.Index),
			Value: []any{
				round3(p.Input.Exposure),
				round3(p.Input.Sensitivity),
				round3(p.Input.AdaptiveCapacity),
			},
		})
	}
	for _, b := range bands() {
		sc.AddSeries(b.Label(), byBand[b], charts.WithItemStyleOpts(opts.ItemStyle{Color: bandColor(b)}))
	}
	return sc
}

func floodRiskScatter(d Dashboard) *charts.Scatter3D {
	sc := charts.NewScatter3D()
	sc.SetGlobalOptions(
		initOpts(),
		charts.WithTitleOpts(opts.Title{Title: "Distribusi Risiko Banjir"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Right: "10"}),
		charts.WithXAxis3DOpts(opts.XAxis3D{Name: "Curah Hujan (mm)"}),
		charts.WithYAxis3DOpts(opts.YAxis3D{Name: "Kelembapan Tanah"}),
		charts.WithZAxis3DOpts(opts.ZAxis3D{Name: "Elevasi (m)"}),
	)

	byRisk := make(map[string][]opts.Chart3DData, 3)
	for i, row := range d.FloodRisk.Features {
		label := d.FloodRisk.Labels[i]
		byRisk[label] = append(byRisk[label], opts.Chart3DData{
			Value: []any{round3(row[0]), round3(row[1]), round3(row[2])},
		})
	}
	for _, r := range []struct {
		label string
		color string
	}{
		{classifier.RiskLow, colorLow},
		{classifier.RiskMedium, colorMedium},
		{classifier.RiskHigh, colorHigh},
	} {
		sc.AddSeries(r.label, byRisk[r.label], charts.WithItemStyleOpts(opts.ItemStyle{Color: r.color}))
	}
	return sc
}

func bands() []domain.Band {
	return []domain.Band{domain.BandLow, domain.BandMedium, domain.BandHigh}
}

func bandColor(b domain.Band) string {
	switch b {
	case domain.BandHigh:
		return colorHigh
	case domain.BandMedium:
		return colorMedium
	default:
		return colorLow
	}
}

func round3(v float64) float64 {
	return decimal.NewFromFloat(v).Round(3).InexactFloat64()
}
