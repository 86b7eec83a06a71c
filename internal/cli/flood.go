package cli

import (
	"fmt"

	"github.com/couchcryptid/climate-risk-service/internal/classifier"
	"github.com/couchcryptid/climate-risk-service/internal/domain"
	"github.com/spf13/cobra"
)

var floodText = map[string]string{
	domain.FloodExpected:    "Banjir diperkirakan terjadi",
	domain.FloodNotExpected: "Banjir tidak diperkirakan",
}

func predictFloodCmd(g *globalFlags) *cobra.Command {
	var (
		drivers    driverFlags
		trees      int
		samples    int
		seed       uint64
		showReport bool
	)

	c := &cobra.Command{
		Use:   "predict-flood",
		Short: "Predict a flash flood from rainfall and deforestation",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := g.resolveProfile()
			if err != nil {
				return err
			}
			d := drivers.apply(cmd.Flags(), p)
			if err := domain.DefaultBounds().CheckDrivers(d); err != nil {
				return err
			}

			cfg := classifier.DefaultPredictorConfig()
			cfg.Trees, cfg.Samples, cfg.Seed = trees, samples, seed
			predictor, err := classifier.NewFloodPredictor(cfg, g.logger(cmd.ErrOrStderr()))
			if err != nil {
				return err
			}
			prediction, err := predictor.PredictFlood(cmd.Context(), d)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printCard(out, "Desa "+p.Name,
				faintStyle.Render(fmt.Sprintf("curah hujan %g mm, deforestasi %g%%", d.RainfallMM, d.DeforestationPct)),
				titleStyle.Render(floodText[prediction]),
			)
			if showReport {
				fmt.Fprint(out, predictor.Report().String())
			}
			return nil
		},
	}

	drivers.register(c.Flags())
	registerTraining(c, classifier.DefaultPredictorConfig(), &trees, &samples, &seed, &showReport)
	return c
}

var riskText = map[string]string{
	classifier.RiskLow:    "Risiko banjir rendah",
	classifier.RiskMedium: "Risiko banjir sedang",
	classifier.RiskHigh:   "Risiko banjir tinggi",
}

func predictRiskCmd(g *globalFlags) *cobra.Command {
	var (
		in         domain.FloodRiskInput
		trees      int
		samples    int
		seed       uint64
		showReport bool
	)

	c := &cobra.Command{
		Use:   "predict-risk",
		Short: "Grade flood risk from rainfall, soil moisture and elevation",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := domain.DefaultFloodRiskBounds().Check(in); err != nil {
				return err
			}

			cfg := classifier.DefaultRiskPredictorConfig()
			cfg.Trees, cfg.Samples, cfg.Seed = trees, samples, seed
			predictor, err := classifier.NewRiskPredictor(cfg, g.logger(cmd.ErrOrStderr()))
			if err != nil {
				return err
			}
			risk, err := predictor.PredictRisk(cmd.Context(), in)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printCard(out, "Prediksi Risiko Banjir",
				faintStyle.Render(fmt.Sprintf("curah hujan %g mm, kelembapan tanah %g, elevasi %g m", in.RainfallMM, in.SoilMoisture, in.ElevationM)),
				titleStyle.Render(riskText[risk]),
			)
			if showReport {
				fmt.Fprint(out, predictor.Report().String())
			}
			return nil
		},
	}

	b := domain.DefaultFloodRiskBounds()
	c.Flags().Float64Var(&in.RainfallMM, "rainfall", b.RainfallMM.Default, fmt.Sprintf("rainfall in mm, [0, %g]", b.RainfallMM.Max))
	c.Flags().Float64Var(&in.SoilMoisture, "soil-moisture", b.SoilMoisture.Default, "soil moisture in [0, 1]")
	c.Flags().Float64Var(&in.ElevationM, "elevation", b.ElevationM.Default, fmt.Sprintf("elevation in m, [0, %g]", b.ElevationM.Max))
	registerTraining(c, classifier.DefaultRiskPredictorConfig(), &trees, &samples, &seed, &showReport)
	return c
}

func registerTraining(c *cobra.Command, def classifier.PredictorConfig, trees, samples *int, seed *uint64, showReport *bool) {
	c.Flags().IntVar(trees, "trees", def.Trees, "trees in the random forest")
	c.Flags().IntVar(samples, "samples", def.Samples, "synthetic training samples")
	c.Flags().Uint64Var(seed, "seed", def.Seed, "random seed for the training data")
	c.Flags().BoolVar(showReport, "report", false, "print the held-out classification report")
}
