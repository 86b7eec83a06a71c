package cli

import (
	"fmt"

	"github.com/couchcryptid/climate-risk-service/internal/domain"
	"github.com/couchcryptid/climate-risk-service/internal/village"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type factorFlags struct {
	exposure, sensitivity, adaptiveCapacity, hazard float64
}

func (f *factorFlags) register(fs *pflag.FlagSet) {
	fs.Float64Var(&f.exposure, "exposure", 0, "exposure factor in [0, 1]")
	fs.Float64Var(&f.sensitivity, "sensitivity", 0, "sensitivity factor in [0, 1]")
	fs.Float64Var(&f.adaptiveCapacity, "adaptive-capacity", 0, "adaptive capacity factor in [0, 1]")
	fs.Float64Var(&f.hazard, "hazard", 0, "hazard factor in [0, 1]")
}

// apply overrides the profile factors with the flags the user set.
func (f *factorFlags) apply(fs *pflag.FlagSet, in domain.VulnerabilityInput) domain.VulnerabilityInput {
	if fs.Changed("exposure") {
		in.Exposure = f.exposure
	}
	if fs.Changed("sensitivity") {
		in.Sensitivity = f.sensitivity
	}
	if fs.Changed("adaptive-capacity") {
		in.AdaptiveCapacity = f.adaptiveCapacity
	}
	if fs.Changed("hazard") {
		in.Hazard = f.hazard
	}
	return in
}

type driverFlags struct {
	rainfall, deforestation float64
}

func (f *driverFlags) register(fs *pflag.FlagSet) {
	b := domain.DefaultBounds()
	fs.Float64Var(&f.rainfall, "rainfall", 0, fmt.Sprintf("rainfall in mm, [0, %g]", b.RainfallMM.Max))
	fs.Float64Var(&f.deforestation, "deforestation", 0, fmt.Sprintf("deforestation in %%, [0, %g]", b.DeforestationPct.Max))
}

// apply overrides the profile drivers with the flags the user set. Profiles
// without drivers start from the defaults.
func (f *driverFlags) apply(fs *pflag.FlagSet, p village.Profile) domain.AdjustedHazardInput {
	d := domain.DefaultBounds().DefaultDrivers()
	if p.Drivers != nil {
		d = *p.Drivers
	}
	if fs.Changed("rainfall") {
		d.RainfallMM = f.rainfall
	}
	if fs.Changed("deforestation") {
		d.DeforestationPct = f.deforestation
	}
	return d
}

func scoreCmd(g *globalFlags) *cobra.Command {
	var factors factorFlags

	c := &cobra.Command{
		Use:   "score",
		Short: "Compute the IRID index and vulnerability band",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := g.resolveProfile()
			if err != nil {
				return err
			}
			in := factors.apply(cmd.Flags(), p.Input)
			if err := domain.DefaultBounds().Check(in); err != nil {
				return err
			}

			printCard(cmd.OutOrStdout(), "Desa "+p.Name,
				faintStyle.Render(fmt.Sprintf("E=%g S=%g AC=%g H=%g", in.Exposure, in.Sensitivity, in.AdaptiveCapacity, in.Hazard)),
				resultLine(domain.Score(in)),
			)
			return nil
		},
	}
	factors.register(c.Flags())
	return c
}

func adjustCmd(g *globalFlags) *cobra.Command {
	var (
		factors factorFlags
		drivers driverFlags
	)

	c := &cobra.Command{
		Use:   "adjust",
		Short: "Rescore with hazard adjusted for rainfall and deforestation",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := g.resolveProfile()
			if err != nil {
				return err
			}
			bounds := domain.DefaultBounds()
			in := factors.apply(cmd.Flags(), p.Input)
			if err := bounds.Check(in); err != nil {
				return err
			}
			d := drivers.apply(cmd.Flags(), p)
			if err := bounds.CheckDrivers(d); err != nil {
				return err
			}

			hazard, adjusted := domain.ScoreAdjusted(in, d)
			printCard(cmd.OutOrStdout(), "Desa "+p.Name,
				faintStyle.Render(fmt.Sprintf("curah hujan %g mm, deforestasi %g%%", d.RainfallMM, d.DeforestationPct)),
				"awal      "+resultLine(domain.Score(in)),
				fmt.Sprintf("hazard    %.6f -> %.6f", in.Hazard, hazard),
				"adjusted  "+resultLine(adjusted),
			)
			return nil
		},
	}
	factors.register(c.Flags())
	drivers.register(c.Flags())
	return c
}
