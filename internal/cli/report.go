package cli

import (
	"fmt"
	"os"

	"github.com/couchcryptid/climate-risk-service/internal/classifier"
	"github.com/couchcryptid/climate-risk-service/internal/report"
	"github.com/couchcryptid/climate-risk-service/internal/simulation"
	"github.com/spf13/cobra"
)

func dashboardCmd(g *globalFlags) *cobra.Command {
	var (
		scenario string
		out      string
		seed     uint64
	)

	c := &cobra.Command{
		Use:   "dashboard",
		Short: "Render the village risk dashboard as an HTML page",
		RunE: func(cmd *cobra.Command, _ []string) error {
			sc, err := simulation.ParseScenario(scenario)
			if err != nil {
				return err
			}
			p, err := g.resolveProfile()
			if err != nil {
				return err
			}

			if err := writeFile(out, func(f *os.File) error {
				return report.RenderDashboard(f, report.NewDashboard(p, sc, seed))
			}); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), faintStyle.Render("wrote "+out))
			return nil
		},
	}

	c.Flags().StringVarP(&scenario, "scenario", "s", string(simulation.RCP45), "RCP scenario: 2.6, 4.5, 6.0 or 8.5")
	c.Flags().StringVarP(&out, "out", "o", "dashboard.html", "output HTML file")
	c.Flags().Uint64Var(&seed, "seed", 42, "random seed for the simulated layers")
	return c
}

func exportCmd(_ *globalFlags) *cobra.Command {
	var (
		out     string
		samples int
		seed    uint64
	)

	c := &cobra.Command{
		Use:   "export",
		Short: "Export the simulated flood risk dataset as an Excel workbook",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if samples <= 0 {
				return fmt.Errorf("--samples must be positive, got %d", samples)
			}
			ds := classifier.FloodRiskDataset(samples, seed)
			if err := writeFile(out, func(f *os.File) error {
				return report.WriteExcel(f, ds)
			}); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), faintStyle.Render(fmt.Sprintf("wrote %d rows to %s", ds.Len(), out)))
			return nil
		},
	}

	c.Flags().StringVarP(&out, "out", "o", "laporan_risiko.xlsx", "output workbook")
	c.Flags().IntVar(&samples, "samples", 100, "rows to generate")
	c.Flags().Uint64Var(&seed, "seed", 42, "random seed")
	return c
}

// writeFile creates path, runs write, and removes the file if anything fails.
func writeFile(path string, write func(*os.File) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			_ = os.Remove(path)
		}
	}()
	return write(f)
}
