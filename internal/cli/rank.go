package cli

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/couchcryptid/climate-risk-service/internal/domain"
	"github.com/couchcryptid/climate-risk-service/internal/village"
	"github.com/spf13/cobra"
)

type rankedVillage struct {
	name   string
	result domain.VulnerabilityResult
}

func rankCmd(g *globalFlags) *cobra.Command {
	var minBand string

	c := &cobra.Command{
		Use:   "rank",
		Short: "List villages by IRID, most vulnerable first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			floor, err := domain.ParseBand(minBand)
			if err != nil {
				return err
			}

			profiles := []village.Profile{village.ReferenceProfile()}
			if g.profiles != "" {
				if profiles, err = village.LoadProfiles(g.profiles); err != nil {
					return err
				}
			}

			ranked := make([]rankedVillage, 0, len(profiles))
			for _, p := range profiles {
				r := domain.Score(p.Input)
				if p.Drivers != nil {
					_, r = domain.ScoreAdjusted(p.Input, *p.Drivers)
				}
				if r.Band.Rank() < floor.Rank() {
					continue
				}
				ranked = append(ranked, rankedVillage{name: p.Name, result: r})
			}
			slices.SortStableFunc(ranked, func(a, b rankedVillage) int {
				return cmp.Compare(b.result.Index, a.result.Index)
			})

			lines := make([]string, 0, len(ranked))
			for _, v := range ranked {
				lines = append(lines, fmt.Sprintf("%-14s %s", v.name, resultLine(v.result)))
			}
			if len(lines) == 0 {
				lines = append(lines, faintStyle.Render("tidak ada desa"))
			}
			printCard(cmd.OutOrStdout(), fmt.Sprintf("Peringkat IRID (>= %s)", floor.Label()), lines...)
			return nil
		},
	}
	c.Flags().StringVar(&minBand, "min-band", string(domain.BandLow), "lowest band to list: low, medium, high (or rendah, sedang, tinggi)")
	return c
}
