// Package cli implements the irid command line tool.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/couchcryptid/climate-risk-service/internal/village"
	"github.com/spf13/cobra"
)

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type globalFlags struct {
	profiles string
	village  string
	debug    bool
}

// NewRootCmd builds the irid command tree.
func NewRootCmd() *cobra.Command {
	var g globalFlags

	cmd := &cobra.Command{
		Use:          "irid",
		Short:        "Village climate vulnerability index (IRID) tools",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&g.profiles, "profiles", "p", "", "YAML file of village profiles (defaults to the built-in reference village)")
	cmd.PersistentFlags().StringVarP(&g.village, "village", "v", "", "village name within --profiles (defaults to the first entry)")
	cmd.PersistentFlags().BoolVar(&g.debug, "debug", false, "enable debug logging to stderr")

	cmd.AddCommand(
		scoreCmd(&g),
		adjustCmd(&g),
		rankCmd(&g),
		predictFloodCmd(&g),
		predictRiskCmd(&g),
		dashboardCmd(&g),
		exportCmd(&g),
	)
	return cmd
}

// resolveProfile picks the village the command works on.
func (g *globalFlags) resolveProfile() (village.Profile, error) {
	if g.profiles == "" {
		ref := village.ReferenceProfile()
		if g.village != "" && !strings.EqualFold(g.village, ref.Name) {
			return village.Profile{}, fmt.Errorf("village %q requires --profiles", g.village)
		}
		return ref, nil
	}

	profiles, err := village.LoadProfiles(g.profiles)
	if err != nil {
		return village.Profile{}, err
	}
	if g.village == "" {
		return profiles[0], nil
	}
	p, ok := village.Find(profiles, g.village)
	if !ok {
		return village.Profile{}, fmt.Errorf("village %q not found in %s", g.village, g.profiles)
	}
	return p, nil
}

func (g *globalFlags) logger(w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if g.debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
