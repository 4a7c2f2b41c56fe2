// Package richness implements the `richness` subcommand: aggregates
// every species' per-season AoH presence across an AoH folder into a
// single species-richness raster (§6 "richness --aohs_folder DIR
// --output FILE [-j N]").
package richness

import (
	"context"
	"os"
	"runtime"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/quantifyearth/life/internal/cli"
	"github.com/quantifyearth/life/kernel"
)

var (
	aohsFolder string
	output     string
	workers    int
)

// Command returns the cobra command for the shared root.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "richness",
		Short: "Aggregate species-richness across a folder of AoH rasters",
		RunE:  run,
	}
	cmd.Flags().StringVar(&aohsFolder, "aohs_folder", "", "directory of per-species AoH rasters")
	cmd.Flags().StringVar(&output, "output", "", "output richness raster path")
	cmd.Flags().IntVarP(&workers, "jobs", "j", runtime.NumCPU(), "number of stage-1 worker processes")
	cmd.MarkFlagRequired("aohs_folder")
	cmd.MarkFlagRequired("output")
	return cmd
}

// Main is cmd/richness/main.go's single-command entrypoint. It checks
// for the hidden stage-worker dispatch first: RunRichness re-execs this
// same binary as a stage-1/stage-2 worker (§4.6), so the standalone
// richness binary must intercept that before cobra ever parses argv.
func Main() {
	cli.MaybeRunStageWorker()
	if err := Command().Execute(); err != nil {
		log.Error().Err(err).Msg("richness: failed")
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	items, err := kernel.DiscoverAoHWorkItems(aohsFolder)
	if err != nil {
		return err
	}
	log.Info().Int("species", len(items)).Msg("richness: starting")

	scratchDir, err := os.MkdirTemp("", "life-richness-*")
	if err != nil {
		return err
	}

	return kernel.RunRichness(context.Background(), items, output, workers, scratchDir)
}
