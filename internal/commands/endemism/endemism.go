// Package endemism implements the `endemism` subcommand: aggregates
// each species' log-proportion-of-AoH contribution across a folder of
// AoH rasters, then divides by a precomputed species-richness raster
// (§6 "endemism --aohs_folder DIR --species_richness FILE --output FILE
// [-j N]").
package endemism

import (
	"context"
	"os"
	"runtime"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/quantifyearth/life/internal/cli"
	"github.com/quantifyearth/life/kernel"
	"github.com/quantifyearth/life/raster"
)

var (
	aohsFolder      string
	speciesRichness string
	output          string
	workers         int
)

// Command returns the cobra command for the shared root.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "endemism",
		Short: "Aggregate weighted species endemism across a folder of AoH rasters",
		RunE:  run,
	}
	cmd.Flags().StringVar(&aohsFolder, "aohs_folder", "", "directory of per-species AoH rasters")
	cmd.Flags().StringVar(&speciesRichness, "species_richness", "", "precomputed species-richness raster")
	cmd.Flags().StringVar(&output, "output", "", "output endemism raster path")
	cmd.Flags().IntVarP(&workers, "jobs", "j", runtime.NumCPU(), "number of stage-1 worker processes")
	cmd.MarkFlagRequired("aohs_folder")
	cmd.MarkFlagRequired("species_richness")
	cmd.MarkFlagRequired("output")
	return cmd
}

// Main is cmd/endemism/main.go's single-command entrypoint. It checks
// for the hidden stage-worker dispatch first: RunEndemism re-execs this
// same binary as a stage-1/stage-2 worker (§4.6), so the standalone
// endemism binary must intercept that before cobra ever parses argv.
func Main() {
	cli.MaybeRunStageWorker()
	if err := Command().Execute(); err != nil {
		log.Error().Err(err).Msg("endemism: failed")
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	items, err := kernel.DiscoverAoHWorkItems(aohsFolder)
	if err != nil {
		return err
	}
	log.Info().Int("species", len(items)).Msg("endemism: starting")

	scratchDir, err := os.MkdirTemp("", "life-endemism-*")
	if err != nil {
		return err
	}
	summedPath := output + ".proportion.tif"
	ctx := context.Background()

	if err := kernel.RunEndemism(ctx, items, summedPath, workers, scratchDir); err != nil {
		return err
	}
	defer os.Remove(summedPath)

	return kernel.CombineWithRichness(ctx, raster.NewEvaluator(), summedPath, speciesRichness, output)
}
