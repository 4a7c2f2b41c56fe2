// Package scenario implements the `scenario` family of subcommands that
// build the Level-1 habitat maps behind AoH/ΔP runs: the current map, the
// restore/arable/pasture counterfactuals derived from it, and the
// stochastic food-current recode (§6 "make-current/make-restore/
// make-arable/make-pasture/make-food-current").
package scenario

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/quantifyearth/life/kernel"
	"github.com/quantifyearth/life/raster"
)

// Command returns the scenario parent command with its five
// subcommands attached, for the shared root.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scenario",
		Short: "Build Level-1 habitat scenario maps",
	}
	cmd.AddCommand(makeCurrentCommand())
	cmd.AddCommand(makeRestoreCommand())
	cmd.AddCommand(makeArableCommand())
	cmd.AddCommand(makePastureCommand())
	cmd.AddCommand(makeFoodCurrentCommand())
	return cmd
}

// Main is cmd/scenario/main.go's entrypoint.
func Main() {
	if err := Command().Execute(); err != nil {
		log.Error().Err(err).Msg("scenario: failed")
		os.Exit(1)
	}
}

// writeNode resolves node against reference's area/scale/projection and
// streams it to path as a GeoTIFF of the same data type as reference,
// the shared tail of every make-* subcommand.
func writeNode(ctx context.Context, node raster.Node, reference raster.Layer, path string) error {
	ev := raster.NewEvaluator()
	scale, _ := node.PixelScale()
	w, err := raster.CreateGeoTIFF(path, node.Area(), scale, reference.Projection(), reference.DataType())
	if err != nil {
		return err
	}
	if _, err := ev.Save(ctx, node, w); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

func loadCrosswalk(path string) (kernel.Crosswalk, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("scenario: open crosswalk %s: %w", path, err)
	}
	defer f.Close()
	return kernel.LoadCrosswalk(f)
}

func makeCurrentCommand() *cobra.Command {
	var jungPath, crosswalkPath, outputPath string

	cmd := &cobra.Command{
		Use:   "make-current",
		Short: "Build the Level-1 current habitat map from a Jung L2 map",
		RunE: func(cmd *cobra.Command, _ []string) error {
			jung, err := raster.OpenFile(jungPath, 16)
			if err != nil {
				return err
			}
			defer jung.Close()

			crosswalk, err := loadCrosswalk(crosswalkPath)
			if err != nil {
				return err
			}

			node, err := kernel.MakeCurrent(jung, crosswalk)
			if err != nil {
				return err
			}
			return writeNode(cmd.Context(), node, jung, outputPath)
		},
	}
	cmd.Flags().StringVar(&jungPath, "jung_l2", "", "path of the Jung L2 map")
	cmd.Flags().StringVar(&crosswalkPath, "crosswalk", "", "path of the map-to-IUCN crosswalk table")
	cmd.Flags().StringVar(&outputPath, "output", "", "path where the current map should be stored")
	cmd.Flags().IntP("jobs", "j", 0, "number of concurrent threads to use (unused, kept for CLI parity)")
	cmd.Flags().BoolP("progress", "p", false, "show a progress indicator (unused, kept for CLI parity)")
	cmd.MarkFlagRequired("jung_l2")
	cmd.MarkFlagRequired("crosswalk")
	cmd.MarkFlagRequired("output")
	return cmd
}

func makeRestoreCommand() *cobra.Command {
	var pnvPath, currentPath, crosswalkPath, outputPath string

	cmd := &cobra.Command{
		Use:   "make-restore",
		Short: "Build the restore counterfactual from the current map and PNV",
		RunE: func(cmd *cobra.Command, _ []string) error {
			current, err := raster.OpenFile(currentPath, 16)
			if err != nil {
				return err
			}
			defer current.Close()

			pnvFile, err := raster.OpenFile(pnvPath, 16)
			if err != nil {
				return err
			}
			defer pnvFile.Close()
			scale, _ := current.PixelScale()
			pnv := raster.NewRescaled(pnvFile, scale)

			crosswalk, err := loadCrosswalk(crosswalkPath)
			if err != nil {
				return err
			}

			if _, err := raster.Resolve(raster.ResolveIntersection, current, pnv); err != nil {
				return err
			}

			node, err := kernel.MakeRestore(current, pnv, crosswalk)
			if err != nil {
				return err
			}
			return writeNode(cmd.Context(), node, current, outputPath)
		},
	}
	cmd.Flags().StringVar(&pnvPath, "pnv", "", "path of the PNV map")
	cmd.Flags().StringVar(&currentPath, "current", "", "path of the current map")
	cmd.Flags().StringVar(&crosswalkPath, "crosswalk", "", "path of the map-to-IUCN crosswalk table")
	cmd.Flags().StringVar(&outputPath, "output", "", "path where the restore map should be stored")
	cmd.Flags().IntP("jobs", "j", 0, "number of concurrent threads to use (unused, kept for CLI parity)")
	cmd.Flags().BoolP("progress", "p", false, "show a progress indicator (unused, kept for CLI parity)")
	cmd.MarkFlagRequired("pnv")
	cmd.MarkFlagRequired("current")
	cmd.MarkFlagRequired("crosswalk")
	cmd.MarkFlagRequired("output")
	return cmd
}

func makeArableCommand() *cobra.Command {
	var currentPath, outputPath string

	cmd := &cobra.Command{
		Use:   "make-arable",
		Short: "Recode the current map to the arable counterfactual",
		RunE: func(cmd *cobra.Command, _ []string) error {
			current, err := raster.OpenFile(currentPath, 16)
			if err != nil {
				return err
			}
			defer current.Close()
			return writeNode(cmd.Context(), kernel.MakeArable(current), current, outputPath)
		},
	}
	cmd.Flags().StringVar(&currentPath, "current", "", "path of the current map")
	cmd.Flags().StringVar(&outputPath, "output", "", "path where the arable map should be stored")
	cmd.Flags().IntP("jobs", "j", 0, "number of concurrent threads to use (unused, kept for CLI parity)")
	cmd.Flags().BoolP("progress", "p", false, "show a progress indicator (unused, kept for CLI parity)")
	cmd.MarkFlagRequired("current")
	cmd.MarkFlagRequired("output")
	return cmd
}

func makePastureCommand() *cobra.Command {
	var currentPath, outputPath string

	cmd := &cobra.Command{
		Use:   "make-pasture",
		Short: "Recode the current map to the pasture counterfactual",
		RunE: func(cmd *cobra.Command, _ []string) error {
			current, err := raster.OpenFile(currentPath, 16)
			if err != nil {
				return err
			}
			defer current.Close()
			return writeNode(cmd.Context(), kernel.MakePasture(current), current, outputPath)
		},
	}
	cmd.Flags().StringVar(&currentPath, "current", "", "path of the current map")
	cmd.Flags().StringVar(&outputPath, "output", "", "path where the pasture map should be stored")
	cmd.Flags().IntP("jobs", "j", 0, "number of concurrent threads to use (unused, kept for CLI parity)")
	cmd.Flags().BoolP("progress", "p", false, "show a progress indicator (unused, kept for CLI parity)")
	cmd.MarkFlagRequired("current")
	cmd.MarkFlagRequired("output")
	return cmd
}

func makeFoodCurrentCommand() *cobra.Command {
	var currentLvl1Path, pnvPath, cropDiffPath, pastureDiffPath, outputPath string
	var seed int64
	var workers int

	cmd := &cobra.Command{
		Use:   "make-food-current",
		Short: "Stochastically recode the current map to the food-system counterfactual",
		RunE: func(cmd *cobra.Command, _ []string) error {
			current, err := raster.OpenFile(currentLvl1Path, 16)
			if err != nil {
				return err
			}
			defer current.Close()

			pnvFile, err := raster.OpenFile(pnvPath, 16)
			if err != nil {
				return err
			}
			defer pnvFile.Close()
			scale, _ := current.PixelScale()
			pnv := raster.NewRescaled(pnvFile, scale)

			cropDiff, err := raster.OpenFile(cropDiffPath, 16)
			if err != nil {
				return err
			}
			defer cropDiff.Close()
			pastureDiff, err := raster.OpenFile(pastureDiffPath, 16)
			if err != nil {
				return err
			}
			defer pastureDiff.Close()

			plan, err := kernel.BuildFoodCurrentPlan(current, cropDiff, pastureDiff)
			if err != nil {
				return err
			}
			log.Info().Int("tiles", len(plan)).Msg("make-food-current: starting")

			w, err := raster.CreateGeoTIFF(outputPath, current.Area(), scale, current.Projection(), current.DataType())
			if err != nil {
				return err
			}
			if err := kernel.RunMakeFoodCurrent(cmd.Context(), current, pnv, plan, uint64(seed), workers, w); err != nil {
				w.Close()
				return err
			}
			return w.Close()
		},
	}
	cmd.Flags().StringVar(&currentLvl1Path, "current_lvl1", "", "path of the Level-1 current map")
	cmd.Flags().StringVar(&pnvPath, "pnv", "", "path of the PNV map")
	cmd.Flags().StringVar(&cropDiffPath, "crop_diff", "", "path of the crop-diff adjustment raster")
	cmd.Flags().StringVar(&pastureDiffPath, "pasture_diff", "", "path of the pasture-diff adjustment raster")
	cmd.Flags().Int64Var(&seed, "seed", 0, "seed for the per-tile random number generator")
	cmd.Flags().StringVar(&outputPath, "output", "", "path of the food-current raster")
	cmd.Flags().IntVarP(&workers, "jobs", "j", 1, "number of concurrent tiles to process")
	cmd.MarkFlagRequired("current_lvl1")
	cmd.MarkFlagRequired("pnv")
	cmd.MarkFlagRequired("crop_diff")
	cmd.MarkFlagRequired("pasture_diff")
	cmd.MarkFlagRequired("seed")
	cmd.MarkFlagRequired("output")
	return cmd
}
