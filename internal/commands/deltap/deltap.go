// Package deltap implements the `deltap` subcommand: computes one
// species/seasonality's persistence delta from its current, scenario,
// and historic AoH rasters (§6 "deltap --speciesdata FILE
// --current_path DIR --scenario_path DIR --historic_path DIR
// --output_path DIR --z ...").
package deltap

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/quantifyearth/life/kernel"
	"github.com/quantifyearth/life/raster"
)

var (
	speciesDataPath string
	currentPath     string
	scenarioPath    string
	historicPath    string
	outputPath      string
	zExponent       string
)

// Command returns the cobra command for the shared root.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deltap",
		Short: "Compute one species' persistence delta under a scenario",
		RunE:  run,
	}
	cmd.Flags().StringVar(&speciesDataPath, "speciesdata", "", "single species/seasonality vector file (id_no/season fields)")
	cmd.Flags().StringVar(&currentPath, "current_path", "", "directory of current-scenario AoH rasters")
	cmd.Flags().StringVar(&scenarioPath, "scenario_path", "", "directory of future-scenario AoH rasters")
	cmd.Flags().StringVar(&historicPath, "historic_path", "", "directory of historic AoH rasters")
	cmd.Flags().StringVar(&outputPath, "output_path", "", "directory to write the delta-p raster to")
	cmd.Flags().StringVar(&zExponent, "z", "gompertz", "extinction curve exponent: 0.1, 0.25, 0.5, 1.0, or gompertz")
	cmd.MarkFlagRequired("speciesdata")
	cmd.MarkFlagRequired("current_path")
	cmd.MarkFlagRequired("historic_path")
	cmd.MarkFlagRequired("output_path")
	return cmd
}

// Main is cmd/deltap/main.go's single-command entrypoint.
func Main() {
	if err := Command().Execute(); err != nil {
		log.Error().Err(err).Msg("deltap: failed")
		os.Exit(1)
	}
}

func filename(taxid int, season string) string {
	return fmt.Sprintf("%d_%s.tif", taxid, season)
}

// openAoH opens filename from dir as a Float64 layer; if the path doesn't
// exist and required is false, nil is returned (caller treats nil as
// "species went extinct under the scenario", per process_delta_p's
// ConstantLayer(0) fallback).
func openAoH(dir, name string, required bool) (raster.Layer, error) {
	path := filepath.Join(dir, name)
	if _, err := os.Stat(path); err != nil {
		if required {
			return nil, fmt.Errorf("deltap: required layer %s not found", path)
		}
		return nil, nil
	}
	return raster.OpenFile(path, 16)
}

func historicSum(ctx context.Context, ev *raster.Evaluator, dir, name string) (float64, error) {
	layer, err := raster.OpenFile(filepath.Join(dir, name), 16)
	if err != nil {
		return 0, fmt.Errorf("deltap: open historic %s: %w", name, err)
	}
	defer layer.Close()
	return ev.Sum(ctx, layer)
}

func run(cmd *cobra.Command, _ []string) error {
	record, err := kernel.ReadSpeciesData(speciesDataPath)
	if err != nil {
		return err
	}
	f, err := kernel.ParseExponent(zExponent)
	if err != nil {
		return err
	}

	ctx := context.Background()
	ev := raster.NewEvaluator()

	switch record.Season {
	case "BREEDING":
		log.Info().Int("taxid", record.TaxonID).Msg("deltap: breeding season covered by the nonbreeding pass, skipping")
		return nil

	case "RESIDENT":
		name := filename(record.TaxonID, "RESIDENT")
		historic, err := historicSum(ctx, ev, historicPath, name)
		if err != nil {
			return err
		}
		current, err := openAoH(currentPath, name, true)
		if err != nil {
			return err
		}
		defer current.Close()
		scenario, err := openAoH(scenarioPath, name, false)
		if err != nil {
			return err
		}
		if scenario != nil {
			defer scenario.Close()
		}

		deltaP, _, err := kernel.DeltaPResident(ctx, ev, kernel.SeasonAoH{Current: current, Scenario: scenario, HistoricAoh: historic}, f)
		if err != nil {
			return err
		}
		return writeDeltaP(ctx, ev, deltaP, current, name)

	case "NONBREEDING":
		breedingName := filename(record.TaxonID, "BREEDING")
		nonBreedingName := filename(record.TaxonID, "NONBREEDING")

		historicBreeding, err := historicSum(ctx, ev, historicPath, breedingName)
		if err != nil {
			return err
		}
		historicNonBreeding, err := historicSum(ctx, ev, historicPath, nonBreedingName)
		if err != nil {
			return err
		}

		currentBreeding, err := openAoH(currentPath, breedingName, true)
		if err != nil {
			return err
		}
		defer currentBreeding.Close()
		currentNonBreeding, err := openAoH(currentPath, nonBreedingName, true)
		if err != nil {
			return err
		}
		defer currentNonBreeding.Close()

		scenarioBreeding, err := openAoH(scenarioPath, breedingName, false)
		if err != nil {
			return err
		}
		if scenarioBreeding != nil {
			defer scenarioBreeding.Close()
		}
		scenarioNonBreeding, err := openAoH(scenarioPath, nonBreedingName, false)
		if err != nil {
			return err
		}
		if scenarioNonBreeding != nil {
			defer scenarioNonBreeding.Close()
		}

		breeding := kernel.SeasonAoH{Current: currentBreeding, Scenario: scenarioBreeding, HistoricAoh: historicBreeding}
		nonBreeding := kernel.SeasonAoH{Current: currentNonBreeding, Scenario: scenarioNonBreeding, HistoricAoh: historicNonBreeding}

		deltaP, err := kernel.DeltaPMigratory(ctx, ev, breeding, nonBreeding, f)
		if err != nil {
			return err
		}
		return writeDeltaP(ctx, ev, deltaP, currentBreeding, nonBreedingName)

	default:
		return fmt.Errorf("deltap: unexpected season %q for taxon %d", record.Season, record.TaxonID)
	}
}

func writeDeltaP(ctx context.Context, ev *raster.Evaluator, deltaP raster.Node, reference raster.Layer, name string) error {
	if err := os.MkdirAll(outputPath, 0o755); err != nil {
		return err
	}
	scale, _ := deltaP.PixelScale()
	w, err := raster.CreateGeoTIFF(filepath.Join(outputPath, name), deltaP.Area(), scale, reference.Projection(), raster.Float64)
	if err != nil {
		return err
	}
	if _, err := ev.Save(ctx, deltaP, w); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}
