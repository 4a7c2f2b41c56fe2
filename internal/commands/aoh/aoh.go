// Package aoh implements the `aoh` subcommand: computes one species'
// Area of Habitat for one seasonality and writes it to a GeoTIFF
// (§6 "aoh --taxid T --seasonality ... --experiment NAME --config PATH
// [--geotiffs DIR]").
package aoh

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/quantifyearth/life/config"
	"github.com/quantifyearth/life/kernel"
	"github.com/quantifyearth/life/raster"
)

var (
	taxid       int
	seasonality string
	experiment  string
	configPath  string
	geotiffsDir string
)

var validSeasonalities = map[string]bool{"resident": true, "breeding": true, "nonbreeding": true}

// Command returns the cobra command for the shared root.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "aoh",
		Short: "Compute one species' Area of Habitat for one seasonality",
		RunE:  run,
	}
	cmd.Flags().IntVar(&taxid, "taxid", 0, "animal taxonomy id")
	cmd.Flags().StringVar(&seasonality, "seasonality", "", "resident, breeding, or nonbreeding")
	cmd.Flags().StringVar(&experiment, "experiment", "", "name of experiment group from configuration json")
	cmd.Flags().StringVar(&configPath, "config", "config.json", "path of configuration json")
	cmd.Flags().StringVar(&geotiffsDir, "geotiffs", "", "directory where area geotiffs should be stored")
	cmd.MarkFlagRequired("taxid")
	cmd.MarkFlagRequired("seasonality")
	cmd.MarkFlagRequired("experiment")
	return cmd
}

// Main is cmd/aoh/main.go's single-command entrypoint.
func Main() {
	if err := Command().Execute(); err != nil {
		log.Error().Err(err).Msg("aoh: failed")
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	if !validSeasonalities[seasonality] {
		return fmt.Errorf("seasonality %q is not valid", seasonality)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	exp, err := cfg.Experiment(experiment)
	if err != nil {
		return err
	}
	if exp.IUCNBatch == "" {
		return fmt.Errorf("experiment %q has no iucn_batch configured; live IUCN API lookup is out of scope for this engine", experiment)
	}
	batch, err := kernel.LoadBatch(exp.IUCNBatch)
	if err != nil {
		return err
	}
	record, err := batch.Lookup(taxid, seasonality)
	if err != nil {
		return err
	}

	habitat, err := raster.OpenFile(exp.Habitat, 16)
	if err != nil {
		return err
	}
	defer habitat.Close()
	elevation, err := raster.OpenFile(exp.Elevation, 16)
	if err != nil {
		return err
	}
	defer elevation.Close()
	area, err := raster.OpenFile(exp.Area, 16)
	if err != nil {
		return err
	}
	defer area.Close()

	scale, _ := habitat.PixelScale()
	whereFilter := record.RangeFilter
	if whereFilter == "" {
		whereFilter = fmt.Sprintf("id_no = %d and season = '%s'", taxid, seasonality)
	}
	rng, err := raster.OpenVectorRange(exp.Range, whereFilter, scale, habitat.Projection())
	if err != nil {
		return err
	}
	defer rng.Close()

	inputs := kernel.AoHInputs{
		Habitat:      habitat,
		Elevation:    elevation,
		Area:         area,
		Range:        rng,
		HabitatCodes: record.HabitatCodes,
		ElevationLow: record.ElevationLower,
		ElevationHi:  record.ElevationUpper,
	}

	ev := raster.NewEvaluator()
	ctx := context.Background()

	if geotiffsDir == "" {
		total, err := inputs.Sum(ctx, ev)
		if err != nil {
			return err
		}
		fmt.Println(total)
		return nil
	}

	resolvedArea, err := raster.Resolve(raster.ResolveIntersection, inputs.Inputs()...)
	if err != nil {
		return err
	}
	outScale, _ := habitat.PixelScale()
	outPath := filepath.Join(geotiffsDir, fmt.Sprintf("%d_%s.tif", taxid, seasonality))
	w, err := raster.CreateGeoTIFF(outPath, resolvedArea, outScale, habitat.Projection(), raster.Float64)
	if err != nil {
		return err
	}
	total, err := ev.Save(ctx, inputs.Build(), w)
	if err != nil {
		w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	log.Info().Int("taxid", taxid).Str("seasonality", seasonality).Float64("aoh", total).Str("path", outPath).Msg("aoh: written")
	fmt.Println(total)
	return nil
}
