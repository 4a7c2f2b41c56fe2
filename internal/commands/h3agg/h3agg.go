// Package h3agg implements the `h3agg` subcommand: aggregates a folder
// of per-species AoH rasters into H3 hex-cell tables, one gzip-compressed
// parquet file per species/season (§6 "h3agg").
package h3agg

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/quantifyearth/life/kernel"
	"github.com/quantifyearth/life/raster"
)

// seasonalityFileRE matches h3calculate.py's `Seasonality.{season}-{id}.tif`
// naming convention for per-species AoH rasters.
var seasonalityFileRE = regexp.MustCompile(`^Seasonality\.(\w+)-(\d+)\.tif$`)

const directionForward = "forward"
const directionReverse = "reverse"

var (
	aohsFolder string
	rangePath  string
	outputDir  string
	direction  string
	resolution int
	bandWidth  float64
)

// Command returns the cobra command for the shared root.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "h3agg",
		Short: "Aggregate AoH rasters into per-species H3 hex-cell tables",
		RunE:  run,
	}
	cmd.Flags().StringVar(&aohsFolder, "aohs_folder", "", "directory of Seasonality.<season>-<id>.tif AoH rasters")
	cmd.Flags().StringVar(&rangePath, "range", "", "species range vector file")
	cmd.Flags().StringVar(&outputDir, "output", "", "output directory for per-species parquet files")
	cmd.Flags().StringVar(&direction, "direction", directionForward, "processing order: forward or reverse")
	cmd.Flags().IntVar(&resolution, "resolution", kernel.H3Resolution, "H3 cell resolution")
	cmd.Flags().Float64Var(&bandWidth, "band_width", 1.0, "H3 cell rasterization band width in degrees")
	cmd.MarkFlagRequired("aohs_folder")
	cmd.MarkFlagRequired("range")
	cmd.MarkFlagRequired("output")
	return cmd
}

// Main is cmd/h3agg/main.go's entrypoint.
func Main() {
	if err := Command().Execute(); err != nil {
		log.Error().Err(err).Msg("h3agg: failed")
		os.Exit(1)
	}
}

type speciesFile struct {
	season  string
	taxonID string
	path    string
}

func discover(dir string) ([]speciesFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("h3agg: read %s: %w", dir, err)
	}
	var out []speciesFile
	for _, e := range entries {
		m := seasonalityFileRE.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		out = append(out, speciesFile{season: m[1], taxonID: m[2], path: filepath.Join(dir, e.Name())})
	}
	return out, nil
}

func run(cmd *cobra.Command, _ []string) error {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("h3agg: create output dir %s: %w", outputDir, err)
	}

	species, err := discover(aohsFolder)
	if err != nil {
		return err
	}
	switch direction {
	case directionForward:
		sort.Slice(species, func(i, j int) bool { return species[i].taxonID < species[j].taxonID })
	case directionReverse:
		sort.Slice(species, func(i, j int) bool { return species[i].taxonID > species[j].taxonID })
	default:
		return fmt.Errorf("h3agg: unknown direction %q, want %q or %q", direction, directionForward, directionReverse)
	}
	log.Info().Int("species", len(species)).Str("direction", direction).Msg("h3agg: starting")

	ctx := context.Background()
	for _, sp := range species {
		targetFile := filepath.Join(outputDir, fmt.Sprintf("%s_%s_%d.parquet", seasonPrefix(sp.season), sp.taxonID, resolution))
		if _, err := os.Stat(targetFile); err == nil {
			log.Info().Str("taxon", sp.taxonID).Str("season", sp.season).Msg("h3agg: result exists, skipping")
			continue
		}

		if err := processSpecies(ctx, sp, targetFile); err != nil {
			log.Error().Err(err).Str("taxon", sp.taxonID).Str("season", sp.season).Msg("h3agg: species failed, continuing")
		}
	}
	return nil
}

func seasonPrefix(season string) string {
	lower := []rune(season)
	for i := range lower {
		if lower[i] >= 'A' && lower[i] <= 'Z' {
			lower[i] += 'a' - 'A'
		}
	}
	if len(lower) > 3 {
		lower = lower[:3]
	}
	return string(lower)
}

func processSpecies(ctx context.Context, sp speciesFile, targetFile string) error {
	aoh, err := raster.OpenFile(sp.path, 16)
	if err != nil {
		return fmt.Errorf("h3agg: open %s: %w", sp.path, err)
	}
	defer aoh.Close()

	taxonID, err := parseTaxonID(sp.taxonID)
	if err != nil {
		return err
	}

	total, err := kernel.SpeciesAoHTotal(ctx, aoh)
	if err != nil {
		return fmt.Errorf("h3agg: sum %s: %w", sp.path, err)
	}
	if total == 0 {
		log.Info().Str("taxon", sp.taxonID).Msg("h3agg: skipping species, AoH is 0")
		return nil
	}

	cells, err := kernel.RangeCells(rangePath, taxonID, sp.season, resolution)
	if err != nil {
		return fmt.Errorf("h3agg: range cells for %s/%s: %w", sp.taxonID, sp.season, err)
	}
	log.Info().Int("tiles", len(cells)).Str("taxon", sp.taxonID).Msg("h3agg: tiles found")

	results, err := kernel.H3Aggregate(ctx, aoh, cells, bandWidth)
	if err != nil {
		return fmt.Errorf("h3agg: aggregate %s: %w", sp.path, err)
	}

	meta := kernel.RunMetadata{
		Species: fmt.Sprintf("%s/%s", sp.taxonID, sp.season),
		Source:  sp.path,
		Host:    hostname(),
		Commit:  kernel.GitCommit(),
	}
	if err := kernel.WriteH3Parquet(targetFile, results, meta); err != nil {
		return err
	}

	var sum float64
	for _, r := range results {
		sum += r.Value
	}
	diff := (sum - total) / total * 100.0
	log.Info().Str("taxon", sp.taxonID).Float64("aoh_total", total).Float64("hex_total", sum).Float64("diff_pct", diff).Msg("h3agg: species done")
	return nil
}

func parseTaxonID(s string) (int, error) {
	var id int
	if _, err := fmt.Sscanf(s, "%d", &id); err != nil {
		return 0, fmt.Errorf("h3agg: invalid taxon id %q: %w", s, err)
	}
	return id, nil
}

func hostname() string {
	h, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return h
}
