package kernel

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/quantifyearth/life/raster"
	"github.com/quantifyearth/life/stage"
)

// RichnessStageName is the stage.Register key richness workers dispatch
// through when re-exec'd with --stage-worker.
const RichnessStageName = "richness"

func init() {
	stage.Register(RichnessStageName, richnessStage1, richnessStage2)
}

// buildPresence opens paths (a species' per-season AoH rasters), unions
// them if there is more than one, and returns a 0/1 presence node: 1
// wherever any season has non-zero AoH (§4.6, grounded on
// species_richness.py's stage_1_worker, generalized to OR across every
// season file rather than just the first two).
func buildPresence(paths []string) (raster.Node, []*raster.FileLayer, error) {
	layers := make([]*raster.FileLayer, 0, len(paths))
	for _, p := range paths {
		l, err := raster.OpenFile(p, 16)
		if err != nil {
			closeAll(layers)
			return nil, nil, fmt.Errorf("richness: open %s: %w", p, err)
		}
		layers = append(layers, l)
	}

	if len(layers) > 1 {
		nodes := make([]raster.Node, len(layers))
		for i, l := range layers {
			nodes[i] = l
		}
		if _, err := raster.Resolve(raster.ResolveUnion, nodes...); err != nil {
			closeAll(layers)
			return nil, nil, err
		}
	}

	presence := raster.Neq(layers[0], raster.Scalar(0))
	for _, l := range layers[1:] {
		presence = raster.Or(presence, raster.Neq(l, raster.Scalar(0)))
	}
	return presence, layers, nil
}

func closeAll(layers []*raster.FileLayer) {
	for _, l := range layers {
		l.Close()
	}
}

// mergeOnto adds addend onto the raster at existingPath, writing the sum
// to a fresh temp file under scratchDir and returning its path; the
// caller is responsible for removing the returned path's predecessor.
// This mirrors the source's per-iteration "save to a new temp, then
// adopt it as merged_result" pattern (stage_1_worker/stage_2_worker).
func mergeOnto(ctx context.Context, ev *raster.Evaluator, existingPath string, addend raster.Node, scratchDir string, seq int) (string, error) {
	existing, err := raster.OpenFile(existingPath, 16)
	if err != nil {
		return "", fmt.Errorf("richness: reopen partial %s: %w", existingPath, err)
	}
	defer existing.Close()

	if _, err := raster.Resolve(raster.ResolveUnion, existing, addend); err != nil {
		return "", err
	}
	sum := raster.Add(existing, addend)

	scale, _ := sum.PixelScale()
	out := filepath.Join(scratchDir, fmt.Sprintf("merge-%d.tif", seq))
	w, err := raster.CreateGeoTIFF(out, sum.Area(), scale, existing.Projection(), raster.Float64)
	if err != nil {
		return "", err
	}
	if _, err := ev.Save(ctx, sum, w); err != nil {
		w.Close()
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}
	return out, nil
}

// richnessStage1 is the stage-1 worker body: accumulate a 0/1 presence
// mask per species across this worker's assigned items, summing them
// into one running partial raster written to partialPath.
func richnessStage1(items []stage.WorkItem, partialPath string) error {
	ctx := context.Background()
	ev := raster.NewEvaluator()
	scratchDir := filepath.Dir(partialPath)

	var mergedPath string
	seq := 0
	for _, item := range items {
		presence, layers, err := buildPresence(item.Paths)
		if err != nil {
			log.Warn().Err(err).Str("species", item.Key).Msg("richness: skipping species")
			continue
		}

		var stepErr error
		if mergedPath == "" {
			scale, _ := presence.PixelScale()
			w, err := raster.CreateGeoTIFF(partialPath, presence.Area(), scale, layers[0].Projection(), raster.Float64)
			if err != nil {
				stepErr = err
			} else if _, err := ev.Save(ctx, presence, w); err != nil {
				w.Close()
				stepErr = err
			} else if err := w.Close(); err != nil {
				stepErr = err
			} else {
				mergedPath = partialPath
			}
		} else {
			seq++
			next, err := mergeOnto(ctx, ev, mergedPath, presence, scratchDir, seq)
			if err != nil {
				stepErr = err
			} else {
				if mergedPath != partialPath {
					os.Remove(mergedPath)
				}
				mergedPath = next
			}
		}
		closeAll(layers)
		if stepErr != nil {
			return stepErr
		}
	}

	if mergedPath == "" {
		return fmt.Errorf("richness: worker received no usable species")
	}
	if mergedPath != partialPath {
		return os.Rename(mergedPath, partialPath)
	}
	return nil
}

// richnessStage2 is the stage-2 worker body: sum every stage-1 partial,
// treating NaN as 0, into the final richness raster.
func richnessStage2(partialPaths []string, outputPath string) error {
	if len(partialPaths) == 0 {
		return fmt.Errorf("richness: no partials to merge")
	}
	ctx := context.Background()
	ev := raster.NewEvaluator()
	scratchDir := filepath.Dir(outputPath)

	mergedPath := partialPaths[0]
	for i, p := range partialPaths[1:] {
		layer, err := raster.OpenFile(p, 16)
		if err != nil {
			return fmt.Errorf("richness: open partial %s: %w", p, err)
		}
		cleaned := raster.NanToNum(layer, 0)
		next, err := mergeOnto(ctx, ev, mergedPath, cleaned, scratchDir, i+1)
		layer.Close()
		if err != nil {
			return err
		}
		mergedPath = next
	}

	if mergedPath == partialPaths[0] {
		// single partial: still needs the nan-cleaning pass.
		layer, err := raster.OpenFile(mergedPath, 16)
		if err != nil {
			return err
		}
		defer layer.Close()
		cleaned := raster.NanToNum(layer, 0)
		scale, _ := layer.PixelScale()
		w, err := raster.CreateGeoTIFF(outputPath, layer.Area(), scale, layer.Projection(), raster.Float64)
		if err != nil {
			return err
		}
		if _, err := ev.Save(ctx, cleaned, w); err != nil {
			w.Close()
			return err
		}
		return w.Close()
	}

	return os.Rename(mergedPath, outputPath)
}

// RunRichness orchestrates the full two-stage reduction: items is one
// WorkItem per species (key = species id, paths = its per-season AoH
// rasters), workers bounds stage-1 concurrency.
func RunRichness(ctx context.Context, items []stage.WorkItem, outputPath string, workers int, scratchDir string) error {
	r := &stage.Runner{Name: RichnessStageName, Workers: workers, ScratchDir: scratchDir}
	return r.Run(ctx, items, outputPath)
}
