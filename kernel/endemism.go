package kernel

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/quantifyearth/life/raster"
	"github.com/quantifyearth/life/stage"
)

// EndemismStageName is the stage.Register key endemism workers dispatch
// through when re-exec'd with --stage-worker.
const EndemismStageName = "endemism"

func init() {
	stage.Register(EndemismStageName, endemismStage1, endemismStage2)
}

// logContribution builds `nan_to_num(log(where(a==0, NaN, a) / total))`:
// each pixel's log-share of a species' total AoH, grounded on
// endemism.py's per-season `log(a/aoh1)` step. Zero pixels map to 0
// (log(0) would be -Inf; treated as "no contribution" per the source's
// nan_to_num pass).
func logContribution(layer raster.Layer, total float64) raster.Node {
	return raster.Apply(layer, func(v float64) float64 {
		if v == 0 {
			return 0
		}
		r := math.Log(v / total)
		if math.IsNaN(r) || math.IsInf(r, 0) {
			return 0
		}
		return r
	})
}

// endemismContribution opens a species' per-season AoH rasters and
// returns its combined log-contribution node: the per-season maximum of
// each season's log-share (§ endemism.py "combined = where(a>b, a, b)"),
// skipping any season whose AoH sums to zero.
func endemismContribution(paths []string) (raster.Node, []*raster.FileLayer, error) {
	layers := make([]*raster.FileLayer, 0, len(paths))
	for _, p := range paths {
		l, err := raster.OpenFile(p, 16)
		if err != nil {
			closeAll(layers)
			return nil, nil, fmt.Errorf("endemism: open %s: %w", p, err)
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

	ctx := context.Background()
	ev := raster.NewEvaluator()

	var combined raster.Node
	for _, l := range layers {
		total, err := ev.Sum(ctx, l)
		if err != nil {
			closeAll(layers)
			return nil, nil, err
		}
		if total <= 0 {
			continue
		}
		contribution := logContribution(l, total)
		if combined == nil {
			combined = contribution
		} else {
			combined = raster.Max(combined, contribution)
		}
	}
	if combined == nil {
		closeAll(layers)
		return nil, nil, fmt.Errorf("endemism: every season had zero AoH")
	}
	return combined, layers, nil
}

func endemismStage1(items []stage.WorkItem, partialPath string) error {
	ctx := context.Background()
	ev := raster.NewEvaluator()
	scratchDir := filepath.Dir(partialPath)

	var mergedPath string
	seq := 0
	for _, item := range items {
		contribution, layers, err := endemismContribution(item.Paths)
		if err != nil {
			closeAll(layers)
			continue
		}

		var stepErr error
		if mergedPath == "" {
			scale, _ := contribution.PixelScale()
			w, err := raster.CreateGeoTIFF(partialPath, contribution.Area(), scale, layers[0].Projection(), raster.Float64)
			if err != nil {
				stepErr = err
			} else if _, err := ev.Save(ctx, contribution, w); err != nil {
				w.Close()
				stepErr = err
			} else if err := w.Close(); err != nil {
				stepErr = err
			} else {
				mergedPath = partialPath
			}
		} else {
			seq++
			next, err := mergeOnto(ctx, ev, mergedPath, contribution, scratchDir, seq)
			if err != nil {
				stepErr = err
			} else {
				mergedPath = next
			}
		}
		closeAll(layers)
		if stepErr != nil {
			return stepErr
		}
	}

	if mergedPath == "" {
		return fmt.Errorf("endemism: worker received no usable species")
	}
	if mergedPath != partialPath {
		return os.Rename(mergedPath, partialPath)
	}
	return nil
}

func endemismStage2(partialPaths []string, outputPath string) error {
	if len(partialPaths) == 0 {
		return fmt.Errorf("endemism: no partials to merge")
	}
	ctx := context.Background()
	ev := raster.NewEvaluator()
	scratchDir := filepath.Dir(outputPath)

	mergedPath := partialPaths[0]
	for i, p := range partialPaths[1:] {
		layer, err := raster.OpenFile(p, 16)
		if err != nil {
			return fmt.Errorf("endemism: open partial %s: %w", p, err)
		}
		next, err := mergeOnto(ctx, ev, mergedPath, raster.NanToNum(layer, 0), scratchDir, i+1)
		layer.Close()
		if err != nil {
			return err
		}
		mergedPath = next
	}
	return os.Rename(mergedPath, outputPath)
}

// RunEndemism orchestrates the two-stage log-contribution reduction:
// items is one WorkItem per species (key = species id, paths = its
// per-season AoH rasters), workers bounds stage-1 concurrency. The
// result is the summed log-contribution raster, not yet divided by
// species richness — callers combine it with CombineWithRichness.
func RunEndemism(ctx context.Context, items []stage.WorkItem, outputPath string, workers int, scratchDir string) error {
	r := &stage.Runner{Name: EndemismStageName, Workers: workers, ScratchDir: scratchDir}
	return r.Run(ctx, items, outputPath)
}

// CombineWithRichness produces the final endemism raster from the summed
// per-pixel log-contribution raster and the precomputed species-richness
// raster: `exp(summedProportion / richness)`, with richness pixels of 0
// masked to NaN first so the division never produces a spurious 0/0
// endemism value (§ endemism.py final stage).
func CombineWithRichness(ctx context.Context, ev *raster.Evaluator, summedProportionPath, richnessPath, outputPath string) error {
	summed, err := raster.OpenFile(summedProportionPath, 16)
	if err != nil {
		return err
	}
	defer summed.Close()
	richness, err := raster.OpenFile(richnessPath, 16)
	if err != nil {
		return err
	}
	defer richness.Close()

	if _, err := raster.Resolve(raster.ResolveIntersection, summed, richness); err != nil {
		return err
	}

	cleanedRichness := raster.Apply(richness, func(v float64) float64 {
		if v > 0 {
			return v
		}
		return math.NaN()
	})
	result := raster.Apply(raster.Div(summed, cleanedRichness), math.Exp)

	scale, _ := result.PixelScale()
	w, err := raster.CreateGeoTIFF(outputPath, result.Area(), scale, summed.Projection(), raster.Float64)
	if err != nil {
		return err
	}
	if _, err := ev.Save(ctx, result, w); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}
