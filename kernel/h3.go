package kernel

import (
	"context"
	"errors"
	"fmt"

	h3 "github.com/uber/h3-go/v4"

	"github.com/quantifyearth/life/geo"
	"github.com/quantifyearth/life/raster"
)

// H3Result is one cell's share of an AoH raster's total (§ h3calculate.py
// "tile, tile_aoh" pairs).
type H3Result struct {
	Cell  h3.Cell
	Value float64
}

// H3Aggregate sums aoh against every cell in cells, rasterizing each cell's
// boundary at aoh's scale/projection and intersecting it with aoh before
// summing. A cell with no intersection contributes 0, mirroring the
// source's `except ValueError: return (tile, 0.0)` fallback rather than
// aborting the whole run over one malformed tile.
//
// aoh's view window is restored from its native area before each cell so
// that per-cell intersections don't compound across iterations; this is
// the sequential-process stand-in for the source's per-worker fresh
// `RasterLayer.layer_from_file` re-open.
func H3Aggregate(ctx context.Context, aoh raster.Layer, cells []h3.Cell, bandWidth float64) ([]H3Result, error) {
	scale, ok := aoh.PixelScale()
	if !ok {
		return nil, fmt.Errorf("kernel: h3 aggregate requires a layer with a concrete pixel scale")
	}
	projection := aoh.Projection()
	native := aoh.NativeArea()
	ev := raster.NewEvaluator()

	results := make([]H3Result, 0, len(cells))
	for _, cell := range cells {
		value, err := h3CellSum(ctx, ev, aoh, native, scale, projection, cell, bandWidth)
		if err != nil {
			if errors.Is(err, geo.ErrNoIntersection) {
				results = append(results, H3Result{Cell: cell, Value: 0})
				continue
			}
			return nil, fmt.Errorf("kernel: h3 cell %s: %w", cell.String(), err)
		}
		results = append(results, H3Result{Cell: cell, Value: value})
	}
	return results, nil
}

func h3CellSum(ctx context.Context, ev *raster.Evaluator, aoh raster.Layer, native geo.Area, scale geo.PixelScale, projection string, cell h3.Cell, bandWidth float64) (float64, error) {
	tile, err := raster.OpenH3Cell(cell, scale, projection, bandWidth)
	if err != nil {
		return 0, err
	}
	defer tile.Close()

	area, err := geo.Intersection([]geo.Area{native, tile.Area()}, []geo.PixelScale{scale, scale})
	if err != nil {
		return 0, err
	}
	if err := aoh.SetWindowForIntersection(area); err != nil {
		return 0, err
	}
	if err := tile.SetWindowForIntersection(area); err != nil {
		return 0, err
	}

	product := raster.Mul(aoh, tile)
	return ev.Sum(ctx, product)
}
