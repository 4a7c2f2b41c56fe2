package kernel

import (
	"context"
	"fmt"
	"strings"

	"github.com/airbusgeo/godal"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	h3 "github.com/uber/h3-go/v4"

	"github.com/quantifyearth/life/raster"
)

// H3Resolution is the hex resolution the engine aggregates AoH into
// (§6's H3 aggregation step), matching MAG in h3calculate.py.
const H3Resolution = 7

// boundaryPadding is how many rings of neighbours to pull in around each
// cell a range polygon's boundary touches, compensating for H3's
// centroid-containment test missing cells a thin sliver of the polygon
// still covers (§ h3calculate.py's `grid_disk(cell, 3)` padding).
const boundaryPadding = 3

// RangeCells reads every feature of path's range vector matching
// taxonID/season, converts its polygon(s) to H3 cells at resolution, and
// returns their de-duplicated union (§6 "h3agg --range FILE").
func RangeCells(path string, taxonID int, season string, resolution int) ([]h3.Cell, error) {
	ds, err := godal.Open(path, godal.VectorOnly())
	if err != nil {
		return nil, fmt.Errorf("kernel: open range %s: %w", path, err)
	}
	defer ds.Close()

	layers := ds.Layers()
	if len(layers) == 0 {
		return nil, fmt.Errorf("kernel: range %s has no layers", path)
	}
	layer := layers[0]
	layer.ResetReading()

	seen := map[h3.Cell]struct{}{}
	matched := 0
	for {
		feat := layer.NextFeature()
		if feat == nil {
			break
		}
		fields := feat.Fields()
		id := int(fields["id_no"].Int())
		seasonField := fields["season"].String()
		if id != taxonID || !strings.EqualFold(seasonField, season) {
			feat.Close()
			continue
		}
		matched++

		gj, err := feat.Geometry().GeoJSON()
		if err != nil {
			feat.Close()
			return nil, fmt.Errorf("kernel: range %s feature %d geometry: %w", path, id, err)
		}
		geom, err := geojson.UnmarshalGeometry([]byte(gj))
		feat.Close()
		if err != nil {
			return nil, fmt.Errorf("kernel: range %s feature %d: parse geojson: %w", path, id, err)
		}
		addGeometryCells(seen, geom.Geometry(), resolution)
	}
	if matched == 0 {
		return nil, fmt.Errorf("kernel: range %s has no features for taxon %d/%s", path, taxonID, season)
	}

	cells := make([]h3.Cell, 0, len(seen))
	for c := range seen {
		cells = append(cells, c)
	}
	return cells, nil
}

func addGeometryCells(seen map[h3.Cell]struct{}, g orb.Geometry, resolution int) {
	switch v := g.(type) {
	case orb.Polygon:
		addPolygonCells(seen, v, resolution)
	case orb.MultiPolygon:
		for _, p := range v {
			addPolygonCells(seen, p, resolution)
		}
	case orb.Collection:
		for _, sub := range v {
			addGeometryCells(seen, sub, resolution)
		}
	}
}

func addPolygonCells(seen map[h3.Cell]struct{}, polygon orb.Polygon, resolution int) {
	if len(polygon) == 0 {
		return
	}
	loop := ringToLoop(polygon[0])
	holes := make([]h3.GeoLoop, 0, len(polygon)-1)
	for _, ring := range polygon[1:] {
		holes = append(holes, ringToLoop(ring))
	}

	gp := h3.GeoPolygon{GeoLoop: loop, Holes: holes}
	for _, c := range h3.PolygonToCells(gp, resolution) {
		seen[c] = struct{}{}
	}

	for _, ring := range polygon {
		addBoundaryCells(seen, ring, resolution)
	}
}

func ringToLoop(ring orb.Ring) h3.GeoLoop {
	loop := make(h3.GeoLoop, len(ring))
	for i, pt := range ring {
		loop[i] = h3.LatLng{Lat: pt.Y(), Lng: pt.X()}
	}
	return loop
}

// addBoundaryCells walks ring's edges, approximating the straight-line
// path between consecutive vertices' cells, and pads each with a
// boundaryPadding ring of neighbours: PolygonToCells only returns cells
// whose centroid falls inside the polygon, so thin boundary slivers are
// otherwise lost (§ h3calculate.py "polygon_to_tiles").
func addBoundaryCells(seen map[h3.Cell]struct{}, ring orb.Ring, resolution int) {
	if len(ring) == 0 {
		return
	}
	points := ring
	if !points[0].Equal(points[len(points)-1]) {
		points = append(append(orb.Ring{}, points...), points[0])
	}

	for i := 0; i < len(points)-1; i++ {
		start := h3.LatLng{Lat: points[i].Y(), Lng: points[i].X()}
		end := h3.LatLng{Lat: points[i+1].Y(), Lng: points[i+1].X()}
		startCell := h3.LatLngToCell(start, resolution)
		endCell := h3.LatLngToCell(end, resolution)

		line := []h3.Cell{startCell, endCell}
		if startCell != endCell {
			if dist, err := h3.GridDistance(startCell, endCell); err == nil && dist > 0 {
				for k := 0; k < int(dist); k++ {
					frac := float64(k) / float64(dist)
					here := h3.LatLng{
						Lat: start.Lat + (end.Lat-start.Lat)*frac,
						Lng: start.Lng + (end.Lng-start.Lng)*frac,
					}
					line = append(line, h3.LatLngToCell(here, resolution))
				}
			} else if path, err := h3.GridPathCells(startCell, endCell); err == nil {
				line = append(line, path...)
			}
		}

		for _, c := range line {
			seen[c] = struct{}{}
			for _, neighbour := range h3.GridDisk(c, boundaryPadding) {
				seen[neighbour] = struct{}{}
			}
		}
	}
}

// SpeciesAoHTotal is the reference total AoH a species' hex-cell sums
// must reconcile against, read by summing the whole raster once (§
// h3calculate.py "get_original_aoh_info").
func SpeciesAoHTotal(ctx context.Context, aoh raster.Layer) (float64, error) {
	ev := raster.NewEvaluator()
	return ev.Sum(ctx, aoh)
}
