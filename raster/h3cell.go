package raster

import (
	"fmt"

	"github.com/airbusgeo/godal"
	h3 "github.com/uber/h3-go/v4"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"

	"github.com/quantifyearth/life/geo"
)

// DefaultH3BandWidth is the longitude band width (degrees) used to split
// a cell boundary that crosses the antimeridian before rasterizing each
// band separately (§4.2, §9).
const DefaultH3BandWidth = 10.0

// H3CellLayer rasterizes a single H3 cell's boundary polygon into a byte
// mask, the same way VectorRangeLayer rasterizes vector features (§4.2,
// §9). The boundary is assumed to already be expressed in target-CRS
// degrees; reprojection is delegated to an out-of-band warp step (§6).
type H3CellLayer struct {
	*maskLayer
}

// OpenH3Cell rasterizes cell at the given target scale/projection.
// bandWidth of 0 selects DefaultH3BandWidth.
func OpenH3Cell(cell h3.Cell, scale geo.PixelScale, projection string, bandWidth float64) (*H3CellLayer, error) {
	if bandWidth <= 0 {
		bandWidth = DefaultH3BandWidth
	}

	boundary := cell.Boundary()
	ring := make(orb.Ring, 0, len(boundary)+1)
	crossesAntimeridian := false
	for i, v := range boundary {
		ring = append(ring, orb.Point{v.Lng, v.Lat})
		if i > 0 {
			prev := ring[i-1]
			if absf(v.Lng-prev[0]) > 180 {
				crossesAntimeridian = true
			}
		}
	}
	if len(ring) > 0 {
		ring = append(ring, ring[0])
	}

	var geoms []*godal.Geometry
	var err error
	if crossesAntimeridian {
		geoms, err = bandSplitGeometries(ring, bandWidth, projection)
	}
	if !crossesAntimeridian || err != nil {
		// Single-pass fallback (§9): either the boundary doesn't cross
		// the antimeridian, or band-splitting failed on a degenerate
		// polygon — burn the raw boundary directly.
		g, gerr := godal.NewGeometryFromWKT(wkt.MarshalString(orb.Polygon{ring}), nil)
		if gerr != nil {
			return nil, fmt.Errorf("raster: h3 cell %s geometry: %w", cell.String(), gerr)
		}
		geoms = []*godal.Geometry{g}
	}

	mask, err := rasterizeGeometries(geoms, scale, projection)
	if err != nil {
		return nil, fmt.Errorf("raster: h3 cell %s: %w", cell.String(), err)
	}
	return &H3CellLayer{maskLayer: mask}, nil
}

// bandSplitGeometries splits ring into longitude bands of width
// bandWidth and clips the ring to each band, returning one polygon per
// non-empty band. This works around antimeridian-crossing cells whose
// raw boundary would otherwise wrap the whole globe under a naive burn.
func bandSplitGeometries(ring orb.Ring, bandWidth float64, _ string) ([]*godal.Geometry, error) {
	minLng, maxLng := 180.0, -180.0
	for _, p := range ring {
		lng := p[0]
		if lng < minLng {
			minLng = lng
		}
		if lng > maxLng {
			maxLng = lng
		}
	}

	var geoms []*godal.Geometry
	for band := -180.0; band < 180.0; band += bandWidth {
		bandRing := clipRingToLongitudeBand(ring, band, band+bandWidth)
		if len(bandRing) < 4 {
			continue
		}
		g, err := godal.NewGeometryFromWKT(wkt.MarshalString(orb.Polygon{bandRing}), nil)
		if err != nil {
			return nil, err
		}
		geoms = append(geoms, g)
	}
	if len(geoms) == 0 {
		return nil, fmt.Errorf("raster: antimeridian band split produced no geometry")
	}
	return geoms, nil
}

// clipRingToLongitudeBand keeps only the vertices of ring that fall
// within [lo, hi), a coarse but adequate approximation for the narrow
// purpose of separating an antimeridian-spanning cell into rasterizable
// pieces (the cell interior is convex-ish at H3's resolution range).
func clipRingToLongitudeBand(ring orb.Ring, lo, hi float64) orb.Ring {
	var out orb.Ring
	for _, p := range ring {
		lng := p[0]
		if lng < -180 {
			lng += 360
		}
		if lng >= lo && lng < hi {
			out = append(out, p)
		}
	}
	if len(out) > 0 && out[0] != out[len(out)-1] {
		out = append(out, out[0])
	}
	return out
}
