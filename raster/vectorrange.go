package raster

import (
	"fmt"

	"github.com/airbusgeo/godal"
	"github.com/quantifyearth/life/geo"
)

// VectorRangeLayer rasterizes the features of a vector source matching
// an attribute filter into a byte mask at a target scale/projection
// (§4.2). An empty filter result is ErrNoFeatures.
type VectorRangeLayer struct {
	*maskLayer
}

// OpenVectorRange opens path (GeoPackage or Shapefile), applies the
// where-clause filter, and rasterizes the matching features.
func OpenVectorRange(path, whereFilter string, scale geo.PixelScale, projection string) (*VectorRangeLayer, error) {
	ds, err := godal.Open(path, godal.VectorOnly())
	if err != nil {
		return nil, fmt.Errorf("raster: open %s: %w", path, err)
	}
	defer ds.Close()

	layers := ds.Layers()
	if len(layers) == 0 {
		return nil, fmt.Errorf("raster: %s has no layers", path)
	}

	sql := fmt.Sprintf("SELECT * FROM %s WHERE %s", layers[0].Description(), whereFilter)
	rs, err := ds.ExecuteSQL(sql)
	if err != nil {
		return nil, fmt.Errorf("raster: attribute filter %q: %w", whereFilter, err)
	}
	defer rs.Close()

	var geoms []*godal.Geometry
	rs.ResetReading()
	for feat := rs.NextFeature(); feat != nil; feat = rs.NextFeature() {
		geoms = append(geoms, feat.Geometry())
	}
	if len(geoms) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoFeatures, whereFilter)
	}

	mask, err := rasterizeGeometries(geoms, scale, projection)
	if err != nil {
		return nil, err
	}
	return &VectorRangeLayer{maskLayer: mask}, nil
}
