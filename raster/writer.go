package raster

import (
	"fmt"

	"github.com/airbusgeo/godal"
	"github.com/quantifyearth/life/geo"
)

// Writer is the destination of a Save: a GeoTIFF opened for creation,
// LZW-compressed and tiled, per §6's output contract.
type Writer struct {
	ds    *godal.Dataset
	band  godal.Band
	area  geo.Area
	scale geo.PixelScale
}

func gdalTypeOf(dt DataType) godal.DataType {
	switch dt {
	case Byte:
		return godal.Byte
	case Int16:
		return godal.Int16
	case UInt16:
		return godal.UInt16
	case Float32:
		return godal.Float32
	default:
		return godal.Float64
	}
}

// CreateGeoTIFF creates a single-band output raster covering area at
// scale, ready for Save to stream tiles into.
func CreateGeoTIFF(path string, area geo.Area, scale geo.PixelScale, projection string, dtype DataType) (*Writer, error) {
	absX := absf(scale.XStep)
	absY := absf(scale.YStep)
	width := int((area.Right-area.Left)/absX + 0.5)
	height := int((area.Top-area.Bottom)/absY + 0.5)

	ds, err := godal.Create(godal.GTiff, path, 1, gdalTypeOf(dtype), width, height,
		godal.CreationOption("COMPRESS=LZW", "TILED=YES"))
	if err != nil {
		return nil, fmt.Errorf("raster: create %s: %w", path, err)
	}
	if err := ds.SetGeoTransform([6]float64{area.Left, scale.XStep, 0, area.Top, 0, scale.YStep}); err != nil {
		ds.Close()
		return nil, fmt.Errorf("raster: set geotransform: %w", err)
	}
	if err := ds.SetProjection(projection); err != nil {
		ds.Close()
		return nil, fmt.Errorf("raster: set projection: %w", err)
	}
	return &Writer{ds: ds, band: ds.Bands()[0], area: area, scale: scale}, nil
}

// WriteTile writes tile t at (x, y) in the output raster. Distinct
// stripes call this on disjoint row ranges, so no locking is required
// (§4.4 "Parallel save").
func (w *Writer) WriteTile(x, y int, t Tile) error {
	return w.band.Write(x, y, t.Data, t.Width, t.Height)
}

// Close flushes and closes the output dataset.
func (w *Writer) Close() error {
	return w.ds.Close()
}
