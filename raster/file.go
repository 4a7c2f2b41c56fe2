package raster

import (
	"fmt"

	"github.com/airbusgeo/godal"
	"github.com/quantifyearth/life/geo"
)

// FileLayer opens a single-band GeoTIFF (or any GDAL raster driver) and
// serves tiled reads through it, backed by GDAL's own process-local block
// cache (§4.2, §5).
type FileLayer struct {
	ds         *godal.Dataset
	band       godal.Band
	path       string
	nativeArea geo.Area
	scale      geo.PixelScale
	projection string
	dtype      DataType
	native     geo.Window
	view       geo.Window
}

// OpenFile opens path band 1 as a FileLayer. cacheMB configures GDAL's
// GDAL_CACHEMAX for the duration of reads against this layer (16MB in
// streaming stages, up to 1GB in recode stages, per §5).
func OpenFile(path string, cacheMB int) (*FileLayer, error) {
	ds, err := godal.Open(path, godal.RasterOnly(),
		godal.ConfigOption(fmt.Sprintf("GDAL_CACHEMAX=%dMB", cacheMB)))
	if err != nil {
		return nil, fmt.Errorf("raster: open %s: %w", path, err)
	}
	bands := ds.Bands()
	if len(bands) == 0 {
		ds.Close()
		return nil, fmt.Errorf("raster: %s has no bands", path)
	}
	structure := bands[0].Structure()

	gt, err := ds.GeoTransform()
	if err != nil {
		ds.Close()
		return nil, fmt.Errorf("raster: %s has no geotransform: %w", path, err)
	}
	scale := geo.PixelScale{XStep: gt[1], YStep: gt[5]}
	left := gt[0]
	top := gt[3]
	right := left + scale.XStep*float64(structure.SizeX)
	bottom := top + scale.YStep*float64(structure.SizeY)
	area := geo.Area{Left: left, Top: top, Right: right, Bottom: bottom}

	native := geo.Window{XOff: 0, YOff: 0, XSize: structure.SizeX, YSize: structure.SizeY}

	return &FileLayer{
		ds:         ds,
		band:       bands[0],
		path:       path,
		nativeArea: area,
		scale:      scale,
		projection: ds.Projection(),
		dtype:      gdalDataType(structure.DataType),
		native:     native,
		view:       native,
	}, nil
}

func gdalDataType(dt godal.DataType) DataType {
	switch dt {
	case godal.Byte:
		return Byte
	case godal.Int16:
		return Int16
	case godal.UInt16:
		return UInt16
	case godal.Float32:
		return Float32
	default:
		return Float64
	}
}

func (f *FileLayer) Area() geo.Area                        { return f.viewArea() }
func (f *FileLayer) PixelScale() (geo.PixelScale, bool)    { return f.scale, true }
func (f *FileLayer) Projection() string                    { return f.projection }
func (f *FileLayer) DataType() DataType                    { return f.dtype }
func (f *FileLayer) NativeArea() geo.Area                  { return f.nativeArea }
func (f *FileLayer) NativeWindow() geo.Window              { return f.native }

func (f *FileLayer) viewArea() geo.Area {
	return geo.Area{
		Left:   f.nativeArea.Left + float64(f.view.XOff)*f.scale.XStep,
		Top:    f.nativeArea.Top + float64(f.view.YOff)*f.scale.YStep,
		Right:  f.nativeArea.Left + float64(f.view.XOff+f.view.XSize)*f.scale.XStep,
		Bottom: f.nativeArea.Top + float64(f.view.YOff+f.view.YSize)*f.scale.YStep,
	}
}

// SetWindowForIntersection narrows the view window to the pixels covering
// target, which must already be the negotiated intersection area.
func (f *FileLayer) SetWindowForIntersection(target geo.Area) error {
	win, err := geo.WindowFor(f.nativeArea, f.scale, target)
	if err != nil {
		return err
	}
	f.view = win
	return nil
}

// SetWindowForUnion widens the view window to target, which may extend
// past the native raster; out-of-footprint reads are zero-padded (§4.4
// "Union expansion").
func (f *FileLayer) SetWindowForUnion(target geo.Area) error {
	win, err := geo.WindowFor(f.nativeArea, f.scale, target)
	if err != nil {
		return err
	}
	f.view = win
	return nil
}

// ReadTile reads an (x, y, w, h) block from the current view window,
// padding with zero wherever the request falls outside the native raster
// footprint.
func (f *FileLayer) ReadTile(x, y, w, h int) (Tile, error) {
	tile := NewTile(w, h)

	nativeX0 := f.view.XOff + x
	nativeY0 := f.view.YOff + y

	readX0 := nativeX0
	readY0 := nativeY0
	readX1 := nativeX0 + w
	readY1 := nativeY0 + h
	if readX0 < 0 {
		readX0 = 0
	}
	if readY0 < 0 {
		readY0 = 0
	}
	if readX1 > f.native.XSize {
		readX1 = f.native.XSize
	}
	if readY1 > f.native.YSize {
		readY1 = f.native.YSize
	}
	if readX1 <= readX0 || readY1 <= readY0 {
		return tile, nil
	}

	rw := readX1 - readX0
	rh := readY1 - readY0
	buf := make([]float64, rw*rh)
	if err := f.band.Read(readX0, readY0, buf, rw, rh); err != nil {
		return Tile{}, fmt.Errorf("raster: read %s: %w", f.path, err)
	}

	offX := readX0 - nativeX0
	offY := readY0 - nativeY0
	for row := 0; row < rh; row++ {
		srcRow := row * rw
		dstRow := (row + offY) * w
		copy(tile.Data[dstRow+offX:dstRow+offX+rw], buf[srcRow:srcRow+rw])
	}
	return tile, nil
}

func (f *FileLayer) Close() error {
	return f.ds.Close()
}
