package raster

import "github.com/quantifyearth/life/geo"

// RescaledLayer wraps a file-backed layer and resamples it to a
// different (coarser or finer) pixel scale on read, using
// nearest-neighbor sampling (§4.2).
type RescaledLayer struct {
	inner *FileLayer
	scale geo.PixelScale
	area  geo.Area
	view  geo.Area
}

// NewRescaled wraps inner and reports outScale as its pixel scale
// instead of inner's native one.
func NewRescaled(inner *FileLayer, outScale geo.PixelScale) *RescaledLayer {
	native := inner.NativeArea()
	return &RescaledLayer{inner: inner, scale: outScale, area: native, view: native}
}

func (r *RescaledLayer) Area() geo.Area                     { return r.view }
func (r *RescaledLayer) PixelScale() (geo.PixelScale, bool) { return r.scale, true }
func (r *RescaledLayer) Projection() string                 { return r.inner.Projection() }
func (r *RescaledLayer) DataType() DataType                 { return r.inner.DataType() }
func (r *RescaledLayer) NativeArea() geo.Area                { return r.area }

func (r *RescaledLayer) NativeWindow() geo.Window {
	absX := absf(r.scale.XStep)
	absY := absf(r.scale.YStep)
	return geo.Window{
		XOff:  0,
		YOff:  0,
		XSize: int((r.area.Right - r.area.Left) / absX),
		YSize: int((r.area.Top - r.area.Bottom) / absY),
	}
}

func (r *RescaledLayer) SetWindowForIntersection(target geo.Area) error {
	r.view = target
	return nil
}

func (r *RescaledLayer) SetWindowForUnion(target geo.Area) error {
	r.view = target
	return nil
}

// ReadTile maps each output pixel to its nearest pixel in the inner
// layer's native scale and samples it individually — acceptable for the
// coarse-to-fine/fine-to-coarse ratios this engine deals with (elevation
// vs. habitat rasters), not a general-purpose resampler.
func (r *RescaledLayer) ReadTile(x, y, w, h int) (Tile, error) {
	tile := NewTile(w, h)
	innerScale, _ := r.inner.PixelScale()
	innerArea := r.inner.Area()

	for row := 0; row < h; row++ {
		targetY := r.view.Top + r.scale.YStep*float64(y+row)
		innerRow := int((innerArea.Top - targetY) / absf(innerScale.YStep))
		for col := 0; col < w; col++ {
			targetX := r.view.Left + r.scale.XStep*float64(x+col)
			innerCol := int((targetX - innerArea.Left) / absf(innerScale.XStep))
			if innerCol < 0 || innerRow < 0 {
				continue
			}
			t, err := r.inner.ReadTile(innerCol, innerRow, 1, 1)
			if err != nil {
				return Tile{}, err
			}
			tile.Set(col, row, t.At(0, 0))
		}
	}
	return tile, nil
}

func (r *RescaledLayer) Close() error { return nil }
