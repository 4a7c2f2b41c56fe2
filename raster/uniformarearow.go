package raster

import "github.com/quantifyearth/life/geo"

// UniformAreaRowLayer stores a single column of per-row values (§4.2,
// §3 invariant 4) for rasters whose rows are constant across longitude —
// typically a per-pixel-area map, where decompressing the full-width
// TIFF is wasted work. It advertises a full 360°-wide band and replicates
// row y across whatever width is requested, independent of x.
type UniformAreaRowLayer struct {
	rows       []float64
	scale      geo.PixelScale
	nativeArea geo.Area
	native     geo.Window
	view       geo.Window
	projection string
}

// NewUniformAreaRow builds a layer from the per-row values of a raster
// whose native xstep/ystep is scale and whose top edge is top. The
// virtual native width is synthesized as 360/|xstep| columns, per the
// shrunk-dataset convention this layer optimizes.
func NewUniformAreaRow(rows []float64, scale geo.PixelScale, top float64, projection string) *UniformAreaRowLayer {
	width := int(360.0 / absf(scale.XStep))
	native := geo.Window{XOff: 0, YOff: 0, XSize: width, YSize: len(rows)}
	area := geo.Area{
		Left:   -180,
		Top:    180, // recomputed below from the real top/row count
		Right:  180,
		Bottom: 0,
	}
	area.Top = top
	area.Bottom = top + scale.YStep*float64(len(rows))
	return &UniformAreaRowLayer{
		rows:       rows,
		scale:      scale,
		nativeArea: area,
		native:     native,
		view:       native,
		projection: projection,
	}
}

func absf(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func (u *UniformAreaRowLayer) Area() geo.Area {
	return geo.Area{
		Left:   -180,
		Top:    u.nativeArea.Top + float64(u.view.YOff)*u.scale.YStep,
		Right:  180,
		Bottom: u.nativeArea.Top + float64(u.view.YOff+u.view.YSize)*u.scale.YStep,
	}
}

func (u *UniformAreaRowLayer) PixelScale() (geo.PixelScale, bool) { return u.scale, true }
func (u *UniformAreaRowLayer) Projection() string                 { return u.projection }
func (u *UniformAreaRowLayer) DataType() DataType                 { return Float64 }
func (u *UniformAreaRowLayer) NativeArea() geo.Area                { return u.nativeArea }
func (u *UniformAreaRowLayer) NativeWindow() geo.Window            { return u.native }

func (u *UniformAreaRowLayer) SetWindowForIntersection(target geo.Area) error {
	win, err := geo.WindowFor(u.nativeArea, u.scale, target)
	if err != nil {
		return err
	}
	u.view = win
	return nil
}

func (u *UniformAreaRowLayer) SetWindowForUnion(target geo.Area) error {
	win, err := geo.WindowFor(u.nativeArea, u.scale, target)
	if err != nil {
		return err
	}
	u.view = win
	return nil
}

// ReadTile replicates row y across the full requested width w,
// independent of x (§8 invariant 8). Rows outside the backing array are
// padded with zero, matching union-expansion semantics.
func (u *UniformAreaRowLayer) ReadTile(x, y, w, h int) (Tile, error) {
	tile := NewTile(w, h)
	for row := 0; row < h; row++ {
		srcRow := u.view.YOff + y + row
		if srcRow < 0 || srcRow >= len(u.rows) {
			continue
		}
		v := u.rows[srcRow]
		base := row * w
		for col := 0; col < w; col++ {
			tile.Data[base+col] = v
		}
	}
	return tile, nil
}

func (u *UniformAreaRowLayer) Close() error { return nil }
