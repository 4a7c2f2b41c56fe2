package raster

import "github.com/quantifyearth/life/geo"

// ConstantLayer returns a fixed scalar fill at any (x, y, w, h). It
// reports the "adopts peer's scale" sentinel (PixelScale ok=false, §4.2)
// so it never forces a ScaleMismatch against whatever it is combined
// with; its Area is likewise whatever it is asked to resolve against.
type ConstantLayer struct {
	value float64
	area  geo.Area
	dtype DataType
}

// NewConstant builds a ConstantLayer of the given fill value.
func NewConstant(value float64) *ConstantLayer {
	return &ConstantLayer{value: value, dtype: Float64}
}

func (c *ConstantLayer) Area() geo.Area                     { return c.area }
func (c *ConstantLayer) PixelScale() (geo.PixelScale, bool) { return geo.PixelScale{}, false }
func (c *ConstantLayer) Projection() string                 { return "" }
func (c *ConstantLayer) DataType() DataType                 { return c.dtype }
func (c *ConstantLayer) NativeArea() geo.Area                { return c.area }
func (c *ConstantLayer) NativeWindow() geo.Window            { return geo.Window{} }

func (c *ConstantLayer) SetWindowForIntersection(target geo.Area) error {
	c.area = target
	return nil
}

func (c *ConstantLayer) SetWindowForUnion(target geo.Area) error {
	c.area = target
	return nil
}

func (c *ConstantLayer) ReadTile(x, y, w, h int) (Tile, error) {
	tile := NewTile(w, h)
	for i := range tile.Data {
		tile.Data[i] = c.value
	}
	return tile, nil
}

func (c *ConstantLayer) Close() error { return nil }
