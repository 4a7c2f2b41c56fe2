package raster

import "github.com/quantifyearth/life/geo"

// memLayer is a pure in-memory Layer used by the operator-graph and
// evaluator tests below, so they exercise the engine's arithmetic and
// tiling without depending on a real GDAL install.
type memLayer struct {
	data       []float64
	width      int
	height     int
	nativeArea geo.Area
	scale      geo.PixelScale
	dtype      DataType
	view       geo.Window
	native     geo.Window
}

func newMemLayer(data []float64, width, height int, area geo.Area, scale geo.PixelScale, dtype DataType) *memLayer {
	native := geo.Window{XOff: 0, YOff: 0, XSize: width, YSize: height}
	return &memLayer{
		data: data, width: width, height: height,
		nativeArea: area, scale: scale, dtype: dtype,
		view: native, native: native,
	}
}

func (m *memLayer) Area() geo.Area {
	return geo.Area{
		Left:   m.nativeArea.Left + float64(m.view.XOff)*m.scale.XStep,
		Top:    m.nativeArea.Top + float64(m.view.YOff)*m.scale.YStep,
		Right:  m.nativeArea.Left + float64(m.view.XOff+m.view.XSize)*m.scale.XStep,
		Bottom: m.nativeArea.Top + float64(m.view.YOff+m.view.YSize)*m.scale.YStep,
	}
}
func (m *memLayer) PixelScale() (geo.PixelScale, bool) { return m.scale, true }
func (m *memLayer) Projection() string                 { return "EPSG:4326" }
func (m *memLayer) DataType() DataType                 { return m.dtype }
func (m *memLayer) NativeArea() geo.Area               { return m.nativeArea }
func (m *memLayer) NativeWindow() geo.Window           { return m.native }

func (m *memLayer) SetWindowForIntersection(target geo.Area) error {
	win, err := geo.WindowFor(m.nativeArea, m.scale, target)
	if err != nil {
		return err
	}
	m.view = win
	return nil
}

func (m *memLayer) SetWindowForUnion(target geo.Area) error {
	win, err := geo.WindowFor(m.nativeArea, m.scale, target)
	if err != nil {
		return err
	}
	m.view = win
	return nil
}

func (m *memLayer) ReadTile(x, y, w, h int) (Tile, error) {
	tile := NewTile(w, h)
	for row := 0; row < h; row++ {
		srcY := m.view.YOff + y + row
		if srcY < 0 || srcY >= m.native.YSize {
			continue
		}
		for col := 0; col < w; col++ {
			srcX := m.view.XOff + x + col
			if srcX < 0 || srcX >= m.native.XSize {
				continue
			}
			tile.Set(col, row, m.data[srcY*m.native.XSize+srcX])
		}
	}
	return tile, nil
}

func (m *memLayer) Close() error { return nil }
