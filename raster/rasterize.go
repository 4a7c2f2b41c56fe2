package raster

import (
	"fmt"

	"github.com/airbusgeo/godal"
	"github.com/quantifyearth/life/geo"
)

// maskLayer is the in-memory byte mask produced by the rasterizer; it
// backs both VectorRangeLayer and H3CellLayer (§4.5).
type maskLayer struct {
	data       []float64
	nativeArea geo.Area
	scale      geo.PixelScale
	projection string
	native     geo.Window
	view       geo.Window
}

// rasterizeGeometries burns geoms (already in the target projection) into
// a byte mask covering their pixel-snapped envelope, using all-touched
// semantics (§4.5). An empty geoms list is ErrNoFeatures.
func rasterizeGeometries(geoms []*godal.Geometry, scale geo.PixelScale, projection string) (*maskLayer, error) {
	if len(geoms) == 0 {
		return nil, ErrNoFeatures
	}

	var envelope geo.Area
	has := false
	for _, g := range geoms {
		b, err := g.Bounds()
		if err != nil {
			return nil, fmt.Errorf("raster: geometry bounds: %w", err)
		}
		a := geo.Area{Left: b[0], Bottom: b[1], Right: b[2], Top: b[3]}
		if !has {
			envelope = a
			has = true
			continue
		}
		envelope = geo.Area{
			Left:   min(envelope.Left, a.Left),
			Bottom: min(envelope.Bottom, a.Bottom),
			Right:  max(envelope.Right, a.Right),
			Top:    max(envelope.Top, a.Top),
		}
	}

	snapped := geo.SnapEnvelope(geo.Area{}, scale, envelope)
	absX := absf(scale.XStep)
	absY := absf(scale.YStep)
	width := int((snapped.Right-snapped.Left)/absX + 0.5)
	height := int((snapped.Top-snapped.Bottom)/absY + 0.5)
	if width <= 0 || height <= 0 {
		return nil, ErrNoFeatures
	}

	ds, err := godal.Create(godal.Memory, "", 1, godal.Byte, width, height)
	if err != nil {
		return nil, fmt.Errorf("raster: create mask dataset: %w", err)
	}
	defer ds.Close()

	if err := ds.SetGeoTransform([6]float64{snapped.Left, scale.XStep, 0, snapped.Top, 0, scale.YStep}); err != nil {
		return nil, fmt.Errorf("raster: set geotransform: %w", err)
	}
	if err := ds.SetProjection(projection); err != nil {
		return nil, fmt.Errorf("raster: set projection: %w", err)
	}

	for _, g := range geoms {
		if err := ds.RasterizeGeometry(g, godal.AllTouched(), godal.Bands(1), godal.Values(1)); err != nil {
			return nil, fmt.Errorf("raster: burn geometry: %w", err)
		}
	}

	buf := make([]float64, width*height)
	if err := ds.Bands()[0].Read(0, 0, buf, width, height); err != nil {
		return nil, fmt.Errorf("raster: read mask: %w", err)
	}

	native := geo.Window{XOff: 0, YOff: 0, XSize: width, YSize: height}
	return &maskLayer{
		data:       buf,
		nativeArea: snapped,
		scale:      scale,
		projection: projection,
		native:     native,
		view:       native,
	}, nil
}

func min(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func max(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func (m *maskLayer) Area() geo.Area {
	return geo.Area{
		Left:   m.nativeArea.Left + float64(m.view.XOff)*m.scale.XStep,
		Top:    m.nativeArea.Top + float64(m.view.YOff)*m.scale.YStep,
		Right:  m.nativeArea.Left + float64(m.view.XOff+m.view.XSize)*m.scale.XStep,
		Bottom: m.nativeArea.Top + float64(m.view.YOff+m.view.YSize)*m.scale.YStep,
	}
}

func (m *maskLayer) PixelScale() (geo.PixelScale, bool) { return m.scale, true }
func (m *maskLayer) Projection() string                 { return m.projection }
func (m *maskLayer) DataType() DataType                 { return Byte }
func (m *maskLayer) NativeArea() geo.Area               { return m.nativeArea }
func (m *maskLayer) NativeWindow() geo.Window           { return m.native }

func (m *maskLayer) SetWindowForIntersection(target geo.Area) error {
	win, err := geo.WindowFor(m.nativeArea, m.scale, target)
	if err != nil {
		return err
	}
	m.view = win
	return nil
}

func (m *maskLayer) SetWindowForUnion(target geo.Area) error {
	win, err := geo.WindowFor(m.nativeArea, m.scale, target)
	if err != nil {
		return err
	}
	m.view = win
	return nil
}

func (m *maskLayer) ReadTile(x, y, w, h int) (Tile, error) {
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

func (m *maskLayer) Close() error { return nil }
