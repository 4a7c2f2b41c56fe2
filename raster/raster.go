// Package raster implements the lazy, windowed, geospatially-aware raster
// algebra engine: layer sources, a lazy operator graph over them, a tiled
// evaluator, and the vector-to-raster rasterizer that backs species range
// masks.
package raster

import "github.com/quantifyearth/life/geo"

// DataType mirrors the pixel types GDAL hands us (§6): single-band
// UInt8/Int16/UInt16/Float32/Float64 GeoTIFFs.
type DataType int

const (
	Byte DataType = iota
	Int16
	UInt16
	Float32
	Float64
)

// Tile is a rectangular block of pixel values, evaluated at double
// precision regardless of the node's declared DataType — the operator
// graph promotes everything to float64 internally and narrows only on
// the final write, mirroring how the source pipeline leans on numpy's
// implicit upcasting for arithmetic and only narrows at save time.
type Tile struct {
	Width, Height int
	Data          []float64
}

// NewTile allocates a zeroed tile of the given shape.
func NewTile(w, h int) Tile {
	return Tile{Width: w, Height: h, Data: make([]float64, w*h)}
}

// At returns the value at (x, y) within the tile.
func (t Tile) At(x, y int) float64 {
	return t.Data[y*t.Width+x]
}

// Set stores a value at (x, y) within the tile.
func (t Tile) Set(x, y int, v float64) {
	t.Data[y*t.Width+x] = v
}

// Node is the common read contract for both Layer sources and operator
// graph nodes (§3's "Operator node"). A Layer is trivially a zero-input
// Node.
type Node interface {
	// Area is the node's current view area, after Resolve has run.
	Area() geo.Area
	// PixelScale returns the node's pixel scale, and false if the node
	// has no opinion (Constant nodes adopt whatever their peers use).
	PixelScale() (geo.PixelScale, bool)
	Projection() string
	DataType() DataType
	// ReadTile returns the tile at (x, y, w, h) in the node's current
	// view window, bottom-up evaluating any wrapped operator nodes.
	ReadTile(x, y, w, h int) (Tile, error)
}

// Layer is a Node that additionally owns an underlying source: it has a
// native window distinct from its current view, and that view can be
// re-pointed by SetWindowForIntersection/SetWindowForUnion ahead of an
// evaluation (§3, §4.3 "Readiness").
type Layer interface {
	Node
	NativeArea() geo.Area
	NativeWindow() geo.Window
	SetWindowForIntersection(geo.Area) error
	SetWindowForUnion(geo.Area) error
	Close() error
}
