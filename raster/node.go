package raster

import (
	"fmt"

	"github.com/quantifyearth/life/geo"
)

// ResolveMode selects how Resolve negotiates an area across a node's
// inputs (§3, §4.3 "Readiness").
type ResolveMode int

const (
	ResolveIntersection ResolveMode = iota
	ResolveUnion
)

// hasChildren is implemented by every operator node so Resolve can walk
// down to the Layer leaves.
type hasChildren interface {
	Children() []Node
}

// Resolve negotiates mode (Intersection or Union) across nodes and sets
// each underlying Layer's view window so that all tiles subsequently
// read from the graph align positionally (§4.3, §4.4).
func Resolve(mode ResolveMode, nodes ...Node) (geo.Area, error) {
	areas := make([]geo.Area, 0, len(nodes))
	scales := make([]geo.PixelScale, 0, len(nodes))
	for _, n := range nodes {
		areas = append(areas, n.Area())
		if s, ok := n.PixelScale(); ok {
			scales = append(scales, s)
		}
	}

	var area geo.Area
	var err error
	switch mode {
	case ResolveIntersection:
		area, err = geo.Intersection(areas, scales)
	case ResolveUnion:
		area, err = geo.Union(areas, scales)
	default:
		return geo.Area{}, fmt.Errorf("raster: unknown resolve mode %d", mode)
	}
	if err != nil {
		return geo.Area{}, err
	}

	for _, n := range nodes {
		if err := resolveNode(n, mode, area); err != nil {
			return geo.Area{}, err
		}
	}
	return area, nil
}

func resolveNode(n Node, mode ResolveMode, area geo.Area) error {
	if l, ok := n.(Layer); ok {
		switch mode {
		case ResolveIntersection:
			return l.SetWindowForIntersection(area)
		case ResolveUnion:
			return l.SetWindowForUnion(area)
		}
	}
	if hc, ok := n.(hasChildren); ok {
		for _, c := range hc.Children() {
			if err := resolveNode(c, mode, area); err != nil {
				return err
			}
		}
	}
	return nil
}

// baseNode carries the negotiated area/scale/projection/dtype an
// operator node inherited from its operands at construction time, per
// §4.3's "non-Constant wins" rule, plus the list of operand nodes used
// by Resolve and by each node's own ReadTile.
type baseNode struct {
	area       geo.Area
	scale      geo.PixelScale
	hasScale   bool
	projection string
	dtype      DataType
	children   []Node
}

func (b *baseNode) Area() geo.Area                     { return b.area }
func (b *baseNode) PixelScale() (geo.PixelScale, bool) { return b.scale, b.hasScale }
func (b *baseNode) Projection() string                 { return b.projection }
func (b *baseNode) DataType() DataType                 { return b.dtype }
func (b *baseNode) Children() []Node                   { return b.children }

// negotiate picks the area/scale/projection/dtype to carry for an
// operator built over inputs, preferring the first operand that reports
// a real (non-Constant) pixel scale (§4.3 "non-Constant wins"). It does
// not itself validate cross-operand scale compatibility: that check is
// deferred to Resolve, which is the spec's single fatal boundary for
// ScaleMismatch (§4.4) — constructing a graph over incompatible operands
// is not itself an error, only evaluating it is.
func negotiate(inputs ...Node) baseNode {
	var b baseNode
	b.children = inputs
	found := false
	for _, n := range inputs {
		if s, ok := n.PixelScale(); ok && !found {
			b.scale = s
			b.hasScale = true
			b.area = n.Area()
			b.projection = n.Projection()
			b.dtype = n.DataType()
			found = true
		}
	}
	if !found && len(inputs) > 0 {
		// every operand is a Constant; adopt the first non-empty operand's
		// area (a bare Scalar has none) and fall through with no opinion
		// on scale.
		src := inputs[0]
		for _, n := range inputs {
			if !n.Area().Empty() {
				src = n
				break
			}
		}
		b.area = src.Area()
		b.projection = src.Projection()
		b.dtype = src.DataType()
	}
	// widen dtype to the most precise operand (Cast exists for explicit
	// narrowing/widening beyond this).
	for _, n := range inputs {
		if n.DataType() > b.dtype {
			b.dtype = n.DataType()
		}
	}
	return b
}
