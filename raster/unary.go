package raster

import "math"

// unaryNode applies a pure elementwise function to one tile (§4.3
// "Unary map").
type unaryNode struct {
	baseNode
	in Node
	fn func(v float64) float64
}

func (n *unaryNode) ReadTile(x, y, w, h int) (Tile, error) {
	t, err := n.in.ReadTile(x, y, w, h)
	if err != nil {
		return Tile{}, err
	}
	out := NewTile(w, h)
	for i, v := range t.Data {
		out.Data[i] = n.fn(v)
	}
	return out, nil
}

// Apply maps every pixel of n through fn, keeping n's area/scale/dtype.
func Apply(n Node, fn func(float64) float64) Node {
	return &unaryNode{baseNode: negotiate(n), in: n, fn: fn}
}

// IsIn returns a 0/1 mask of whether each pixel's value (rounded to the
// nearest integer, since habitat/elevation codes are integral) is a
// member of codes.
func IsIn(n Node, codes []int) Node {
	set := make(map[int]struct{}, len(codes))
	for _, c := range codes {
		set[c] = struct{}{}
	}
	return Apply(n, func(v float64) float64 {
		_, ok := set[int(math.Round(v))]
		return boolOf(ok)
	})
}

// NanToNum replaces NaN pixels with replacement (§4.7's "nan_to_num").
func NanToNum(n Node, replacement float64) Node {
	return Apply(n, func(v float64) float64 {
		if math.IsNaN(v) {
			return replacement
		}
		return v
	})
}

// Cast explicitly promotes/narrows n's declared datatype for downstream
// arithmetic (§4.3 "Cast"). Values themselves are always carried at
// float64 precision internally; Cast only changes what DataType() — and
// therefore Save's output band type — reports.
func Cast(n Node, dtype DataType) Node {
	base := negotiate(n)
	base.dtype = dtype
	return &unaryNode{baseNode: base, in: n, fn: func(v float64) float64 { return v }}
}
