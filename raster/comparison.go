package raster

// boolTrue/boolFalse are the tile encoding of boolean results: operator
// nodes speak float64 uniformly, so comparisons and logical ops encode
// true/false as 1.0/0.0, consistent with how & and | compose with them.
const (
	boolTrue  = 1.0
	boolFalse = 0.0
)

func asBool(v float64) bool { return v != 0 }

func boolOf(v bool) float64 {
	if v {
		return boolTrue
	}
	return boolFalse
}

// Eq returns a == b as a 0/1 mask.
func Eq(a, b Node) Node {
	return newBinary(a, b, func(x, y float64) float64 { return boolOf(x == y) })
}

// Neq returns a != b as a 0/1 mask (§8 invariant 5).
func Neq(a, b Node) Node {
	return newBinary(a, b, func(x, y float64) float64 { return boolOf(x != y) })
}

// Lt returns a < b as a 0/1 mask.
func Lt(a, b Node) Node {
	return newBinary(a, b, func(x, y float64) float64 { return boolOf(x < y) })
}

// Gt returns a > b as a 0/1 mask.
func Gt(a, b Node) Node {
	return newBinary(a, b, func(x, y float64) float64 { return boolOf(x > y) })
}

// Gte returns a >= b as a 0/1 mask.
func Gte(a, b Node) Node {
	return newBinary(a, b, func(x, y float64) float64 { return boolOf(x >= y) })
}

// Lte returns a <= b as a 0/1 mask.
func Lte(a, b Node) Node {
	return newBinary(a, b, func(x, y float64) float64 { return boolOf(x <= y) })
}

// And is a boolean AND of two 0/1 masks.
func And(a, b Node) Node {
	return newBinary(a, b, func(x, y float64) float64 { return boolOf(asBool(x) && asBool(y)) })
}

// Or is a boolean OR of two 0/1 masks.
func Or(a, b Node) Node {
	return newBinary(a, b, func(x, y float64) float64 { return boolOf(asBool(x) || asBool(y)) })
}

// ternaryNode applies a pure elementwise function over three same-shaped
// tiles, used by Where (§4.3).
type ternaryNode struct {
	baseNode
	cond, a, b Node
	fn         func(cond, a, b float64) float64
}

func (n *ternaryNode) ReadTile(x, y, w, h int) (Tile, error) {
	tc, err := n.cond.ReadTile(x, y, w, h)
	if err != nil {
		return Tile{}, err
	}
	ta, err := n.a.ReadTile(x, y, w, h)
	if err != nil {
		return Tile{}, err
	}
	tb, err := n.b.ReadTile(x, y, w, h)
	if err != nil {
		return Tile{}, err
	}
	out := NewTile(w, h)
	for i := range out.Data {
		out.Data[i] = n.fn(tc.Data[i], ta.Data[i], tb.Data[i])
	}
	return out, nil
}

// Where selects a where cond is non-zero, b elsewhere (§4.3, §8
// invariant 6).
func Where(cond, a, b Node) Node {
	base := negotiate(cond, a, b)
	return &ternaryNode{
		baseNode: base,
		cond:     cond, a: a, b: b,
		fn: func(c, x, y float64) float64 {
			if asBool(c) {
				return x
			}
			return y
		},
	}
}
