package raster

// binaryNode applies a pure elementwise function over two same-shaped
// tiles (§4.3 "Binary/ternary elementwise").
type binaryNode struct {
	baseNode
	a, b Node
	fn   func(a, b float64) float64
}

func newBinary(a, b Node, fn func(a, b float64) float64) Node {
	return &binaryNode{baseNode: negotiate(a, b), a: a, b: b, fn: fn}
}

func (n *binaryNode) ReadTile(x, y, w, h int) (Tile, error) {
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
		out.Data[i] = n.fn(ta.Data[i], tb.Data[i])
	}
	return out, nil
}

// Add returns a+b. Either operand may be a Constant (promoted via
// Scalar).
func Add(a, b Node) Node { return newBinary(a, b, func(x, y float64) float64 { return x + y }) }

// Sub returns a-b.
func Sub(a, b Node) Node { return newBinary(a, b, func(x, y float64) float64 { return x - y }) }

// Mul returns a*b.
func Mul(a, b Node) Node { return newBinary(a, b, func(x, y float64) float64 { return x * y }) }

// Div returns a/b. Division by zero yields 0, not NaN/Inf, so that
// downstream NaN-safe accumulation (richness/endemism) need not special
// case it.
func Div(a, b Node) Node {
	return newBinary(a, b, func(x, y float64) float64 {
		if y == 0 {
			return 0
		}
		return x / y
	})
}

// Scalar promotes a plain float64 to a Constant node (§4.3 "Constant
// lift").
func Scalar(v float64) Node { return NewConstant(v) }

// Max returns the elementwise maximum of a and b.
func Max(a, b Node) Node {
	return newBinary(a, b, func(x, y float64) float64 {
		if x > y {
			return x
		}
		return y
	})
}
