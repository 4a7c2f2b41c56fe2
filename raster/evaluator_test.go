package raster

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantifyearth/life/geo"
)

func unitArea(w, h int) geo.Area {
	return geo.Area{Left: 0, Top: float64(h), Right: float64(w), Bottom: 0}
}

func unitScale() geo.PixelScale { return geo.PixelScale{XStep: 1, YStep: -1} }

// Invariant 4: constant(k) + constant(-k) summed over any area equals 0.
func TestInvariantConstantCancel(t *testing.T) {
	area := unitArea(4, 4)
	k := NewConstant(5)
	negk := NewConstant(-5)
	// Constants adopt whatever area they are resolved against; set it
	// before building the operator graph, since negotiate snapshots each
	// operand's area at construction time.
	require.NoError(t, k.SetWindowForIntersection(area))
	require.NoError(t, negk.SetWindowForIntersection(area))

	sum := Add(k, negk)
	ev := NewEvaluator()
	total, err := ev.Sum(context.Background(), sum)
	require.NoError(t, err)
	assert.InDelta(t, 0, total, 1e-9)
}

// Invariant 5: (a != b) summed over the intersection equals the count of
// differing pixels.
func TestInvariantNeqCountsDifferences(t *testing.T) {
	a := newMemLayer([]float64{1, 2, 3, 4}, 2, 2, unitArea(2, 2), unitScale(), Float64)
	b := newMemLayer([]float64{1, 0, 3, 0}, 2, 2, unitArea(2, 2), unitScale(), Float64)

	area, err := Resolve(ResolveIntersection, a, b)
	require.NoError(t, err)
	assert.Equal(t, unitArea(2, 2), area)

	diff := Neq(a, b)
	ev := NewEvaluator()
	total, err := ev.Sum(context.Background(), diff)
	require.NoError(t, err)
	assert.Equal(t, float64(2), total)
}

// Invariant 6: where(mask, a, b).save(dst) produces a exactly where mask
// != 0 and b elsewhere.
func TestInvariantWhereSelectsExactly(t *testing.T) {
	mask := newMemLayer([]float64{1, 0, 0, 1}, 2, 2, unitArea(2, 2), unitScale(), Byte)
	a := newMemLayer([]float64{10, 10, 10, 10}, 2, 2, unitArea(2, 2), unitScale(), Float64)
	b := newMemLayer([]float64{20, 20, 20, 20}, 2, 2, unitArea(2, 2), unitScale(), Float64)

	out := Where(mask, a, b)
	_, err := Resolve(ResolveIntersection, mask, a, b)
	require.NoError(t, err)

	tile, err := out.ReadTile(0, 0, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, []float64{10, 20, 20, 10}, tile.Data)
}

// Invariant 1 & 2: intersection containment and aligned dimensions.
func TestInvariantIntersectionContainment(t *testing.T) {
	a := newMemLayer(make([]float64, 16), 4, 4, geo.Area{Left: 0, Top: 4, Right: 4, Bottom: 0}, unitScale(), Float64)
	b := newMemLayer(make([]float64, 4), 2, 2, geo.Area{Left: 1, Top: 3, Right: 3, Bottom: 1}, unitScale(), Float64)

	area, err := Resolve(ResolveIntersection, a, b)
	require.NoError(t, err)
	assert.True(t, a.NativeArea().Contains(area))
	assert.Equal(t, 2, a.view.XSize)
	assert.Equal(t, 2, b.view.XSize)
	assert.Equal(t, a.view.XSize, b.view.XSize)
	assert.Equal(t, a.view.YSize, b.view.YSize)
}

// S1 (AoH, tiny): habitat=100, elevation=500, area=1, range=1,
// habitat_codes={100,200}, elevation [0,1000]. Expected AoH = pixel
// count.
func TestScenarioS1AoHTiny(t *testing.T) {
	area := unitArea(4, 4)
	scale := unitScale()
	habitat := newMemLayer(fillf(16, 100), 4, 4, area, scale, UInt16)
	elevation := newMemLayer(fillf(16, 500), 4, 4, area, scale, Int16)
	pixelArea := newMemLayer(fillf(16, 1), 4, 4, area, scale, Float64)
	rangeMask := newMemLayer(fillf(16, 1), 4, 4, area, scale, Byte)

	_, err := Resolve(ResolveIntersection, habitat, elevation, pixelArea, rangeMask)
	require.NoError(t, err)

	inHab := IsIn(habitat, []int{100, 200})
	inElev := And(Gte(elevation, Scalar(0)), Lte(elevation, Scalar(1000)))
	data := And(And(inHab, inElev), rangeMask)
	aoh := Mul(data, NanToNum(pixelArea, 0))

	ev := NewEvaluator()
	total, err := ev.Sum(context.Background(), aoh)
	require.NoError(t, err)
	assert.Equal(t, float64(16), total)
}

// S2 (AoH, out-of-band elevation): elevation 2000 with range [0,1000].
// Expected AoH = 0.
func TestScenarioS2AoHOutOfBand(t *testing.T) {
	area := unitArea(4, 4)
	scale := unitScale()
	habitat := newMemLayer(fillf(16, 100), 4, 4, area, scale, UInt16)
	elevation := newMemLayer(fillf(16, 2000), 4, 4, area, scale, Int16)
	pixelArea := newMemLayer(fillf(16, 1), 4, 4, area, scale, Float64)
	rangeMask := newMemLayer(fillf(16, 1), 4, 4, area, scale, Byte)

	_, err := Resolve(ResolveIntersection, habitat, elevation, pixelArea, rangeMask)
	require.NoError(t, err)

	inHab := IsIn(habitat, []int{100, 200})
	inElev := And(Gte(elevation, Scalar(0)), Lte(elevation, Scalar(1000)))
	data := And(And(inHab, inElev), rangeMask)
	aoh := Mul(data, NanToNum(pixelArea, 0))

	ev := NewEvaluator()
	total, err := ev.Sum(context.Background(), aoh)
	require.NoError(t, err)
	assert.Equal(t, float64(0), total)
}

// Invariant 8 / S6: UniformAreaRow.read(x, y, w, 1) equals the native
// single-column value at y, replicated w times, independent of x.
func TestInvariantUniformAreaRow(t *testing.T) {
	rows := make([]float64, 180)
	for i := range rows {
		rows[i] = float64(i)
	}
	layer := NewUniformAreaRow(rows, geo.PixelScale{XStep: 1, YStep: -1}, 90, "EPSG:4326")

	tile, err := layer.ReadTile(37, 12, 360, 1)
	require.NoError(t, err)
	for _, v := range tile.Data {
		assert.Equal(t, float64(12), v)
	}

	tile2, err := layer.ReadTile(0, 12, 360, 1)
	require.NoError(t, err)
	assert.Equal(t, tile.Data, tile2.Data)
}

func fillf(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}
