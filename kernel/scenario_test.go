package kernel

import (
	"math"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantifyearth/life/geo"
	"github.com/quantifyearth/life/raster"
)

func TestLoadCrosswalk(t *testing.T) {
	csv := "code,value\n14.1,1401\n14.1,1402\n14.2,1403\n"
	cw, err := LoadCrosswalk(strings.NewReader(csv))
	require.NoError(t, err)

	values, err := cw.Codes([]string{"14.1"})
	require.NoError(t, err)
	assert.Equal(t, []int{1401, 1402}, values)

	_, err = cw.Codes([]string{"99.9"})
	require.ErrorIs(t, err, ErrUnknownCode)
}

func constLayer(t *testing.T, value float64, area geo.Area) *raster.ConstantLayer {
	t.Helper()
	c := raster.NewConstant(value)
	require.NoError(t, c.SetWindowForIntersection(area))
	return c
}

func TestMakeCurrentPreservesArtificialCode(t *testing.T) {
	area := geo.Area{Left: 0, Top: 1, Right: 1, Bottom: 0}
	cw := Crosswalk{"14": {1405}}
	jung := constLayer(t, 1405, area)

	node, err := MakeCurrent(jung, cw)
	require.NoError(t, err)
	tile, err := node.ReadTile(0, 0, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, float64(1405), tile.At(0, 0))
}

func TestMakeCurrentFloorsNonArtificialCode(t *testing.T) {
	area := geo.Area{Left: 0, Top: 1, Right: 1, Bottom: 0}
	cw := Crosswalk{"14": {1405}}
	jung := constLayer(t, 850, area)

	node, err := MakeCurrent(jung, cw)
	require.NoError(t, err)
	tile, err := node.ReadTile(0, 0, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, float64(800), tile.At(0, 0))
}

func TestMakeArableLeavesUrbanUntouched(t *testing.T) {
	area := geo.Area{Left: 0, Top: 1, Right: 1, Bottom: 0}
	urban := constLayer(t, jungUrbanCode, area)

	tile, err := MakeArable(urban).ReadTile(0, 0, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, float64(jungUrbanCode), tile.At(0, 0))
}

func TestMakeArableRecodesNonUrban(t *testing.T) {
	area := geo.Area{Left: 0, Top: 1, Right: 1, Bottom: 0}
	forest := constLayer(t, 100, area)

	tile, err := MakeArable(forest).ReadTile(0, 0, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, float64(jungArableCode), tile.At(0, 0))
}

func TestMakePastureRecodesNonUrban(t *testing.T) {
	area := geo.Area{Left: 0, Top: 1, Right: 1, Bottom: 0}
	forest := constLayer(t, 100, area)

	tile, err := MakePasture(forest).ReadTile(0, 0, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, float64(jungPastureCode), tile.At(0, 0))
}

func TestNewTileRNGIsDeterministic(t *testing.T) {
	a := NewTileRNG(42, 7)
	b := NewTileRNG(42, 7)
	for i := 0; i < 10; i++ {
		assert.Equal(t, a.Uint64(), b.Uint64())
	}
}

func TestNewTileRNGVariesByTileIndex(t *testing.T) {
	a := NewTileRNG(42, 1)
	b := NewTileRNG(42, 2)
	assert.NotEqual(t, a.Uint64(), b.Uint64())
}

func TestMakeFoodCurrentTileIncreaseRecodesRequiredCount(t *testing.T) {
	// 4x4 grid of forest (code 100), 50% crop increase required.
	data := make([]float64, 16)
	for i := range data {
		data[i] = 100
	}
	tile := FoodCurrentTile{Width: 4, Height: 4, CropDiff: 0.5, PastureDiff: 0}
	rng := rand.New(rand.NewChaCha8([32]byte{1}))

	MakeFoodCurrentTile(data, tile, nil, rng)

	count := 0
	for _, v := range data {
		if v == jungArableCode {
			count++
		}
	}
	assert.Equal(t, 8, count)
}

func TestMakeFoodCurrentTileDecreaseRestoresFromPNV(t *testing.T) {
	data := make([]float64, 4)
	for i := range data {
		data[i] = jungArableCode
	}
	tile := FoodCurrentTile{Width: 2, Height: 2, CropDiff: -1.0, PastureDiff: 0}
	rng := rand.New(rand.NewChaCha8([32]byte{2}))

	MakeFoodCurrentTile(data, tile, func(row, col int) float64 { return 700 }, rng)

	for _, v := range data {
		assert.Equal(t, float64(700), v)
	}
}

func TestMakeFoodCurrentTileSkipsNaNDiff(t *testing.T) {
	data := []float64{100, 100, 100, 100}
	tile := FoodCurrentTile{Width: 2, Height: 2, CropDiff: math.NaN(), PastureDiff: math.NaN()}
	rng := rand.New(rand.NewChaCha8([32]byte{3}))

	MakeFoodCurrentTile(data, tile, nil, rng)
	assert.Equal(t, []float64{100, 100, 100, 100}, data)
}
