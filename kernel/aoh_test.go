package kernel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantifyearth/life/geo"
	"github.com/quantifyearth/life/raster"
)

func TestAoHInputsSumCountsMatchingPixels(t *testing.T) {
	area := geo.Area{Left: 0, Top: 4, Right: 4, Bottom: 0}

	habitat := constLayer(t, 100, area)
	elevation := constLayer(t, 500, area)
	pixelArea := constLayer(t, 1, area)
	rangeMask := constLayer(t, 1, area)

	in := AoHInputs{
		Habitat:      habitat,
		Elevation:    elevation,
		Area:         pixelArea,
		Range:        rangeMask,
		HabitatCodes: []int{100, 200},
		ElevationLow: 0,
		ElevationHi:  1000,
	}

	ev := raster.NewEvaluator()
	total, err := in.Sum(context.Background(), ev)
	require.NoError(t, err)
	assert.Equal(t, float64(16), total)
}

func TestAoHInputsSumZeroOutsideElevationBand(t *testing.T) {
	area := geo.Area{Left: 0, Top: 4, Right: 4, Bottom: 0}

	habitat := constLayer(t, 100, area)
	elevation := constLayer(t, 2000, area)
	pixelArea := constLayer(t, 1, area)
	rangeMask := constLayer(t, 1, area)

	in := AoHInputs{
		Habitat:      habitat,
		Elevation:    elevation,
		Area:         pixelArea,
		Range:        rangeMask,
		HabitatCodes: []int{100, 200},
		ElevationLow: 0,
		ElevationHi:  1000,
	}

	ev := raster.NewEvaluator()
	total, err := in.Sum(context.Background(), ev)
	require.NoError(t, err)
	assert.Equal(t, float64(0), total)
}

func TestAoHInputsSumZeroOutsideRangeMask(t *testing.T) {
	area := geo.Area{Left: 0, Top: 4, Right: 4, Bottom: 0}

	habitat := constLayer(t, 100, area)
	elevation := constLayer(t, 500, area)
	pixelArea := constLayer(t, 1, area)
	rangeMask := constLayer(t, 0, area)

	in := AoHInputs{
		Habitat:      habitat,
		Elevation:    elevation,
		Area:         pixelArea,
		Range:        rangeMask,
		HabitatCodes: []int{100, 200},
		ElevationLow: 0,
		ElevationHi:  1000,
	}

	ev := raster.NewEvaluator()
	total, err := in.Sum(context.Background(), ev)
	require.NoError(t, err)
	assert.Equal(t, float64(0), total)
}
