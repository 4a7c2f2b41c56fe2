package kernel

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantifyearth/life/geo"
)

func TestLogContributionZeroPixelIsZero(t *testing.T) {
	area := geo.Area{Left: 0, Top: 1, Right: 1, Bottom: 0}
	zero := constLayer(t, 0, area)

	node := logContribution(zero, 10)
	tile, err := node.ReadTile(0, 0, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, float64(0), tile.At(0, 0))
}

func TestLogContributionMatchesLogRatio(t *testing.T) {
	area := geo.Area{Left: 0, Top: 1, Right: 1, Bottom: 0}
	layer := constLayer(t, 5, area)

	node := logContribution(layer, 10)
	tile, err := node.ReadTile(0, 0, 1, 1)
	require.NoError(t, err)
	assert.InDelta(t, math.Log(0.5), tile.At(0, 0), 1e-9)
}

