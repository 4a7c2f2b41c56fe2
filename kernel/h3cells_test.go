package kernel

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	h3 "github.com/uber/h3-go/v4"
)

func TestRingToLoopPreservesLatLngOrder(t *testing.T) {
	ring := orb.Ring{
		{-10, 5},
		{-10, 6},
		{-9, 6},
		{-9, 5},
		{-10, 5},
	}
	loop := ringToLoop(ring)
	assert.Len(t, loop, len(ring))
	assert.Equal(t, h3.LatLng{Lat: 5, Lng: -10}, loop[0])
	assert.Equal(t, h3.LatLng{Lat: 6, Lng: -9}, loop[2])
}

func TestAddPolygonCellsProducesNonEmptySet(t *testing.T) {
	// A ~1 degree square near the equator, comfortably larger than a
	// single resolution-5 hex.
	square := orb.Polygon{
		orb.Ring{
			{0, 0},
			{0, 1},
			{1, 1},
			{1, 0},
			{0, 0},
		},
	}
	seen := map[h3.Cell]struct{}{}
	addPolygonCells(seen, square, 5)
	assert.NotEmpty(t, seen)
}

func TestAddGeometryCellsHandlesMultiPolygon(t *testing.T) {
	mp := orb.MultiPolygon{
		{orb.Ring{{0, 0}, {0, 1}, {1, 1}, {1, 0}, {0, 0}}},
		{orb.Ring{{10, 10}, {10, 11}, {11, 11}, {11, 10}, {10, 10}}},
	}
	seen := map[h3.Cell]struct{}{}
	addGeometryCells(seen, mp, 5)
	assert.NotEmpty(t, seen)
}
