package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWindowForExact(t *testing.T) {
	native := Area{Left: -10, Top: 10, Right: 10, Bottom: -10}
	scale := PixelScale{XStep: 1, YStep: -1}
	target := Area{Left: -2, Top: 4, Right: 6, Bottom: -3}
	win, err := WindowFor(native, scale, target)
	require.NoError(t, err)
	assert.Equal(t, Window{XOff: 8, YOff: 6, XSize: 8, YSize: 7}, win)
}

func TestWindowForRoundsSubPixelOffset(t *testing.T) {
	native := Area{Left: 0, Top: 10, Right: 10, Bottom: 0}
	scale := PixelScale{XStep: 1, YStep: -1}
	target := Area{Left: 0.7, Top: 10, Right: 10, Bottom: 0}
	win, err := WindowFor(native, scale, target)
	require.NoError(t, err)
	assert.Equal(t, Window{XOff: 1, YOff: 0, XSize: 9, YSize: 10}, win)
}

func TestSnapEnvelope(t *testing.T) {
	native := Area{Left: 0, Top: 10, Right: 10, Bottom: 0}
	scale := PixelScale{XStep: 1, YStep: -1}
	envelope := Area{Left: 2.3, Top: 7.1, Right: 6.8, Bottom: 3.2}
	got := SnapEnvelope(native, scale, envelope)
	assert.Equal(t, Area{Left: 2, Top: 8, Right: 7, Bottom: 3}, got)
	assert.True(t, got.Contains(envelope))
}
