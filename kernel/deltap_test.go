package kernel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantifyearth/life/geo"
	"github.com/quantifyearth/life/raster"
)

func twoByTwo() geo.Area {
	return geo.Area{Left: 0, Top: 2, Right: 2, Bottom: 0}
}

func TestDeltaPResidentNoChangeIsZero(t *testing.T) {
	area := twoByTwo()
	current := constLayer(t, 1, area)
	scenario := constLayer(t, 1, area)

	season := SeasonAoH{Current: current, Scenario: scenario, HistoricAoh: 4}
	ev := raster.NewEvaluator()

	node, currentAoh, err := DeltaPResident(context.Background(), ev, season, PowerCurve(1))
	require.NoError(t, err)
	assert.Equal(t, float64(4), currentAoh)

	total, err := ev.Sum(context.Background(), node)
	require.NoError(t, err)
	assert.InDelta(t, 0, total, 1e-9)
}

func TestDeltaPResidentExtinctionScenarioIsNegative(t *testing.T) {
	area := twoByTwo()
	current := constLayer(t, 1, area)

	season := SeasonAoH{Current: current, Scenario: nil, HistoricAoh: 4}
	ev := raster.NewEvaluator()

	node, currentAoh, err := DeltaPResident(context.Background(), ev, season, PowerCurve(1))
	require.NoError(t, err)
	assert.Equal(t, float64(4), currentAoh)

	total, err := ev.Sum(context.Background(), node)
	require.NoError(t, err)
	assert.InDelta(t, -1.0, total, 1e-9)
}

func TestDeltaPResidentZeroHistoricAoHErrors(t *testing.T) {
	area := twoByTwo()
	current := constLayer(t, 1, area)
	scenario := constLayer(t, 1, area)

	season := SeasonAoH{Current: current, Scenario: scenario, HistoricAoh: 0}
	ev := raster.NewEvaluator()

	_, _, err := DeltaPResident(context.Background(), ev, season, PowerCurve(1))
	require.ErrorIs(t, err, ErrZeroHistoricAoH)
}

func TestDeltaPMigratoryNoChangeIsZero(t *testing.T) {
	area := twoByTwo()
	breeding := SeasonAoH{
		Current:     constLayer(t, 1, area),
		Scenario:    constLayer(t, 1, area),
		HistoricAoh: 4,
	}
	nonBreeding := SeasonAoH{
		Current:     constLayer(t, 1, area),
		Scenario:    constLayer(t, 1, area),
		HistoricAoh: 4,
	}
	ev := raster.NewEvaluator()

	node, err := DeltaPMigratory(context.Background(), ev, breeding, nonBreeding, PowerCurve(1))
	require.NoError(t, err)

	total, err := ev.Sum(context.Background(), node)
	require.NoError(t, err)
	assert.InDelta(t, 0, total, 1e-9)
}

func TestDeltaPMigratoryZeroHistoricAoHErrors(t *testing.T) {
	area := twoByTwo()
	breeding := SeasonAoH{Current: constLayer(t, 1, area), Scenario: constLayer(t, 1, area), HistoricAoh: 0}
	nonBreeding := SeasonAoH{Current: constLayer(t, 1, area), Scenario: constLayer(t, 1, area), HistoricAoh: 4}
	ev := raster.NewEvaluator()

	_, err := DeltaPMigratory(context.Background(), ev, breeding, nonBreeding, PowerCurve(1))
	require.ErrorIs(t, err, ErrZeroHistoricAoH)
}
