package kernel

import (
	"context"
	"math"

	"github.com/quantifyearth/life/raster"
)

// clampToOne mirrors the source's `np.where(chunk > 1, 1, chunk)` pass
// applied to a per-pixel persistence node.
func clampToOne(n raster.Node) raster.Node {
	return raster.Apply(n, func(v float64) float64 {
		if v > 1 {
			return 1
		}
		return v
	})
}

// sqrtNode is the per-pixel square root used by migratory composition
// (§4.7 "P = sqrt(P_b) * sqrt(P_n)").
func sqrtNode(n raster.Node) raster.Node {
	return raster.Apply(n, math.Sqrt)
}

// SeasonAoH bundles one season's current/scenario rasters with its
// historic total, as read by the resident and migratory ΔP paths.
type SeasonAoH struct {
	Current     raster.Layer
	Scenario    raster.Layer // nil means "species extinct under scenario": treated as Constant(0)
	HistoricAoh float64
}

func (s SeasonAoH) scenarioNode() raster.Node {
	if s.Scenario == nil {
		return raster.NewConstant(0)
	}
	return s.Scenario
}

// newPersistence builds process_delta_p's per-pixel new_P node:
//
//	new_aoh = (current_aoh_total - current) + scenario
//	new_p   = min(1, f(new_aoh / historic_aoh))
func newPersistence(current raster.Node, scenario raster.Node, currentAohTotal, historicAoh float64, f ExponentFunc) raster.Node {
	newAoh := raster.Add(raster.Sub(raster.Scalar(currentAohTotal), current), scenario)
	frac := raster.Apply(raster.Div(newAoh, raster.Scalar(historicAoh)), func(v float64) float64 { return f(v) })
	return clampToOne(frac)
}

// DeltaPResident computes a resident species' ΔP raster. current and
// scenario (whose view windows will be set to their union) must already
// be open; historicAoh is the precomputed scalar historic-AoH sum
// (§7 "ZeroHistoricAoH"). Returns the ΔP node, not yet evaluated, plus the
// currentAoh scalar it derived along the way (useful for logging/CSV
// summaries).
func DeltaPResident(ctx context.Context, ev *raster.Evaluator, season SeasonAoH, f ExponentFunc) (raster.Node, float64, error) {
	if season.HistoricAoh == 0 {
		return nil, 0, ErrZeroHistoricAoH
	}
	scenarioNode := season.scenarioNode()

	inputs := []raster.Node{season.Current, scenarioNode}
	if _, err := raster.Resolve(raster.ResolveUnion, inputs...); err != nil {
		return nil, 0, err
	}

	currentAoh, err := ev.Sum(ctx, season.Current)
	if err != nil {
		return nil, 0, err
	}

	newP := newPersistence(season.Current, scenarioNode, currentAoh, season.HistoricAoh, f)
	oldP := persistenceValue(currentAoh, season.HistoricAoh, f)
	deltaP := raster.Sub(newP, raster.Scalar(oldP))
	return deltaP, currentAoh, nil
}

// DeltaPMigratory computes a migratory species' ΔP raster by composing
// breeding and non-breeding persistence as a geometric mean (§4.7):
//
//	P = sqrt(P_b) * sqrt(P_n); ΔP = new_P - old_P computed on the composed P.
func DeltaPMigratory(ctx context.Context, ev *raster.Evaluator, breeding, nonBreeding SeasonAoH, f ExponentFunc) (raster.Node, error) {
	if breeding.HistoricAoh == 0 || nonBreeding.HistoricAoh == 0 {
		return nil, ErrZeroHistoricAoH
	}

	breedingScenario := breeding.scenarioNode()
	nonBreedingScenario := nonBreeding.scenarioNode()

	inputs := []raster.Node{breeding.Current, breedingScenario, nonBreeding.Current, nonBreedingScenario}
	if _, err := raster.Resolve(raster.ResolveUnion, inputs...); err != nil {
		return nil, err
	}

	currentAohBreeding, err := ev.Sum(ctx, breeding.Current)
	if err != nil {
		return nil, err
	}
	currentAohNonBreeding, err := ev.Sum(ctx, nonBreeding.Current)
	if err != nil {
		return nil, err
	}

	persistenceBreeding := persistenceValue(currentAohBreeding, breeding.HistoricAoh, f)
	persistenceNonBreeding := persistenceValue(currentAohNonBreeding, nonBreeding.HistoricAoh, f)
	oldP := math.Sqrt(persistenceBreeding) * math.Sqrt(persistenceNonBreeding)

	newPBreeding := newPersistence(breeding.Current, breedingScenario, currentAohBreeding, breeding.HistoricAoh, f)
	newPNonBreeding := newPersistence(nonBreeding.Current, nonBreedingScenario, currentAohNonBreeding, nonBreeding.HistoricAoh, f)
	newP := raster.Mul(sqrtNode(newPBreeding), sqrtNode(newPNonBreeding))

	return raster.Sub(newP, raster.Scalar(oldP)), nil
}
