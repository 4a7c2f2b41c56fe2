package kernel

import (
	"context"

	"github.com/quantifyearth/life/raster"
)

// AoHInputs names the four aligned sources an Area-of-Habitat computation
// reads (§4.7): a habitat-code raster, an elevation raster, a per-pixel
// area raster (possibly a raster.UniformAreaRowLayer), and a rasterized
// species-range mask.
type AoHInputs struct {
	Habitat      raster.Layer
	Elevation    raster.Layer
	Area         raster.Layer
	Range        raster.Layer
	HabitatCodes []int
	ElevationLow float64
	ElevationHi  float64
}

// Build constructs the AoH recipe as an operator-graph node:
//
//	in_hab  = habitat.isin(habitat_codes)
//	in_elev = elevation >= lo & elevation <= hi
//	data    = in_hab & in_elev & range
//	aoh     = data * nan_to_num(area, 0)
//
// The returned node is not yet Resolved; the caller must call raster.Resolve
// over the four inputs (see Inputs) before Sum/Save.
func (in AoHInputs) Build() raster.Node {
	inHab := raster.IsIn(in.Habitat, in.HabitatCodes)
	inElev := raster.And(
		raster.Gte(in.Elevation, raster.Scalar(in.ElevationLow)),
		raster.Lte(in.Elevation, raster.Scalar(in.ElevationHi)),
	)
	data := raster.And(raster.And(inHab, inElev), in.Range)
	return raster.Mul(data, raster.NanToNum(in.Area, 0))
}

// Inputs returns the four leaf layers that must be passed to raster.Resolve
// before Build's result can be evaluated.
func (in AoHInputs) Inputs() []raster.Node {
	return []raster.Node{in.Habitat, in.Elevation, in.Area, in.Range}
}

// Sum resolves in's inputs over their intersection and returns the total
// AoH (m², or whatever unit the area layer carries) as a scalar sum.
//
// Resolve must run before Build, since each operator node snapshots its
// operands' area/scale at construction time (§4.3 "non-Constant wins");
// building the recipe over unresolved layers would bake in their native,
// pre-intersection extents.
func (in AoHInputs) Sum(ctx context.Context, ev *raster.Evaluator) (float64, error) {
	if _, err := raster.Resolve(raster.ResolveIntersection, in.Inputs()...); err != nil {
		return 0, err
	}
	return ev.Sum(ctx, in.Build())
}

// Save resolves in's inputs over their intersection and streams the AoH
// raster into dst, returning the running sum as Save does.
func (in AoHInputs) Save(ctx context.Context, ev *raster.Evaluator, dst *raster.Writer) (float64, error) {
	if _, err := raster.Resolve(raster.ResolveIntersection, in.Inputs()...); err != nil {
		return 0, err
	}
	return ev.Save(ctx, in.Build(), dst)
}
