package raster

import "errors"

// Sentinel errors, tested with errors.Is per §7. Scale/area failures
// bubble up from package geo unwrapped (errors.Is(err, geo.ErrScaleMismatch)
// works directly); these add the cases specific to the operator graph
// and the rasterizer.
var (
	ErrDatatypeMismatch = errors.New("raster: incompatible data types")
	ErrNoFeatures       = errors.New("raster: no features matched the filter")
	ErrNotResolved      = errors.New("raster: node has not been resolved against a window")
	ErrWorkerFailed     = errors.New("raster: a parallel save worker failed")
)
