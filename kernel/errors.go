package kernel

import "errors"

// Sentinel errors for the domain kernels (§7). ScaleMismatch/NoIntersection/
// WindowMisalignment/DatatypeMismatch bubble up from geo/raster unwrapped.
var (
	ErrZeroHistoricAoH = errors.New("kernel: historic AoH is zero, persistence undefined")
	ErrUnknownExponent  = errors.New("kernel: unrecognised exponent")
	ErrUnknownCode      = errors.New("kernel: crosswalk has no mapping for code")
)
