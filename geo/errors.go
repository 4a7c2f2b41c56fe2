package geo

import "errors"

// Sentinel errors for the geo primitives, matching §7's fatal/non-fatal
// split: these are all fatal for the invocation they occur in.
var (
	ErrNoIntersection    = errors.New("geo: no intersection between areas")
	ErrScaleMismatch     = errors.New("geo: incompatible pixel scales")
	ErrWindowMisalignment = errors.New("geo: window does not align to target pixel grid")
)
