package kernel

import (
	"fmt"
	"math"
)

// Gompertz constants from the canonical ΔP script (§9 Open Question 1):
// older variants with different constants are not preserved.
const (
	gompertzA     = 2.5
	gompertzB     = -14.5
	gompertzAlpha = 1.0
)

// ExponentFunc is an extinction curve: remaining-habitat fraction →
// persistence probability, per §4.7.
type ExponentFunc func(x float64) float64

// PowerCurve returns the power-law extinction curve x^z.
func PowerCurve(z float64) ExponentFunc {
	return func(x float64) float64 { return math.Pow(x, z) }
}

// GompertzCurve returns exp(-exp(a + b*x^alpha)) with the canonical
// constants.
func GompertzCurve() ExponentFunc {
	return func(x float64) float64 {
		return math.Exp(-math.Exp(gompertzA + gompertzB*math.Pow(x, gompertzAlpha)))
	}
}

// ParseExponent parses the --z CLI value: a float (power curve exponent)
// or the literal "gompertz".
func ParseExponent(z string) (ExponentFunc, error) {
	if z == "gompertz" {
		return GompertzCurve(), nil
	}
	var val float64
	if _, err := fmt.Sscanf(z, "%g", &val); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownExponent, z)
	}
	return PowerCurve(val), nil
}

// persistenceValue computes min(1, f(currentAoh/historicAoh)) (§4.7
// "old_P").
func persistenceValue(currentAoh, historicAoh float64, f ExponentFunc) float64 {
	p := f(currentAoh / historicAoh)
	if p > 1 {
		return 1
	}
	return p
}
