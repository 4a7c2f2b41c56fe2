package kernel

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseExponentGompertz(t *testing.T) {
	f, err := ParseExponent("gompertz")
	require.NoError(t, err)
	assert.InDelta(t, math.Exp(-math.Exp(gompertzA+gompertzB)), f(1), 1e-9)
}

func TestParseExponentPower(t *testing.T) {
	f, err := ParseExponent("0.25")
	require.NoError(t, err)
	assert.InDelta(t, math.Pow(0.5, 0.25), f(0.5), 1e-9)
}

func TestParseExponentInvalid(t *testing.T) {
	_, err := ParseExponent("not-a-number")
	require.ErrorIs(t, err, ErrUnknownExponent)
}

func TestPersistenceValueClampsToOne(t *testing.T) {
	// current > historic means a remaining-fraction > 1, which would
	// otherwise push a power curve above 1.
	v := persistenceValue(20, 10, PowerCurve(0.25))
	assert.Equal(t, 1.0, v)
}

func TestPersistenceValueBelowHistoric(t *testing.T) {
	v := persistenceValue(5, 10, PowerCurve(1))
	assert.InDelta(t, 0.5, v, 1e-9)
}
