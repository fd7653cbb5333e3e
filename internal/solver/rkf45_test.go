package solver

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntegrateExponentialDecay(t *testing.T) {
	// y' = -y, y(0) = 1 -> y(t) = exp(-t)
	f := func(t float64, y []float64, dydt []float64) {
		dydt[0] = -y[0]
	}

	ts, err := Integrate(f, []float64{1.0}, 0, 5, DefaultConfig())
	require.NoError(t, err)

	assert.Equal(t, 0.0, ts.Time(0))
	assert.Equal(t, 5.0, ts.LastTime())
	assert.InDelta(t, math.Exp(-5), ts.LastValue()[0], 1e-4)

	// solution is monotone decreasing at every recorded point
	for i := 1; i < ts.NumTimePoints(); i++ {
		assert.Greater(t, ts.Time(i), ts.Time(i-1))
		assert.Less(t, ts.Value(i)[0], ts.Value(i - 1)[0])
	}
}

func TestIntegrateHarmonicOscillator(t *testing.T) {
	// y'' = -y as a system; energy y0^2 + y1^2 is conserved
	f := func(t float64, y []float64, dydt []float64) {
		dydt[0] = y[1]
		dydt[1] = -y[0]
	}

	ts, err := Integrate(f, []float64{1.0, 0.0}, 0, 2*math.Pi, DefaultConfig())
	require.NoError(t, err)

	last := ts.LastValue()
	assert.InDelta(t, 1.0, last[0], 1e-3)
	assert.InDelta(t, 0.0, last[1], 1e-3)
}

func TestIntegrateThroughRampedForcing(t *testing.T) {
	// forcing with a sharp ramp at t=5 exercises the step controller
	f := func(t float64, y []float64, dydt []float64) {
		r := 0.0
		if t > 5 && t < 5.2 {
			r = 50 * (t - 5)
		} else if t >= 5.2 {
			r = 10.0
		}
		dydt[0] = r - y[0]
	}

	ts, err := Integrate(f, []float64{0.0}, 0, 10, DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, 10.0, ts.LastTime())
	assert.InDelta(t, 10.0, ts.LastValue()[0], 0.1)
}

func TestIntegrateInvalidArgs(t *testing.T) {
	f := func(t float64, y []float64, dydt []float64) { dydt[0] = 0 }

	_, err := Integrate(f, []float64{1}, 5, 0, DefaultConfig())
	assert.Error(t, err)

	bad := DefaultConfig()
	bad.DtInit = 0
	_, err = Integrate(f, []float64{1}, 0, 1, bad)
	assert.Error(t, err)
}

func TestIntegrateZeroSpan(t *testing.T) {
	f := func(t float64, y []float64, dydt []float64) { dydt[0] = 1 }

	ts, err := Integrate(f, []float64{3.0}, 2, 2, DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, 1, ts.NumTimePoints())
	assert.Equal(t, []float64{3.0}, ts.Value(0))
}
