// Package solver integrates ordinary differential equations with the
// Runge-Kutta-Fehlberg 4(5) scheme. Step size adapts to an embedded error
// estimate, so right-hand sides must be continuous in time; the damping
// engine's smoothing ramps exist exactly for this.
package solver

import (
	"fmt"
	"math"

	"github.com/epiforge/epidamp/internal/timeseries"
)

// RHS evaluates the derivative at time t for state y into dydt. It must not
// retain either slice.
type RHS func(t float64, y []float64, dydt []float64)

// Config controls step-size adaptation.
type Config struct {
	AbsTol   float64
	RelTol   float64
	DtInit   float64
	DtMin    float64
	DtMax    float64
	MaxSteps int
}

// DefaultConfig returns tolerances suited to epidemiological magnitudes
// (populations in the thousands, rates well below one per day).
func DefaultConfig() Config {
	return Config{
		AbsTol:   1e-6,
		RelTol:   1e-5,
		DtInit:   0.1,
		DtMin:    1e-6,
		DtMax:    1.0,
		MaxSteps: 1_000_000,
	}
}

// Fehlberg tableau.
var (
	rkfC = [6]float64{0, 1.0 / 4, 3.0 / 8, 12.0 / 13, 1, 1.0 / 2}
	rkfA = [6][5]float64{
		{},
		{1.0 / 4},
		{3.0 / 32, 9.0 / 32},
		{1932.0 / 2197, -7200.0 / 2197, 7296.0 / 2197},
		{439.0 / 216, -8, 3680.0 / 513, -845.0 / 4104},
		{-8.0 / 27, 2, -3544.0 / 2565, 1859.0 / 4104, -11.0 / 40},
	}
	rkfB4 = [6]float64{25.0 / 216, 0, 1408.0 / 2565, 2197.0 / 4104, -1.0 / 5, 0}
	rkfB5 = [6]float64{16.0 / 135, 0, 6656.0 / 12825, 28561.0 / 56430, -9.0 / 50, 2.0 / 55}
)

// Integrate advances y0 from t0 to tmax and records every accepted step,
// including the initial condition, into the returned time series.
func Integrate(f RHS, y0 []float64, t0, tmax float64, cfg Config) (*timeseries.TimeSeries, error) {
	if tmax < t0 {
		return nil, fmt.Errorf("tmax %v is before t0 %v", tmax, t0)
	}
	if cfg.DtInit <= 0 || cfg.DtMin <= 0 || cfg.DtMax < cfg.DtMin {
		return nil, fmt.Errorf("invalid step configuration %+v", cfg)
	}

	n := len(y0)
	ts := timeseries.New(n)
	if _, err := ts.AddTimePointValues(t0, y0); err != nil {
		return nil, err
	}

	y := append([]float64(nil), y0...)
	k := [6][]float64{}
	for i := range k {
		k[i] = make([]float64, n)
	}
	stage := make([]float64, n)
	y4 := make([]float64, n)
	y5 := make([]float64, n)

	t := t0
	dt := math.Min(cfg.DtInit, cfg.DtMax)
	steps := 0

	for t < tmax {
		if steps >= cfg.MaxSteps {
			return nil, fmt.Errorf("no convergence after %d steps at t=%v", steps, t)
		}
		steps++

		if t+dt > tmax {
			dt = tmax - t
		}

		for s := 0; s < 6; s++ {
			copy(stage, y)
			for j := 0; j < s; j++ {
				a := rkfA[s][j]
				if a == 0 {
					continue
				}
				for i := 0; i < n; i++ {
					stage[i] += dt * a * k[j][i]
				}
			}
			f(t+rkfC[s]*dt, stage, k[s])
		}

		errNorm := 0.0
		for i := 0; i < n; i++ {
			s4, s5 := 0.0, 0.0
			for s := 0; s < 6; s++ {
				s4 += rkfB4[s] * k[s][i]
				s5 += rkfB5[s] * k[s][i]
			}
			y4[i] = y[i] + dt*s4
			y5[i] = y[i] + dt*s5
			scale := cfg.AbsTol + cfg.RelTol*math.Max(math.Abs(y[i]), math.Abs(y5[i]))
			errNorm = math.Max(errNorm, math.Abs(y5[i]-y4[i])/scale)
		}

		if errNorm <= 1 || dt <= cfg.DtMin {
			t += dt
			copy(y, y5)
			if _, err := ts.AddTimePointValues(t, y); err != nil {
				return nil, err
			}
		}

		// standard controller: grow on success, shrink on rejection
		factor := 5.0
		if errNorm > 0 {
			factor = 0.9 * math.Pow(1/errNorm, 1.0/5)
		}
		if factor > 5 {
			factor = 5
		}
		if factor < 0.1 {
			factor = 0.1
		}
		dt = clampDt(dt*factor, cfg.DtMin, cfg.DtMax)
	}

	return ts, nil
}

func clampDt(dt, lo, hi float64) float64 {
	if dt < lo {
		return lo
	}
	if dt > hi {
		return hi
	}
	return dt
}
