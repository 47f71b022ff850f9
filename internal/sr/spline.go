// Copyright (C) 2020 Markus L. Noga
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package sr

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/interp"
)

// Minimum number of knots for a cubic spline fit
const minKnots = 4

// Spline is a natural cubic spline interpolating through its knots.
// Safe for concurrent evaluation once fitted
type Spline struct {
	nc       interp.NaturalCubic
	min, max float64
}

// Fits a natural cubic spline through the points (xs[i], ys[i]). The xs must be
// strictly monotonic, either increasing or decreasing. Inputs are not modified
func FitSpline(xs, ys []float64) (*Spline, error) {
	n := len(xs)
	if n != len(ys) {
		return nil, fmt.Errorf("spline with %d abscissae and %d ordinates", n, len(ys))
	}
	if n < minKnots {
		return nil, fmt.Errorf("spline with %d knots, need %d", n, minKnots)
	}
	for i := range xs {
		if math.IsNaN(xs[i]) || math.IsNaN(ys[i]) || math.IsInf(xs[i], 0) || math.IsInf(ys[i], 0) {
			return nil, fmt.Errorf("spline knot %d (%g, %g) not finite", i, xs[i], ys[i])
		}
	}

	sx, sy := xs, ys
	if xs[n-1] < xs[0] {
		sx, sy = make([]float64, n), make([]float64, n)
		for i := range xs {
			sx[n-1-i], sy[n-1-i] = xs[i], ys[i]
		}
	}
	for i := 1; i < n; i++ {
		if !(sx[i] > sx[i-1]) {
			return nil, fmt.Errorf("spline abscissae not strictly monotonic at knot %d", i)
		}
	}

	s := &Spline{min: sx[0], max: sx[n-1]}
	if err := s.nc.Fit(sx, sy); err != nil {
		return nil, err
	}
	return s, nil
}

// Evaluates the spline. Values outside the knot range are clamped to the end knots
func (s *Spline) At(x float64) float64 {
	return s.nc.Predict(x)
}

// Range of abscissae covered by the knots
func (s *Spline) Domain() (min, max float64) {
	return s.min, s.max
}
