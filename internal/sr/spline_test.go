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
	"math"
	"testing"
)

func TestFitSpline(t *testing.T) {
	n := 25
	xs, ys := make([]float64, n), make([]float64, n)
	for i := range xs {
		xs[i] = 3 * float64(i) / float64(n-1)
		ys[i] = math.Sin(xs[i])
	}
	rev := func(a []float64) []float64 {
		r := make([]float64, len(a))
		for i := range a {
			r[len(a)-1-i] = a[i]
		}
		return r
	}

	for _, order := range []string{"increasing", "decreasing"} {
		sx, sy := xs, ys
		if order == "decreasing" {
			sx, sy = rev(xs), rev(ys)
		}
		s, err := FitSpline(sx, sy)
		if err != nil {
			t.Fatal(err)
		}
		for i := range sx {
			if got := s.At(sx[i]); math.Abs(got-sy[i]) > 1e-12 {
				t.Errorf("%s spline(%v)=%v; want %v", order, sx[i], got, sy[i])
			}
		}
		for x := 0.05; x < 2.95; x += 0.1 {
			if got := s.At(x); math.Abs(got-math.Sin(x)) > 1e-3 {
				t.Errorf("%s spline(%v)=%v; want %v", order, x, got, math.Sin(x))
			}
		}
		if lo, hi := s.Domain(); lo != 0 || hi != 3 {
			t.Errorf("%s domain=%v..%v; want 0..3", order, lo, hi)
		}
		if order == "decreasing" && (sx[0] != 3 || sx[n-1] != 0) {
			t.Errorf("%s input modified", order)
		}
	}
	if xs[0] != 0 || xs[n-1] != 3 {
		t.Errorf("input modified")
	}
}

func TestFitSplineLinearIsExact(t *testing.T) {
	xs := []float64{1, 1.25, 1.5, 1.75, 2}
	ys := []float64{3, 3.5, 4, 4.5, 5}
	s, err := FitSpline(xs, ys)
	if err != nil {
		t.Fatal(err)
	}
	for x := 1.0; x <= 2; x += 0.03125 {
		if got := s.At(x); math.Abs(got-(2*x+1)) > 1e-12 {
			t.Errorf("spline(%v)=%v; want %v", x, got, 2*x+1)
		}
	}
}

func nan() float64 { return math.NaN() }

func TestFitSplineErrors(t *testing.T) {
	tcs := []struct {
		name   string
		xs, ys []float64
	}{
		{"too few", []float64{0, 1, 2}, []float64{0, 1, 2}},
		{"length", []float64{0, 1, 2, 3}, []float64{0, 1, 2}},
		{"repeated", []float64{0, 1, 1, 3}, []float64{0, 1, 2, 3}},
		{"zigzag", []float64{0, 2, 1, 3}, []float64{0, 1, 2, 3}},
		{"nan", []float64{0, 1, nan(), 3}, []float64{0, 1, 2, 3}},
		{"inf", []float64{0, 1, 2, 3}, []float64{0, math.Inf(1), 2, 3}},
	}
	for _, tc := range tcs {
		if _, err := FitSpline(tc.xs, tc.ys); err == nil {
			t.Errorf("%s: fit succeeded; want error", tc.name)
		}
	}
}
