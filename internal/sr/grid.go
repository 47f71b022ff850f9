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

	"github.com/mlnoga/slantrange/internal/geometry"
)

// Grid maps time and slant range to input line and sample through two
// layers of cubic splines. For each of N slant knots, a vertical spline pair
// maps time to line and sample. Evaluating all vertical splines at one time
// yields the knots of a horizontal spline pair for that time
type Grid struct {
	Times  []float64 // time knots, in output line order
	Slants []float64 // slant range knots, increasing

	lines   []*Spline // per slant knot, time to line
	samples []*Spline // per slant knot, time to sample
}

// Places n knots evenly from first to last, hitting both exactly
func knots(first, last float64, n int) []float64 {
	ks := make([]float64, n)
	step := (last - first) / float64(n-1)
	for k := 0; k < n-1; k++ {
		ks[k] = first + float64(k)*step
	}
	ks[n-1] = last
	return ks
}

// Returns the first and last output pixel centres covered by the grid along one
// axis. Single-pixel outputs span one increment so the knots stay distinct
func span(start, incr float64, n int) (first, last float64) {
	if n < 2 {
		n = 2
	}
	return start, start + float64(n-1)*incr
}

// Maps a time and slant range through the geometry model to input pixel coordinates
func exactLineSample(geo geometry.Model, time, slant float64) (line, sample float64, err error) {
	lat, lon, err := geo.ToLatLon(time, slant)
	if err != nil {
		return 0, 0, err
	}
	return geo.ToLineSample(lat, lon)
}

// Builds the n x n spline grid covering all output pixels of the plan, with one
// exact geometry inversion per knot. Columns are built in parallel
func BuildGrid(geo geometry.Model, plan Plan, n, threads int) (*Grid, error) {
	if n < minKnots {
		return nil, fmt.Errorf("%w: grid size %d below %d", ErrInvalidConfig, n, minKnots)
	}
	tFirst, tLast := span(plan.TimeStart, plan.TimeIncrement, plan.OutLines)
	sFirst, sLast := span(plan.SlantStart, plan.SlantIncrement, plan.OutSamples)
	g := &Grid{
		Times:   knots(tFirst, tLast, n),
		Slants:  knots(sFirst, sLast, n),
		lines:   make([]*Spline, n),
		samples: make([]*Spline, n),
	}

	err := parallelFor(n, threads, func(l int) error {
		ls, ss := make([]float64, n), make([]float64, n)
		for k, t := range g.Times {
			var err error
			if ls[k], ss[k], err = exactLineSample(geo, t, g.Slants[l]); err != nil {
				return fmt.Errorf("grid knot time %.9g slant %.6g: %w", t, g.Slants[l], err)
			}
		}
		var err error
		if g.lines[l], err = FitSpline(g.Times, ls); err != nil {
			return fmt.Errorf("grid column %d: %w", l, err)
		}
		if g.samples[l], err = FitSpline(g.Times, ss); err != nil {
			return fmt.Errorf("grid column %d: %w", l, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return g, nil
}

// Size of the grid along each axis
func (g *Grid) N() int { return len(g.Slants) }

// Row is the horizontal spline pair for one time, mapping slant range to line and sample
type Row struct {
	line, sample *Spline
}

// Builds the horizontal splines for the given time from the vertical splines
func (g *Grid) Row(time float64) (*Row, error) {
	n := g.N()
	ls, ss := make([]float64, n), make([]float64, n)
	for l := 0; l < n; l++ {
		ls[l] = g.lines[l].At(time)
		ss[l] = g.samples[l].At(time)
	}
	line, err := FitSpline(g.Slants, ls)
	if err != nil {
		return nil, fmt.Errorf("grid row time %.9g: %w", time, err)
	}
	sample, err := FitSpline(g.Slants, ss)
	if err != nil {
		return nil, fmt.Errorf("grid row time %.9g: %w", time, err)
	}
	return &Row{line: line, sample: sample}, nil
}

// Predicted input pixel coordinates for the given slant range
func (r *Row) At(slant float64) (line, sample float64) {
	return r.line.At(slant), r.sample.At(slant)
}
