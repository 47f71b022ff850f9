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

	"gonum.org/v1/gonum/floats"

	"github.com/mlnoga/slantrange/internal/geometry"
)

// Interpolation error of the spline grid against the exact geometry, in squared pixels
type Report struct {
	MaxSquaredError     float64
	AverageSquaredError float64
	Count               int // points measured
	Failed              int // points where the exact inversion had no solution
}

func (r Report) String() string {
	return fmt.Sprintf("max squared error %.6g, average %.6g over %d points, %d failed",
		r.MaxSquaredError, r.AverageSquaredError, r.Count, r.Failed)
}

// Squared distance between predicted and exact pixel coordinates
func squaredError(pl, ps, el, es float64) float64 {
	dl, ds := pl-el, ps-es
	return dl*dl + ds*ds
}

// Checks the grid at every knot intersection against the exact geometry.
// The splines interpolate these points, so any error beyond the tolerance
// means the grid is broken
func VerifyGrid(g *Grid, geo geometry.Model, tolerance float64, threads int) error {
	return parallelFor(len(g.Times), threads, func(k int) error {
		t := g.Times[k]
		row, err := g.Row(t)
		if err != nil {
			return err
		}
		for _, s := range g.Slants {
			pl, ps := row.At(s)
			el, es, err := exactLineSample(geo, t, s)
			if err != nil {
				return fmt.Errorf("grid point time %.9g slant %.6g: %w", t, s, err)
			}
			if sq := squaredError(pl, ps, el, es); sq > tolerance {
				return fmt.Errorf("%w: squared error %.6g at time %.9g slant %.6g exceeds %g",
					ErrGridFitInconsistency, sq, t, s, tolerance)
			}
		}
		return nil
	})
}

// Measures the interpolation error at the centre of every grid cell, halfway
// between knots on both axes. Points without an exact solution are counted as
// failed and excluded. Cell rows are measured in parallel and merged in order
func MeasureAccuracy(g *Grid, geo geometry.Model, threads int) (Report, error) {
	cells := len(g.Times) - 1
	maxs, sums := make([]float64, cells), make([]float64, cells)
	counts, failed := make([]int, cells), make([]int, cells)

	err := parallelFor(cells, threads, func(k int) error {
		t := 0.5 * (g.Times[k] + g.Times[k+1])
		row, err := g.Row(t)
		if err != nil {
			return err
		}
		for l := 0; l+1 < len(g.Slants); l++ {
			s := 0.5 * (g.Slants[l] + g.Slants[l+1])
			el, es, err := exactLineSample(geo, t, s)
			if err != nil {
				failed[k]++
				continue
			}
			pl, ps := row.At(s)
			sq := squaredError(pl, ps, el, es)
			sums[k] += sq
			counts[k]++
			if sq > maxs[k] {
				maxs[k] = sq
			}
		}
		return nil
	})
	if err != nil {
		return Report{}, err
	}

	r := Report{}
	for k := range counts {
		r.Count += counts[k]
		r.Failed += failed[k]
	}
	if cells > 0 {
		r.MaxSquaredError = floats.Max(maxs)
	}
	if r.Count > 0 {
		r.AverageSquaredError = floats.Sum(sums) / float64(r.Count)
	}
	return r, nil
}

// Absolute accuracy thresholds in squared pixels
type Thresholds struct {
	WarnMax, FailMax float64
	WarnAvg, FailAvg float64
}

// Assesses a report. Returns an ErrAccuracyExceeded error if the outer thresholds
// are exceeded, and warnings if the inner thresholds are reached
func (th Thresholds) Assess(r Report) (warnings []string, err error) {
	if r.MaxSquaredError > th.FailMax || r.AverageSquaredError > th.FailAvg {
		return nil, fmt.Errorf("%w: %v, limits max %g average %g", ErrAccuracyExceeded, r, th.FailMax, th.FailAvg)
	}
	if r.MaxSquaredError > th.WarnMax {
		warnings = append(warnings, fmt.Sprintf("maximum squared error %.6g exceeds %g", r.MaxSquaredError, th.WarnMax))
	}
	if r.AverageSquaredError >= th.WarnAvg {
		warnings = append(warnings, fmt.Sprintf("average squared error %.6g reaches %g", r.AverageSquaredError, th.WarnAvg))
	}
	return warnings, nil
}
