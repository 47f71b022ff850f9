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

	"gonum.org/v1/gonum/floats"

	"github.com/mlnoga/slantrange/internal/geometry"
)

// Bounding box in time/slant space
type Extent struct {
	TimeMin, TimeMax   float64
	SlantMin, SlantMax float64
}

func (e Extent) String() string {
	return fmt.Sprintf("time %.9g..%.9g slant %.6g..%.6g", e.TimeMin, e.TimeMax, e.SlantMin, e.SlantMax)
}

// Converts the corners to time and slant range, storing the results in the corners,
// and returns their bounding box
func ComputeExtent(c *Corners, geo geometry.Model) (e Extent, err error) {
	times, slants := make([]float64, len(c)), make([]float64, len(c))
	for i := range c {
		c[i].Time, c[i].Slant, err = geo.ToTimeSlant(float64(c[i].Line), float64(c[i].Sample))
		if err != nil {
			return e, fmt.Errorf("%v corner (%d,%d): %w", Direction(i), c[i].Line, c[i].Sample, err)
		}
		times[i], slants[i] = c[i].Time, c[i].Slant
	}
	e = Extent{
		TimeMin: floats.Min(times), TimeMax: floats.Max(times),
		SlantMin: floats.Min(slants), SlantMax: floats.Max(slants),
	}
	if !(e.TimeMin < e.TimeMax) || !(e.SlantMin < e.SlantMax) {
		return e, fmt.Errorf("%w: %v", ErrDegenerateExtent, e)
	}
	return e, nil
}

// Output raster dimensions and the time and slant range of its pixels
type Plan struct {
	OutLines, OutSamples int
	TimeStart            float64
	TimeIncrement        float64
	SlantStart           float64
	SlantIncrement       float64
}

func (p Plan) String() string {
	return fmt.Sprintf("%dx%d pixels, time %.9g%+.6g/line, slant %.6g%+.6g/sample",
		p.OutSamples, p.OutLines, p.TimeStart, p.TimeIncrement, p.SlantStart, p.SlantIncrement)
}

// Time of the given output line
func (p *Plan) TimeAt(line float64) float64 { return p.TimeStart + line*p.TimeIncrement }

// Slant range of the given output sample
func (p *Plan) SlantAt(sample float64) float64 { return p.SlantStart + sample*p.SlantIncrement }

// Bytes needed for the output raster
func (p *Plan) Bytes() int64 { return 4 * int64(p.OutLines) * int64(p.OutSamples) }

// Relative slack for floor() of spans that are exact multiples of the increment
const floorSlack = 1e-9

func floorCount(span, incr float64) int {
	n := span / incr
	return int(math.Floor(n + floorSlack*math.Max(1, math.Abs(n))))
}

// Derives output dimensions and increments from the extent.
//
// With a pixelSize > 0, samples are pixelSize apart in slant range. Lines then
// follow the native timePerPixel if it is non-zero, or else make the output
// square. Without a pixelSize the output has as many lines as the input, and
// is square. The sign of timePerPixel, if given, sets the line direction
func NewPlan(e Extent, inLines int, pixelSize, timePerPixel float64) (p Plan, err error) {
	timeSpan, slantSpan := e.TimeMax-e.TimeMin, e.SlantMax-e.SlantMin
	if !(timeSpan > 0) || !(slantSpan > 0) {
		return p, fmt.Errorf("%w: %v", ErrDegenerateExtent, e)
	}
	direction := 1.0
	if timePerPixel < 0 {
		direction = -1
	}

	if pixelSize > 0 {
		p.SlantIncrement = pixelSize
		p.OutSamples = floorCount(slantSpan, p.SlantIncrement)
		if timePerPixel != 0 {
			p.TimeIncrement = timePerPixel
			p.OutLines = floorCount(timeSpan, math.Abs(timePerPixel))
		} else {
			p.OutLines = p.OutSamples
			p.TimeIncrement = direction * timeSpan / float64(p.OutLines)
		}
	} else {
		p.OutLines = inLines
		p.TimeIncrement = direction * timeSpan / float64(p.OutLines)
		p.OutSamples = p.OutLines
		p.SlantIncrement = slantSpan / float64(p.OutSamples)
	}
	if p.OutLines < 1 || p.OutSamples < 1 {
		return p, fmt.Errorf("%w: %dx%d output pixels for %v", ErrDegenerateExtent, p.OutSamples, p.OutLines, e)
	}

	p.SlantStart = e.SlantMin
	if p.TimeIncrement > 0 {
		p.TimeStart = e.TimeMin
	} else {
		p.TimeStart = e.TimeMax
	}
	return p, nil
}
