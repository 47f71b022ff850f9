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
	"sync"

	"github.com/mlnoga/slantrange/internal/fits"
)

// Direction of an edge scan for the first valid pixel
type Direction int

const (
	Top    Direction = iota // rows top to bottom, each left to right
	Right                   // columns right to left, each top to bottom
	Left                    // columns left to right, each bottom to top
	Bottom                  // rows bottom to top, each right to left
)

var directionNames = [...]string{"top", "right", "left", "bottom"}

func (d Direction) String() string {
	if d < Top || d > Bottom {
		return fmt.Sprintf("Direction(%d)", int(d))
	}
	return directionNames[d]
}

// First valid pixel from one edge, with its time and slant range once known
type Corner struct {
	Line, Sample int
	Time, Slant  float64
}

// The corners found from each edge, indexed by Direction
type Corners [4]Corner

// Scans the image from the given edge and returns the first valid pixel
func FindFirstValid(img *fits.Image, dir Direction) (Corner, error) {
	lines, samples := img.Lines(), img.Samples()
	d := img.Data
	switch dir {
	case Top:
		for l := 0; l < lines; l++ {
			for s := 0; s < samples; s++ {
				if img.IsValid(d[l*samples+s]) {
					return Corner{Line: l, Sample: s}, nil
				}
			}
		}
	case Right:
		for s := samples - 1; s >= 0; s-- {
			for l := 0; l < lines; l++ {
				if img.IsValid(d[l*samples+s]) {
					return Corner{Line: l, Sample: s}, nil
				}
			}
		}
	case Left:
		for s := 0; s < samples; s++ {
			for l := lines - 1; l >= 0; l-- {
				if img.IsValid(d[l*samples+s]) {
					return Corner{Line: l, Sample: s}, nil
				}
			}
		}
	case Bottom:
		for l := lines - 1; l >= 0; l-- {
			for s := samples - 1; s >= 0; s-- {
				if img.IsValid(d[l*samples+s]) {
					return Corner{Line: l, Sample: s}, nil
				}
			}
		}
	default:
		return Corner{}, fmt.Errorf("invalid scan direction %v", dir)
	}
	return Corner{}, fmt.Errorf("%w: no valid pixel scanning from %v", ErrEmptyImage, dir)
}

// Locates the corners from all four edges concurrently
func LocateCorners(img *fits.Image) (c Corners, err error) {
	if img.Samples() == 0 || img.Lines() == 0 || len(img.Data) == 0 {
		return c, fmt.Errorf("%w: %s pixels", ErrEmptyImage, img.DimensionsToString())
	}
	var errs [4]error
	var wg sync.WaitGroup
	for dir := Top; dir <= Bottom; dir++ {
		wg.Add(1)
		go func(dir Direction) {
			defer wg.Done()
			c[dir], errs[dir] = FindFirstValid(img, dir)
		}(dir)
	}
	wg.Wait()
	for _, e := range errs {
		if e != nil {
			return c, e
		}
	}
	return c, nil
}
