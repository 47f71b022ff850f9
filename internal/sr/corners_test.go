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
	"testing"

	"github.com/mlnoga/slantrange/internal/fits"
)

// Diamond shaped footprint centred in a 21x21 raster
func diamondImage() *fits.Image {
	img := fits.NewImageFilled(21, 21, -99)
	for l := 0; l < 21; l++ {
		for s := 0; s < 21; s++ {
			if abs(l-10)+abs(s-10) <= 8 {
				img.Set(l, s, float32(1+l+s))
			}
		}
	}
	return img
}

func abs(i int) int {
	if i < 0 {
		return -i
	}
	return i
}

func TestLocateCornersDiamond(t *testing.T) {
	img := diamondImage()
	c, err := LocateCorners(img)
	if err != nil {
		t.Fatal(err)
	}
	want := [4][2]int{{2, 10}, {10, 18}, {10, 2}, {18, 10}}
	for dir := Top; dir <= Bottom; dir++ {
		if c[dir].Line != want[dir][0] || c[dir].Sample != want[dir][1] {
			t.Errorf("%v corner=(%d,%d); want (%d,%d)", dir, c[dir].Line, c[dir].Sample, want[dir][0], want[dir][1])
		}
	}

	// every corner is a valid pixel on the boundary of the footprint
	for dir, corner := range c {
		if !img.IsValid(img.At(corner.Line, corner.Sample)) {
			t.Errorf("%v corner not valid", Direction(dir))
		}
		onBoundary := false
		for _, d := range [][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}} {
			l, s := corner.Line+d[0], corner.Sample+d[1]
			if l < 0 || l >= img.Lines() || s < 0 || s >= img.Samples() || !img.IsValid(img.At(l, s)) {
				onBoundary = true
			}
		}
		if !onBoundary {
			t.Errorf("%v corner (%d,%d) not on the footprint boundary", Direction(dir), corner.Line, corner.Sample)
		}
	}

	// the extent contains all corners
	ext, err := ComputeExtent(&c, identityModel{})
	if err != nil {
		t.Fatal(err)
	}
	for dir, corner := range c {
		if corner.Time < ext.TimeMin || corner.Time > ext.TimeMax || corner.Slant < ext.SlantMin || corner.Slant > ext.SlantMax {
			t.Errorf("%v corner (%v,%v) outside %v", Direction(dir), corner.Time, corner.Slant, ext)
		}
	}
	if ext != (Extent{2, 18, 2, 18}) {
		t.Errorf("extent=%v; want 2..18 on both axes", ext)
	}
}

func TestFindFirstValidSkipsZeroAndNaN(t *testing.T) {
	img := fits.NewImageFilled(3, 3, -99)
	img.Set(0, 0, 0)
	img.Set(0, 1, float32(nan()))
	img.Set(0, 2, 7)
	c, err := FindFirstValid(img, Top)
	if err != nil {
		t.Fatal(err)
	}
	if c.Line != 0 || c.Sample != 2 {
		t.Errorf("top corner=(%d,%d); want (0,2)", c.Line, c.Sample)
	}
	if _, err := FindFirstValid(img, Direction(7)); err == nil {
		t.Errorf("invalid direction accepted")
	}
}

func TestComputeExtentDegenerate(t *testing.T) {
	img := fits.NewImageFilled(5, 5, -99)
	img.Set(2, 2, 1)
	c, err := LocateCorners(img)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ComputeExtent(&c, identityModel{}); err == nil {
		t.Errorf("single pixel extent accepted")
	}
}
