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

package fits

import (
	"math"
)

// Samples the image at a fractional line and sample position with bilinear
// interpolation. The caller ensures 0 <= line <= lines-1 and 0 <= sample <= samples-1
func (img *Image) Bilinear(line, sample float64) float32 {
	d := img.Data
	width := int(img.Naxisn[0])
	height := img.Lines()

	xl, yl := int(math.Floor(sample)), int(math.Floor(line))
	xr, yr := sample-float64(xl), line-float64(yl)

	// clamp the upper neighbour on the last line or sample, where its weight is zero
	xh, yh := xl+1, yl+1
	if xh >= width {
		xh = xl
	}
	if yh >= height {
		yh = yl
	}

	xlyl := xl + yl*width
	xhyl := xh + yl*width
	xlyh := xl + yh*width
	xhyh := xh + yh*width

	vyl := float64(d[xlyl])*(1-xr) + float64(d[xhyl])*xr
	vyh := float64(d[xlyh])*(1-xr) + float64(d[xhyh])*xr
	v := vyl*(1-yr) + vyh*yr

	return float32(v)
}

// Samples the image at a fractional position if it lies within the interior,
// i.e. excluding the outermost ring of pixels. Returns the no-data value outside
// the interior, or if a neighbour contributing to the interpolation is no-data
func (img *Image) SampleInterior(line, sample float64) float32 {
	if !(line >= 1 && line <= float64(img.Lines()-2) && sample >= 1 && sample <= float64(img.Samples()-2)) {
		return img.NoData
	}
	width := img.Samples()
	xl, yl := int(sample), int(line)
	xh, yh := xl, yl
	if sample > float64(xl) {
		xh++
	}
	if line > float64(yl) {
		yh++
	}
	d := img.Data
	if d[yl*width+xl] == img.NoData || d[yl*width+xh] == img.NoData ||
		d[yh*width+xl] == img.NoData || d[yh*width+xh] == img.NoData {
		return img.NoData
	}
	return img.Bilinear(line, sample)
}
