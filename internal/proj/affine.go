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

package proj

import (
	"fmt"
	"math"
)

// Affine maps pixel coordinates to map coordinates:
// x = A*sample + B*line + C, y = D*sample + E*line + F
type Affine struct {
	A, B, C float64
	D, E, F float64
}

// Create an Affine transform from GDAL's geotransform representation
func FromGDAL(gt [6]float64) *Affine {
	return &Affine{
		A: gt[1],
		B: gt[2],
		C: gt[0],
		D: gt[4],
		E: gt[5],
		F: gt[3],
	}
}

// Convert the Affine transform to GDAL's geotransform representation
func (a *Affine) ToGDAL() (gt [6]float64) {
	gt[0] = a.C
	gt[1] = a.A
	gt[2] = a.B
	gt[3] = a.F
	gt[4] = a.D
	gt[5] = a.E
	return gt
}

// Determinant of the linear part. Zero for degenerate transforms
func (a *Affine) Determinant() float64 {
	return a.A*a.E - a.B*a.D
}

// Invert the Affine transform. Fails for degenerate transforms
func (a *Affine) Invert() (*Affine, error) {
	det := a.Determinant()
	if det == 0 || math.IsNaN(det) || math.IsInf(det, 0) {
		return nil, fmt.Errorf("affine transform %v is not invertible", a)
	}
	invDet := 1 / det

	A := a.E * invDet
	B := -a.B * invDet
	D := -a.D * invDet
	E := a.A * invDet

	return &Affine{
		A: A,
		B: B,
		C: -a.C*A - a.F*B,
		D: D,
		E: E,
		F: -a.C*D - a.F*E,
	}, nil
}

// Apply the transform to x and y
func (a *Affine) Multiply(x, y float64) (float64, float64) {
	return x*a.A + y*a.B + a.C, x*a.D + y*a.E + a.F
}

func (a *Affine) String() string {
	return fmt.Sprintf("Affine(%v, %v, %v, %v, %v, %v)", a.A, a.B, a.C, a.D, a.E, a.F)
}
