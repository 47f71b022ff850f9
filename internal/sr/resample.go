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
	"github.com/mlnoga/slantrange/internal/fits"
)

// Resamples the input into the output raster described by the plan. Each output
// row gets its own horizontal splines; rows are processed in parallel. Pixels
// mapping outside the interior of the input are set to the no-data value
func ResampleGrid(in *fits.Image, g *Grid, plan Plan, threads int) (*fits.Image, error) {
	out := fits.NewImageFilled(plan.OutLines, plan.OutSamples, in.NoData)
	err := parallelFor(plan.OutLines, threads, func(ol int) error {
		row, err := g.Row(plan.TimeAt(float64(ol)))
		if err != nil {
			return err
		}
		data := out.Data[ol*plan.OutSamples : (ol+1)*plan.OutSamples]
		for s := range data {
			line, sample := row.At(plan.SlantAt(float64(s)))
			data[s] = in.SampleInterior(line, sample)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
