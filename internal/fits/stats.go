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
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Basic statistics over the valid pixels of an image
type ValidStats struct {
	Valid int     // number of valid pixels
	Total int     // number of pixels
	Min   float32 // minimum valid value
	Max   float32 // maximum valid value
	Mean  float32 // mean valid value
}

func (s ValidStats) String() string {
	return fmt.Sprintf("valid %d/%d min %.4g max %.4g mean %.4g", s.Valid, s.Total, s.Min, s.Max, s.Mean)
}

// Calculates min, max and mean over all valid pixels
func (f *Image) ValidStats() ValidStats {
	s := ValidStats{Total: len(f.Data), Min: float32(math.MaxFloat32), Max: -float32(math.MaxFloat32)}
	sum := float64(0)
	for _, v := range f.Data {
		if !f.IsValid(v) {
			continue
		}
		s.Valid++
		sum += float64(v)
		if v < s.Min {
			s.Min = v
		}
		if v > s.Max {
			s.Max = v
		}
	}
	if s.Valid == 0 {
		s.Min, s.Max = 0, 0
		return s
	}
	s.Mean = float32(sum / float64(s.Valid))
	return s
}

// Maximum number of pixels considered for percentile estimation
const maxPercentileSamples = 1 << 20

// Estimates the given lower and upper quantiles of the valid pixels, e.g. 0.01 and 0.99.
// Large images are subsampled with a regular stride
func (f *Image) PercentileRange(low, high float64) (min, max float32) {
	stride := len(f.Data)/maxPercentileSamples + 1
	xs := make([]float64, 0, len(f.Data)/stride+1)
	for i := 0; i < len(f.Data); i += stride {
		if v := f.Data[i]; f.IsValid(v) {
			xs = append(xs, float64(v))
		}
	}
	if len(xs) == 0 {
		return 0, 1
	}
	sort.Float64s(xs)
	min = float32(stat.Quantile(low, stat.Empirical, xs, nil))
	max = float32(stat.Quantile(high, stat.Empirical, xs, nil))
	if max <= min {
		max = min + 1
	}
	return min, max
}
