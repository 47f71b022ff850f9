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
	"errors"
	"math"
	"sync/atomic"
	"testing"

	"github.com/mlnoga/slantrange/internal/fits"
)

// Geometry with time=line, slant=sample and lat/lon equal to time/slant
type identityModel struct{}

func (identityModel) ToTimeSlant(line, sample float64) (float64, float64, error) {
	return line, sample, nil
}
func (identityModel) ToLatLon(time, slant float64) (float64, float64, error) { return time, slant, nil }
func (identityModel) ToLineSample(lat, lon float64) (float64, float64, error) {
	return lat, lon, nil
}

// Identity geometry which shifts all inversions by one line after a number of calls
type shiftingModel struct {
	identityModel
	after int64
	calls atomic.Int64
}

func (m *shiftingModel) ToLineSample(lat, lon float64) (float64, float64, error) {
	if m.calls.Add(1) > m.after {
		return lat + 1, lon, nil
	}
	return lat, lon, nil
}

// Image of given size with a no-data border of given width, valid pixels set to v
func borderedImage(lines, samples, border int, v float32) *fits.Image {
	img := fits.NewImageFilled(lines, samples, -99)
	for l := border; l < lines-border; l++ {
		for s := border; s < samples-border; s++ {
			img.Set(l, s, v)
		}
	}
	return img
}

func TestResampleIdentity4x4(t *testing.T) {
	in := borderedImage(4, 4, 1, 1.0)
	res, err := Resample(in, identityModel{}, DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}

	want := Corners{{Line: 1, Sample: 1}, {Line: 1, Sample: 2}, {Line: 2, Sample: 1}, {Line: 2, Sample: 2}}
	for dir := Top; dir <= Bottom; dir++ {
		c := res.Corners[dir]
		if c.Line != want[dir].Line || c.Sample != want[dir].Sample {
			t.Errorf("%v corner=(%d,%d); want (%d,%d)", dir, c.Line, c.Sample, want[dir].Line, want[dir].Sample)
		}
	}
	if res.Extent != (Extent{1, 2, 1, 2}) {
		t.Errorf("extent=%v; want time 1..2 slant 1..2", res.Extent)
	}

	out := res.Image
	if out.Lines() != 4 || out.Samples() != 4 {
		t.Fatalf("output %s; want 4x4", out.DimensionsToString())
	}
	for i, v := range out.Data {
		if math.Abs(float64(v-1)) > 1e-6 {
			t.Errorf("out[%d]=%v; want 1", i, v)
		}
	}
	if len(res.Warnings) != 0 {
		t.Errorf("warnings=%v; want none", res.Warnings)
	}
}

func TestResampleBoundary(t *testing.T) {
	in := borderedImage(6, 6, 0, 5)
	res, err := Resample(in, identityModel{}, DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	p, out := res.Plan, res.Image
	for ol := 0; ol < out.Lines(); ol++ {
		for s := 0; s < out.Samples(); s++ {
			line, sample := p.TimeAt(float64(ol)), p.SlantAt(float64(s))
			want := float32(5)
			if line < 1 || line > 4 || sample < 1 || sample > 4 {
				want = -99
			}
			if got := out.At(ol, s); got != want {
				t.Errorf("out(%d,%d) from (%.3f,%.3f)=%v; want %v", ol, s, line, sample, got, want)
			}
		}
	}
}

func TestResampleEmptyImage(t *testing.T) {
	in := fits.NewImageFilled(8, 8, -99)
	res, err := Resample(in, identityModel{}, DefaultConfig())
	if !errors.Is(err, ErrEmptyImage) || res != nil {
		t.Errorf("res=%v err=%v; want nil, %v", res, err, ErrEmptyImage)
	}

	for i := range in.Data {
		in.Data[i] = float32(math.NaN())
	}
	if _, err := LocateCorners(in); !errors.Is(err, ErrEmptyImage) {
		t.Errorf("NaN image err=%v; want %v", err, ErrEmptyImage)
	}

	if _, err := LocateCorners(fits.NewImageFromNaxisn([]int32{0, 0}, nil)); !errors.Is(err, ErrEmptyImage) {
		t.Errorf("zero sized image err=%v; want %v", err, ErrEmptyImage)
	}
}

func TestResampleGridFitInconsistency(t *testing.T) {
	cfg := DefaultConfig()
	cfg.GridSize = 4
	geo := &shiftingModel{after: int64(cfg.GridSize * cfg.GridSize)}
	res, err := Resample(borderedImage(10, 10, 1, 3), geo, cfg)
	if !errors.Is(err, ErrGridFitInconsistency) {
		t.Errorf("err=%v; want %v", err, ErrGridFitInconsistency)
	}
	if res != nil {
		t.Errorf("res=%v; want nil", res)
	}
}

func TestResampleInsufficientMemory(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PixelSize = 1e-4
	cfg.MemoryMB = 1
	res, err := Resample(borderedImage(6, 6, 1, 3), identityModel{}, cfg)
	if !errors.Is(err, ErrInsufficientMemory) || res != nil {
		t.Errorf("res=%v err=%v; want nil, %v", res, err, ErrInsufficientMemory)
	}
}

func TestResampleInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.GridSize = 3
	if _, err := Resample(borderedImage(6, 6, 1, 3), identityModel{}, cfg); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("grid size 3 err=%v; want %v", err, ErrInvalidConfig)
	}
	cfg = DefaultConfig()
	cfg.WarnAvg, cfg.FailAvg = 10, 1
	if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("inverted multipliers err=%v; want %v", err, ErrInvalidConfig)
	}
}
