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

package synth

import (
	"testing"

	"github.com/mlnoga/slantrange/internal/geometry"
	"github.com/mlnoga/slantrange/internal/meta"
	"github.com/mlnoga/slantrange/internal/proj"
)

func TestGenerate(t *testing.T) {
	for _, projection := range []string{proj.TypeGeographic, proj.TypeMercator, proj.TypeLambert} {
		sc := DefaultScene()
		sc.Projection = projection
		sc.Size = 100
		sc.Speckle = false
		img, err := Generate(sc)
		if err != nil {
			t.Fatal(err)
		}
		if img.Lines() != 100 || img.Samples() != 100 || img.NoData != sc.NoData {
			t.Errorf("%s: image %s nodata %v", projection, img.DimensionsToString(), img.NoData)
		}

		s := img.ValidStats()
		if s.Valid < s.Total/5 || s.Valid > s.Total*9/10 {
			t.Errorf("%s: %v; want an irregular footprint", projection, s)
		}
		if s.Min < 39.9 || s.Max > 200.1 {
			t.Errorf("%s: %v; want values in 40..200", projection, s)
		}

		m, err := meta.FromHeader(&img.Header)
		if err != nil {
			t.Fatal(err)
		}
		if m.SAR == nil || m.SAR.ImageType != meta.TypeProjected || m.SAR.AzimuthTimePerPixel != sc.TimePerPixel {
			t.Errorf("%s: sar block %+v", projection, m.SAR)
		}
		if m.Projection == nil || m.Projection.Type != projection {
			t.Errorf("%s: projection block %+v", projection, m.Projection)
		}

		// valid pixels lie inside the swath
		geo, err := geometry.NewModel(m)
		if err != nil {
			t.Fatal(err)
		}
		for l := 0; l < img.Lines(); l += 7 {
			for smp := 0; smp < img.Samples(); smp += 7 {
				if !img.IsValid(img.At(l, smp)) {
					continue
				}
				tm, r, err := geo.ToTimeSlant(float64(l), float64(smp))
				if err != nil || tm < 0 || tm > sc.Duration || r < sc.NearRange || r > sc.FarRange {
					t.Errorf("%s: valid pixel (%d,%d) at time %v slant %v err %v", projection, l, smp, tm, r, err)
				}
			}
		}
	}
}

func TestGenerateDeterministic(t *testing.T) {
	sc := DefaultScene()
	sc.Size = 64
	a, err := Generate(sc)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Generate(sc)
	if err != nil {
		t.Fatal(err)
	}
	for i := range a.Data {
		if a.Data[i] != b.Data[i] {
			t.Fatalf("pixel %d differs: %v vs %v", i, a.Data[i], b.Data[i])
		}
	}
}

func TestGenerateInvalid(t *testing.T) {
	mods := []func(*Scene){
		func(sc *Scene) { sc.Size = 4 },
		func(sc *Scene) { sc.Velocity = 0 },
		func(sc *Scene) { sc.NearRange = sc.Altitude },
		func(sc *Scene) { sc.FarRange = sc.NearRange },
		func(sc *Scene) { sc.LookSide = 0 },
		func(sc *Scene) { sc.Projection = "UTM" },
	}
	for i, mod := range mods {
		sc := DefaultScene()
		mod(&sc)
		if _, err := Generate(sc); err == nil {
			t.Errorf("case %d: invalid scene accepted", i)
		}
	}
}
