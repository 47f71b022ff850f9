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

package meta

import (
	"bytes"
	"io"
	"math"
	"strings"
	"testing"

	"github.com/mlnoga/slantrange/internal/fits"
	"github.com/mlnoga/slantrange/internal/proj"
)

func sampleMetadata() *Metadata {
	return &Metadata{
		General: General{StartLine: 3, StartSample: 5},
		SAR: &SAR{ImageType: TypeProjected, AzimuthTimePerPixel: -0.0015, SlantRangeFirstPixel: 845000.25,
			LineIncrement: 1, SampleIncrement: 1, LookSide: -1},
		Platform: &Platform{Lat0: 47.1, Lon0: 8.2, Heading: 192.5, Velocity: 7100, Altitude: 700000, EarthRadius: 6371000},
		Projection: &Projection{
			Params:       proj.Params{Type: proj.TypeLambert, Lat0: 46, Lon0: 8, Lat1: 45, Lat2: 49},
			GeoTransform: [6]float64{-25000, 12.5, 0, 30000, 0, -12.5},
		},
		Transform: &Transform{Lat: [3]float64{47, -0.0001, 0}, Lon: [3]float64{8, 0, 0.0001}},
		Accuracy:  &Accuracy{MaxSquaredError: 0.0125, AverageSquaredError: 0.001, Checked: 9801, Failed: 2},
	}
}

func TestHeaderRoundTrip(t *testing.T) {
	m := sampleMetadata()
	img := fits.NewImageFilled(2, 2, -99)
	m.ToHeader(&img.Header)

	// write and read the actual file format, so keyword typing is exercised
	buf := bytes.Buffer{}
	if err := img.Write(&buf); err != nil {
		t.Fatal(err)
	}
	res := fits.NewImage()
	if err := res.Read(&buf, true, io.Discard); err != nil {
		t.Fatal(err)
	}

	got, err := FromHeader(&res.Header)
	if err != nil {
		t.Fatal(err)
	}
	if got.General != m.General {
		t.Errorf("general=%v; want %v", got.General, m.General)
	}
	if *got.SAR != *m.SAR {
		t.Errorf("sar=%v; want %v", *got.SAR, *m.SAR)
	}
	if *got.Platform != *m.Platform {
		t.Errorf("platform=%v; want %v", *got.Platform, *m.Platform)
	}
	if *got.Projection != *m.Projection {
		t.Errorf("projection=%v; want %v", *got.Projection, *m.Projection)
	}
	if *got.Transform != *m.Transform {
		t.Errorf("transform=%v; want %v", *got.Transform, *m.Transform)
	}
	if *got.Accuracy != *m.Accuracy {
		t.Errorf("accuracy=%v; want %v", *got.Accuracy, *m.Accuracy)
	}
}

func TestToHeaderRemovesAbsentBlocks(t *testing.T) {
	h := fits.NewHeader()
	sampleMetadata().ToHeader(&h)

	m := &Metadata{SAR: &SAR{ImageType: TypeSlantRange, LineIncrement: 1, SampleIncrement: 1, LookSide: 1}}
	m.ToHeader(&h)
	for _, k := range h.Keys() {
		if strings.HasPrefix(k, "PRJ") || strings.HasPrefix(k, "TR") || strings.HasPrefix(k, "PLT") || strings.HasPrefix(k, "SRN") {
			t.Errorf("stale keyword %s", k)
		}
	}
	got, err := FromHeader(&h)
	if err != nil {
		t.Fatal(err)
	}
	if got.Projection != nil || got.Transform != nil || got.Platform != nil || got.Accuracy != nil {
		t.Errorf("got stale blocks %+v", got)
	}
	if got.SAR == nil || got.SAR.ImageType != TypeSlantRange {
		t.Errorf("sar=%v; want slant range", got.SAR)
	}
}

func TestFromHeaderErrors(t *testing.T) {
	h := fits.NewHeader()
	h.Strings[KeyProjType] = proj.TypeGeographic
	if _, err := FromHeader(&h); err == nil {
		t.Errorf("projection without geotransform accepted")
	}

	h = fits.NewHeader()
	h.Strings[KeyImageType] = TypeProjected
	h.Ints[KeyLookSide] = 2
	if _, err := FromHeader(&h); err == nil {
		t.Errorf("look side 2 accepted")
	}

	h = fits.NewHeader()
	h.Floats[KeyPlatformVelocity] = 7000
	if _, err := FromHeader(&h); err == nil {
		t.Errorf("incomplete platform accepted")
	}
}

func TestUnsetLookSideDefaultsToRight(t *testing.T) {
	h := fits.NewHeader()
	(&Metadata{SAR: &SAR{ImageType: TypeGroundRange}}).ToHeader(&h)
	if _, ok := h.Ints[KeyLookSide]; ok {
		t.Errorf("%s written for unset look side", KeyLookSide)
	}
	m, err := FromHeader(&h)
	if err != nil {
		t.Fatal(err)
	}
	if m.SAR == nil || m.SAR.LookSide != 1 {
		t.Errorf("sar=%+v; want look side 1", m.SAR)
	}

	h = fits.NewHeader()
	h.Strings[KeyImageType] = TypeProjected
	h.Ints[KeyLookSide] = 0
	if m, err = FromHeader(&h); err != nil || m.SAR.LookSide != 1 {
		t.Errorf("%s=0: sar=%+v err=%v; want look side 1", KeyLookSide, m, err)
	}
}

func TestTransformAffine(t *testing.T) {
	tr := &Transform{Lat: [3]float64{47, -0.001, 0.0002}, Lon: [3]float64{8, 0.0003, 0.001}}
	lon, lat := tr.Affine().Multiply(20, 10) // sample 20, line 10
	wantLat := 47 - 0.001*10 + 0.0002*20
	wantLon := 8 + 0.0003*10 + 0.001*20
	if math.Abs(lat-wantLat) > 1e-12 || math.Abs(lon-wantLon) > 1e-12 {
		t.Errorf("affine(10,20)=(%v,%v); want (%v,%v)", lat, lon, wantLat, wantLon)
	}
}
