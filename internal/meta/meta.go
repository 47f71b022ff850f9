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

// Package meta holds the acquisition metadata of a radar image, stored as
// FITS header keywords alongside the raster.
package meta

import (
	"fmt"
	"io"

	"github.com/mlnoga/slantrange/internal/fits"
	"github.com/mlnoga/slantrange/internal/proj"
)

// Image types, as stored in the SARTYPE keyword
const (
	TypeSlantRange  = "S" // slant range, the native radar geometry
	TypeGroundRange = "G" // ground range
	TypeProjected   = "P" // map projected
	TypeGeoref      = "R" // georeferenced via a transform block
)

// Header keywords
const (
	KeyStartLine   = "STARTLIN"
	KeyStartSample = "STARTSMP"

	KeyImageType    = "SARTYPE"
	KeyTimePerPixel = "AZTIMEPP"
	KeySlantFirst   = "SLRFIRST"
	KeyLineInc      = "LINEINC"
	KeySampleInc    = "SAMPINC"
	KeyLookSide     = "LOOKSIDE"

	KeyPlatformLat0     = "PLTLAT0"
	KeyPlatformLon0     = "PLTLON0"
	KeyPlatformHeading  = "PLTHEAD"
	KeyPlatformVelocity = "PLTVEL"
	KeyPlatformAltitude = "PLTALT"
	KeyPlatformRadius   = "PLTRAD"

	KeyProjType = "PRJTYPE"
	KeyProjLat0 = "PRJLAT0"
	KeyProjLon0 = "PRJLON0"
	KeyProjLat1 = "PRJLAT1"
	KeyProjLat2 = "PRJLAT2"
	KeyProjGT   = "PRJGT" // PRJGT0..PRJGT5, GDAL geotransform

	KeyTransformLat = "TRLAT" // TRLAT0..TRLAT2
	KeyTransformLon = "TRLON" // TRLON0..TRLON2

	KeyMaxSquaredError = "SRMAXERR"
	KeyAvgSquaredError = "SRAVGERR"
	KeyChecked         = "SRNCHECK"
	KeyCheckFailed     = "SRNFAIL"
)

// Metadata of an acquisition. Optional blocks are nil when absent
type Metadata struct {
	General    General
	SAR        *SAR
	Platform   *Platform
	Projection *Projection
	Transform  *Transform
	Accuracy   *Accuracy
}

// General image information
type General struct {
	StartLine   int64 // offset of the first line within the original acquisition
	StartSample int64 // offset of the first sample within the original acquisition
}

// Radar-specific metadata
type SAR struct {
	ImageType            string  // one of the Type constants
	AzimuthTimePerPixel  float64 // seconds per line, signed with the acquisition direction. Zero if unknown
	SlantRangeFirstPixel float64 // slant range of the first sample, metres
	LineIncrement        float64 // original lines per image line
	SampleIncrement      float64 // original samples per image sample
	LookSide             int     // +1 right looking, -1 left looking
}

// Platform state for a straight flight track over a locally spherical earth
type Platform struct {
	Lat0, Lon0  float64 // nadir point at time zero, degrees
	Heading     float64 // track heading, degrees clockwise from north
	Velocity    float64 // ground speed of the nadir point, metres per second
	Altitude    float64 // height above the surface, metres
	EarthRadius float64 // local earth radius, metres
}

// Map projection of the raster, with a GDAL geotransform from pixels to map coordinates
type Projection struct {
	proj.Params
	GeoTransform [6]float64
}

// Linear transform from pixels to latitude and longitude, for georeferenced but
// unprojected rasters: lat = Lat[0] + Lat[1]*line + Lat[2]*sample, likewise for lon
type Transform struct {
	Lat [3]float64
	Lon [3]float64
}

// Result of a slant range conversion accuracy check
type Accuracy struct {
	MaxSquaredError     float64
	AverageSquaredError float64
	Checked             int64
	Failed              int64
}

// Returns the transform as an affine map from (sample, line) to (lon, lat)
func (t *Transform) Affine() *proj.Affine {
	return &proj.Affine{
		A: t.Lon[2], B: t.Lon[1], C: t.Lon[0],
		D: t.Lat[2], E: t.Lat[1], F: t.Lat[0],
	}
}

// Reads metadata from FITS header keywords
func FromHeader(h *fits.Header) (*Metadata, error) {
	m := &Metadata{}
	m.General.StartLine, _ = h.Int(KeyStartLine)
	m.General.StartSample, _ = h.Int(KeyStartSample)

	if t, ok := h.String(KeyImageType); ok {
		s := &SAR{ImageType: t, LineIncrement: 1, SampleIncrement: 1, LookSide: 1}
		s.AzimuthTimePerPixel, _ = h.Float(KeyTimePerPixel)
		s.SlantRangeFirstPixel, _ = h.Float(KeySlantFirst)
		if v, ok := h.Float(KeyLineInc); ok {
			s.LineIncrement = v
		}
		if v, ok := h.Float(KeySampleInc); ok {
			s.SampleIncrement = v
		}
		if v, ok := h.Int(KeyLookSide); ok && v != 0 { // 0 is unset, right looking
			if v != 1 && v != -1 {
				return nil, fmt.Errorf("%s=%d must be 1 or -1", KeyLookSide, v)
			}
			s.LookSide = int(v)
		}
		m.SAR = s
	}

	if _, ok := h.Float(KeyPlatformVelocity); ok {
		p := &Platform{}
		keys := []string{KeyPlatformLat0, KeyPlatformLon0, KeyPlatformHeading, KeyPlatformVelocity, KeyPlatformAltitude, KeyPlatformRadius}
		vals := []*float64{&p.Lat0, &p.Lon0, &p.Heading, &p.Velocity, &p.Altitude, &p.EarthRadius}
		if err := readFloats(h, keys, vals); err != nil {
			return nil, err
		}
		m.Platform = p
	}

	if t, ok := h.String(KeyProjType); ok {
		p := &Projection{Params: proj.Params{Type: t}}
		p.Lat0, _ = h.Float(KeyProjLat0)
		p.Lon0, _ = h.Float(KeyProjLon0)
		p.Lat1, _ = h.Float(KeyProjLat1)
		p.Lat2, _ = h.Float(KeyProjLat2)
		for i := range p.GeoTransform {
			v, ok := h.Float(fmt.Sprintf("%s%d", KeyProjGT, i))
			if !ok {
				return nil, fmt.Errorf("projection block lacks %s%d", KeyProjGT, i)
			}
			p.GeoTransform[i] = v
		}
		m.Projection = p
	}

	if _, ok := h.Float(KeyTransformLat + "0"); ok {
		t := &Transform{}
		for i := 0; i < 3; i++ {
			keys := []string{fmt.Sprintf("%s%d", KeyTransformLat, i), fmt.Sprintf("%s%d", KeyTransformLon, i)}
			if err := readFloats(h, keys, []*float64{&t.Lat[i], &t.Lon[i]}); err != nil {
				return nil, err
			}
		}
		m.Transform = t
	}

	if v, ok := h.Float(KeyMaxSquaredError); ok {
		a := &Accuracy{MaxSquaredError: v}
		a.AverageSquaredError, _ = h.Float(KeyAvgSquaredError)
		a.Checked, _ = h.Int(KeyChecked)
		a.Failed, _ = h.Int(KeyCheckFailed)
		m.Accuracy = a
	}
	return m, nil
}

func readFloats(h *fits.Header, keys []string, vals []*float64) error {
	for i, key := range keys {
		v, ok := h.Float(key)
		if !ok {
			return fmt.Errorf("metadata keyword %s missing", key)
		}
		*vals[i] = v
	}
	return nil
}

// Writes metadata into FITS header keywords. Keywords of absent blocks are removed
func (m *Metadata) ToHeader(h *fits.Header) {
	h.Delete(KeyStartLine)
	h.Delete(KeyStartSample)
	h.Ints[KeyStartLine] = m.General.StartLine
	h.Ints[KeyStartSample] = m.General.StartSample

	for _, k := range []string{KeyImageType, KeyTimePerPixel, KeySlantFirst, KeyLineInc, KeySampleInc, KeyLookSide} {
		h.Delete(k)
	}
	if s := m.SAR; s != nil {
		h.Strings[KeyImageType] = s.ImageType
		h.Floats[KeyTimePerPixel] = s.AzimuthTimePerPixel
		h.Floats[KeySlantFirst] = s.SlantRangeFirstPixel
		h.Floats[KeyLineInc] = s.LineIncrement
		h.Floats[KeySampleInc] = s.SampleIncrement
		if s.LookSide != 0 {
			h.Ints[KeyLookSide] = int64(s.LookSide)
		}
	}

	h.DeletePrefix("PLT")
	if p := m.Platform; p != nil {
		h.Floats[KeyPlatformLat0] = p.Lat0
		h.Floats[KeyPlatformLon0] = p.Lon0
		h.Floats[KeyPlatformHeading] = p.Heading
		h.Floats[KeyPlatformVelocity] = p.Velocity
		h.Floats[KeyPlatformAltitude] = p.Altitude
		h.Floats[KeyPlatformRadius] = p.EarthRadius
	}

	h.DeletePrefix("PRJ")
	if p := m.Projection; p != nil {
		h.Strings[KeyProjType] = p.Type
		h.Floats[KeyProjLat0] = p.Lat0
		h.Floats[KeyProjLon0] = p.Lon0
		h.Floats[KeyProjLat1] = p.Lat1
		h.Floats[KeyProjLat2] = p.Lat2
		for i, v := range p.GeoTransform {
			h.Floats[fmt.Sprintf("%s%d", KeyProjGT, i)] = v
		}
	}

	h.DeletePrefix(KeyTransformLat)
	h.DeletePrefix(KeyTransformLon)
	if t := m.Transform; t != nil {
		for i := 0; i < 3; i++ {
			h.Floats[fmt.Sprintf("%s%d", KeyTransformLat, i)] = t.Lat[i]
			h.Floats[fmt.Sprintf("%s%d", KeyTransformLon, i)] = t.Lon[i]
		}
	}

	for _, k := range []string{KeyMaxSquaredError, KeyAvgSquaredError, KeyChecked, KeyCheckFailed} {
		h.Delete(k)
	}
	if a := m.Accuracy; a != nil {
		h.Floats[KeyMaxSquaredError] = a.MaxSquaredError
		h.Floats[KeyAvgSquaredError] = a.AverageSquaredError
		h.Ints[KeyChecked] = a.Checked
		h.Ints[KeyCheckFailed] = a.Failed
	}
}

// Writes a human readable description of all metadata blocks
func (m *Metadata) Describe(w io.Writer) {
	fmt.Fprintf(w, "General:    start line %d, start sample %d\n", m.General.StartLine, m.General.StartSample)
	if s := m.SAR; s != nil {
		fmt.Fprintf(w, "SAR:        type %s, time/pixel %.9g s, first slant range %.3f m, increments %g/%g, look side %+d\n",
			s.ImageType, s.AzimuthTimePerPixel, s.SlantRangeFirstPixel, s.LineIncrement, s.SampleIncrement, s.LookSide)
	}
	if p := m.Platform; p != nil {
		fmt.Fprintf(w, "Platform:   nadir %.6f,%.6f heading %.3f deg, velocity %.1f m/s, altitude %.0f m, earth radius %.0f m\n",
			p.Lat0, p.Lon0, p.Heading, p.Velocity, p.Altitude, p.EarthRadius)
	}
	if p := m.Projection; p != nil {
		fmt.Fprintf(w, "Projection: %s origin %.6f,%.6f parallels %.6f/%.6f geotransform %v\n",
			p.Type, p.Lat0, p.Lon0, p.Lat1, p.Lat2, p.GeoTransform)
	}
	if t := m.Transform; t != nil {
		fmt.Fprintf(w, "Transform:  lat %v lon %v\n", t.Lat, t.Lon)
	}
	if a := m.Accuracy; a != nil {
		fmt.Fprintf(w, "Accuracy:   max squared error %.6g, average %.6g over %d points, %d failed\n",
			a.MaxSquaredError, a.AverageSquaredError, a.Checked, a.Failed)
	}
}
