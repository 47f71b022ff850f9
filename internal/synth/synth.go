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

// Package synth generates map-projected radar scenes of a platform flying a
// straight track, with an irregular valid-data footprint and speckle.
package synth

import (
	"fmt"
	"math"

	"github.com/valyala/fastrand"

	"github.com/mlnoga/slantrange/internal/fits"
	"github.com/mlnoga/slantrange/internal/geometry"
	"github.com/mlnoga/slantrange/internal/meta"
	"github.com/mlnoga/slantrange/internal/proj"
)

// Parameters of a synthetic scene
type Scene struct {
	Projection   string  `json:"projection"`   // proj.TypeGeographic, TypeMercator or TypeLambert
	Size         int     `json:"size"`         // lines and samples of the raster
	Lat0         float64 `json:"lat0"`         // nadir at time zero, degrees
	Lon0         float64 `json:"lon0"`         // nadir at time zero, degrees
	Heading      float64 `json:"heading"`      // degrees clockwise from north
	Velocity     float64 `json:"velocity"`     // metres per second
	Altitude     float64 `json:"altitude"`     // metres
	Duration     float64 `json:"duration"`     // seconds of acquisition
	NearRange    float64 `json:"nearRange"`    // metres
	FarRange     float64 `json:"farRange"`     // metres
	TimePerPixel float64 `json:"timePerPixel"` // native line time recorded in the metadata, 0 for none
	LookSide     int     `json:"lookSide"`     // +1 right, -1 left
	NoData       float32 `json:"noData"`
	Speckle      bool    `json:"speckle"` // multiply with exponentially distributed speckle
	Seed         uint32  `json:"seed"`
}

// Returns an airborne scene in geographic coordinates
func DefaultScene() Scene {
	return Scene{
		Projection:   proj.TypeGeographic,
		Size:         400,
		Lat0:         47,
		Lon0:         8,
		Heading:      190,
		Velocity:     200,
		Altitude:     8000,
		Duration:     100,
		NearRange:    12000,
		FarRange:     30000,
		TimePerPixel: 0.25,
		LookSide:     1,
		NoData:       -99,
		Speckle:      true,
		Seed:         1,
	}
}

const earthRadius = 6371000.0

// Metadata for the scene, with the given geotransform
func (sc *Scene) metadata(gt [6]float64) *meta.Metadata {
	m := &meta.Metadata{
		SAR: &meta.SAR{
			ImageType:            meta.TypeProjected,
			AzimuthTimePerPixel:  sc.TimePerPixel,
			SlantRangeFirstPixel: sc.NearRange,
			LineIncrement:        1,
			SampleIncrement:      1,
			LookSide:             sc.LookSide,
		},
		Platform: &meta.Platform{
			Lat0: sc.Lat0, Lon0: sc.Lon0, Heading: sc.Heading,
			Velocity: sc.Velocity, Altitude: sc.Altitude, EarthRadius: earthRadius,
		},
		Projection: &meta.Projection{
			Params:       proj.Params{Type: sc.Projection},
			GeoTransform: gt,
		},
	}
	if sc.Projection == proj.TypeLambert {
		m.Projection.Params = proj.Params{Type: sc.Projection, Lat0: sc.Lat0, Lon0: sc.Lon0, Lat1: sc.Lat0 - 1, Lat2: sc.Lat0 + 1}
	}
	return m
}

// Near range edge of the footprint, wavy along track
func (sc *Scene) nearEdge(t float64) float64 {
	return sc.NearRange + 0.04*(sc.FarRange-sc.NearRange)*(1+math.Sin(6*math.Pi*t/sc.Duration))
}

// Backscatter without speckle: a smooth pattern of fields
func (sc *Scene) backscatter(t, r float64) float64 {
	u, v := t/sc.Duration, (r-sc.NearRange)/(sc.FarRange-sc.NearRange)
	return 100 * (1.2 + 0.5*math.Sin(8*math.Pi*u)*math.Cos(6*math.Pi*v) + 0.3*math.Cos(20*math.Pi*u*v))
}

func (sc *Scene) validate() error {
	if sc.Size < 8 {
		return fmt.Errorf("scene size %d below 8", sc.Size)
	}
	if !(sc.Velocity > 0) || !(sc.Duration > 0) || !(sc.Altitude > 0) {
		return fmt.Errorf("velocity %g, duration %g and altitude %g must be positive", sc.Velocity, sc.Duration, sc.Altitude)
	}
	if !(sc.NearRange > sc.Altitude) || !(sc.FarRange > sc.NearRange) {
		return fmt.Errorf("ranges %g..%g must increase and exceed altitude %g", sc.NearRange, sc.FarRange, sc.Altitude)
	}
	if sc.LookSide != 1 && sc.LookSide != -1 {
		return fmt.Errorf("look side %d must be 1 or -1", sc.LookSide)
	}
	return nil
}

// Generates the scene as a map-projected raster with metadata
func Generate(sc Scene) (*fits.Image, error) {
	if err := sc.validate(); err != nil {
		return nil, err
	}
	m := sc.metadata([6]float64{0, 1, 0, 0, 0, 1})
	p, err := proj.New(m.Projection.Params)
	if err != nil {
		return nil, err
	}

	// bounding box of the swath in map coordinates
	geo, err := geometry.NewModel(m)
	if err != nil {
		return nil, err
	}
	xmin, ymin := math.Inf(1), math.Inf(1)
	xmax, ymax := math.Inf(-1), math.Inf(-1)
	const steps = 32
	for i := 0; i <= steps; i++ {
		for _, edge := range [][2]float64{
			{float64(i) / steps * sc.Duration, sc.NearRange},
			{float64(i) / steps * sc.Duration, sc.FarRange},
			{0, sc.NearRange + float64(i)/steps*(sc.FarRange-sc.NearRange)},
			{sc.Duration, sc.NearRange + float64(i)/steps*(sc.FarRange-sc.NearRange)},
		} {
			lat, lon, err := geo.ToLatLon(edge[0], edge[1])
			if err != nil {
				return nil, err
			}
			x, y := p.FromWGS84(lon, lat)
			xmin, xmax = math.Min(xmin, x), math.Max(xmax, x)
			ymin, ymax = math.Min(ymin, y), math.Max(ymax, y)
		}
	}
	marginX, marginY := 0.05*(xmax-xmin), 0.05*(ymax-ymin)
	xmin, xmax, ymin, ymax = xmin-marginX, xmax+marginX, ymin-marginY, ymax+marginY
	gt := [6]float64{xmin, (xmax - xmin) / float64(sc.Size), 0, ymax, 0, -(ymax - ymin) / float64(sc.Size)}

	m = sc.metadata(gt)
	if geo, err = geometry.NewModel(m); err != nil {
		return nil, err
	}

	img := fits.NewImageFilled(sc.Size, sc.Size, sc.NoData)
	rng := fastrand.RNG{}
	rng.Seed(sc.Seed)
	for l := 0; l < sc.Size; l++ {
		for s := 0; s < sc.Size; s++ {
			t, r, err := geo.ToTimeSlant(float64(l), float64(s))
			if err != nil || t < 0 || t > sc.Duration || r < sc.nearEdge(t) || r > sc.FarRange {
				continue
			}
			v := sc.backscatter(t, r)
			if sc.Speckle {
				u := float64(rng.Uint32()) / (1 << 32)
				v *= math.Max(-math.Log(1-u), 1e-3)
			}
			img.Set(l, s, float32(v))
		}
	}
	m.ToHeader(&img.Header)
	img.Header.History = append(img.Header.History, fmt.Sprintf("Synthetic %s scene, seed %d", sc.Projection, sc.Seed))
	return img, nil
}
