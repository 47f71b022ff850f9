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

// Package geometry converts between raster pixels, radar time and slant range,
// and geographic coordinates for a side-looking radar acquisition.
package geometry

import (
	"errors"
	"fmt"
	"math"

	"github.com/mlnoga/slantrange/internal/meta"
	"github.com/mlnoga/slantrange/internal/proj"
)

var (
	// The metadata carries no usable description of the raster geometry
	ErrUnsupportedGeometry = errors.New("unsupported geometry")

	// A single conversion has no solution
	ErrUnresolvableGeometry = errors.New("unresolvable geometry")
)

// Model converts between input raster pixels, time/slant range and latitude/longitude.
// Implementations are pure and safe for concurrent use
type Model interface {
	ToTimeSlant(line, sample float64) (time, slant float64, err error)
	ToLatLon(time, slant float64) (lat, lon float64, err error)
	ToLineSample(lat, lon float64) (line, sample float64, err error)
}

// Optionally implemented by models with native acquisition timing.
// The sign gives the acquisition direction
type Timed interface {
	TimePerPixel() (float64, bool)
}

// SideLooking models a platform flying a straight track at constant speed and
// altitude over a locally spherical earth, looking perpendicular to its track.
// Raster pixels map to the ground through a projection and geotransform
type SideLooking struct {
	platform meta.Platform
	look     float64 // +1 right, -1 left
	sinH     float64
	cosH     float64
	cosLat0  float64

	timePerPixel float64

	proj    proj.Projection
	toMap   *proj.Affine // (sample, line) to map coordinates
	fromMap *proj.Affine // map coordinates to (sample, line)
}

// Creates the sensor model for the given metadata. Requires a platform block,
// and either a projection or a transform block
func NewModel(m *meta.Metadata) (*SideLooking, error) {
	if m.Projection == nil && m.Transform == nil {
		return nil, fmt.Errorf("%w: neither projection nor transform present", ErrUnsupportedGeometry)
	}
	if m.Platform == nil {
		return nil, fmt.Errorf("%w: no platform state", ErrUnsupportedGeometry)
	}
	p := *m.Platform
	if p.Velocity == 0 || p.Altitude <= 0 || p.EarthRadius <= 0 || math.Abs(p.Lat0) >= 90 {
		return nil, fmt.Errorf("%w: invalid platform %+v", ErrUnsupportedGeometry, p)
	}

	s := &SideLooking{platform: p, look: 1}
	if m.SAR != nil {
		if m.SAR.LookSide < 0 {
			s.look = -1
		}
		s.timePerPixel = m.SAR.AzimuthTimePerPixel
	}
	h := p.Heading * math.Pi / 180
	s.sinH, s.cosH = math.Sin(h), math.Cos(h)
	s.cosLat0 = math.Cos(p.Lat0 * math.Pi / 180)

	var err error
	if m.Projection != nil {
		if s.proj, err = proj.New(m.Projection.Params); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedGeometry, err.Error())
		}
		s.toMap = proj.FromGDAL(m.Projection.GeoTransform)
	} else {
		s.proj = &proj.Geographic{}
		s.toMap = m.Transform.Affine()
	}
	if s.fromMap, err = s.toMap.Invert(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedGeometry, err.Error())
	}
	return s, nil
}

func (s *SideLooking) TimePerPixel() (float64, bool) {
	return s.timePerPixel, s.timePerPixel != 0
}

func (s *SideLooking) ToTimeSlant(line, sample float64) (time, slant float64, err error) {
	x, y := s.toMap.Multiply(sample, line)
	lon, lat := s.proj.ToWGS84(x, y)
	return s.LatLonToTimeSlant(lat, lon)
}

func (s *SideLooking) ToLineSample(lat, lon float64) (line, sample float64, err error) {
	x, y := s.proj.FromWGS84(lon, lat)
	sample, line = s.fromMap.Multiply(x, y)
	if math.IsNaN(line) || math.IsNaN(sample) || math.IsInf(line, 0) || math.IsInf(sample, 0) {
		return 0, 0, fmt.Errorf("%w: lat %g lon %g has no pixel position", ErrUnresolvableGeometry, lat, lon)
	}
	return line, sample, nil
}

// Converts a ground point to time and slant range
func (s *SideLooking) LatLonToTimeSlant(lat, lon float64) (time, slant float64, err error) {
	p := &s.platform
	north := (lat - p.Lat0) * math.Pi / 180 * p.EarthRadius
	east := (lon - p.Lon0) * math.Pi / 180 * p.EarthRadius * s.cosLat0

	along := east*s.sinH + north*s.cosH
	cross := (east*s.cosH - north*s.sinH) * s.look
	if !(cross > 0) {
		return 0, 0, fmt.Errorf("%w: lat %g lon %g not on the illuminated side", ErrUnresolvableGeometry, lat, lon)
	}
	return along / p.Velocity, math.Sqrt(cross*cross + p.Altitude*p.Altitude), nil
}

func (s *SideLooking) ToLatLon(time, slant float64) (lat, lon float64, err error) {
	p := &s.platform
	if !(slant > p.Altitude) || math.IsInf(time, 0) || math.IsNaN(time) {
		return 0, 0, fmt.Errorf("%w: time %g slant %g below the platform", ErrUnresolvableGeometry, time, slant)
	}
	ground := math.Sqrt(slant*slant-p.Altitude*p.Altitude) * s.look
	along := time * p.Velocity
	east := s.sinH*along + s.cosH*ground
	north := s.cosH*along - s.sinH*ground

	lat = p.Lat0 + north/p.EarthRadius*180/math.Pi
	lon = p.Lon0 + east/(p.EarthRadius*s.cosLat0)*180/math.Pi
	return lat, lon, nil
}
