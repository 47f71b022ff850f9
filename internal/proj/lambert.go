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

// Mean earth radius for spherical Lambert cones, metres
const EarthRadius = 6371229.0

// LambertConformal is a spherical Lambert conformal conic projection with
// two standard parallels. Map coordinates are metres east and north of the
// origin at (Lat0, Lon0)
type LambertConformal struct {
	Lat1, Lat2 float64 // standard parallels, degrees
	Lat0, Lon0 float64 // origin latitude and central meridian, degrees

	n, bigF, rho0 float64
}

// Creates a Lambert conformal conic projection. Fails if the standard parallels
// are symmetric about the equator or lie on a pole
func NewLambertConformal(lat1, lat2, lat0, lon0 float64) (*LambertConformal, error) {
	if math.Abs(lat1) >= 90 || math.Abs(lat2) >= 90 || math.Abs(lat0) >= 90 {
		return nil, fmt.Errorf("lambert parallels %g/%g origin %g out of range", lat1, lat2, lat0)
	}
	l := &LambertConformal{Lat1: lat1, Lat2: lat2, Lat0: lat0, Lon0: lon0}

	φ1, φ2 := toRad(lat1), toRad(lat2)
	if lat1 == lat2 {
		l.n = math.Sin(φ1)
	} else {
		l.n = math.Log(math.Cos(φ1)/math.Cos(φ2)) /
			math.Log(math.Tan(math.Pi/4+φ2/2)/math.Tan(math.Pi/4+φ1/2))
	}
	if l.n == 0 || math.IsNaN(l.n) {
		return nil, fmt.Errorf("lambert parallels %g/%g do not define a cone", lat1, lat2)
	}
	l.bigF = math.Cos(φ1) * math.Pow(math.Tan(math.Pi/4+φ1/2), l.n) / l.n
	l.rho0 = l.rho(lat0)
	return l, nil
}

func (l *LambertConformal) EPSG() int { return 0 }

// Cone distance from the apex for a given latitude, metres
func (l *LambertConformal) rho(latDeg float64) float64 {
	φ := toRad(latDeg)
	return EarthRadius * l.bigF / math.Pow(math.Tan(math.Pi/4+φ/2), l.n)
}

func (l *LambertConformal) FromWGS84(lon, lat float64) (x, y float64) {
	ρ := l.rho(lat)
	θ := l.n * toRad(normLon(lon-l.Lon0))
	x = ρ * math.Sin(θ)
	y = l.rho0 - ρ*math.Cos(θ)
	return
}

func (l *LambertConformal) ToWGS84(x, y float64) (lon, lat float64) {
	sign := 1.0
	if l.n < 0 {
		sign = -1.0
	}
	dy := l.rho0 - y
	ρ := sign * math.Sqrt(x*x+dy*dy)
	if ρ == 0 {
		return l.Lon0, sign * 90
	}
	θ := math.Atan2(sign*x, sign*dy)
	φ := 2*math.Atan(math.Pow(EarthRadius*l.bigF/ρ, 1/l.n)) - math.Pi/2
	return normLon(l.Lon0 + toDeg(θ)/l.n), toDeg(φ)
}

// Normalizes a longitude to -180..+180
func normLon(lon float64) float64 {
	for lon > 180 {
		lon -= 360
	}
	for lon < -180 {
		lon += 360
	}
	return lon
}
