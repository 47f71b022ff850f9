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

// Package proj converts between map coordinates and WGS84 longitude/latitude,
// and between raster pixels and map coordinates.
package proj

import (
	"fmt"
	"math"
)

// Projection converts between a map coordinate system and WGS84.
type Projection interface {
	// ToWGS84 converts map coordinates to WGS84 longitude/latitude in degrees
	ToWGS84(x, y float64) (lon, lat float64)

	// FromWGS84 converts WGS84 longitude/latitude in degrees to map coordinates
	FromWGS84(lon, lat float64) (x, y float64)

	// EPSG code, or 0 if the projection has no registered code
	EPSG() int
}

// Names of supported projection types, as stored in image metadata
const (
	TypeGeographic = "GEOGRAPHIC"
	TypeMercator   = "MERCATOR"
	TypeLambert    = "LAMBERT"
)

// Parameters of a projection, as stored in image metadata. Unused fields are zero
type Params struct {
	Type       string  // One of the Type constants
	Lat0, Lon0 float64 // Origin latitude and central meridian, degrees
	Lat1, Lat2 float64 // Standard parallels, degrees
}

// Returns the projection for the given parameters
func New(p Params) (Projection, error) {
	switch p.Type {
	case TypeGeographic:
		return &Geographic{}, nil
	case TypeMercator:
		return &WebMercator{}, nil
	case TypeLambert:
		return NewLambertConformal(p.Lat1, p.Lat2, p.Lat0, p.Lon0)
	default:
		return nil, fmt.Errorf("unsupported projection type '%s'", p.Type)
	}
}

// Geographic is a no-op projection for map coordinates already in degrees, EPSG:4326
type Geographic struct{}

func (g *Geographic) ToWGS84(x, y float64) (lon, lat float64)   { return x, y }
func (g *Geographic) FromWGS84(lon, lat float64) (x, y float64) { return lon, lat }
func (g *Geographic) EPSG() int                                 { return 4326 }

// Half the equatorial circumference of the spherical web mercator earth, in metres
const originShift = math.Pi * 6378137.0

// WebMercator implements spherical mercator, EPSG:3857
type WebMercator struct{}

func (w *WebMercator) EPSG() int { return 3857 }

func (w *WebMercator) ToWGS84(x, y float64) (lon, lat float64) {
	lon = (x / originShift) * 180.0
	lat = (y / originShift) * 180.0
	lat = 180.0 / math.Pi * (2.0*math.Atan(math.Exp(lat*math.Pi/180.0)) - math.Pi/2.0)
	return
}

func (w *WebMercator) FromWGS84(lon, lat float64) (x, y float64) {
	x = lon * originShift / 180.0
	y = math.Log(math.Tan((90.0+lat)*math.Pi/360.0)) / (math.Pi / 180.0)
	y = y * originShift / 180.0
	return
}

func toRad(d float64) float64 { return d * math.Pi / 180 }
func toDeg(r float64) float64 { return r * 180 / math.Pi }
