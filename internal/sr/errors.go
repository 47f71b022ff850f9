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

// Package sr resamples map-projected radar images into slant range geometry.
package sr

import (
	"errors"

	"github.com/mlnoga/slantrange/internal/geometry"
)

var (
	// Some edge scan found no valid pixel
	ErrEmptyImage = errors.New("empty image")

	// The input lacks a usable geometry description
	ErrUnsupportedGeometry = geometry.ErrUnsupportedGeometry

	// A single geometry inversion failed
	ErrUnresolvableGeometry = geometry.ErrUnresolvableGeometry

	// The spline grid disagrees with the geometry model at its own control points
	ErrGridFitInconsistency = errors.New("grid fit inconsistency")

	// Interpolation error exceeds the outer accuracy threshold
	ErrAccuracyExceeded = errors.New("accuracy exceeded")

	// The time/slant extent or the output raster has no area
	ErrDegenerateExtent = errors.New("degenerate extent")

	// Configuration values out of range
	ErrInvalidConfig = errors.New("invalid configuration")

	// The output raster would exceed the memory budget
	ErrInsufficientMemory = errors.New("insufficient memory")
)
