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
	"fmt"
	"io"
	"runtime"
)

// Configuration of a slant range conversion
type Config struct {
	PixelSize     float64   `json:"pixelSize"`     // target slant range per output sample; <=0 selects a square output
	GridSize      int       `json:"gridSize"`      // number of spline knots per axis
	Threshold     float64   `json:"threshold"`     // base accuracy threshold, squared pixels
	WarnMax       float64   `json:"warnMax"`       // warn if the max error exceeds WarnMax*Threshold
	FailMax       float64   `json:"failMax"`       // fail if the max error exceeds FailMax*Threshold
	WarnAvg       float64   `json:"warnAvg"`       // warn if the average error reaches WarnAvg*Threshold
	FailAvg       float64   `json:"failAvg"`       // fail if the average error exceeds FailAvg*Threshold
	GridTolerance float64   `json:"gridTolerance"` // max squared error at the grid knots
	Threads       int       `json:"threads"`       // total worker goroutines; <=0 uses GOMAXPROCS
	MemoryMB      int64     `json:"memoryMB"`      // output raster budget; <=0 is unlimited
	Log           io.Writer `json:"-"`             // progress output; nil discards
}

// Returns the default configuration
func DefaultConfig() Config {
	return Config{
		PixelSize:     0,
		GridSize:      100,
		Threshold:     0.1,
		WarnMax:       10,
		FailMax:       100,
		WarnAvg:       1,
		FailAvg:       10,
		GridTolerance: 0.002,
		Threads:       runtime.GOMAXPROCS(0),
		MemoryMB:      0,
	}
}

// Checks configuration values for consistency
func (c *Config) Validate() error {
	if c.GridSize < 4 {
		return fmt.Errorf("%w: grid size %d below 4", ErrInvalidConfig, c.GridSize)
	}
	if !(c.Threshold > 0) || !(c.GridTolerance > 0) {
		return fmt.Errorf("%w: threshold %g and grid tolerance %g must be positive", ErrInvalidConfig, c.Threshold, c.GridTolerance)
	}
	if !(c.WarnMax > 0 && c.WarnMax <= c.FailMax) {
		return fmt.Errorf("%w: max error multipliers warn %g fail %g", ErrInvalidConfig, c.WarnMax, c.FailMax)
	}
	if !(c.WarnAvg > 0 && c.WarnAvg <= c.FailAvg) {
		return fmt.Errorf("%w: average error multipliers warn %g fail %g", ErrInvalidConfig, c.WarnAvg, c.FailAvg)
	}
	return nil
}

func (c *Config) threads() int {
	if c.Threads <= 0 {
		return runtime.GOMAXPROCS(0)
	}
	return c.Threads
}

func (c *Config) log() io.Writer {
	if c.Log == nil {
		return io.Discard
	}
	return c.Log
}

// Accuracy thresholds in absolute squared pixels
func (c *Config) Thresholds() Thresholds {
	return Thresholds{
		WarnMax: c.WarnMax * c.Threshold,
		FailMax: c.FailMax * c.Threshold,
		WarnAvg: c.WarnAvg * c.Threshold,
		FailAvg: c.FailAvg * c.Threshold,
	}
}
