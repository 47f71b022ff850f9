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

package ops

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/mlnoga/slantrange/internal/fits"
	"github.com/mlnoga/slantrange/internal/metrics"
	"github.com/mlnoga/slantrange/internal/sr"
	"github.com/mlnoga/slantrange/internal/synth"
)

// Converts each input image to slant range geometry. Takes n inputs, produces n outputs
type OpToSlantRange struct {
	OpUnaryBase
	sr.Config
}

func init() { SetOperatorFactory(func() Operator { return NewOpToSlantRangeDefault() }) } // register the operator for JSON decoding

func NewOpToSlantRangeDefault() *OpToSlantRange { return NewOpToSlantRange(sr.DefaultConfig()) }

func NewOpToSlantRange(cfg sr.Config) *OpToSlantRange {
	op := OpToSlantRange{
		OpUnaryBase: OpUnaryBase{OpBase: OpBase{Type: "toSlantRange", Active: true}},
		Config:      cfg,
	}
	op.OpUnaryBase.Apply = op.Apply // assign class method to superclass abstract method
	return &op
}

// Unmarshal the type from JSON with default values for missing entries
func (op *OpToSlantRange) UnmarshalJSON(data []byte) error {
	type defaults OpToSlantRange
	def := defaults(*NewOpToSlantRangeDefault())
	if err := json.Unmarshal(data, &def); err != nil {
		return err
	}
	*op = OpToSlantRange(def)
	op.OpUnaryBase.Apply = op.Apply // make method receiver point to op, not def
	return nil
}

func (op *OpToSlantRange) Apply(f *fits.Image, c *Context) (result *fits.Image, err error) {
	cfg := op.Config
	cfg.Log = c.Log
	if cfg.Threads <= 0 || cfg.Threads > c.MaxThreads {
		cfg.Threads = c.MaxThreads
	}
	if cfg.MemoryMB <= 0 {
		cfg.MemoryMB = int64(c.RasterMemoryMB)
	}

	start := time.Now()
	res, err := sr.ToSlantRange(f, cfg)
	metrics.ObserveConversion(res, err, time.Since(start))
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(c.Log, "%d: Converted to slant range in %v\n", f.ID, time.Since(start))
	return res.Image, nil
}

// Prints metadata, pixel statistics and the conversion plan of each input, without resampling.
// Takes n inputs, produces the n unchanged inputs
type OpInfo struct {
	OpUnaryBase
	PixelSize float64 `json:"pixelSize"` // as for OpToSlantRange
}

func init() { SetOperatorFactory(func() Operator { return NewOpInfoDefault() }) } // register the operator for JSON decoding

func NewOpInfoDefault() *OpInfo { return NewOpInfo(0) }

func NewOpInfo(pixelSize float64) *OpInfo {
	op := OpInfo{
		OpUnaryBase: OpUnaryBase{OpBase: OpBase{Type: "info", Active: true}},
		PixelSize:   pixelSize,
	}
	op.OpUnaryBase.Apply = op.Apply // assign class method to superclass abstract method
	return &op
}

// Unmarshal the type from JSON with default values for missing entries
func (op *OpInfo) UnmarshalJSON(data []byte) error {
	type defaults OpInfo
	def := defaults(*NewOpInfoDefault())
	if err := json.Unmarshal(data, &def); err != nil {
		return err
	}
	*op = OpInfo(def)
	op.OpUnaryBase.Apply = op.Apply // make method receiver point to op, not def
	return nil
}

func (op *OpInfo) Apply(f *fits.Image, c *Context) (result *fits.Image, err error) {
	fmt.Fprintf(c.Log, "%d: %s %s pixels, no-data %g\n", f.ID, f.FileName, f.DimensionsToString(), f.NoData)
	fmt.Fprintf(c.Log, "%d: %v\n", f.ID, f.ValidStats())

	m, geo, err := sr.ModelFor(f)
	if m != nil {
		m.Describe(c.Log)
	}
	if err != nil {
		fmt.Fprintf(c.Log, "%d: No conversion possible: %v\n", f.ID, err)
		return f, nil
	}

	cfg := sr.DefaultConfig()
	cfg.PixelSize, cfg.Log = op.PixelSize, c.Log
	res, err := sr.Survey(f, geo, cfg)
	if err != nil {
		fmt.Fprintf(c.Log, "%d: No conversion possible: %v\n", f.ID, err)
		return f, nil
	}
	fmt.Fprintf(c.Log, "%d: Output raster needs %d MB\n", f.ID, res.Plan.Bytes()>>20)
	return f, nil
}

// Generates a synthetic map-projected scene. Takes zero inputs, produces one output
type OpSynth struct {
	OpBase
	synth.Scene
}

func init() { SetOperatorFactory(func() Operator { return NewOpSynthDefault() }) } // register the operator for JSON decoding

func NewOpSynthDefault() *OpSynth { return NewOpSynth(synth.DefaultScene()) }

func NewOpSynth(sc synth.Scene) *OpSynth {
	return &OpSynth{
		OpBase: OpBase{Type: "synth", Active: true},
		Scene:  sc,
	}
}

// Unmarshal the type from JSON with default values for missing entries
func (op *OpSynth) UnmarshalJSON(data []byte) error {
	type defaults OpSynth
	def := defaults(*NewOpSynthDefault())
	if err := json.Unmarshal(data, &def); err != nil {
		return err
	}
	*op = OpSynth(def)
	return nil
}

func (op *OpSynth) MakePromises(ins []Promise, c *Context) (outs []Promise, err error) {
	if len(ins) > 0 {
		return nil, fmt.Errorf("%s operator with non-zero input", op.Type)
	}
	out := func() (f *fits.Image, err error) {
		start := time.Now()
		f, err = synth.Generate(op.Scene)
		if err != nil {
			return nil, err
		}
		fmt.Fprintf(c.Log, "%d: Generated %s %s pixel scene in %v\n",
			f.ID, op.Scene.Projection, f.DimensionsToString(), time.Since(start))
		return f, nil
	}
	return []Promise{out}, nil
}
