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
	"time"

	"github.com/mlnoga/slantrange/internal/fits"
	"github.com/mlnoga/slantrange/internal/geometry"
	"github.com/mlnoga/slantrange/internal/meta"
)

// Outcome of a slant range conversion
type Result struct {
	Image    *fits.Image // the slant range raster; nil for surveys
	Corners  Corners     // first valid pixels from each edge
	Extent   Extent      // time/slant bounding box of the corners
	Plan     Plan        // output raster layout
	Report   Report      // interpolation accuracy
	Warnings []string    // non-fatal accuracy warnings
	Copied   bool        // input already was slant range, and was copied unchanged
}

// Locates the corners of the valid data, and derives the extent and the output
// plan, without resampling
func Survey(in *fits.Image, geo geometry.Model, cfg Config) (*Result, error) {
	log := cfg.log()
	res := &Result{}

	var err error
	if res.Corners, err = LocateCorners(in); err != nil {
		return nil, fmt.Errorf("%d: %w", in.ID, err)
	}
	if res.Extent, err = ComputeExtent(&res.Corners, geo); err != nil {
		return nil, fmt.Errorf("%d: %w", in.ID, err)
	}
	for dir, c := range res.Corners {
		fmt.Fprintf(log, "%d: %-6v corner line %d sample %d, time %.9g slant %.6g\n",
			in.ID, Direction(dir), c.Line, c.Sample, c.Time, c.Slant)
	}

	timePerPixel := 0.0
	if timed, ok := geo.(geometry.Timed); ok {
		if tpp, ok := timed.TimePerPixel(); ok {
			timePerPixel = tpp
		}
	}
	if res.Plan, err = NewPlan(res.Extent, in.Lines(), cfg.PixelSize, timePerPixel); err != nil {
		return nil, fmt.Errorf("%d: %w", in.ID, err)
	}
	fmt.Fprintf(log, "%d: Extent %v\n", in.ID, res.Extent)
	fmt.Fprintf(log, "%d: Output %v\n", in.ID, res.Plan)
	return res, nil
}

// Resamples a map-projected input raster into slant range geometry, using the
// given geometry model. Fails without output on any fatal condition
func Resample(in *fits.Image, geo geometry.Model, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log, threads := cfg.log(), cfg.threads()

	res, err := Survey(in, geo, cfg)
	if err != nil {
		return nil, err
	}
	if cfg.MemoryMB > 0 && res.Plan.Bytes() > cfg.MemoryMB<<20 {
		return nil, fmt.Errorf("%d: %w: output needs %d MB, budget is %d MB",
			in.ID, ErrInsufficientMemory, res.Plan.Bytes()>>20, cfg.MemoryMB)
	}

	start := time.Now()
	grid, err := BuildGrid(geo, res.Plan, cfg.GridSize, threads)
	if err != nil {
		return nil, fmt.Errorf("%d: %w", in.ID, err)
	}
	if err = VerifyGrid(grid, geo, cfg.GridTolerance, threads); err != nil {
		return nil, fmt.Errorf("%d: %w", in.ID, err)
	}
	fmt.Fprintf(log, "%d: Created %dx%d spline grid in %v\n", in.ID, grid.N(), grid.N(), time.Since(start))

	// measure accuracy while resampling, within the same thread budget
	measureThreads, resampleThreads := splitThreads(threads)
	var measureErr error
	done := make(chan bool)
	go func() {
		defer close(done)
		res.Report, measureErr = MeasureAccuracy(grid, geo, measureThreads)
	}()
	if resampleThreads == 0 {
		<-done
		resampleThreads = threads
	}

	start = time.Now()
	out, err := ResampleGrid(in, grid, res.Plan, resampleThreads)
	<-done
	if err != nil {
		return nil, fmt.Errorf("%d: %w", in.ID, err)
	}
	if measureErr != nil {
		return nil, fmt.Errorf("%d: %w", in.ID, measureErr)
	}
	fmt.Fprintf(log, "%d: Resampled %s pixels in %v\n", in.ID, out.DimensionsToString(), time.Since(start))
	fmt.Fprintf(log, "%d: Accuracy %v\n", in.ID, res.Report)

	res.Warnings, err = cfg.Thresholds().Assess(res.Report)
	if err != nil {
		return nil, fmt.Errorf("%d: %w", in.ID, err)
	}
	for _, w := range res.Warnings {
		fmt.Fprintf(log, "%d: Warning: %s\n", in.ID, w)
	}

	out.ID, out.FileName = in.ID, in.FileName
	out.Header = in.Header.Clone()
	res.Image = out
	return res, nil
}

// Divides the thread budget between accuracy measurement and resampling.
// A single thread measures first and resamples afterwards, signalled by zero
// resampling threads
func splitThreads(threads int) (measure, resample int) {
	if threads < 2 {
		return 1, 0
	}
	measure = threads / 4
	if measure < 1 {
		measure = 1
	}
	return measure, threads - measure
}

// Returns the metadata and geometry model of an image
func ModelFor(in *fits.Image) (*meta.Metadata, *geometry.SideLooking, error) {
	m, err := meta.FromHeader(&in.Header)
	if err != nil {
		return nil, nil, fmt.Errorf("%d: %w", in.ID, err)
	}
	geo, err := geometry.NewModel(m)
	if err != nil {
		return m, nil, fmt.Errorf("%d: %w", in.ID, err)
	}
	return m, geo, nil
}

// Converts an image to slant range according to its metadata. Slant range images
// are copied. Projected images, and georeferenced images with a transform, are
// resampled. The output metadata describes the slant range geometry
func ToSlantRange(in *fits.Image, cfg Config) (*Result, error) {
	m, err := meta.FromHeader(&in.Header)
	if err != nil {
		return nil, fmt.Errorf("%d: %w", in.ID, err)
	}
	imageType := ""
	if m.SAR != nil {
		imageType = m.SAR.ImageType
	}

	switch {
	case imageType == meta.TypeSlantRange:
		fmt.Fprintf(cfg.log(), "%d: Image is already slant range, copying\n", in.ID)
		return &Result{Image: fits.NewImageFromImage(in), Copied: true}, nil
	case imageType == meta.TypeGroundRange:
		return nil, fmt.Errorf("%d: %w: ground range conversion not supported", in.ID, ErrUnsupportedGeometry)
	case imageType == meta.TypeProjected || m.Projection != nil:
	case imageType == meta.TypeGeoref && m.Transform != nil:
	default:
		return nil, fmt.Errorf("%d: %w: image type '%s' without projection or transform", in.ID, ErrUnsupportedGeometry, imageType)
	}

	geo, err := geometry.NewModel(m)
	if err != nil {
		return nil, fmt.Errorf("%d: %w", in.ID, err)
	}
	res, err := Resample(in, geo, cfg)
	if err != nil {
		return nil, err
	}
	WriteBack(m, res)
	m.ToHeader(&res.Image.Header)
	res.Image.Header.History = append(res.Image.Header.History, "Resampled to slant range")
	return res, nil
}

// Updates metadata to describe the slant range output of a conversion
func WriteBack(m *meta.Metadata, res *Result) {
	if m.SAR == nil {
		m.SAR = &meta.SAR{LookSide: 1}
	}
	m.SAR.ImageType = meta.TypeSlantRange
	m.SAR.AzimuthTimePerPixel = res.Plan.TimeIncrement
	m.SAR.SlantRangeFirstPixel = res.Plan.SlantStart
	m.SAR.LineIncrement, m.SAR.SampleIncrement = 1, 1
	m.General.StartLine, m.General.StartSample = 0, 0
	m.Projection, m.Transform = nil, nil
	m.Accuracy = &meta.Accuracy{
		MaxSquaredError:     res.Report.MaxSquaredError,
		AverageSquaredError: res.Report.AverageSquaredError,
		Checked:             int64(res.Report.Count),
		Failed:              int64(res.Report.Failed),
	}
}
