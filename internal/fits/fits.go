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

package fits

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// A FITS image holding a single 2-D band of float samples.
// Spec here:   https://fits.gsfc.nasa.gov/standard40/fits_standard40aa-le.pdf
// Primer here: https://fits.gsfc.nasa.gov/fits_primer.html
type Image struct {
	ID       int    // Sequential ID number, for log output. Counted upwards from 0 for input frames
	FileName string // Original file name, if any, for log output.

	Header Header  // The header with all keys, values, comments, history entries etc.
	Bitpix int32   // Bits per pixel value from the header. Positive values are integral, negative floating.
	Bzero  float32 // Zero offset. True pixel value is Bzero + Bscale * Data[i].
	Bscale float32 // Value scaler. True pixel value is Bzero + Bscale * Data[i].
	Naxisn []int32 // Axis dimensions. Most quickly varying dimension first (i.e. samples, lines)
	Pixels int32   // Number of pixels in the image. Product of Naxisn[]

	Data []float32 // The image data, line by line

	NoData float32 // Sentinel marking pixels without a measurement
}

// Creates a FITS image initialized with empty header
func NewImage() *Image {
	return &Image{
		Header: NewHeader(),
		Bscale: 1,
	}
}

// Creates a FITS image with the given number of lines and samples, filled with the no-data value
func NewImageFilled(lines, samples int, noData float32) *Image {
	img := NewImageFromNaxisn([]int32{int32(samples), int32(lines)}, nil)
	img.NoData = noData
	for i := range img.Data {
		img.Data[i] = noData
	}
	return img
}

// Creates a FITS image from given naxisn. Data is not copied, allocated if nil. naxisn is deep copied
func NewImageFromNaxisn(naxisn []int32, data []float32) *Image {
	numPixels := int32(1)
	for _, naxis := range naxisn {
		numPixels *= naxis
	}
	if data == nil {
		data = make([]float32, numPixels)
	}
	return &Image{
		Header: NewHeader(),
		Bitpix: -32,
		Bzero:  0,
		Bscale: 1,
		Naxisn: append([]int32(nil), naxisn...), // clone slice
		Pixels: numPixels,
		Data:   data,
	}
}

// Creates a deep copy of the given image, including header and data
func NewImageFromImage(img *Image) *Image {
	res := NewImageFromNaxisn(img.Naxisn, append([]float32(nil), img.Data...))
	res.ID, res.FileName = img.ID, img.FileName
	res.Bitpix, res.Bzero, res.Bscale = img.Bitpix, img.Bzero, img.Bscale
	res.NoData = img.NoData
	res.Header = img.Header.Clone()
	return res
}

// Number of lines, i.e. the slowest varying axis of a 2-D image
func (f *Image) Lines() int {
	if len(f.Naxisn) < 2 {
		return 1
	}
	return int(f.Naxisn[1])
}

// Number of samples per line
func (f *Image) Samples() int {
	if len(f.Naxisn) < 1 {
		return 0
	}
	return int(f.Naxisn[0])
}

// Returns the pixel at the given line and sample
func (f *Image) At(line, sample int) float32 {
	return f.Data[line*int(f.Naxisn[0])+sample]
}

// Sets the pixel at the given line and sample
func (f *Image) Set(line, sample int, v float32) {
	f.Data[line*int(f.Naxisn[0])+sample] = v
}

// Returns true if the value is a real measurement: not no-data, not zero and not NaN
func (f *Image) IsValid(v float32) bool {
	return v != f.NoData && v != 0 && !math.IsNaN(float64(v))
}

func (f *Image) DimensionsToString() string {
	b := strings.Builder{}
	for i, naxis := range f.Naxisn {
		if i > 0 {
			fmt.Fprintf(&b, "x%d", naxis)
		} else {
			fmt.Fprintf(&b, "%d", naxis)
		}
	}
	return b.String()
}

// FITS header data
type Header struct {
	Bools    map[string]bool
	Ints     map[string]int64
	Floats   map[string]float64
	Strings  map[string]string
	Dates    map[string]string
	Comments []string
	History  []string
	End      bool
	Length   int32
}

// Creates a FITS header initialized with empty maps and arrays
func NewHeader() Header {
	return Header{
		Bools:    make(map[string]bool),
		Ints:     make(map[string]int64),
		Floats:   make(map[string]float64),
		Strings:  make(map[string]string),
		Dates:    make(map[string]string),
		Comments: make([]string, 0),
		History:  make([]string, 0),
		End:      false,
	}
}

// Deep copy of the header
func (h *Header) Clone() Header {
	c := NewHeader()
	for k, v := range h.Bools {
		c.Bools[k] = v
	}
	for k, v := range h.Ints {
		c.Ints[k] = v
	}
	for k, v := range h.Floats {
		c.Floats[k] = v
	}
	for k, v := range h.Strings {
		c.Strings[k] = v
	}
	for k, v := range h.Dates {
		c.Dates[k] = v
	}
	c.Comments = append(c.Comments, h.Comments...)
	c.History = append(c.History, h.History...)
	return c
}

// Returns a float value for the key. Integral values are converted,
// as the header parser cannot tell 100 from 100.0
func (h *Header) Float(key string) (float64, bool) {
	if v, ok := h.Floats[key]; ok {
		return v, true
	}
	if v, ok := h.Ints[key]; ok {
		return float64(v), true
	}
	return 0, false
}

// Returns an integer value for the key
func (h *Header) Int(key string) (int64, bool) {
	v, ok := h.Ints[key]
	return v, ok
}

// Returns a string value for the key
func (h *Header) String(key string) (string, bool) {
	v, ok := h.Strings[key]
	return v, ok
}

// Removes a key from all typed maps
func (h *Header) Delete(key string) {
	delete(h.Bools, key)
	delete(h.Ints, key)
	delete(h.Floats, key)
	delete(h.Strings, key)
	delete(h.Dates, key)
}

// Removes all keys with the given prefix
func (h *Header) DeletePrefix(prefix string) {
	for _, k := range h.Keys() {
		if strings.HasPrefix(k, prefix) {
			h.Delete(k)
		}
	}
}

// Sorted list of all keys with a value
func (h *Header) Keys() []string {
	keys := make([]string, 0, len(h.Bools)+len(h.Ints)+len(h.Floats)+len(h.Strings)+len(h.Dates))
	for k := range h.Bools {
		keys = append(keys, k)
	}
	for k := range h.Ints {
		keys = append(keys, k)
	}
	for k := range h.Floats {
		keys = append(keys, k)
	}
	for k := range h.Strings {
		keys = append(keys, k)
	}
	for k := range h.Dates {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

const fitsBlockSize int = 2880 // Block size of FITS header and data units
const HeaderLineSize int = 80  // Line size of a FITS header
