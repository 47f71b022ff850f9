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
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// Writes an in-memory FITS image to a file with given filename.
// Creates/overwrites the file if necessary
func (fits *Image) WriteFile(fileName string) error {
	f, err := os.OpenFile(fileName, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	if err = fits.Write(w); err != nil {
		f.Close()
		return err
	}
	if err = w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Writes an in-memory FITS image to an io.Writer. Pixel data is
// written as 32-bit floats in network byte order, followed by all header keys
func (fits *Image) Write(f io.Writer) error {
	// Build header in string buffer
	sb := strings.Builder{}
	writeBool(&sb, "SIMPLE", true, "FITS standard 4.0")
	writeInt(&sb, "BITPIX", -32, "32-bit floating point")
	writeInt(&sb, "NAXIS", int64(len(fits.Naxisn)), "[1] Number of axis")
	for i := 0; i < len(fits.Naxisn); i++ {
		writeInt(&sb, fmt.Sprintf("NAXIS%d", i+1), int64(fits.Naxisn[i]), "[1] Axis size")
	}
	writeFloat(&sb, "BZERO", 0, "[1] Zero offset")
	writeFloat(&sb, "BSCALE", 1, "[1] Value scaler")
	writeFloat(&sb, KeyNoData, float64(fits.NoData), "Pixel value without measurement")

	h := &fits.Header
	for _, key := range h.Keys() {
		if isReservedKey(key) {
			continue
		}
		if v, ok := h.Bools[key]; ok {
			writeBool(&sb, key, v, "")
		} else if v, ok := h.Ints[key]; ok {
			writeInt(&sb, key, v, "")
		} else if v, ok := h.Floats[key]; ok {
			writeFloat(&sb, key, v, "")
		} else if v, ok := h.Strings[key]; ok {
			writeString(&sb, key, v, "")
		} else if v, ok := h.Dates[key]; ok {
			writeCard(&sb, fmt.Sprintf("%-8s= %s", key, v))
		}
	}
	for _, c := range h.Comments {
		writeCard(&sb, "COMMENT "+c)
	}
	for _, c := range h.History {
		writeCard(&sb, "HISTORY "+c)
	}
	writeEnd(&sb)

	// Pad current header block with spaces if necessary
	bytesInHeaderBlock := (sb.Len() % fitsBlockSize)
	if bytesInHeaderBlock > 0 {
		for i := bytesInHeaderBlock; i < fitsBlockSize; i++ {
			sb.WriteRune(' ')
		}
	}

	// Write header block(s)
	_, err := f.Write([]byte(sb.String()))
	if err != nil {
		return err
	}

	// Write payload data and pad the last data block with zeros
	if err = writeFloat32Array(f, fits.Data, false); err != nil {
		return err
	}
	if rest := (len(fits.Data) * 4) % fitsBlockSize; rest > 0 {
		_, err = f.Write(make([]byte, fitsBlockSize-rest))
	}
	return err
}

// Keys written from the image structure itself
func isReservedKey(key string) bool {
	switch key {
	case "SIMPLE", "BITPIX", "NAXIS", "NAXIS1", "NAXIS2", "NAXIS3", "BZERO", "BSCALE", KeyNoData, "END":
		return true
	}
	return false
}

// Writes a single header card, padded or cut to the line size
func writeCard(w io.Writer, card string) {
	if len(card) > HeaderLineSize {
		card = card[:HeaderLineSize]
	}
	fmt.Fprintf(w, "%-80s", card)
}

// Writes a key/value card with an optional comment
func writeKeyValue(w io.Writer, key, value, comment string) {
	if len(key) > 8 {
		key = key[0:8]
	}
	card := fmt.Sprintf("%-8s= %20s", key, value)
	if comment != "" {
		card += " / " + comment
	}
	writeCard(w, card)
}

// Writes a FITS header boolean value
func writeBool(w io.Writer, key string, value bool, comment string) {
	v := "F"
	if value {
		v = "T"
	}
	writeKeyValue(w, key, v, comment)
}

// Writes a FITS header integer value
func writeInt(w io.Writer, key string, value int64, comment string) {
	writeKeyValue(w, key, strconv.FormatInt(value, 10), comment)
}

// Writes a FITS header float value with full precision. Always includes a
// decimal point so the value reads back as a float
func writeFloat(w io.Writer, key string, value float64, comment string) {
	writeKeyValue(w, key, formatFloat(value), comment)
}

func formatFloat(value float64) string {
	s := strconv.FormatFloat(value, 'G', -1, 64)
	if strings.ContainsAny(s, ".NI") {
		return s
	}
	if e := strings.IndexByte(s, 'E'); e >= 0 {
		return s[:e] + ".0" + s[e:]
	}
	return s + ".0"
}

// Writes a FITS header string value, with escaping. Long values are cut to a single card
func writeString(w io.Writer, key, value, comment string) {
	if len(key) > 8 {
		key = key[0:8]
	}
	value = strings.Join(strings.Split(value, "'"), "''")
	if len(value) > 68 {
		value = value[:68]
	}
	card := fmt.Sprintf("%-8s= '%s'", key, value)
	if comment != "" && len(card)+3+len(comment) <= HeaderLineSize {
		card += " / " + comment
	}
	writeCard(w, card)
}

// Writes a FITS header end record
func writeEnd(w io.Writer) {
	fmt.Fprintf(w, "END%s", strings.Repeat(" ", 80-3))
}

// Writes FITS binary body data in network byte order.
// Optionally replaces NaNs with zeros for compatibility with other software
func writeFloat32Array(w io.Writer, data []float32, replaceNaNs bool) error {
	buf := make([]byte, bufLen)

	for block := 0; block < len(data); block += (bufLen >> 2) {
		size := len(data) - block
		if size > (bufLen >> 2) {
			size = (bufLen >> 2)
		}

		for offset := 0; offset < size; offset++ {
			d := data[block+offset]
			if replaceNaNs && math.IsNaN(float64(d)) {
				d = 0
			}
			val := math.Float32bits(d)
			buf[(offset<<2)+0] = byte(val >> 24)
			buf[(offset<<2)+1] = byte(val >> 16)
			buf[(offset<<2)+2] = byte(val >> 8)
			buf[(offset<<2)+3] = byte(val)
		}
		_, err := w.Write(buf[:(size << 2)])
		if err != nil {
			return err
		}
	}
	return nil
}
