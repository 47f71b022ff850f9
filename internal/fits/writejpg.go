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
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"math"
	"os"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Scales a pixel into [0,1] using the given min, max and inverse gamma.
// Returns false for pixels which carry no measurement
func (f *Image) normalizedPixel(v, min, scale float32, gammaInv float64) (float32, bool) {
	if !f.IsValid(v) {
		return 0, false
	}
	gray := (v - min) * scale
	if math.IsNaN(float64(gray)) || gray < 0 {
		gray = 0
	}
	if gray > 1 {
		gray = 1
	}
	if gammaInv != 1.0 {
		gray = float32(math.Pow(float64(gray), gammaInv))
	}
	return gray, true
}

// Converts the image into an 8-bit grayscale Golang image, using the given min, max and gamma.
// No-data pixels are black
func (f *Image) ToGray(min, max, gamma float32) *image.Gray {
	width, height := f.Samples(), f.Lines()
	img := image.NewGray(image.Rectangle{image.Point{0, 0}, image.Point{width, height}})
	scale := 1.0 / (max - min)
	gammaInv := float64(1.0 / gamma)
	for y := 0; y < height; y++ {
		yoffset := y * width
		for x := 0; x < width; x++ {
			gray, _ := f.normalizedPixel(f.Data[yoffset+x], min, scale, gammaInv)
			img.SetGray(x, y, color.Gray{uint8(gray * 255)})
		}
	}
	return img
}

// Write a grayscale FITS image to JPG, using the given min, max and gamma.
func (f *Image) WriteMonoJPGToFile(fileName string, min, max, gamma float32, quality int) error {
	file, err := os.Create(fileName)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	defer writer.Flush()

	return f.WriteMonoJPG(writer, min, max, gamma, quality)
}

// Write a grayscale FITS image to JPG, using the given min, max and gamma.
func (f *Image) WriteMonoJPG(writer io.Writer, min, max, gamma float32, quality int) error {
	return jpeg.Encode(writer, f.ToGray(min, max, gamma), &jpeg.Options{Quality: quality})
}

// Colors at the low and high end of the false color ramp
var (
	falseColorLow  = colorful.Color{R: 0.05, G: 0.05, B: 0.35}
	falseColorHigh = colorful.Color{R: 1.0, G: 0.95, B: 0.6}
)

// Converts the image into a false color Golang image, blending in HCL space
// between a dark blue and a pale yellow. No-data pixels are black
func (f *Image) ToFalseColor(min, max, gamma float32) *image.RGBA {
	width, height := f.Samples(), f.Lines()
	img := image.NewRGBA(image.Rectangle{image.Point{0, 0}, image.Point{width, height}})
	scale := 1.0 / (max - min)
	gammaInv := float64(1.0 / gamma)
	for y := 0; y < height; y++ {
		yoffset := y * width
		for x := 0; x < width; x++ {
			gray, ok := f.normalizedPixel(f.Data[yoffset+x], min, scale, gammaInv)
			if !ok {
				img.SetRGBA(x, y, color.RGBA{0, 0, 0, 255})
				continue
			}
			r, g, b := falseColorLow.BlendHcl(falseColorHigh, float64(gray)).Clamped().RGB255()
			img.SetRGBA(x, y, color.RGBA{r, g, b, 255})
		}
	}
	return img
}

// Write a false color rendering of a grayscale FITS image to JPG, using the given min, max and gamma.
func (f *Image) WriteFalseColorJPGToFile(fileName string, min, max, gamma float32, quality int) error {
	file, err := os.Create(fileName)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	defer writer.Flush()

	return jpeg.Encode(writer, f.ToFalseColor(min, max, gamma), &jpeg.Options{Quality: quality})
}
