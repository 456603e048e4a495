// Package parser provides Excel file parsing utilities.
package parser

import "math"

// Excel measures column widths in characters of the default font's maximum
// digit width, which is 7 pixels for Calibri 11 at 96 DPI.
const maxDigitWidth = 7

// DefaultColWidth is the worksheet default column width in characters.
const DefaultColWidth = 8.43

// ColWidthToPixels converts a column width in characters to pixels at 96 DPI.
func ColWidthToPixels(width float64) int {
	if width <= 0 {
		return 0
	}
	return int(math.Trunc(width*maxDigitWidth + 5))
}

// EMUPerPixel is the number of English Metric Units per pixel at 96 DPI
// (914400 EMU per inch).
const EMUPerPixel = 9525

// EMUToPixels converts a DrawingML length to pixels at 96 DPI.
func EMUToPixels(emu int64) int {
	return int(emu / EMUPerPixel)
}

// PointsToPixels converts a row height in points to pixels at 96 DPI.
func PointsToPixels(pt float64) int {
	return int(math.Round(pt * 96 / 72))
}
