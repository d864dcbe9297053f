package model

import (
	"fmt"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

var (
	// numericBase is the gradient color of number columns, its alpha follows the value ratio
	numericBase = colorful.Color{R: 1, G: 196.0 / 255, B: 196.0 / 255}

	categorySaturation = 0.8
	categoryLightness  = 0.9
)

// Color is an RGB color with an alpha channel in [0, 1]
type Color struct {
	colorful.Color
	Alpha float64
}

// CSS returns the color as a CSS rgba() value
func (c Color) CSS() string {
	r, g, b := c.RGB255()
	return fmt.Sprintf("rgba(%d, %d, %d, %.3g)", r, g, b, c.Alpha)
}

// Over composites the color on an opaque background
func (c Color) Over(background colorful.Color) colorful.Color {
	return background.BlendRgb(c.Color, c.Alpha).Clamped()
}

// MarshalJSON encodes the color as its CSS value
func (c Color) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%q", c.CSS())), nil
}

// NumericRatio places v within the range, clamped to [0, 1]. A range with
// Min == Max yields 0.
func NumericRatio(v float64, s NumericStats) float64 {
	span := s.Max - s.Min
	var ratio float64
	switch {
	case span == 0 || math.IsNaN(span):
		return 0
	case math.IsInf(span, 0):
		// the span overflows float64, halving keeps every operand finite
		ratio = (v/2 - s.Min/2) / (s.Max/2 - s.Min/2)
	default:
		ratio = (v - s.Min) / span
	}
	if math.IsNaN(ratio) {
		return 0
	}
	return math.Max(0, math.Min(1, ratio))
}

// NumericColor encodes a number value as the base color with alpha equal to its ratio
func NumericColor(raw string, s NumericStats) (Color, bool) {
	v, ok := ParseNumber(raw)
	if !ok {
		return Color{}, false
	}
	return Color{Color: numericBase, Alpha: NumericRatio(v, s)}, true
}

// CategoryHue returns the hue of a value partitioning the hue wheel evenly
// over the distinct values
func CategoryHue(raw string, values []string) (float64, bool) {
	for i, v := range values {
		if v == raw {
			return 360 / float64(len(values)) * float64(i), true
		}
	}
	return 0, false
}

// CategoryColor encodes a category value as a pastel hue
func CategoryColor(raw string, values []string) (Color, bool) {
	hue, ok := CategoryHue(raw, values)
	if !ok {
		return Color{}, false
	}
	return Color{Color: colorful.Hsl(hue, categorySaturation, categoryLightness), Alpha: 1}, true
}
