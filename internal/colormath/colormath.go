// Package colormath holds the small numeric helpers shared by the
// statistics extractor and the tone transform.
package colormath

import (
	"cmp"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// BT.601 luma weights.
const (
	LumaR = 0.299
	LumaG = 0.587
	LumaB = 0.114
)

// HSL is a color in HSL space with every component normalised to [0,1].
//
// H is the hue as a fraction of a full turn (0 = red, 1/3 = green,
// 2/3 = blue). It is 0 for achromatic colors.
type HSL struct {
	H float64
	S float64
	L float64
}

// RGBToHSL converts 8-bit RGB components to HSL.
//
// L is the midpoint (max+min)/2 of the normalised channels, not luma.
func RGBToHSL(r, g, b uint8) HSL {
	c := colorful.Color{
		R: float64(r) / 255.0,
		G: float64(g) / 255.0,
		B: float64(b) / 255.0,
	}
	h, s, l := c.Hsl()
	return HSL{H: h / 360.0, S: s, L: l}
}

// Luma returns the BT.601 weighted brightness of an RGB triple.
func Luma(r, g, b float64) float64 {
	return LumaR*r + LumaG*g + LumaB*b
}

// Clamp bounds v to [lo, hi].
func Clamp[T cmp.Ordered](v, lo, hi T) T {
	return min(max(v, lo), hi)
}

// RoundHalfUp rounds to the nearest integer with ties going toward +Inf,
// so -2.5 rounds to -2 and 2.5 rounds to 3.
func RoundHalfUp(v float64) float64 {
	return math.Floor(v + 0.5)
}

// ToByte rounds and clamps a channel value into the 8-bit range.
func ToByte(v float64) uint8 {
	return uint8(Clamp(RoundHalfUp(v), 0, 255))
}
