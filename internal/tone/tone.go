// Package tone applies a set of adjustment sliders to an RGBA buffer.
//
// The transform works per pixel on a luma value that stands in for HSL
// lightness. Luma is pushed through exposure, contrast, highlight/shadow,
// black point and noise curves in that fixed order, then recombined with
// the pixel's original hue and an adjusted saturation, and finally shifted
// by the warmth and tint offsets. Later steps read the output of earlier
// ones, so the order is part of the result.
//
// Always transform a fresh copy of the untouched source. Applying twice
// compounds the adjustments.
package tone

import (
	"math"

	"github.com/ironsheep/filterlab/internal/colormath"
	"github.com/ironsheep/filterlab/internal/params"
	"github.com/ironsheep/filterlab/internal/pixels"
)

// Curve constants.
const (
	midGray = 128.0

	highlightThreshold = 180.0
	shadowThreshold    = 75.0
	blackThreshold     = 60.0

	highlightWeight = 0.6
	shadowWeight    = 0.8
	deepenWeight    = 0.7
	liftWeight      = 0.4
	noiseWeight     = 0.4

	// Saturation may overshoot 1 slightly for punchier results.
	maxSaturation = 1.4
)

// factors are the per-call scales derived once from the sliders.
type factors struct {
	exposure   float64
	contrast   float64
	highlights float64
	shadows    float64
	blackPoint float64
	saturation float64
	vibrance   float64
	noise      float64
	warmth     float64
	tint       float64
}

func newFactors(p params.Params) factors {
	p = p.Clamped()
	return factors{
		exposure:   (float64(p.Exposure) + float64(p.Brilliance)*0.3 + float64(p.Brightness)*0.4) / 100,
		contrast:   (float64(p.Contrast) + float64(p.Clarity)*0.5 + float64(p.Definition)*0.3) / 100,
		highlights: float64(p.Highlights) / 100,
		shadows:    float64(p.Shadows) / 100,
		blackPoint: float64(p.BlackPoint) / 100,
		saturation: float64(p.Saturation) / 100,
		vibrance:   float64(p.Vibrance) / 100,
		noise:      math.Max(0, float64(p.NoiseReduction)) / 100,
		warmth:     float64(p.Warmth) * 0.6,
		tint:       float64(p.Tint) * 0.6,
	}
}

// Apply transforms a width x height RGBA buffer in place. Alpha is left as
// is. Neutral parameters leave the buffer untouched.
func Apply(pix []uint8, width, height int, p params.Params) error {
	return ApplyTo(pix, pix, width, height, p)
}

// ApplyTo writes the transform of src into dst, which must have the same
// shape. dst and src may be the same slice; src is not modified otherwise.
func ApplyTo(dst, src []uint8, width, height int, p params.Params) error {
	if err := pixels.Validate(src, width, height); err != nil {
		return err
	}
	if err := pixels.Validate(dst, width, height); err != nil {
		return err
	}

	if p.IsNeutral() {
		copy(dst, src)
		return nil
	}

	f := newFactors(p)
	pixels.Rows(height, func(start, end int) {
		from, to := pixels.Span(width, start, end)
		for i := from; i < to; i += pixels.Channels {
			dst[i], dst[i+1], dst[i+2] = f.pixel(src[i], src[i+1], src[i+2])
			dst[i+3] = src[i+3]
		}
	})
	return nil
}

// pixel runs the full adjustment chain on one color.
func (f *factors) pixel(r8, g8, b8 uint8) (uint8, uint8, uint8) {
	l := colormath.Luma(float64(r8), float64(g8), float64(b8))
	l = f.curve(l)

	// Hue and saturation come from the unadjusted color.
	hsl := colormath.RGBToHSL(r8, g8, b8)
	s := hsl.S*(1+f.saturation) + f.vibrance*(1-hsl.S)
	s = colormath.Clamp(s, 0, maxSaturation)

	// Noise reduction pulls luma toward mid-gray before the chroma term is
	// built, so both chroma and offset see the smoothed value.
	if f.noise > 0 {
		ln := l / 255
		ln = 0.5 + (ln-0.5)*(1-noiseWeight*f.noise)
		l = ln * 255
	}

	r, g, b := fromLumaHueSat(l, hsl.H, s)

	r += f.warmth
	b -= f.warmth

	r += f.tint * 0.4
	g += f.tint
	b -= f.tint * 0.4

	return colormath.ToByte(r), colormath.ToByte(g), colormath.ToByte(b)
}

// curve applies exposure, contrast, the highlight/shadow split and the
// black point to a luma value.
func (f *factors) curve(l float64) float64 {
	l *= 1 + f.exposure
	l = midGray + (l-midGray)*(1+f.contrast)

	// Highlights and shadows never both apply. The bounds are strict.
	if l > highlightThreshold {
		l *= 1 + highlightWeight*f.highlights
	} else if l < shadowThreshold {
		l *= 1 + shadowWeight*f.shadows
	}

	if l < blackThreshold {
		if f.blackPoint > 0 {
			l *= 1 - deepenWeight*f.blackPoint
		} else if f.blackPoint < 0 {
			l *= 1 - liftWeight*f.blackPoint
		}
	}
	return l
}

// fromLumaHueSat rebuilds RGB (0-255, unclamped) with l used as the HSL
// lightness on a 0-255 scale. h and s are in [0,1] (s may exceed 1).
func fromLumaHueSat(l, h, s float64) (float64, float64, float64) {
	ln := l / 255
	c := (1 - math.Abs(2*ln-1)) * s
	hh := h * 6
	x := c * (1 - math.Abs(math.Mod(hh, 2)-1))

	var r, g, b float64
	switch {
	case hh >= 0 && hh < 1:
		r, g = c, x
	case hh >= 1 && hh < 2:
		r, g = x, c
	case hh >= 2 && hh < 3:
		g, b = c, x
	case hh >= 3 && hh < 4:
		g, b = x, c
	case hh >= 4 && hh < 5:
		r, b = x, c
	case hh >= 5 && hh < 6:
		r, b = c, x
	}

	m := ln - c/2
	return (r + m) * 255, (g + m) * 255, (b + m) * 255
}
