// Package diffmap turns the statistical difference between a reference
// photo and the user's photo into suggested slider values.
//
// The mapping is a hand-tuned approximation. Each slider is a linear
// function of one or two differences (reference minus mine), normalised by
// a fixed divisor, weighted, scaled by a single strength multiplier, rounded
// and clamped to the slider range.
package diffmap

import (
	"github.com/ironsheep/filterlab/internal/colormath"
	"github.com/ironsheep/filterlab/internal/params"
	"github.com/ironsheep/filterlab/internal/stats"
)

// DefaultStrength leaves the calibrated weights unchanged. Raise it (e.g.
// 1.2) when suggestions feel too weak, lower it (e.g. 0.8) when too strong.
const DefaultStrength = 1.0

// Normalisation divisors. All are non-zero constants.
const (
	lumaStop       = 25.0
	contrastStop   = 20.0
	saturationGain = 2.2
	toneStop       = 35.0
	brightnessStop = 30.0
	blackPointStop = -40.0
	warmthStop     = 40.0
	tintStop       = 30.0
)

// Difference holds the seven signed deltas, reference minus mine.
type Difference struct {
	Luminance   float64 `json:"luminance"`
	Contrast    float64 `json:"contrast"`
	Saturation  float64 `json:"saturation"`
	Highlight   float64 `json:"highlight"`
	Shadow      float64 `json:"shadow"`
	Temperature float64 `json:"temperature"`
	Tint        float64 `json:"tint"`
}

// Diff computes reference minus mine for every compared statistic.
func Diff(ref, mine stats.Statistics) Difference {
	return Difference{
		Luminance:   ref.MeanLuminance - mine.MeanLuminance,
		Contrast:    ref.Contrast - mine.Contrast,
		Saturation:  ref.AvgSaturation - mine.AvgSaturation,
		Highlight:   ref.HighlightMean - mine.HighlightMean,
		Shadow:      ref.ShadowMean - mine.ShadowMean,
		Temperature: ref.ColorTemperature - mine.ColorTemperature,
		Tint:        ref.TintBias - mine.TintBias,
	}
}

// Mapper produces suggestions with a fixed strength multiplier.
type Mapper struct {
	Strength float64
}

// New returns a Mapper. A non-positive strength falls back to
// DefaultStrength.
func New(strength float64) Mapper {
	if strength <= 0 {
		strength = DefaultStrength
	}
	return Mapper{Strength: strength}
}

// Map suggests sliders that move mine toward ref using DefaultStrength.
func Map(ref, mine stats.Statistics) params.Params {
	return New(DefaultStrength).Map(ref, mine)
}

// Map suggests sliders that move mine toward ref.
func (m Mapper) Map(ref, mine stats.Statistics) params.Params {
	return m.FromDifference(Diff(ref, mine))
}

// FromDifference maps precomputed deltas to slider values.
func (m Mapper) FromDifference(d Difference) params.Params {
	exposureStops := d.Luminance / lumaStop
	contrastNorm := d.Contrast / contrastStop
	satNorm := d.Saturation * saturationGain

	return params.Params{
		Exposure:   m.slider(exposureStops * 24),
		Brilliance: m.slider(exposureStops*10 + contrastNorm*8),
		Highlights: m.slider(d.Highlight / toneStop * -40),
		Shadows:    m.slider(d.Shadow / toneStop * -40),
		Contrast:   m.slider(contrastNorm * 25),
		Brightness: m.slider(d.Luminance / brightnessStop * 15),
		BlackPoint: m.slider(d.Shadow / blackPointStop * 40),
		Saturation: m.slider(satNorm * 40),
		Vibrance:   m.slider(satNorm * 25),
		Warmth:     m.slider(d.Temperature / warmthStop * 40),
		Tint:       m.slider(d.Tint / tintStop * 40),
		Clarity:    m.slider(contrastNorm * 15),
		Definition: m.slider(contrastNorm * 15),

		// Noise cannot be inferred from global statistics.
		NoiseReduction: 0,
	}
}

func (m Mapper) slider(v float64) int {
	scaled := colormath.RoundHalfUp(v * m.Strength)
	return int(colormath.Clamp(scaled, params.Min, params.Max))
}
