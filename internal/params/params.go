// Package params defines the fourteen adjustment sliders that drive the
// tone transform and the suggestion report.
package params

import (
	"fmt"

	"github.com/ironsheep/filterlab/internal/colormath"
)

// Slider bounds. Every slider is clamped independently.
const (
	Min = -100
	Max = 100
)

// Slider identifies one adjustment. The iota order is the canonical order
// used by the report and by every listing of the sliders.
type Slider int

const (
	Exposure Slider = iota
	Brilliance
	Highlights
	Shadows
	Contrast
	Brightness
	BlackPoint
	Saturation
	Vibrance
	Warmth
	Tint
	Clarity
	Definition
	NoiseReduction

	numSliders
)

var sliderInfo = [numSliders]struct {
	key     string
	name    string
	caption string
}{
	Exposure:       {"exposure", "Exposure", "Brightens or darkens the whole photo; the strongest single control."},
	Brilliance:     {"brilliance", "Brilliance", "Adds depth and detail while lifting brightness and contrast together."},
	Highlights:     {"highlights", "Highlights", "Negative values recover bright detail such as skies and glare."},
	Shadows:        {"shadows", "Shadows", "Positive values open up dark areas, negative values deepen them."},
	Contrast:       {"contrast", "Contrast", "Raising it separates lights from darks, lowering it softens the photo."},
	Brightness:     {"brightness", "Brightness", "Fine-tunes the overall balance after exposure has been set."},
	BlackPoint:     {"blackPoint", "Black Point", "Raising it makes blacks deeper; too much crushes shadow detail."},
	Saturation:     {"saturation", "Saturation", "Strengthens or mutes every color evenly."},
	Vibrance:       {"vibrance", "Vibrance", "Boosts muted colors first and is gentler on skin tones."},
	Warmth:         {"warmth", "Warmth", "Positive values lean yellow-orange, negative values lean blue."},
	Tint:           {"tint", "Tint", "Positive values lean magenta, negative values lean green."},
	Clarity:        {"clarity", "Clarity", "Adds midtone texture; too much makes portraits look harsh."},
	Definition:     {"definition", "Definition", "Sharpens edges; keep it moderate to avoid halos."},
	NoiseReduction: {"noiseReduction", "Noise Reduction", "Smooths high-ISO and shadow noise; too much looks soft."},
}

// All returns every slider in canonical order.
func All() []Slider {
	out := make([]Slider, numSliders)
	for i := range out {
		out[i] = Slider(i)
	}
	return out
}

// Key is the camelCase identifier used in JSON.
func (s Slider) Key() string {
	if !s.valid() {
		return fmt.Sprintf("slider(%d)", int(s))
	}
	return sliderInfo[s].key
}

// String returns the display name.
func (s Slider) String() string {
	if !s.valid() {
		return fmt.Sprintf("Slider(%d)", int(s))
	}
	return sliderInfo[s].name
}

// Caption returns the fixed one-line explanation of what the slider does.
func (s Slider) Caption() string {
	if !s.valid() {
		return ""
	}
	return sliderInfo[s].caption
}

func (s Slider) valid() bool {
	return s >= 0 && s < numSliders
}

// Lookup finds a slider by its JSON key.
func Lookup(key string) (Slider, bool) {
	for i, info := range sliderInfo {
		if info.key == key {
			return Slider(i), true
		}
	}
	return 0, false
}

// Params is one complete set of slider values. It is a plain value: the
// suggestion engine and manual edits produce the same type.
type Params struct {
	Exposure       int `json:"exposure" yaml:"exposure"`
	Brilliance     int `json:"brilliance" yaml:"brilliance"`
	Highlights     int `json:"highlights" yaml:"highlights"`
	Shadows        int `json:"shadows" yaml:"shadows"`
	Contrast       int `json:"contrast" yaml:"contrast"`
	Brightness     int `json:"brightness" yaml:"brightness"`
	BlackPoint     int `json:"blackPoint" yaml:"blackPoint"`
	Saturation     int `json:"saturation" yaml:"saturation"`
	Vibrance       int `json:"vibrance" yaml:"vibrance"`
	Warmth         int `json:"warmth" yaml:"warmth"`
	Tint           int `json:"tint" yaml:"tint"`
	Clarity        int `json:"clarity" yaml:"clarity"`
	Definition     int `json:"definition" yaml:"definition"`
	NoiseReduction int `json:"noiseReduction" yaml:"noiseReduction"`
}

func (p *Params) field(s Slider) *int {
	switch s {
	case Exposure:
		return &p.Exposure
	case Brilliance:
		return &p.Brilliance
	case Highlights:
		return &p.Highlights
	case Shadows:
		return &p.Shadows
	case Contrast:
		return &p.Contrast
	case Brightness:
		return &p.Brightness
	case BlackPoint:
		return &p.BlackPoint
	case Saturation:
		return &p.Saturation
	case Vibrance:
		return &p.Vibrance
	case Warmth:
		return &p.Warmth
	case Tint:
		return &p.Tint
	case Clarity:
		return &p.Clarity
	case Definition:
		return &p.Definition
	case NoiseReduction:
		return &p.NoiseReduction
	}
	return nil
}

// Get returns the value of one slider. Unknown sliders read as 0.
func (p Params) Get(s Slider) int {
	if f := p.field(s); f != nil {
		return *f
	}
	return 0
}

// Set stores a clamped value for one slider. Unknown sliders are ignored.
func (p *Params) Set(s Slider, v int) {
	if f := p.field(s); f != nil {
		*f = colormath.Clamp(v, Min, Max)
	}
}

// Clamped returns a copy with every slider bounded to [Min, Max].
func (p Params) Clamped() Params {
	out := p
	for _, s := range All() {
		out.Set(s, p.Get(s))
	}
	return out
}

// IsNeutral reports whether every slider is zero.
func (p Params) IsNeutral() bool {
	return p == Params{}
}

// Values returns the slider values in canonical order.
func (p Params) Values() []int {
	out := make([]int, numSliders)
	for i := range out {
		out[i] = p.Get(Slider(i))
	}
	return out
}
