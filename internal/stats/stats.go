// Package stats extracts the summary photometric statistics that the
// suggestion engine compares between two photos.
package stats

import (
	"errors"
	"image"
	"math"
	"sort"
	"sync"

	"github.com/ironsheep/filterlab/internal/colormath"
	"github.com/ironsheep/filterlab/internal/pixels"
)

// Luma thresholds for the highlight and shadow means.
const (
	HighlightThreshold = 200.0
	ShadowThreshold    = 55.0
)

// ErrNoContent is returned when an image has no visible (alpha > 0) pixels.
var ErrNoContent = errors.New("image has no visible pixels")

// Statistics summarises the visible pixels of one image. Fully transparent
// pixels never contribute to any field.
type Statistics struct {
	// MeanLuminance is the mean BT.601 luma (0-255).
	MeanLuminance float64 `json:"meanLuminance"`

	// Contrast is the population standard deviation of luma.
	Contrast float64 `json:"contrast"`

	// AvgSaturation is the mean HSL saturation (0-1).
	AvgSaturation float64 `json:"avgSaturation"`

	// HighlightMean is the mean luma of pixels brighter than 200, or
	// MeanLuminance when there are none.
	HighlightMean float64 `json:"highlightMean"`

	// ShadowMean is the mean luma of pixels darker than 55, or
	// MeanLuminance when there are none.
	ShadowMean float64 `json:"shadowMean"`

	// ColorTemperature is mean(R) - mean(B); positive is warm.
	ColorTemperature float64 `json:"colorTemperature"`

	// TintBias is mean(G) - (mean(R)+mean(B))/2; positive is green.
	TintBias float64 `json:"tintBias"`

	Width  int `json:"width"`
	Height int `json:"height"`

	// Pixels is the number of visible pixels that were measured.
	Pixels int `json:"pixels"`
}

type accumulator struct {
	count          int
	sumL, sumL2    float64
	sumSat         float64
	highlightSum   float64
	highlightCount int
	shadowSum      float64
	shadowCount    int
	sumR, sumG     float64
	sumB           float64
}

func (a *accumulator) add(r, g, b uint8) {
	rf, gf, bf := float64(r), float64(g), float64(b)
	l := colormath.Luma(rf, gf, bf)

	a.count++
	a.sumL += l
	a.sumL2 += l * l
	a.sumSat += colormath.RGBToHSL(r, g, b).S

	if l > HighlightThreshold {
		a.highlightSum += l
		a.highlightCount++
	} else if l < ShadowThreshold {
		a.shadowSum += l
		a.shadowCount++
	}

	a.sumR += rf
	a.sumG += gf
	a.sumB += bf
}

func (a *accumulator) merge(o *accumulator) {
	a.count += o.count
	a.sumL += o.sumL
	a.sumL2 += o.sumL2
	a.sumSat += o.sumSat
	a.highlightSum += o.highlightSum
	a.highlightCount += o.highlightCount
	a.shadowSum += o.shadowSum
	a.shadowCount += o.shadowCount
	a.sumR += o.sumR
	a.sumG += o.sumG
	a.sumB += o.sumB
}

// Extract measures a width x height RGBA buffer.
//
// It returns ErrNoContent when every pixel is fully transparent and an error
// matching pixels.ErrShape when the buffer length does not fit the
// dimensions. The buffer is only read.
func Extract(pix []uint8, width, height int) (Statistics, error) {
	if err := pixels.Validate(pix, width, height); err != nil {
		return Statistics{}, err
	}

	// Partial sums are keyed by their first row and merged in row order so
	// the floating point result does not depend on goroutine scheduling.
	var mu sync.Mutex
	parts := make(map[int]*accumulator)

	pixels.Rows(height, func(start, end int) {
		acc := &accumulator{}
		from, to := pixels.Span(width, start, end)
		for i := from; i < to; i += pixels.Channels {
			if pix[i+3] == 0 {
				continue
			}
			acc.add(pix[i], pix[i+1], pix[i+2])
		}
		mu.Lock()
		parts[start] = acc
		mu.Unlock()
	})

	starts := make([]int, 0, len(parts))
	for s := range parts {
		starts = append(starts, s)
	}
	sort.Ints(starts)

	var total accumulator
	for _, s := range starts {
		total.merge(parts[s])
	}

	if total.count == 0 {
		return Statistics{}, ErrNoContent
	}
	return total.finish(width, height), nil
}

func (a *accumulator) finish(width, height int) Statistics {
	n := float64(a.count)
	meanL := a.sumL / n
	variance := a.sumL2/n - meanL*meanL

	highlightMean := meanL
	if a.highlightCount > 0 {
		highlightMean = a.highlightSum / float64(a.highlightCount)
	}
	shadowMean := meanL
	if a.shadowCount > 0 {
		shadowMean = a.shadowSum / float64(a.shadowCount)
	}

	avgR := a.sumR / n
	avgG := a.sumG / n
	avgB := a.sumB / n

	return Statistics{
		MeanLuminance:    meanL,
		Contrast:         math.Sqrt(math.Max(variance, 0)),
		AvgSaturation:    a.sumSat / n,
		HighlightMean:    highlightMean,
		ShadowMean:       shadowMean,
		ColorTemperature: avgR - avgB,
		TintBias:         avgG - (avgR+avgB)/2,
		Width:            width,
		Height:           height,
		Pixels:           a.count,
	}
}

// FromImage measures an NRGBA image. Images with padded rows or a non-zero
// origin are repacked first.
func FromImage(img *image.NRGBA) (Statistics, error) {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	if img.Stride == w*pixels.Channels && len(img.Pix) == w*h*pixels.Channels {
		return Extract(img.Pix, w, h)
	}

	packed := make([]uint8, 0, w*h*pixels.Channels)
	for y := img.Rect.Min.Y; y < img.Rect.Max.Y; y++ {
		off := img.PixOffset(img.Rect.Min.X, y)
		packed = append(packed, img.Pix[off:off+w*pixels.Channels]...)
	}
	return Extract(packed, w, h)
}
