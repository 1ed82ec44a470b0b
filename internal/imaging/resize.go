package imaging

import (
	"image"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/filterlab/internal/colormath"
)

// DefaultMaxWorkingSize bounds the longer side of the analysis copy.
const DefaultMaxWorkingSize = 3840

// FitSize returns the dimensions of a width x height image scaled down,
// preserving aspect ratio, so neither side exceeds maxSize. Images that
// already fit are returned unchanged; images are never enlarged.
func FitSize(width, height, maxSize int) (int, int) {
	if width <= 0 || height <= 0 || maxSize <= 0 {
		return width, height
	}

	ratio := min(float64(maxSize)/float64(width), float64(maxSize)/float64(height), 1)
	w := int(colormath.RoundHalfUp(float64(width) * ratio))
	h := int(colormath.RoundHalfUp(float64(height) * ratio))
	return max(w, 1), max(h, 1)
}

// FitWorking returns the analysis copy of img. When img already fits it is
// returned as is, so callers must not mutate the result.
func FitWorking(img *image.NRGBA, maxSize int) *image.NRGBA {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	nw, nh := FitSize(w, h, maxSize)
	if nw == w && nh == h {
		return img
	}
	return imaging.Resize(img, nw, nh, imaging.Lanczos)
}
