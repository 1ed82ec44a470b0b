// Package pixels defines the flat RGBA buffer contract shared by the
// statistics extractor and the tone transform.
//
// A buffer holds width*height pixels, four 8-bit samples each (R, G, B, A),
// row-major with no padding and straight (non-premultiplied) alpha. This is
// the layout of image.NRGBA.Pix for an origin-anchored image whose stride is
// exactly 4*width.
package pixels

import (
	"errors"
	"fmt"

	"github.com/anthonynsimon/bild/parallel"
)

// Channels is the number of samples per pixel.
const Channels = 4

// ErrShape is matched by every ShapeError.
var ErrShape = errors.New("pixel buffer shape mismatch")

// ShapeError reports a buffer whose length disagrees with its dimensions.
type ShapeError struct {
	Width  int
	Height int
	Len    int
}

func (e *ShapeError) Error() string {
	if e.Width < 0 || e.Height < 0 {
		return fmt.Sprintf("invalid buffer dimensions %dx%d", e.Width, e.Height)
	}
	return fmt.Sprintf("pixel buffer has %d bytes, %dx%d RGBA needs %d",
		e.Len, e.Width, e.Height, e.Width*e.Height*Channels)
}

// Is lets errors.Is(err, ErrShape) match any ShapeError.
func (e *ShapeError) Is(target error) bool {
	return target == ErrShape
}

// Validate checks that pix is a width x height RGBA buffer.
func Validate(pix []uint8, width, height int) error {
	if width < 0 || height < 0 || len(pix) != width*height*Channels {
		return &ShapeError{Width: width, Height: height, Len: len(pix)}
	}
	return nil
}

// Rows splits [0, height) into contiguous row ranges and calls fn for each
// range, possibly concurrently. It returns once every call has finished.
// Ranges never overlap, so fn may write the rows it is given without locking.
func Rows(height int, fn func(start, end int)) {
	if height <= 0 {
		return
	}
	parallel.Line(height, fn)
}

// Span returns the byte offsets in a buffer of the given width that cover
// rows [start, end).
func Span(width, start, end int) (int, int) {
	stride := width * Channels
	return start * stride, end * stride
}
