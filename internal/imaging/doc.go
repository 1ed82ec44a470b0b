// Package imaging loads, resizes and encodes the photos that feed the
// statistics and tone packages.
//
// Everything here sits outside the numeric core: the core only ever sees
// tightly packed NRGBA buffers. This package produces those buffers from
// files and turns transformed buffers back into encoded images.
//
// # Formats
//
// PNG, JPEG and GIF decoders come from the standard library; BMP, TIFF and
// WebP from golang.org/x/image. JPEG orientation tags are honoured. HEIC and
// HEIF files are rejected with ErrUnsupportedFormat before any decoding, and
// data no registered decoder understands fails the same way. Nothing is
// converted behind the caller's back.
//
// # Working Size
//
// Analysis runs on a copy whose longer side is at most the working size
// (3840 by default). The full resolution image is kept separately so the
// export applies the transform at full fidelity.
//
// # Thread Safety
//
// ImageCache is safe for concurrent use. Cached *image.NRGBA values are
// shared and must be treated as read-only; clone before mutating.
package imaging
