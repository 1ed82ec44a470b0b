package imaging

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
)

// DefaultExportQuality is the JPEG quality used for exports.
const DefaultExportQuality = 95

// EncodedImage is an encoded image ready to be returned over a transport.
type EncodedImage struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
	SizeBytes   int    `json:"size_bytes"`
}

// ParseFormat maps "jpeg", "jpg" or "png" (any case) to an output format and
// its MIME type.
func ParseFormat(name string) (imaging.Format, string, error) {
	switch strings.ToLower(name) {
	case "", "jpeg", "jpg":
		return imaging.JPEG, "image/jpeg", nil
	case "png":
		return imaging.PNG, "image/png", nil
	default:
		return 0, "", fmt.Errorf("unknown output format %q (want jpeg or png)", name)
	}
}

// Encode writes img to w. quality only applies to JPEG and is clamped to
// 1..100; zero selects DefaultExportQuality.
func Encode(w io.Writer, img image.Image, format string, quality int) (string, error) {
	f, mime, err := ParseFormat(format)
	if err != nil {
		return "", err
	}
	if err := imaging.Encode(w, img, f, imaging.JPEGQuality(normalizeQuality(quality))); err != nil {
		return "", fmt.Errorf("failed to encode image: %w", err)
	}
	return mime, nil
}

// EncodeBase64 encodes img and wraps it for JSON transports.
func EncodeBase64(img image.Image, format string, quality int) (*EncodedImage, error) {
	var buf bytes.Buffer
	mime, err := Encode(&buf, img, format, quality)
	if err != nil {
		return nil, err
	}

	return &EncodedImage{
		Width:       img.Bounds().Dx(),
		Height:      img.Bounds().Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    mime,
		SizeBytes:   buf.Len(),
	}, nil
}

// ErrFormatMismatch is returned when a requested output format disagrees
// with the extension of the file being written.
var ErrFormatMismatch = errors.New("output format does not match file extension")

// SaveFormat resolves the encoder Save will use for path. The extension
// decides; a non-empty format must name the same encoder.
func SaveFormat(path, format string) (imaging.Format, error) {
	ext, err := imaging.FormatFromFilename(path)
	if err != nil {
		return 0, fmt.Errorf("%w: cannot save %s", ErrUnsupportedFormat, filepath.Base(path))
	}
	if format == "" {
		return ext, nil
	}

	want, _, err := ParseFormat(format)
	if err != nil {
		return 0, err
	}
	if want != ext {
		return 0, fmt.Errorf("%w: %s is %s, requested %s", ErrFormatMismatch, filepath.Base(path), ext, want)
	}
	return ext, nil
}

// Save writes img to path in the format implied by its extension. format may
// be empty; otherwise it must agree with the extension.
func Save(img image.Image, path, format string, quality int) error {
	f, err := SaveFormat(path, format)
	if err != nil {
		return err
	}

	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := imaging.Encode(out, img, f, imaging.JPEGQuality(normalizeQuality(quality))); err != nil {
		out.Close()
		return fmt.Errorf("failed to encode image: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to save image: %w", err)
	}
	return nil
}

func normalizeQuality(q int) int {
	if q == 0 {
		return DefaultExportQuality
	}
	return min(max(q, 1), 100)
}
