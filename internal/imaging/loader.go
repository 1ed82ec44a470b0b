package imaging

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"
	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/tiff" // Register TIFF format decoder
	_ "golang.org/x/image/webp" // Register WebP format decoder
)

// ErrUnsupportedFormat is returned for files that cannot be decoded.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// formats maps lower-case file extensions to format names.
var formats = map[string]string{
	".png":  "png",
	".jpg":  "jpeg",
	".jpeg": "jpeg",
	".gif":  "gif",
	".bmp":  "bmp",
	".tif":  "tiff",
	".tiff": "tiff",
	".webp": "webp",
}

// rejected lists extensions refused up front with a specific hint.
var rejected = map[string]string{
	".heic": "HEIC photos are not supported; convert to JPEG first",
	".heif": "HEIF photos are not supported; convert to JPEG first",
}

// Photo is a decoded image and its metadata.
//
// Image is always origin-anchored with Stride == 4*width, so Image.Pix can be
// handed straight to the statistics and tone packages.
type Photo struct {
	Image *image.NRGBA
	Info  ImageInfo
}

// ImageInfo contains metadata about a loaded photo.
type ImageInfo struct {
	// Width is the image width in pixels, after orientation.
	Width int `json:"width"`

	// Height is the image height in pixels, after orientation.
	Height int `json:"height"`

	// Format is the format named by the file extension, or "unknown".
	Format string `json:"format"`

	// HasAlpha is true when at least one pixel is not fully opaque.
	HasAlpha bool `json:"has_alpha"`

	// FileSizeBytes is the size of the source in bytes.
	FileSizeBytes int64 `json:"file_size_bytes"`

	// Camera holds EXIF capture settings when the file carries them.
	Camera *CameraInfo `json:"camera,omitempty"`
}

// CameraInfo is the subset of EXIF data useful when comparing two photos.
type CameraInfo struct {
	Make         string     `json:"make,omitempty"`
	Model        string     `json:"model,omitempty"`
	ISO          int        `json:"iso,omitempty"`
	FNumber      float64    `json:"f_number,omitempty"`
	ExposureTime string     `json:"exposure_time,omitempty"`
	Taken        *time.Time `json:"taken,omitempty"`
}

// ImageCache provides thread-safe caching of decoded photos keyed by path.
//
// Different spellings of the same path are cached separately. Use Evict,
// Retain or Clear to release memory in long-running processes.
type ImageCache struct {
	mu     sync.RWMutex
	photos map[string]*Photo
}

// NewImageCache creates an empty cache.
func NewImageCache() *ImageCache {
	return &ImageCache{
		photos: make(map[string]*Photo),
	}
}

// Load returns the cached photo for path, decoding it on first use.
//
// # Errors
//
//   - the file cannot be opened or read
//   - ErrUnsupportedFormat for HEIC/HEIF files or data with no decoder
func (c *ImageCache) Load(path string) (*Photo, error) {
	c.mu.RLock()
	if p, ok := c.photos[path]; ok {
		c.mu.RUnlock()
		return p, nil
	}
	c.mu.RUnlock()

	p, err := LoadFile(path)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.photos[path] = p
	c.mu.Unlock()

	return p, nil
}

// Evict removes one path from the cache.
func (c *ImageCache) Evict(path string) {
	c.mu.Lock()
	delete(c.photos, path)
	c.mu.Unlock()
}

// Retain evicts every cached photo whose path is not listed. Empty paths
// are ignored.
func (c *ImageCache) Retain(keep ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for path := range c.photos {
		held := false
		for _, k := range keep {
			if k != "" && k == path {
				held = true
				break
			}
		}
		if !held {
			delete(c.photos, path)
		}
	}
}

// Clear removes every cached photo.
func (c *ImageCache) Clear() {
	c.mu.Lock()
	c.photos = make(map[string]*Photo)
	c.mu.Unlock()
}

// Len reports how many photos are cached.
func (c *ImageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.photos)
}

// LoadFile decodes a photo from disk without caching it.
func LoadFile(path string) (*Photo, error) {
	if err := checkExtension(path); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	p, err := Decode(f, path)
	if err != nil {
		return nil, err
	}
	p.Info.FileSizeBytes = stat.Size()

	if _, err := f.Seek(0, io.SeekStart); err == nil {
		p.Info.Camera = ReadCamera(f)
	}
	return p, nil
}

// Decode reads a photo from r. name is only used to pick the format label
// and to reject HEIC/HEIF uploads; it may be empty.
func Decode(r io.Reader, name string) (*Photo, error) {
	if err := checkExtension(name); err != nil {
		return nil, err
	}

	src, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, displayName(name))
		}
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	img := ToNRGBA(src)
	format := "unknown"
	if f, ok := formats[strings.ToLower(filepath.Ext(name))]; ok {
		format = f
	}

	return &Photo{
		Image: img,
		Info: ImageInfo{
			Width:    img.Rect.Dx(),
			Height:   img.Rect.Dy(),
			Format:   format,
			HasAlpha: !img.Opaque(),
		},
	}, nil
}

// ToNRGBA returns a tightly packed, origin-anchored copy of img.
func ToNRGBA(img image.Image) *image.NRGBA {
	return imaging.Clone(img)
}

func checkExtension(name string) error {
	if hint, ok := rejected[strings.ToLower(filepath.Ext(name))]; ok {
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, hint)
	}
	return nil
}

func displayName(name string) string {
	if name == "" {
		return "unrecognised data"
	}
	return filepath.Base(name)
}

// ReadCamera extracts capture settings from an encoded image. Data without
// EXIF yields nil.
func ReadCamera(r io.Reader) *CameraInfo {
	x, err := exif.Decode(r)
	if err != nil {
		return nil
	}

	var ci CameraInfo
	if tag, err := x.Get(exif.Make); err == nil {
		ci.Make, _ = tag.StringVal()
	}
	if tag, err := x.Get(exif.Model); err == nil {
		ci.Model, _ = tag.StringVal()
	}
	if tag, err := x.Get(exif.ISOSpeedRatings); err == nil {
		ci.ISO, _ = tag.Int(0)
	}
	if tag, err := x.Get(exif.FNumber); err == nil {
		if num, den, err := tag.Rat2(0); err == nil && den != 0 {
			ci.FNumber = float64(num) / float64(den)
		}
	}
	if tag, err := x.Get(exif.ExposureTime); err == nil {
		if num, den, err := tag.Rat2(0); err == nil && den != 0 {
			ci.ExposureTime = fmt.Sprintf("%d/%d", num, den)
		}
	}
	if t, err := x.DateTime(); err == nil {
		ci.Taken = &t
	}

	if ci == (CameraInfo{}) {
		return nil
	}
	return &ci
}
