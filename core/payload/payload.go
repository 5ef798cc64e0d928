// Package payload implements core.ImagePayload for the two ways an engine
// hands over images: already-encoded file bytes, and decoded rasters.
package payload

import (
	"bytes"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp" // decoder registration
)

const defaultJPEGQuality = 95

// formatForPath maps a file extension to an image.Decode format name.
func formatForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "png"
	case ".jpg", ".jpeg":
		return "jpeg"
	case ".gif":
		return "gif"
	case ".bmp":
		return "bmp"
	case ".tif", ".tiff":
		return "tiff"
	case ".webp":
		return "webp"
	default:
		return ""
	}
}

// Bytes is an encoded image file as delivered by the engine.
type Bytes []byte

// Encode returns the bytes unchanged when their format already matches the
// extension of path (or the extension is not an image type). Otherwise the
// image is decoded and re-encoded for path. Bytes that cannot be decoded,
// or cannot be re-encoded into the target format, are returned as-is.
func (b Bytes) Encode(path string) ([]byte, error) {
	want := formatForPath(path)
	if want == "" || want == "webp" {
		return b, nil
	}
	_, have, err := image.DecodeConfig(bytes.NewReader(b))
	if err != nil || have == want {
		return b, nil
	}
	r, err := Decode(b)
	if err != nil {
		return b, nil
	}
	return r.Encode(path)
}

// Raster is a decoded image that is encoded on demand.
type Raster struct {
	Image   image.Image
	Quality int // JPEG quality; 0 means 95
}

// Encode serializes the raster using the format implied by path's extension.
// Unknown extensions and .webp, which has no encoder, produce PNG.
func (r Raster) Encode(path string) ([]byte, error) {
	if r.Image == nil {
		return nil, fmt.Errorf("encoding %s: no image data", path)
	}

	var buf bytes.Buffer
	var err error
	switch formatForPath(path) {
	case "jpeg":
		q := r.Quality
		if q <= 0 {
			q = defaultJPEGQuality
		}
		err = jpeg.Encode(&buf, r.Image, &jpeg.Options{Quality: q})
	case "gif":
		err = gif.Encode(&buf, r.Image, nil)
	case "bmp":
		err = bmp.Encode(&buf, r.Image)
	case "tiff":
		err = tiff.Encode(&buf, r.Image, &tiff.Options{Compression: tiff.Deflate})
	default:
		err = png.Encode(&buf, r.Image)
	}
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", path, err)
	}
	return buf.Bytes(), nil
}

// Decode parses encoded image bytes into a Raster.
func Decode(data []byte) (Raster, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Raster{}, fmt.Errorf("decoding image: %w", err)
	}
	return Raster{Image: img}, nil
}
