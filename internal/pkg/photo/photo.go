// Package photo normalizes member profile photos before they are stored:
// decode, auto-orient, downscale, and re-encode as JPEG under a size budget.
package photo

import (
	"bytes"
	"fmt"
	"image"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gofiber/fiber/v2/log"
	"github.com/kolesa-team/go-webp/decoder"
	"github.com/kolesa-team/go-webp/webp"
	"github.com/rwcarlsen/goexif/exif"
)

const (
	// MaxDimension caps the long edge of a stored photo. Images are never
	// upscaled to reach it.
	MaxDimension = 1024

	// TargetMaxBytes is the size budget for the encoded photo (~800KB).
	TargetMaxBytes = 800 * 1024

	// MaxRawBytes caps the raw upload before any processing (20MB).
	MaxRawBytes = 20 * 1024 * 1024
)

// jpegQualities are tried in order until the encoded photo fits the budget.
// If none fit, the lowest tier wins anyway.
var jpegQualities = []int{85, 75, 65, 55, 45}

// Result is a normalized photo ready for upload.
type Result struct {
	Data        []byte
	ContentType string
	Ext         string
	Width       int
	Height      int
	// Passthrough is set when the input could not be decoded and the
	// original bytes were kept unchanged.
	Passthrough bool
}

// Normalize prepares an uploaded photo for storage. Whatever the input
// format, the output is JPEG, at most MaxDimension on the long edge and
// re-encoded at decreasing quality until it fits TargetMaxBytes. An input
// that cannot be decoded passes through unmodified rather than failing the
// whole member creation.
func Normalize(data []byte, filename string) Result {
	img, err := decode(data, filename)
	if err != nil {
		log.Warn(fmt.Sprintf("[Photo] Could not decode %s, storing original bytes: %v", filename, err))
		return Result{
			Data:        data,
			ContentType: "application/octet-stream",
			Ext:         strings.ToLower(filepath.Ext(filename)),
			Passthrough: true,
		}
	}

	img = orient(img, data)

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w > MaxDimension || h > MaxDimension {
		// Fit preserves aspect ratio and never upscales.
		img = imaging.Fit(img, MaxDimension, MaxDimension, imaging.Lanczos)
		bounds = img.Bounds()
		w, h = bounds.Dx(), bounds.Dy()
	}

	var out []byte
	for _, q := range jpegQualities {
		var buf bytes.Buffer
		if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(q)); err != nil {
			log.Error(fmt.Sprintf("[Photo] JPEG encode at quality %d failed: %v", q, err))
			continue
		}
		out = buf.Bytes()
		if len(out) <= TargetMaxBytes {
			break
		}
	}

	if out == nil {
		// Encoding failed at every tier; keep the original.
		return Result{
			Data:        data,
			ContentType: "application/octet-stream",
			Ext:         strings.ToLower(filepath.Ext(filename)),
			Passthrough: true,
		}
	}

	return Result{
		Data:        out,
		ContentType: "image/jpeg",
		Ext:         ".jpg",
		Width:       w,
		Height:      h,
	}
}

// decode reads the image. WebP goes through the dedicated decoder; every
// other supported format is handled by imaging (JPEG, PNG, GIF, TIFF, BMP).
func decode(data []byte, filename string) (image.Image, error) {
	if strings.ToLower(filepath.Ext(filename)) == ".webp" {
		img, err := webp.Decode(bytes.NewReader(data), &decoder.Options{})
		if err != nil {
			return nil, fmt.Errorf("webp decode: %w", err)
		}
		return img, nil
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("image decode: %w", err)
	}
	return img, nil
}

// orient applies the EXIF orientation so phone photos come out upright. The
// re-encode drops all metadata, so the rotation has to be baked into the
// pixels here. Images without EXIF data are returned as-is.
func orient(img image.Image, raw []byte) image.Image {
	x, err := exif.Decode(bytes.NewReader(raw))
	if err != nil {
		return img
	}

	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return img
	}
	orientation, err := tag.Int(0)
	if err != nil {
		return img
	}

	switch orientation {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.Transpose(img)
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.Transverse(img)
	case 8:
		return imaging.Rotate90(img)
	default:
		return img
	}
}
