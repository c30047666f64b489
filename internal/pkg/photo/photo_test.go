package photo

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/disintegration/imaging"
)

func testImage(t *testing.T, w, h int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{uint8(x % 256), uint8(y % 256), uint8((x + y) % 256), 255})
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode test image: %v", err)
	}
	return buf.Bytes()
}

func TestNormalize_DownscalesLongEdge(t *testing.T) {
	t.Parallel()

	res := Normalize(testImage(t, 5000, 3000), "big.png")
	if res.Passthrough {
		t.Fatalf("expected successful decode")
	}
	if res.ContentType != "image/jpeg" || res.Ext != ".jpg" {
		t.Fatalf("output must be JPEG, got %s %s", res.ContentType, res.Ext)
	}
	if res.Width != 1024 {
		t.Fatalf("long edge = %d, want 1024", res.Width)
	}

	// Aspect ratio preserved to within rounding: 5000x3000 -> 1024x614.
	wantH := int(float64(res.Width) * 3000.0 / 5000.0)
	if res.Height < wantH-1 || res.Height > wantH+1 {
		t.Fatalf("height = %d, want ~%d", res.Height, wantH)
	}

	decoded, err := imaging.Decode(bytes.NewReader(res.Data))
	if err != nil {
		t.Fatalf("output not decodable: %v", err)
	}
	if decoded.Bounds().Dx() != res.Width || decoded.Bounds().Dy() != res.Height {
		t.Fatalf("reported dimensions do not match encoded output")
	}
}

func TestNormalize_NeverUpscales(t *testing.T) {
	t.Parallel()

	res := Normalize(testImage(t, 320, 240), "small.png")
	if res.Passthrough {
		t.Fatalf("expected successful decode")
	}
	if res.Width != 320 || res.Height != 240 {
		t.Fatalf("small image must keep its size, got %dx%d", res.Width, res.Height)
	}
}

func TestNormalize_SizeBudget(t *testing.T) {
	t.Parallel()

	res := Normalize(testImage(t, 2048, 2048), "noisy.png")
	if res.Passthrough {
		t.Fatalf("expected successful decode")
	}
	if len(res.Data) > TargetMaxBytes {
		t.Fatalf("encoded photo %d bytes exceeds budget %d", len(res.Data), TargetMaxBytes)
	}
}

func TestNormalize_UndecodableFallsThrough(t *testing.T) {
	t.Parallel()

	raw := []byte("definitely not an image")
	res := Normalize(raw, "broken.jpg")
	if !res.Passthrough {
		t.Fatalf("expected passthrough for undecodable input")
	}
	if !bytes.Equal(res.Data, raw) {
		t.Fatalf("passthrough must keep the original bytes unchanged")
	}
}
