package cardpdf

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"testing"
)

func sampleCard() CardData {
	return CardData{
		GymName:    "Fitness Mania",
		MemberNo:   "42",
		FullName:   "Ali Khan",
		Phone:      "0344-0208268",
		JoinDate:   "2025-01-15",
		MonthlyFee: 1500,
	}
}

func sampleJPEG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			img.Set(x, y, color.RGBA{uint8(x * 4), uint8(y * 4), 128, 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("encode sample jpeg: %v", err)
	}
	return buf.Bytes()
}

func TestRender_WithPhoto(t *testing.T) {
	t.Parallel()

	out, err := Render(sampleCard(), sampleJPEG(t))
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF-")) {
		t.Fatalf("output is not a PDF")
	}
	if len(out) < 1000 {
		t.Fatalf("suspiciously small PDF (%d bytes)", len(out))
	}
}

func TestRender_WithoutPhoto(t *testing.T) {
	t.Parallel()

	out, err := Render(sampleCard(), nil)
	if err != nil {
		t.Fatalf("Render without photo: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF-")) {
		t.Fatalf("output is not a PDF")
	}
}

func TestRender_Deterministic(t *testing.T) {
	t.Parallel()

	// Same input twice gives the same page geometry; sizes should match.
	a, err := Render(sampleCard(), nil)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	b, err := Render(sampleCard(), nil)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if len(a) != len(b) {
		t.Fatalf("render not stable: %d vs %d bytes", len(a), len(b))
	}
}
