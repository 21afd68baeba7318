package pagesource

import (
	"image"
	"image/color"
	"testing"

	"github.com/wudi/annokit/geo"
)

func TestPlainText(t *testing.T) {
	items := []TextItem{
		{Text: "Hello"},
		{Text: "world."},
		{Text: "Next "},
		{Text: "sentence"},
	}
	want := "Hello world. Next sentence"
	if got := PlainText(items); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
	if got := PlainText(nil); got != "" {
		t.Fatalf("empty items produced %q", got)
	}
}

func TestCropNormalized(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 100, 200))
	for y := 0; y < 200; y++ {
		for x := 0; x < 100; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), A: 255})
		}
	}

	out, err := CropNormalized(img, geo.Rect{X: 0.5, Y: 0.25, Width: 0.25, Height: 0.5})
	if err != nil {
		t.Fatalf("crop: %v", err)
	}
	b := out.Bounds()
	if b.Dx() != 25 || b.Dy() != 100 {
		t.Fatalf("crop size = %dx%d, want 25x100", b.Dx(), b.Dy())
	}

	if _, err := CropNormalized(img, geo.Rect{X: 2, Y: 2, Width: 0.1, Height: 0.1}); err == nil {
		t.Fatalf("expected error for out-of-bounds region")
	}
}

func TestScaleImage(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 10, 20))
	out := ScaleImage(img, 3.0)
	b := out.Bounds()
	if b.Dx() != 30 || b.Dy() != 60 {
		t.Fatalf("scaled size = %dx%d, want 30x60", b.Dx(), b.Dy())
	}
	if same := ScaleImage(img, 1.0); same != img {
		t.Fatalf("factor 1 should return the original image")
	}
}

func TestEncodePNG(t *testing.T) {
	data, err := EncodePNG(image.NewRGBA(image.Rect(0, 0, 4, 4)))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if len(data) == 0 {
		t.Fatalf("empty png payload")
	}
}
