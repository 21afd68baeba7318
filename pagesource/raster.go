package pagesource

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"math"

	"golang.org/x/image/draw"

	"github.com/wudi/annokit/geo"
)

// CropNormalized extracts the sub-image covered by a normalized rectangle.
// The rect is clamped to the image bounds; a rect with no remaining area is
// an error.
func CropNormalized(img image.Image, rect geo.Rect) (image.Image, error) {
	b := img.Bounds()
	w := float64(b.Dx())
	h := float64(b.Dy())
	pixel := image.Rect(
		b.Min.X+int(math.Floor(rect.X*w)),
		b.Min.Y+int(math.Floor(rect.Y*h)),
		b.Min.X+int(math.Ceil((rect.X+rect.Width)*w)),
		b.Min.Y+int(math.Ceil((rect.Y+rect.Height)*h)),
	).Intersect(b)
	if pixel.Empty() {
		return nil, fmt.Errorf("pagesource: crop region outside image bounds")
	}
	out := image.NewRGBA(image.Rect(0, 0, pixel.Dx(), pixel.Dy()))
	draw.Copy(out, image.Point{}, img, pixel, draw.Src, nil)
	return out, nil
}

// ScaleImage resizes an image by factor using bilinear interpolation, used to
// oversample rasters before OCR.
func ScaleImage(img image.Image, factor float64) image.Image {
	if factor == 1 {
		return img
	}
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0,
		int(math.Round(float64(b.Dx())*factor)),
		int(math.Round(float64(b.Dy())*factor))))
	draw.BiLinear.Scale(out, out.Bounds(), img, b, draw.Src, nil)
	return out
}

// EncodePNG serializes an image for OCR submission.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("pagesource: encode png: %w", err)
	}
	return buf.Bytes(), nil
}
