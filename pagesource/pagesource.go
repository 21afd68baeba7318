// Package pagesource is the seam to the PDF rendering collaborator: page
// counts, unscaled page dimensions, extractable text, and rasterization for
// OCR input. Engine code depends only on the Provider interface so tests can
// substitute fakes.
package pagesource

import (
	"errors"
	"image"

	"github.com/wudi/annokit/geo"
)

// ErrRasterUnsupported reports that a provider cannot rasterize pages. OCR
// paths degrade to native text only when they see it.
var ErrRasterUnsupported = errors.New("pagesource: rasterization not supported")

// TextItem is one extracted text fragment with its normalized rectangle on
// the page.
type TextItem struct {
	Text string
	Rect geo.Rect
	Font string
}

// Provider supplies per-page document data. Page numbers are 1-based.
type Provider interface {
	PageCount() int
	// PageSize returns the page's unscaled dimensions in points.
	PageSize(pageNumber int) (geo.Size, error)
	// TextItems returns the page's native text fragments, empty for scanned
	// pages.
	TextItems(pageNumber int) ([]TextItem, error)
	// RenderPage rasterizes the page at the given scale, or returns
	// ErrRasterUnsupported.
	RenderPage(pageNumber int, scale float64) (image.Image, error)
}

// PlainText concatenates a page's text items into one string, inserting
// spaces between fragments that do not already end in whitespace.
func PlainText(items []TextItem) string {
	var out []byte
	for _, it := range items {
		if len(out) > 0 && len(it.Text) > 0 && out[len(out)-1] != ' ' && out[len(out)-1] != '\n' {
			out = append(out, ' ')
		}
		out = append(out, it.Text...)
	}
	return string(out)
}
