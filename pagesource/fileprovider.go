package pagesource

import (
	"fmt"
	"image"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/wudi/annokit/geo"
)

// FileProvider reads page sizes and native text straight from a PDF file. It
// cannot rasterize; RenderPage returns ErrRasterUnsupported so OCR-dependent
// features degrade gracefully.
type FileProvider struct {
	file   *os.File
	reader *pdf.Reader
}

// OpenFile opens a PDF from disk.
func OpenFile(path string) (*FileProvider, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("pagesource: open %s: %w", path, err)
	}
	return &FileProvider{file: f, reader: r}, nil
}

// Close releases the underlying file.
func (p *FileProvider) Close() error { return p.file.Close() }

// PageCount returns the number of pages.
func (p *FileProvider) PageCount() int { return p.reader.NumPage() }

// PageSize reads the page's MediaBox dimensions in points.
func (p *FileProvider) PageSize(pageNumber int) (geo.Size, error) {
	page := p.reader.Page(pageNumber)
	if page.V.Kind() == pdf.Null {
		return geo.Size{}, fmt.Errorf("pagesource: page %d not found", pageNumber)
	}
	box := page.V.Key("MediaBox")
	if box.Len() < 4 {
		return geo.Size{}, fmt.Errorf("pagesource: page %d has no MediaBox", pageNumber)
	}
	x0 := box.Index(0).Float64()
	y0 := box.Index(1).Float64()
	x1 := box.Index(2).Float64()
	y1 := box.Index(3).Float64()
	size := geo.Size{Width: x1 - x0, Height: y1 - y0}
	if size.IsEmpty() {
		return geo.Size{}, fmt.Errorf("pagesource: page %d has degenerate MediaBox", pageNumber)
	}
	return size, nil
}

// TextItems extracts the page's text fragments with normalized rectangles.
// PDF coordinates grow upward from the bottom-left corner; normalized space
// grows downward from the top-left.
func (p *FileProvider) TextItems(pageNumber int) ([]TextItem, error) {
	size, err := p.PageSize(pageNumber)
	if err != nil {
		return nil, err
	}
	page := p.reader.Page(pageNumber)
	content := page.Content()
	items := make([]TextItem, 0, len(content.Text))
	for _, t := range content.Text {
		s := strings.TrimRight(t.S, "\x00")
		if s == "" {
			continue
		}
		height := t.FontSize
		if height <= 0 {
			height = 10 // fallback when the font size is unavailable
		}
		items = append(items, TextItem{
			Text: s,
			Rect: geo.Rect{
				X:      t.X / size.Width,
				Y:      1 - (t.Y+height)/size.Height,
				Width:  t.W / size.Width,
				Height: height / size.Height,
			},
			Font: t.Font,
		})
	}
	return items, nil
}

// RenderPage is unsupported for file-backed providers.
func (p *FileProvider) RenderPage(pageNumber int, scale float64) (image.Image, error) {
	return nil, ErrRasterUnsupported
}
