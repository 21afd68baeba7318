package report

import (
	"fmt"
	"io"
	"strings"

	"codeberg.org/go-pdf/fpdf"

	"github.com/wudi/annokit/store"
)

const (
	pdfMargin     = 48.0
	pdfBodySize   = 11.0
	pdfHeadSize   = 14.0
	pdfTitleSize  = 18.0
	pdfLineHeight = 16.0
)

// PDF writes the report as an A4 PDF.
func (r Report) PDF(w io.Writer) error {
	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(true, pdfMargin)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", pdfTitleSize)
	pdf.MultiCell(0, pdfLineHeight+6, r.Title, "", "L", false)
	pdf.Ln(pdfLineHeight / 2)

	if len(r.Pages) == 0 {
		pdf.SetFont("Helvetica", "I", pdfBodySize)
		pdf.MultiCell(0, pdfLineHeight, "No annotations.", "", "L", false)
	}

	for _, sec := range r.Pages {
		pdf.SetFont("Helvetica", "B", pdfHeadSize)
		pdf.MultiCell(0, pdfLineHeight+2, fmt.Sprintf("Page %d", sec.PageNumber), "", "L", false)
		pdf.SetFont("Helvetica", "", pdfBodySize)

		for _, a := range sec.Annotations {
			writeBullet(pdf, plainAnnotationLine(a))
		}
		for _, bm := range sec.Bookmarks {
			if bm.Note != "" {
				writeBullet(pdf, "Bookmark: "+bm.Note)
			} else {
				writeBullet(pdf, "Bookmark")
			}
		}
		for _, c := range sec.Clippings {
			writeBullet(pdf, "Clipping: "+firstLine(c.Content))
		}
		pdf.Ln(pdfLineHeight / 2)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("report: write pdf: %w", err)
	}
	return nil
}

func writeBullet(pdf *fpdf.Fpdf, text string) {
	pdf.SetX(pdfMargin + 12)
	pdf.MultiCell(0, pdfLineHeight, "- "+text, "", "L", false)
}

func plainAnnotationLine(a store.Annotation) string {
	line := annotationLine(a)
	line = strings.TrimPrefix(line, "- ")
	line = strings.ReplaceAll(line, "**", "")
	return strings.TrimRight(line, "\n")
}
