// Package docai backs the OCR engine contract with Google Document AI. Word
// boxes come from token layouts with normalized vertices, converted to pixel
// coordinates using the page dimension reported by the service.
package docai

import (
	"context"
	"fmt"

	documentai "cloud.google.com/go/documentai/apiv1"
	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"google.golang.org/api/option"

	"github.com/wudi/annokit/ocr"
)

// Engine implements ocr.Engine against a Document AI OCR processor.
type Engine struct {
	client    *documentai.DocumentProcessorClient
	processor string
}

// New dials the regional Document AI endpoint for the given processor
// resource name ("projects/P/locations/L/processors/ID").
func New(ctx context.Context, location, processor string, opts ...option.ClientOption) (*Engine, error) {
	endpoint := fmt.Sprintf("%s-documentai.googleapis.com:443", location)
	client, err := documentai.NewDocumentProcessorClient(ctx,
		append([]option.ClientOption{option.WithEndpoint(endpoint)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("docai: create client: %w", err)
	}
	return &Engine{client: client, processor: processor}, nil
}

// Close releases the underlying gRPC connection.
func (e *Engine) Close() error { return e.client.Close() }

func (e *Engine) Name() string { return "documentai" }

// Recognize submits one image and converts the returned document into the
// uniform result shape.
func (e *Engine) Recognize(ctx context.Context, in ocr.Input) (ocr.Result, error) {
	req := &documentaipb.ProcessRequest{
		Name: e.processor,
		Source: &documentaipb.ProcessRequest_RawDocument{
			RawDocument: &documentaipb.RawDocument{
				Content:  in.Image,
				MimeType: string(in.Format),
			},
		},
		SkipHumanReview: true,
	}
	resp, err := e.client.ProcessDocument(ctx, req)
	if err != nil {
		return ocr.Result{}, fmt.Errorf("docai: process document: %w", err)
	}
	doc := resp.GetDocument()
	if doc == nil {
		return ocr.Result{InputID: in.ID}, nil
	}

	res := ocr.Result{InputID: in.ID, PlainText: doc.GetText()}
	for _, page := range doc.GetPages() {
		dim := page.GetDimension()
		pageW := float64(dim.GetWidth())
		pageH := float64(dim.GetHeight())
		words := make([]ocr.TextWord, 0, len(page.GetTokens()))
		var sum float64
		for _, token := range page.GetTokens() {
			layout := token.GetLayout()
			word := ocr.TextWord{
				Text:       anchorText(doc.GetText(), layout),
				Bounds:     vertexBounds(layout, pageW, pageH),
				Confidence: float64(layout.GetConfidence()),
			}
			sum += word.Confidence
			words = append(words, word)
		}
		conf := 0.0
		if len(words) > 0 {
			conf = sum / float64(len(words))
		}
		bounds := ocr.Region{Width: pageW, Height: pageH}
		res.Blocks = append(res.Blocks, ocr.TextBlock{
			Text:       doc.GetText(),
			Bounds:     bounds,
			Lines:      []ocr.TextLine{{Text: doc.GetText(), Bounds: bounds, Words: words, Confidence: conf}},
			Confidence: conf,
		})
	}
	return res, nil
}

// anchorText resolves a layout's text anchor segments against the document's
// full text. Segment indices are byte offsets into the UTF-8 text.
func anchorText(fullText string, layout *documentaipb.Document_Page_Layout) string {
	if layout == nil || layout.GetTextAnchor() == nil {
		return ""
	}
	var out []byte
	for _, seg := range layout.GetTextAnchor().GetTextSegments() {
		start := int(seg.GetStartIndex())
		end := int(seg.GetEndIndex())
		if start < 0 {
			start = 0
		}
		if end > len(fullText) {
			end = len(fullText)
		}
		if start > end {
			start = end
		}
		out = append(out, fullText[start:end]...)
	}
	return trimTrailingBreak(string(out))
}

func trimTrailingBreak(s string) string {
	for len(s) > 0 {
		last := s[len(s)-1]
		if last == ' ' || last == '\n' || last == '\r' || last == '\t' {
			s = s[:len(s)-1]
			continue
		}
		break
	}
	return s
}

// vertexBounds converts a layout's normalized vertices into pixel bounds.
func vertexBounds(layout *documentaipb.Document_Page_Layout, pageW, pageH float64) ocr.Region {
	poly := layout.GetBoundingPoly()
	verts := poly.GetNormalizedVertices()
	if len(verts) == 0 {
		return ocr.Region{}
	}
	minX, minY := 1.0, 1.0
	maxX, maxY := 0.0, 0.0
	for _, v := range verts {
		x := float64(v.GetX())
		y := float64(v.GetY())
		if x < minX {
			minX = x
		}
		if y < minY {
			minY = y
		}
		if x > maxX {
			maxX = x
		}
		if y > maxY {
			maxY = y
		}
	}
	return ocr.Region{
		X:      minX * pageW,
		Y:      minY * pageH,
		Width:  (maxX - minX) * pageW,
		Height: (maxY - minY) * pageH,
	}
}
