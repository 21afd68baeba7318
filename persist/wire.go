// Package persist syncs annotations with the REST backend. The wire format
// uses snake_case shapes nested per page; the transform layer converts
// between it and the internal entities, skipping anything it does not
// recognize instead of failing the whole load.
package persist

// WirePoint is one polyline vertex in normalized coordinates.
type WirePoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// WireComment is a backend-side comment attached to a shape.
type WireComment struct {
	ID        string `json:"id,omitempty"`
	Text      string `json:"text"`
	CreatedAt string `json:"created_at,omitempty"`
}

// Shape is the backend's annotation record. Rect-like shapes carry x/y/
// width/height; stroke-like shapes carry points.
type Shape struct {
	ID          string        `json:"id,omitempty"`
	Type        string        `json:"type"`
	X           float64       `json:"x,omitempty"`
	Y           float64       `json:"y,omitempty"`
	Width       float64       `json:"width,omitempty"`
	Height      float64       `json:"height,omitempty"`
	Points      []WirePoint   `json:"points,omitempty"`
	Color       string        `json:"color,omitempty"`
	StrokeWidth float64       `json:"stroke_width,omitempty"`
	Text        string        `json:"text,omitempty"`
	Comments    []WireComment `json:"comments,omitempty"`
}

// PageShapes groups one page's shapes.
type PageShapes struct {
	PageNumber int     `json:"page_number"`
	Shapes     []Shape `json:"shapes"`
}

// fetchResponse is the get-annotations payload.
type fetchResponse struct {
	Pages []PageShapes `json:"pages"`
}

// storeRequest is the store-anotation payload. The endpoint spelling is the
// backend's, not ours.
type storeRequest struct {
	PDFID      string  `json:"pdf_id"`
	PageNumber int     `json:"page_number"`
	Shapes     []Shape `json:"shapes"`
}

type deleteRequest struct {
	HighlightID string `json:"highlight_id"`
}

type updateCommentRequest struct {
	AnnotationID string `json:"annotation_id"`
	HighlightID  string `json:"highlight_id"`
	Text         string `json:"text"`
}
