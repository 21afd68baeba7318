// Package store holds the in-memory collections of normalized-coordinate
// annotation entities together with selection and filter state. It is the
// single authoritative owner of document state; derived views (crop regions,
// connectors, search styling) are pure functions over its snapshots.
package store

import (
	"strconv"
	"strings"
	"time"

	"github.com/wudi/annokit/geo"
)

// Kind discriminates the annotation tagged union.
type Kind string

const (
	KindHighlight Kind = "highlight"
	KindUnderline Kind = "underline"
	KindStrike    Kind = "strike"
	KindFreehand  Kind = "freehand"
	KindComment   Kind = "comment"
)

// Kinds lists every annotation kind, in filter-panel order.
var Kinds = []Kind{KindHighlight, KindUnderline, KindStrike, KindFreehand, KindComment}

// HighlightSubtype distinguishes rectangular area highlights from
// text-selection highlights.
type HighlightSubtype string

const (
	SubtypeArea HighlightSubtype = "area"
	SubtypeText HighlightSubtype = "text"
)

// FreehandMode selects between polyline sketching and a two-point straight
// line preview.
type FreehandMode string

const (
	FreehandModeStraight FreehandMode = "straight"
	FreehandModeFree     FreehandMode = "freehand"
)

// Annotation is a page-anchored mark. All spatial fields are normalized to
// [0,1] relative to the page's unscaled dimensions; StrokeWidth and BrushSize
// are device-independent brush units.
type Annotation struct {
	ID          string
	Kind        Kind
	PageNumber  int
	Color       string
	CreatedAt   time.Time
	IsTemporary bool
	ExpiresAt   time.Time

	// Highlight fields. Position is set for area highlights, Rects for
	// text-selection highlights (possibly multiple lines).
	Subtype  HighlightSubtype
	Position *geo.Rect
	Rects    []geo.Rect
	Text     string

	// Underline/strike fields.
	Lines []geo.Line

	// Freehand fields.
	Points          []geo.Point
	StrokeWidth     float64
	BrushSize       float64
	Mode            FreehandMode
	PressureEnabled bool
	Opacity         float64

	// Comment fields. Anchor point lives in Position with zero size.
	Content    string
	LinkedText string
}

// Bookmark marks a spot on a page, optionally annotated with a note.
type Bookmark struct {
	ID         string
	PageNumber int
	Position   geo.Point
	Color      string
	Note       string
	CreatedAt  time.Time
}

// ClippingSource records where a clipping's text came from.
type ClippingSource string

const (
	SourcePDF ClippingSource = "PDF"
	SourceOCR ClippingSource = "OCR"
)

// Segment is one constituent of a combined clipping. It preserves the
// original clipping's identity so uncombining can restore it.
type Segment struct {
	ID         string
	Label      string
	Content    string
	SourcePage string
	SourceRect *geo.Rect
}

// Clipping is an excerpt lifted from the document. SourcePage is the page
// number as a string; combined clippings join their segment pages with
// commas ("1, 2").
type Clipping struct {
	ID         string
	Content    string
	CreatedAt  time.Time
	SourcePage string
	SourceRect *geo.Rect
	Source     ClippingSource
	Confidence float64
	Combined   bool
	Segments   []Segment
}

// WorkspaceItemType distinguishes clip references from comment references on
// the workspace canvas.
type WorkspaceItemType string

const (
	ItemClip    WorkspaceItemType = "clip"
	ItemComment WorkspaceItemType = "comment"
)

// WorkspaceItem is a positioned, non-owning reference to a clipping or
// workspace comment. X and Y are normalized within the workspace canvas.
type WorkspaceItem struct {
	ID        string
	Type      WorkspaceItemType
	SourceID  string
	X         float64
	Y         float64
	CreatedAt time.Time
}

// WorkspaceComment is a note living on the workspace canvas, distinct from
// page comment annotations.
type WorkspaceComment struct {
	ID         string
	Content    string
	QuoteText  string
	PageNumber int
	SourceRect geo.Rect
	SourceType string
	Color      string
	CreatedAt  time.Time
}

// PrimaryPageFromSource resolves the first page of a possibly comma-joined
// source page string. Unparseable input resolves to page 1.
func PrimaryPageFromSource(source string) int {
	first, _, _ := strings.Cut(source, ",")
	n, err := strconv.Atoi(strings.TrimSpace(first))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// NormalizeClippingText collapses a raw text selection into tidy paragraphs:
// consecutive non-blank lines join with spaces, blank lines split paragraphs.
func NormalizeClippingText(value string) string {
	if value == "" {
		return ""
	}
	lines := strings.Split(strings.ReplaceAll(value, "\r", ""), "\n")
	var paragraphs []string
	var current []string
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			if len(current) > 0 {
				paragraphs = append(paragraphs, strings.Join(current, " "))
				current = current[:0]
			}
			continue
		}
		current = append(current, trimmed)
	}
	if len(current) > 0 {
		paragraphs = append(paragraphs, strings.Join(current, " "))
	}
	return strings.TrimSpace(strings.Join(paragraphs, "\n\n"))
}
