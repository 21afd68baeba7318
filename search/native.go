package search

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/wudi/annokit/geo"
)

// spanRange records which slice of the concatenated page string a span owns.
type spanRange struct {
	span  int
	start int
	end   int
}

// matchNativeLayer searches the concatenated span text and measures a
// rectangle per overlapping span for every hit. Each span is case-folded
// individually before concatenation; folds that change byte length (ß→ss,
// the fi ligature) would otherwise drift the match offsets off the span map.
func matchNativeLayer(pageNumber int, layer *NativeLayer, foldedQuery string) []Match {
	folder := cases.Fold()
	var b strings.Builder
	ranges := make([]spanRange, 0, len(layer.Spans))
	foldedLens := make([]int, len(layer.Spans))
	for i, sp := range layer.Spans {
		folded := folder.String(sp.Text)
		start := b.Len()
		b.WriteString(folded)
		ranges = append(ranges, spanRange{span: i, start: start, end: b.Len()})
		foldedLens[i] = len(folded)
	}
	text := b.String()

	measure := layer.Measure
	if measure == nil {
		measure = proportionalMeasurer(layer, foldedLens)
	}

	var matches []Match
	for _, off := range findAll(text, foldedQuery) {
		end := off + len(foldedQuery)
		var rects []geo.Rect
		for _, r := range ranges {
			if r.end <= off || r.start >= end {
				continue
			}
			subStart := max(off, r.start) - r.start
			subEnd := min(end, r.end) - r.start
			if rect, ok := measure(r.span, subStart, subEnd); ok {
				rects = append(rects, rect)
			}
		}
		if len(rects) == 0 {
			continue
		}
		matches = append(matches, Match{
			ID:         matchID(pageNumber, off),
			PageNumber: pageNumber,
			Start:      off,
			Rects:      rects,
		})
	}
	return matches
}

// proportionalMeasurer estimates sub-span rectangles by character-position
// ratio within the span's box, over the folded span length. Zero-size spans
// are skipped.
func proportionalMeasurer(layer *NativeLayer, foldedLens []int) SpanMeasurer {
	return func(spanIndex, start, end int) (geo.Rect, bool) {
		sp := layer.Spans[spanIndex]
		n := foldedLens[spanIndex]
		if n == 0 || sp.Rect.IsEmpty() {
			return geo.Rect{}, false
		}
		startRatio := float64(start) / float64(n)
		endRatio := float64(end) / float64(n)
		return geo.Rect{
			X:      sp.Rect.X + sp.Rect.Width*startRatio,
			Y:      sp.Rect.Y,
			Width:  sp.Rect.Width * (endRatio - startRatio),
			Height: sp.Rect.Height,
		}, true
	}
}
