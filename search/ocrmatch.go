package search

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"

	"github.com/wudi/annokit/geo"
)

// Rects on the same line merge when their horizontal gap is at most this,
// avoiding a ransom-note effect of many tiny boxes per match.
const mergeGapTolerance = 0.002

// wordRange records which slice of the concatenated page string (words joined
// by single spaces) a word owns.
type wordRange struct {
	word  int
	start int
	end   int
}

// matchOCRWords builds a character index across OCR words and estimates each
// hit word's contributing horizontal sub-range proportionally within its
// bounding box.
func matchOCRWords(pageNumber int, words []Word, foldedQuery string) []Match {
	// Words fold individually, for the same offset-drift reason as spans.
	folder := cases.Fold()
	var b strings.Builder
	ranges := make([]wordRange, 0, len(words))
	for i, w := range words {
		if i > 0 {
			b.WriteByte(' ')
		}
		start := b.Len()
		b.WriteString(folder.String(w.Text))
		ranges = append(ranges, wordRange{word: i, start: start, end: b.Len()})
	}
	text := b.String()

	var matches []Match
	for _, off := range findAll(text, foldedQuery) {
		end := off + len(foldedQuery)
		var rects []geo.Rect
		for _, r := range ranges {
			if r.end <= off || r.start >= end {
				continue
			}
			w := words[r.word]
			n := r.end - r.start
			if n == 0 || w.Rect.IsEmpty() {
				continue
			}
			subStart := max(off, r.start) - r.start
			subEnd := min(end, r.end) - r.start
			startRatio := float64(subStart) / float64(n)
			endRatio := float64(subEnd) / float64(n)
			rects = append(rects, geo.Rect{
				X:      w.Rect.X + w.Rect.Width*startRatio,
				Y:      w.Rect.Y,
				Width:  w.Rect.Width * (endRatio - startRatio),
				Height: w.Rect.Height,
			})
		}
		if len(rects) == 0 {
			continue
		}
		matches = append(matches, Match{
			ID:         matchID(pageNumber, off),
			PageNumber: pageNumber,
			Start:      off,
			Rects:      mergeSameLine(rects),
		})
	}
	return matches
}

// mergeSameLine coalesces adjacent or overlapping rectangles that share a
// line into larger ones.
func mergeSameLine(rects []geo.Rect) []geo.Rect {
	if len(rects) < 2 {
		return rects
	}
	sort.Slice(rects, func(i, j int) bool {
		if rects[i].Y != rects[j].Y {
			return rects[i].Y < rects[j].Y
		}
		return rects[i].X < rects[j].X
	})
	out := rects[:1]
	for _, r := range rects[1:] {
		last := &out[len(out)-1]
		if sameLine(*last, r) && r.X-(last.X+last.Width) <= mergeGapTolerance {
			*last = last.Union(r)
		} else {
			out = append(out, r)
		}
	}
	return out
}

// sameLine treats rects as one line when their vertical extents overlap by
// more than half the smaller height.
func sameLine(a, b geo.Rect) bool {
	top := a.Y
	if b.Y > top {
		top = b.Y
	}
	bottom := a.Y + a.Height
	if o := b.Y + b.Height; o < bottom {
		bottom = o
	}
	overlap := bottom - top
	minH := a.Height
	if b.Height < minH {
		minH = b.Height
	}
	return minH > 0 && overlap > minH/2
}
