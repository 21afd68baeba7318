// Package cropview derives, per page, the vertical crop window and gap mask
// that reveal only highlighted zones while "highlight view" is active. All
// outputs are pure functions of the visible annotation set and the continuous
// crop zoom control.
package cropview

import (
	"sort"

	"github.com/wudi/annokit/geo"
	"github.com/wudi/annokit/store"
)

const (
	// Rects whose vertical gap is at most this fraction of page height merge
	// into one highlight group.
	groupGapThreshold = 0.02

	// Vertical padding applied around underline/strike lines, standing in for
	// the text line height the mark belongs to.
	lineHeightPad = 0.015

	// Vertical padding around freehand point extrema.
	strokePad = 0.01

	minZoom = 1.0
	maxZoom = 2.0
)

// Group is a contiguous highlighted band on one page.
type Group struct {
	MinY float64
	MaxY float64
}

// MaskBand is a horizontal band of reduced opacity covering part of an
// inter-group gap. Bands grow from each gap's center as progress rises, so
// un-highlighted text between groups disappears gradually.
type MaskBand struct {
	Start float64
	End   float64
	Alpha float64
}

// PageCrop is the derived crop state for one page.
type PageCrop struct {
	PageNumber int
	// TopCrop and BottomCrop are fractions of page height hidden from each
	// edge; the visible vertical window is [TopCrop, 1-BottomCrop]. The
	// horizontal extent is never cropped.
	TopCrop    float64
	BottomCrop float64
	Groups     []Group
	// Mask is empty when the page has a single group; the edge crops
	// suffice then.
	Mask     []MaskBand
	Progress float64
}

// Result aggregates crop state for every page with visible annotations.
type Result struct {
	Pages           map[int]PageCrop
	AverageProgress float64
}

// Progress maps cropZoom in [1,2] linearly onto [0,1].
func Progress(cropZoom float64) float64 {
	return (geo.Clamp(cropZoom, minZoom, maxZoom) - minZoom) / (maxZoom - minZoom)
}

// Compute derives crop state from the visible annotation set. Pages without
// contributing annotations are absent from the result.
func Compute(annotations []store.Annotation, cropZoom float64) Result {
	progress := Progress(cropZoom)
	byPage := map[int][]geo.Rect{}
	for _, a := range annotations {
		rects := contribution(a)
		if len(rects) > 0 {
			byPage[a.PageNumber] = append(byPage[a.PageNumber], rects...)
		}
	}

	res := Result{Pages: make(map[int]PageCrop, len(byPage))}
	var sum float64
	for page, rects := range byPage {
		pc := computePage(page, rects, progress)
		res.Pages[page] = pc
		sum += pc.Progress
	}
	if len(res.Pages) > 0 {
		res.AverageProgress = sum / float64(len(res.Pages))
	}
	return res
}

// contribution maps one annotation onto the rectangles it adds to its page's
// envelope, using type-specific geometry.
func contribution(a store.Annotation) []geo.Rect {
	switch a.Kind {
	case store.KindHighlight, store.KindComment:
		var out []geo.Rect
		if a.Position != nil {
			out = append(out, *a.Position)
		}
		out = append(out, a.Rects...)
		return out
	case store.KindUnderline, store.KindStrike:
		out := make([]geo.Rect, 0, len(a.Lines))
		for _, l := range a.Lines {
			r := geo.RectFromCorners(l.Start(), l.End())
			r.Y -= lineHeightPad
			r.Height += lineHeightPad * 2
			out = append(out, r)
		}
		return out
	case store.KindFreehand:
		bounds, ok := geo.BoundingRectFromPoints(a.Points)
		if !ok {
			return nil
		}
		bounds.Y -= strokePad
		bounds.Height += strokePad * 2
		return []geo.Rect{bounds}
	}
	return nil
}

func computePage(page int, rects []geo.Rect, progress float64) PageCrop {
	sort.Slice(rects, func(i, j int) bool { return rects[i].Y < rects[j].Y })

	minY, maxY := 1.0, 0.0
	var groups []Group
	for _, r := range rects {
		top := geo.Clamp(r.Y, 0, 1)
		bottom := geo.Clamp(r.Y+r.Height, 0, 1)
		if top < minY {
			minY = top
		}
		if bottom > maxY {
			maxY = bottom
		}
		if n := len(groups); n > 0 && top-groups[n-1].MaxY <= groupGapThreshold {
			if bottom > groups[n-1].MaxY {
				groups[n-1].MaxY = bottom
			}
		} else {
			groups = append(groups, Group{MinY: top, MaxY: bottom})
		}
	}

	pc := PageCrop{
		PageNumber: page,
		TopCrop:    minY * progress,
		BottomCrop: (1 - maxY) * progress,
		Groups:     groups,
		Progress:   progress,
	}
	if len(groups) >= 2 {
		pc.Mask = gapMask(groups, progress)
	}
	return pc
}

// gapMask builds one band per inter-group gap, widening from the gap center
// with progress and fading toward full transparency.
func gapMask(groups []Group, progress float64) []MaskBand {
	bands := make([]MaskBand, 0, len(groups)-1)
	for i := 0; i < len(groups)-1; i++ {
		gapStart := groups[i].MaxY
		gapEnd := groups[i+1].MinY
		if gapEnd <= gapStart {
			continue
		}
		center := (gapStart + gapEnd) / 2
		half := (gapEnd - gapStart) / 2 * progress
		bands = append(bands, MaskBand{
			Start: center - half,
			End:   center + half,
			Alpha: 1 - progress,
		})
	}
	return bands
}
