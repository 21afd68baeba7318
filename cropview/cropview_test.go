package cropview

import (
	"testing"

	"github.com/wudi/annokit/geo"
	"github.com/wudi/annokit/store"
)

func highlightAt(page int, y, h float64) store.Annotation {
	return store.Annotation{
		Kind:       store.KindHighlight,
		Subtype:    store.SubtypeArea,
		PageNumber: page,
		Position:   &geo.Rect{X: 0.1, Y: y, Width: 0.8, Height: h},
	}
}

func TestProgressEndpointsAndMonotonicity(t *testing.T) {
	if got := Progress(1.0); got != 0 {
		t.Fatalf("Progress(1.0) = %v, want 0", got)
	}
	if got := Progress(2.0); got != 1 {
		t.Fatalf("Progress(2.0) = %v, want 1", got)
	}
	if got := Progress(0.5); got != 0 {
		t.Fatalf("Progress clamps below 1, got %v", got)
	}
	if got := Progress(3.0); got != 1 {
		t.Fatalf("Progress clamps above 2, got %v", got)
	}
	prev := -1.0
	for z := 1.0; z <= 2.0; z += 0.05 {
		p := Progress(z)
		if p < prev {
			t.Fatalf("progress not monotonic at zoom %v: %v < %v", z, p, prev)
		}
		prev = p
	}
}

func TestVisibleWindowShrinksWithProgress(t *testing.T) {
	anns := []store.Annotation{highlightAt(1, 0.3, 0.1)}

	prevWindow := 2.0
	for z := 1.0; z <= 2.0; z += 0.1 {
		res := Compute(anns, z)
		pc := res.Pages[1]
		window := (1 - pc.BottomCrop) - pc.TopCrop
		if window > prevWindow+1e-12 {
			t.Fatalf("window grew at zoom %v: %v > %v", z, window, prevWindow)
		}
		prevWindow = window
	}

	full := Compute(anns, 2.0).Pages[1]
	if !near(full.TopCrop, 0.3) || !near(full.BottomCrop, 0.6) {
		t.Fatalf("full crop = (%v,%v), want (0.3,0.6)", full.TopCrop, full.BottomCrop)
	}
}

func TestGroupingMergesCloseRects(t *testing.T) {
	anns := []store.Annotation{
		highlightAt(1, 0.10, 0.05), // ends 0.15
		highlightAt(1, 0.16, 0.05), // gap 0.01 <= 0.02, merges
		highlightAt(1, 0.60, 0.05), // far, separate group
	}
	res := Compute(anns, 1.5)
	pc := res.Pages[1]
	if len(pc.Groups) != 2 {
		t.Fatalf("groups = %d, want 2: %+v", len(pc.Groups), pc.Groups)
	}
	if !near(pc.Groups[0].MinY, 0.10) || !near(pc.Groups[0].MaxY, 0.21) {
		t.Fatalf("merged group = %+v", pc.Groups[0])
	}
}

func TestSingleGroupHasNoMask(t *testing.T) {
	res := Compute([]store.Annotation{highlightAt(1, 0.4, 0.1)}, 1.8)
	if got := len(res.Pages[1].Mask); got != 0 {
		t.Fatalf("mask bands = %d, want 0 for single group", got)
	}
}

func TestMaskBandsGrowFromGapCenters(t *testing.T) {
	anns := []store.Annotation{
		highlightAt(1, 0.1, 0.1), // ends 0.2
		highlightAt(1, 0.6, 0.1), // gap [0.2, 0.6], center 0.4
	}

	half := Compute(anns, 1.5).Pages[1]
	if len(half.Mask) != 1 {
		t.Fatalf("mask bands = %d, want 1", len(half.Mask))
	}
	b := half.Mask[0]
	if !near(b.Start, 0.3) || !near(b.End, 0.5) {
		t.Fatalf("band at half progress = [%v,%v], want [0.3,0.5]", b.Start, b.End)
	}
	if !near(b.Alpha, 0.5) {
		t.Fatalf("alpha = %v, want 0.5", b.Alpha)
	}

	full := Compute(anns, 2.0).Pages[1].Mask[0]
	if !near(full.Start, 0.2) || !near(full.End, 0.6) || !near(full.Alpha, 0) {
		t.Fatalf("band at full progress = %+v", full)
	}
}

func TestLineAndStrokeContributions(t *testing.T) {
	anns := []store.Annotation{
		{
			Kind:       store.KindUnderline,
			PageNumber: 1,
			Lines:      []geo.Line{{X1: 0.1, Y1: 0.5, X2: 0.6, Y2: 0.5}},
		},
		{
			Kind:       store.KindFreehand,
			PageNumber: 2,
			Points:     []geo.Point{{X: 0.2, Y: 0.3}, {X: 0.4, Y: 0.45}},
		},
	}
	res := Compute(anns, 2.0)

	underline := res.Pages[1]
	if !near(underline.TopCrop, 0.5-lineHeightPad) {
		t.Fatalf("underline top crop = %v, want %v", underline.TopCrop, 0.5-lineHeightPad)
	}

	stroke := res.Pages[2]
	if !near(stroke.TopCrop, 0.3-strokePad) {
		t.Fatalf("stroke top crop = %v, want %v", stroke.TopCrop, 0.3-strokePad)
	}
}

func TestAverageProgress(t *testing.T) {
	anns := []store.Annotation{
		highlightAt(1, 0.2, 0.1),
		highlightAt(3, 0.5, 0.1),
	}
	res := Compute(anns, 1.6)
	if !near(res.AverageProgress, 0.6) {
		t.Fatalf("average progress = %v, want 0.6", res.AverageProgress)
	}
	if got := Compute(nil, 1.6).AverageProgress; got != 0 {
		t.Fatalf("average with no pages = %v, want 0", got)
	}
}

func near(a, b float64) bool {
	d := a - b
	return d < 1e-9 && d > -1e-9
}
