package hittest

import (
	"testing"

	"github.com/wudi/annokit/geo"
	"github.com/wudi/annokit/store"
)

var overlay = geo.Size{Width: 800, Height: 1000}

func TestEraseHighlightScenario(t *testing.T) {
	s := store.New()
	s.AddAnnotation(store.Annotation{
		Kind:       store.KindHighlight,
		Subtype:    store.SubtypeArea,
		PageNumber: 1,
		Position:   &geo.Rect{X: 0.1, Y: 0.1, Width: 0.2, Height: 0.1},
	})
	e := New(s)

	id, ok := e.EraseAt(1, geo.Point{X: 0.2, Y: 0.15}, overlay)
	if !ok || id == "" {
		t.Fatalf("expected hit")
	}
	if got := len(s.Annotations()); got != 0 {
		t.Fatalf("annotations after erase = %d, want 0", got)
	}
}

func TestHighlightPadding(t *testing.T) {
	s := store.New()
	s.AddAnnotation(store.Annotation{
		Kind:       store.KindHighlight,
		PageNumber: 1,
		Rects:      []geo.Rect{{X: 0.3, Y: 0.3, Width: 0.1, Height: 0.02}},
	})
	e := New(s)

	// Just outside the rect but inside the 0.015 pad.
	if _, ok := e.HitAt(1, geo.Point{X: 0.29, Y: 0.3}, overlay); !ok {
		t.Fatalf("point inside pad should hit")
	}
	if _, ok := e.HitAt(1, geo.Point{X: 0.27, Y: 0.3}, overlay); ok {
		t.Fatalf("point outside pad should miss")
	}
}

func TestFreehandThresholdSymmetry(t *testing.T) {
	s := store.New()
	stroke := store.Annotation{
		Kind:        store.KindFreehand,
		PageNumber:  1,
		Points:      []geo.Point{{X: 0.1, Y: 0.5}, {X: 0.5, Y: 0.5}},
		StrokeWidth: 25.6,
	}
	s.AddAnnotation(stroke)
	e := New(s)

	threshold := FreehandThreshold(stroke.StrokeWidth, overlay)

	if _, ok := e.HitAt(1, geo.Point{X: 0.3, Y: 0.5 + threshold*0.9}, overlay); !ok {
		t.Fatalf("point within threshold %v should hit", threshold)
	}
	if _, ok := e.HitAt(1, geo.Point{X: 0.3, Y: 0.5 + threshold*1.1}, overlay); ok {
		t.Fatalf("point beyond threshold %v should miss", threshold)
	}
}

func TestFreehandThresholdFloor(t *testing.T) {
	// A hairline stroke still gets the minimum erasable hit box.
	if got := FreehandThreshold(0.5, overlay); got != 0.01 {
		t.Fatalf("threshold = %v, want floor 0.01", got)
	}
	// Missing overlay dimensions fall back to the floor instead of dividing
	// by zero.
	if got := FreehandThreshold(25.6, geo.Size{}); got != minThreshold {
		t.Fatalf("threshold without overlay = %v, want %v", got, minThreshold)
	}
}

func TestUnderlineHit(t *testing.T) {
	s := store.New()
	s.AddAnnotation(store.Annotation{
		Kind:       store.KindUnderline,
		PageNumber: 1,
		Lines:      []geo.Line{{X1: 0.1, Y1: 0.4, X2: 0.6, Y2: 0.4}},
	})
	e := New(s)

	if _, ok := e.HitAt(1, geo.Point{X: 0.3, Y: 0.41}, overlay); !ok {
		t.Fatalf("point near line should hit")
	}
	if _, ok := e.HitAt(1, geo.Point{X: 0.3, Y: 0.6}, overlay); ok {
		t.Fatalf("distant point should miss")
	}
}

func TestOneRemovalPerCall(t *testing.T) {
	s := store.New()
	for i := 0; i < 2; i++ {
		s.AddAnnotation(store.Annotation{
			Kind:       store.KindHighlight,
			PageNumber: 1,
			Position:   &geo.Rect{X: 0.1, Y: 0.1, Width: 0.3, Height: 0.3},
		})
	}
	e := New(s)

	p := geo.Point{X: 0.2, Y: 0.2}
	if _, ok := e.EraseAt(1, p, overlay); !ok {
		t.Fatalf("first erase should hit")
	}
	if got := len(s.Annotations()); got != 1 {
		t.Fatalf("annotations after one call = %d, want 1 (one removal per dab)", got)
	}
	if _, ok := e.EraseAt(1, p, overlay); !ok {
		t.Fatalf("second erase should hit the remaining overlap")
	}
	if got := len(s.Annotations()); got != 0 {
		t.Fatalf("annotations = %d, want 0", got)
	}
}

func TestCommentsNeverErased(t *testing.T) {
	s := store.New()
	s.AddAnnotation(store.Annotation{
		Kind:       store.KindComment,
		PageNumber: 1,
		Position:   &geo.Rect{X: 0.5, Y: 0.5},
		Content:    "keep me",
	})
	e := New(s)

	if _, ok := e.EraseAt(1, geo.Point{X: 0.5, Y: 0.5}, overlay); ok {
		t.Fatalf("comments must not be eraser targets")
	}
	if got := len(s.Annotations()); got != 1 {
		t.Fatalf("comment was removed")
	}
}

func TestWrongPageMisses(t *testing.T) {
	s := store.New()
	s.AddAnnotation(store.Annotation{
		Kind:       store.KindHighlight,
		PageNumber: 2,
		Position:   &geo.Rect{X: 0.1, Y: 0.1, Width: 0.3, Height: 0.3},
	})
	e := New(s)
	if _, ok := e.HitAt(1, geo.Point{X: 0.2, Y: 0.2}, overlay); ok {
		t.Fatalf("annotation on another page should not hit")
	}
}
