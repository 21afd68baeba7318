// Package hittest implements the eraser's geometric hit-testing against
// stored annotations. Tests never error; a miss is simply a no-match result.
package hittest

import (
	"math"

	"github.com/wudi/annokit/geo"
	"github.com/wudi/annokit/observability"
	"github.com/wudi/annokit/store"
)

const (
	// Padding around highlight rects so thin highlights stay erasable.
	highlightPad = 0.015

	// Floor for stroke thresholds in normalized units, matching the minimum
	// gesture size so anything drawable stays erasable.
	minThreshold = 0.01

	// Widens the freehand hit box relative to the visual stroke.
	freehandSlack = 1.4

	// Underline/strike strokes render at a nominal brush width; half of it
	// bounds the segment-distance test.
	nominalBrushWidth = 25.6
)

// Engine resolves which annotation, if any, sits under a normalized point.
type Engine struct {
	store  *store.Store
	logger observability.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger injects a logger.
func WithLogger(l observability.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// New builds a hit-test engine over st.
func New(st *store.Store, opts ...Option) *Engine {
	e := &Engine{store: st, logger: observability.NopLogger{}}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// EraseAt removes the first annotation on the page hit by p and returns its
// id. At most one entity is removed per call; painting continuously re-tests
// every move, so a stroke still clears everything under it one dab at a time.
// Comments are never eraser targets.
func (e *Engine) EraseAt(pageNumber int, p geo.Point, overlay geo.Size) (string, bool) {
	id, ok := e.HitAt(pageNumber, p, overlay)
	if !ok {
		return "", false
	}
	if !e.store.DeleteAnnotation(id) {
		return "", false
	}
	e.logger.Debug("eraser removed annotation",
		observability.String("id", id),
		observability.Int("page", pageNumber))
	return id, true
}

// HitAt reports the first annotation on the page hit by p without mutating
// the store.
func (e *Engine) HitAt(pageNumber int, p geo.Point, overlay geo.Size) (string, bool) {
	for _, a := range e.store.Annotations() {
		if a.PageNumber != pageNumber {
			continue
		}
		if hitAnnotation(a, p, overlay) {
			return a.ID, true
		}
	}
	return "", false
}

func hitAnnotation(a store.Annotation, p geo.Point, overlay geo.Size) bool {
	switch a.Kind {
	case store.KindHighlight:
		if a.Position != nil && a.Position.Inset(-highlightPad).Contains(p) {
			return true
		}
		for _, r := range a.Rects {
			if r.Inset(-highlightPad).Contains(p) {
				return true
			}
		}
	case store.KindUnderline, store.KindStrike:
		threshold := normalizedThreshold(nominalBrushWidth/2, overlay)
		for _, l := range a.Lines {
			if geo.DistanceSquaredPointToSegment(p, l.Start(), l.End()) <= threshold*threshold {
				return true
			}
		}
	case store.KindFreehand:
		return hitStroke(a, p, overlay)
	}
	// Comments are deleted via explicit UI actions, never by painting.
	return false
}

// FreehandThreshold converts a stroke's device-independent width into the
// normalized hit distance used for erasing, proportionate to the visual
// thickness at the current overlay size.
func FreehandThreshold(strokeWidth float64, overlay geo.Size) float64 {
	ref := overlay.Min()
	if ref <= 0 {
		return minThreshold
	}
	return math.Max(strokeWidth/ref*freehandSlack, minThreshold)
}

func normalizedThreshold(width float64, overlay geo.Size) float64 {
	ref := overlay.Min()
	if ref <= 0 {
		return minThreshold
	}
	return math.Max(width/ref, minThreshold)
}

func hitStroke(a store.Annotation, p geo.Point, overlay geo.Size) bool {
	if len(a.Points) < 2 {
		return false
	}
	threshold := FreehandThreshold(a.StrokeWidth, overlay)
	for i := 0; i < len(a.Points)-1; i++ {
		if geo.DistanceSquaredPointToSegment(p, a.Points[i], a.Points[i+1]) <= threshold*threshold {
			return true
		}
	}
	return false
}
