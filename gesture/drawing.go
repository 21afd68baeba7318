package gesture

import (
	"github.com/wudi/annokit/geo"
	"github.com/wudi/annokit/store"
)

// DrawingKind tags the in-progress gesture variant.
type DrawingKind string

const (
	DrawHighlight DrawingKind = "highlight"
	DrawClip      DrawingKind = "clip"
	DrawFreehand  DrawingKind = "freehand"
	DrawEraser    DrawingKind = "eraser"
)

// DrawingState is the ephemeral record of an uncommitted gesture. Tool
// parameters are copied in at pointer-down so mid-gesture panel changes do not
// retroactively alter the stroke; SyncBrush applies them explicitly instead.
type DrawingState struct {
	Kind       DrawingKind
	PageNumber int

	// Highlight/clip corners.
	Start geo.Point
	Last  geo.Point

	// Freehand accumulation.
	Points   []geo.Point
	Mode     store.FreehandMode
	Brush    BrushSettings
	pressure float64
}

// PreviewRect returns the live rectangle between the anchor corner and the
// current pointer for highlight/clip gestures.
func (d *DrawingState) PreviewRect() geo.Rect {
	return geo.RectFromCorners(d.Start, d.Last)
}

// SyncBrush applies a tool-panel change to the in-flight freehand stroke.
// Changes propagate only through this explicit call.
func (d *DrawingState) SyncBrush(b BrushSettings) {
	if d.Kind == DrawFreehand {
		d.Brush = b
	}
}

// strokeWidth resolves the final stroke width from the brush size and the
// latest pressure sample.
func (d *DrawingState) strokeWidth() float64 {
	if d.Brush.PressureEnabled {
		return d.Brush.Size * d.pressure
	}
	return d.Brush.Size
}
